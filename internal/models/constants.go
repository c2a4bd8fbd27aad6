package models

const RoleAdmin = "admin"

const (
	// DateLayout is the wire and storage format of appointment dates.
	DateLayout = "2006-01-02"

	// DefaultTokenTTL lifetime of an issued access token
	DefaultTokenTTL = 10 * 60 * 60 // 10 hours in seconds

	// DefaultStoreTimeout upper bound for a single store round trip, seconds
	DefaultStoreTimeout = 5

	// DefaultGatewayTimeout upper bound for a payment gateway call, seconds
	DefaultGatewayTimeout = 10

	// PaymentLockTTL how long a per-booking payment lock is held at most
	PaymentLockTTL = 30 // seconds
)
