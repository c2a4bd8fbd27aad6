package domain

import (
	"context"
	"errors"
	"time"

	"clinicbook/internal/models"
)

// ErrLockHeld is returned by a Locker when another holder owns the key.
var ErrLockHeld = errors.New("lock held by another request")

type CatalogStore interface {
	GetAppointmentOptions(ctx context.Context) ([]models.AppointmentOption, error)
	GetAppointmentOption(ctx context.Context, name string) (*models.AppointmentOption, error)
}

type BookingStore interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	GetBookingsByDate(ctx context.Context, date string) ([]*models.Booking, error)
	GetBookingsByEmail(ctx context.Context, email string) ([]*models.Booking, error)
}

type PaymentStore interface {
	RecordPayment(ctx context.Context, payment *models.Payment) (int64, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]*models.User, error)
	SetUserRole(ctx context.Context, id, role string) (int64, error)
}

type DoctorStore interface {
	CreateDoctor(ctx context.Context, doctor *models.Doctor) error
	GetDoctors(ctx context.Context) ([]*models.Doctor, error)
	DeleteDoctor(ctx context.Context, id string) (int64, error)
}

// Repository is the full transactional store.
type Repository interface {
	CatalogStore
	BookingStore
	PaymentStore
	UserStore
	DoctorStore
	PingContext(ctx context.Context) error
}

// PaymentGateway authorizes a charge and returns the opaque client secret.
type PaymentGateway interface {
	CreatePaymentIntent(ctx context.Context, amountCents int64, currency string) (string, error)
}

// Locker serializes work on a key across processes. Acquire never blocks
// waiting for the holder; it fails fast with ErrLockHeld.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Release(ctx context.Context, key, token string) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}
