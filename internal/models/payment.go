package models

import "time"

type Payment struct {
	ID            string    `json:"_id"`
	BookingID     string    `json:"bookingId"`
	TransactionID string    `json:"transactionId"`
	Amount        float64   `json:"amount"`
	Email         string    `json:"email,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

type PaymentResult struct {
	Acknowledged  bool   `json:"acknowledged"`
	ModifiedCount int64  `json:"modifiedCount"`
	PaymentID     string `json:"paymentId"`
}

type PaymentIntent struct {
	ClientSecret string `json:"clientSecret"`
}

// PaymentIntentRequest asks for an authorization of Price, or of the stored
// price of BookingID when it is set.
type PaymentIntentRequest struct {
	Price     float64 `json:"price"`
	BookingID string  `json:"bookingId,omitempty"`
}

type PaymentRequest struct {
	BookingID     string  `json:"bookingId"`
	TransactionID string  `json:"transactionId"`
	Amount        float64 `json:"amount"`
}
