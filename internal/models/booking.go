package models

import "time"

type Booking struct {
	ID              string    `json:"_id"`
	AppointmentDate string    `json:"appointmentDate"`
	Treatment       string    `json:"treatment"`
	Slot            string    `json:"slot"`
	Email           string    `json:"email"`
	Patient         string    `json:"patient,omitempty"`
	Phone           string    `json:"phone,omitempty"`
	Price           float64   `json:"price"`
	Paid            bool      `json:"paid"`
	TransactionID   string    `json:"transactionId,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// BookingResult is the outcome of a booking request. A duplicate request is a
// normal outcome with Acknowledged=false and a human readable Message.
type BookingResult struct {
	Acknowledged bool   `json:"acknowledged"`
	InsertedID   string `json:"insertedId,omitempty"`
	Message      string `json:"message,omitempty"`
}

// BookingRequest is the client's booking form. Price is accepted for wire
// compatibility; the stored price always comes from the catalog.
type BookingRequest struct {
	AppointmentDate string  `json:"appointmentDate"`
	Treatment       string  `json:"treatment"`
	Slot            string  `json:"slot"`
	Email           string  `json:"email"`
	Patient         string  `json:"patient"`
	Phone           string  `json:"phone"`
	Price           float64 `json:"price"`
}
