package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"clinicbook/internal/models"

	"github.com/google/uuid"
)

const bookingColumns = `id, appointment_date, treatment, slot, email, patient, phone,
                 price, paid, transaction_id, created_at`

// CreateBooking inserts the booking in a single statement. The unique indexes
// on (date, treatment, email) and (date, treatment, slot) make the insert the
// conflict check: a violation comes back as ErrAlreadyBooked or ErrSlotTaken.
func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	now := time.Now().UTC()

	query := `INSERT INTO bookings (
				id, appointment_date, treatment, slot, email, patient, phone,
				price, paid, transaction_id, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, NULL, ?)`
	_, err := db.ExecContext(ctx, query,
		booking.ID,
		booking.AppointmentDate,
		booking.Treatment,
		booking.Slot,
		booking.Email,
		booking.Patient,
		booking.Phone,
		booking.Price,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", classify(err))
	}

	booking.Paid = false
	booking.TransactionID = ""
	booking.CreatedAt = now
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	booking, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get booking %s: %w", id, classify(err))
	}
	return booking, nil
}

// GetBookingsByDate returns every booking for an appointment date.
func (db *DB) GetBookingsByDate(ctx context.Context, date string) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE appointment_date = ? ORDER BY treatment, slot`
	return db.queryBookings(ctx, query, date)
}

// GetBookingsByEmail returns the bookings owned by email, newest date first.
func (db *DB) GetBookingsByEmail(ctx context.Context, email string) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE email = ? ORDER BY appointment_date DESC, created_at DESC`
	return db.queryBookings(ctx, query, email)
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...any) ([]*models.Booking, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", classify(err))
	}
	defer rows.Close()

	bookings := make([]*models.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return bookings, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var b models.Booking
	var txID sql.NullString
	err := row.Scan(
		&b.ID, &b.AppointmentDate, &b.Treatment, &b.Slot, &b.Email, &b.Patient, &b.Phone,
		&b.Price, &b.Paid, &txID, &b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.TransactionID = txID.String
	return &b, nil
}
