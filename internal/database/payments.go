package database

import (
	"context"
	"fmt"
	"time"

	"clinicbook/internal/models"

	"github.com/google/uuid"
)

// RecordPayment marks the booking paid and appends the payment record in one
// transaction. Nothing is written unless both steps succeed.
//
// The paid=0 guard makes the update a compare-and-swap: a second payment for
// the same booking changes no rows and yields ErrAlreadyPaid.
func (db *DB) RecordPayment(ctx context.Context, payment *models.Payment) (int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", classify(err))
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx,
		`UPDATE bookings SET paid = 1, transaction_id = ? WHERE id = ? AND paid = 0`,
		payment.TransactionID, payment.BookingID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark booking paid: %w", classify(err))
	}
	modified, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", classify(err))
	}

	if modified == 0 {
		var exists bool
		err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM bookings WHERE id = ?)`, payment.BookingID).Scan(&exists)
		if err != nil {
			return 0, fmt.Errorf("failed to check booking: %w", classify(err))
		}
		if !exists {
			return 0, fmt.Errorf("booking %s: %w", payment.BookingID, ErrNotFound)
		}
		return 0, fmt.Errorf("booking %s: %w", payment.BookingID, ErrAlreadyPaid)
	}

	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO payments (id, booking_id, transaction_id, amount, email, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		payment.ID, payment.BookingID, payment.TransactionID, payment.Amount, payment.Email, now)
	if err != nil {
		return 0, fmt.Errorf("failed to insert payment: %w", classify(err))
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit payment: %w", classify(err))
	}
	payment.CreatedAt = now

	return modified, nil
}

// GetPaymentsByBooking lists payments recorded against a booking.
func (db *DB) GetPaymentsByBooking(ctx context.Context, bookingID string) ([]*models.Payment, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, booking_id, transaction_id, amount, email, created_at
         FROM payments WHERE booking_id = ? ORDER BY created_at`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payments: %w", classify(err))
	}
	defer rows.Close()

	payments := make([]*models.Payment, 0)
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.ID, &p.BookingID, &p.TransactionID, &p.Amount, &p.Email, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return payments, nil
}
