package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyBooked = errors.New("client already has a booking for this treatment on this date")
	ErrSlotTaken     = errors.New("slot already booked")
	ErrAlreadyPaid   = errors.New("booking already paid")
	ErrDuplicate     = errors.New("duplicate record")
	// ErrUnavailable marks a store timeout or lock contention; the whole
	// request may be retried by the caller.
	ErrUnavailable = errors.New("store unavailable")
)

// classify maps driver errors onto the package sentinels. Errors it does not
// recognise are returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	var se sqlite3.Error
	if errors.As(err, &se) {
		switch se.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		case sqlite3.ErrConstraint:
			if se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
				return uniqueViolation(se)
			}
		}
	}
	return err
}

func uniqueViolation(se sqlite3.Error) error {
	msg := se.Error()
	switch {
	case strings.Contains(msg, "bookings.email"):
		return ErrAlreadyBooked
	case strings.Contains(msg, "bookings.slot"):
		return ErrSlotTaken
	case strings.Contains(msg, "payments.booking_id"):
		return ErrAlreadyPaid
	default:
		return fmt.Errorf("%w: %s", ErrDuplicate, msg)
	}
}
