package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clinicbook/internal/database"
	"clinicbook/internal/domain"
)

// Kind classifies a failure for the transport layer.
type Kind string

const (
	KindInvalid        Kind = "Invalid"
	KindUnauthorized   Kind = "Unauthorized"
	KindForbidden      Kind = "Forbidden"
	KindNotFound       Kind = "NotFound"
	KindConflict       Kind = "Conflict"
	KindGateway        Kind = "GatewayError"
	KindTransientStore Kind = "TransientStoreError"
	KindInternal       Kind = "Internal"
)

// Error is the failure type returned by every service operation. Message is
// safe to show to callers; Err is kept for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func invalid(format string, args ...any) *Error {
	return newError(KindInvalid, fmt.Sprintf(format, args...), nil)
}

// KindOf reports the Kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

// MessageOf returns the caller-facing message of err.
func MessageOf(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Message
	}
	return "internal error"
}

// storeError maps database and lock failures onto service kinds.
func storeError(err error, what string) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	switch {
	case errors.Is(err, database.ErrNotFound):
		return newError(KindNotFound, what+" not found", err)
	case errors.Is(err, database.ErrAlreadyPaid):
		return newError(KindConflict, what+" is already paid", err)
	case errors.Is(err, database.ErrDuplicate), errors.Is(err, database.ErrAlreadyBooked), errors.Is(err, database.ErrSlotTaken):
		return newError(KindConflict, what+" already exists", err)
	case errors.Is(err, domain.ErrLockHeld):
		return newError(KindConflict, what+" is being processed by another request", err)
	case errors.Is(err, database.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return newError(KindTransientStore, "store unavailable, retry the request", err)
	default:
		return newError(KindInternal, "internal error", err)
	}
}

// withTimeout bounds a store call; a non-positive timeout leaves ctx as is.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
