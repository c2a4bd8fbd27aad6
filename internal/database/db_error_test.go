package database

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"clinicbook/internal/models"

	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDB_ErrorPaths(t *testing.T) {
	logger := zerolog.New(io.Discard)
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	db.Close() // Close the DB to trigger errors

	ctx := context.Background()

	t.Run("CreateBooking_Error", func(t *testing.T) {
		err := db.CreateBooking(ctx, &models.Booking{})
		assert.Error(t, err)
	})

	t.Run("GetBookingsByDate_Error", func(t *testing.T) {
		_, err := db.GetBookingsByDate(ctx, "2024-05-01")
		assert.Error(t, err)
	})

	t.Run("SyncAppointmentOptions_Error", func(t *testing.T) {
		err := db.SyncAppointmentOptions(ctx, testCatalog())
		assert.Error(t, err)
	})

	t.Run("GetAppointmentOptions_Error", func(t *testing.T) {
		_, err := db.GetAppointmentOptions(ctx)
		assert.Error(t, err)
	})

	t.Run("RecordPayment_Error", func(t *testing.T) {
		_, err := db.RecordPayment(ctx, &models.Payment{BookingID: "x"})
		assert.Error(t, err)
	})

	t.Run("CreateUser_Error", func(t *testing.T) {
		err := db.CreateUser(ctx, &models.User{Email: "a@x.com"})
		assert.Error(t, err)
	})

	t.Run("GetDoctors_Error", func(t *testing.T) {
		_, err := db.GetDoctors(ctx)
		assert.Error(t, err)
	})
}

func TestDB_ExpiredContext(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	_, err := db.GetBookingsByDate(ctx, "2024-05-01")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClassify(t *testing.T) {
	assert.Nil(t, classify(nil))
	assert.ErrorIs(t, classify(context.DeadlineExceeded), ErrUnavailable)
	assert.ErrorIs(t, classify(sqlite3.Error{Code: sqlite3.ErrBusy}), ErrUnavailable)

	other := errors.New("boom")
	assert.Equal(t, other, classify(other))
}
