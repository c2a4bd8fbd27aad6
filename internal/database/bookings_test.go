package database

import (
	"context"
	"testing"

	"clinicbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBooking(date, treatment, slot, email string) *models.Booking {
	return &models.Booking{
		AppointmentDate: date,
		Treatment:       treatment,
		Slot:            slot,
		Email:           email,
		Patient:         "Jane Doe",
		Phone:           "555-0100",
		Price:           40,
	}
}

func TestCreateBooking(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	b := newBooking("2024-05-01", "Cleaning", "9am", "a@x.com")
	require.NoError(t, db.CreateBooking(ctx, b))
	assert.NotEmpty(t, b.ID)
	assert.False(t, b.Paid)
	assert.False(t, b.CreatedAt.IsZero())

	got, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
	assert.Equal(t, "2024-05-01", got.AppointmentDate)
	assert.Equal(t, "Cleaning", got.Treatment)
	assert.Equal(t, "9am", got.Slot)
	assert.Equal(t, "Jane Doe", got.Patient)
	assert.Equal(t, 40.0, got.Price)
	assert.False(t, got.Paid)
	assert.Empty(t, got.TransactionID)
}

func TestCreateBooking_DuplicateOwner(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	require.NoError(t, db.CreateBooking(ctx, newBooking("2024-05-01", "Cleaning", "9am", "a@x.com")))

	err := db.CreateBooking(ctx, newBooking("2024-05-01", "Cleaning", "10am", "a@x.com"))
	assert.ErrorIs(t, err, ErrAlreadyBooked)

	// Same client, other date or other treatment is fine.
	assert.NoError(t, db.CreateBooking(ctx, newBooking("2024-05-02", "Cleaning", "10am", "a@x.com")))
	assert.NoError(t, db.CreateBooking(ctx, newBooking("2024-05-01", "Teeth Orthodontics", "9am", "a@x.com")))
}

func TestCreateBooking_SlotTaken(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	require.NoError(t, db.CreateBooking(ctx, newBooking("2024-05-01", "Cleaning", "9am", "a@x.com")))

	err := db.CreateBooking(ctx, newBooking("2024-05-01", "Cleaning", "9am", "b@x.com"))
	assert.ErrorIs(t, err, ErrSlotTaken)

	bookings, err := db.GetBookingsByDate(ctx, "2024-05-01")
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
}

func TestGetBooking_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	_, err := db.GetBooking(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetBookingsByDate(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	require.NoError(t, db.CreateBooking(ctx, newBooking("2024-05-01", "Cleaning", "9am", "a@x.com")))
	require.NoError(t, db.CreateBooking(ctx, newBooking("2024-05-01", "Cleaning", "10am", "b@x.com")))
	require.NoError(t, db.CreateBooking(ctx, newBooking("2024-05-02", "Cleaning", "9am", "c@x.com")))

	bookings, err := db.GetBookingsByDate(ctx, "2024-05-01")
	require.NoError(t, err)
	require.Len(t, bookings, 2)
	for _, b := range bookings {
		assert.Equal(t, "2024-05-01", b.AppointmentDate)
	}

	none, err := db.GetBookingsByDate(ctx, "2030-01-01")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestGetBookingsByEmail(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	require.NoError(t, db.CreateBooking(ctx, newBooking("2024-05-01", "Cleaning", "9am", "a@x.com")))
	require.NoError(t, db.CreateBooking(ctx, newBooking("2024-05-03", "Cleaning", "9am", "a@x.com")))
	require.NoError(t, db.CreateBooking(ctx, newBooking("2024-05-01", "Cleaning", "10am", "b@x.com")))

	bookings, err := db.GetBookingsByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.Len(t, bookings, 2)
	assert.Equal(t, "2024-05-03", bookings[0].AppointmentDate)
	assert.Equal(t, "2024-05-01", bookings[1].AppointmentDate)
}
