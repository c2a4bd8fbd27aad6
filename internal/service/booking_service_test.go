package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"clinicbook/internal/events"
	"clinicbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func cleaningRequest(email, slot string) models.BookingRequest {
	return models.BookingRequest{
		AppointmentDate: "2024-01-05",
		Treatment:       "Cleaning",
		Slot:            slot,
		Email:           email,
		Patient:         "Jane",
		Phone:           "555-0100",
		Price:           1,
	}
}

func TestCreateBooking(t *testing.T) {
	db := setupTestDB(t)
	bus := events.NewEventBus()
	var published events.BookingEventPayload
	bus.Subscribe(events.EventBookingCreated, func(e *events.Event) error {
		return e.Decode(&published)
	})

	svc := NewBookingService(db, db, bus, testTimeout, &testLogger)
	ctx := context.Background()

	res, err := svc.CreateBooking(ctx, cleaningRequest("a@x.com", "9am"))
	require.NoError(t, err)
	assert.True(t, res.Acknowledged)
	require.NotEmpty(t, res.InsertedID)

	stored, err := db.GetBooking(ctx, res.InsertedID)
	require.NoError(t, err)
	assert.Equal(t, "9am", stored.Slot)
	assert.Equal(t, 40.0, stored.Price, "price comes from the catalog")
	assert.False(t, stored.Paid)

	assert.Equal(t, res.InsertedID, published.BookingID)
	assert.Equal(t, "Cleaning", published.Treatment)
}

func TestCreateBooking_Duplicate(t *testing.T) {
	db := setupTestDB(t)
	svc := NewBookingService(db, db, nil, testTimeout, &testLogger)
	ctx := context.Background()

	first, err := svc.CreateBooking(ctx, cleaningRequest("a@x.com", "9am"))
	require.NoError(t, err)
	require.True(t, first.Acknowledged)

	second, err := svc.CreateBooking(ctx, cleaningRequest("a@x.com", "10am"))
	require.NoError(t, err)
	assert.False(t, second.Acknowledged)
	assert.Empty(t, second.InsertedID)
	assert.Equal(t, "You already have a booking on 2024-01-05", second.Message)

	bookings, err := db.GetBookingsByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
}

func TestCreateBooking_SlotTaken(t *testing.T) {
	db := setupTestDB(t)
	svc := NewBookingService(db, db, nil, testTimeout, &testLogger)
	ctx := context.Background()

	_, err := svc.CreateBooking(ctx, cleaningRequest("a@x.com", "9am"))
	require.NoError(t, err)

	res, err := svc.CreateBooking(ctx, cleaningRequest("b@x.com", "9am"))
	require.NoError(t, err)
	assert.False(t, res.Acknowledged)
	assert.Equal(t, "9am is no longer available for Cleaning on 2024-01-05", res.Message)
}

func TestCreateBooking_Concurrent(t *testing.T) {
	db := setupTestDB(t)
	svc := NewBookingService(db, db, nil, testTimeout, &testLogger)
	ctx := context.Background()

	const n = 12
	results := make([]*models.BookingResult, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.CreateBooking(ctx, cleaningRequest(fmt.Sprintf("user%d@x.com", i), "10am"))
		}(i)
	}
	wg.Wait()

	acknowledged := 0
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		if results[i].Acknowledged {
			acknowledged++
		} else {
			assert.Contains(t, results[i].Message, "no longer available")
		}
	}
	assert.Equal(t, 1, acknowledged)

	availability, err := NewAvailabilityService(db, db, testTimeout).ListAvailability(ctx, "2024-01-05")
	require.NoError(t, err)
	assert.Equal(t, []string{"9am"}, availability[0].Slots)
}

func TestCreateBooking_Invalid(t *testing.T) {
	db := setupTestDB(t)
	svc := NewBookingService(db, db, nil, testTimeout, &testLogger)

	tests := []struct {
		name   string
		mutate func(r *models.BookingRequest)
	}{
		{"bad date", func(r *models.BookingRequest) { r.AppointmentDate = "Jan 5, 2024" }},
		{"missing email", func(r *models.BookingRequest) { r.Email = " " }},
		{"missing treatment", func(r *models.BookingRequest) { r.Treatment = "" }},
		{"unknown treatment", func(r *models.BookingRequest) { r.Treatment = "Surgery" }},
		{"slot of another treatment", func(r *models.BookingRequest) { r.Slot = "08.00 AM - 08.30 AM" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := cleaningRequest("a@x.com", "9am")
			tt.mutate(&req)
			_, err := svc.CreateBooking(context.Background(), req)
			assert.Equal(t, KindInvalid, KindOf(err))
		})
	}
}

func TestGetBookingsForOwner(t *testing.T) {
	db := setupTestDB(t)
	svc := NewBookingService(db, db, nil, testTimeout, &testLogger)
	ctx := context.Background()

	_, err := svc.CreateBooking(ctx, cleaningRequest("a@x.com", "9am"))
	require.NoError(t, err)
	_, err = svc.CreateBooking(ctx, cleaningRequest("b@x.com", "10am"))
	require.NoError(t, err)

	bookings, err := svc.GetBookingsForOwner(ctx, "a@x.com", &Identity{Email: "a@x.com"})
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, "a@x.com", bookings[0].Email)
}

func TestGetBookingsForOwner_EmailMatchIsExact(t *testing.T) {
	db := setupTestDB(t)
	svc := NewBookingService(db, db, nil, testTimeout, &testLogger)
	ctx := context.Background()

	_, err := svc.CreateBooking(ctx, cleaningRequest("Alice@x.com", "9am"))
	require.NoError(t, err)

	_, err = svc.GetBookingsForOwner(ctx, "Alice@x.com", &Identity{Email: "alice@x.com"})
	assert.Equal(t, KindForbidden, KindOf(err))

	bookings, err := svc.GetBookingsForOwner(ctx, "Alice@x.com", &Identity{Email: "Alice@x.com"})
	require.NoError(t, err)
	require.Len(t, bookings, 1)
}

func TestGetBookingsForOwner_ForbiddenBeforeStore(t *testing.T) {
	db := setupTestDB(t)
	store := new(mockBookingStore)
	svc := NewBookingService(db, store, nil, testTimeout, &testLogger)

	_, err := svc.GetBookingsForOwner(context.Background(), "a@x.com", &Identity{Email: "b@x.com"})
	assert.Equal(t, KindForbidden, KindOf(err))

	_, err = svc.GetBookingsForOwner(context.Background(), "a@x.com", nil)
	assert.Equal(t, KindUnauthorized, KindOf(err))

	store.AssertNotCalled(t, "GetBookingsByEmail", mock.Anything, mock.Anything)
}

func TestGetBookingByID(t *testing.T) {
	db := setupTestDB(t)
	svc := NewBookingService(db, db, nil, testTimeout, &testLogger)
	ctx := context.Background()

	res, err := svc.CreateBooking(ctx, cleaningRequest("a@x.com", "9am"))
	require.NoError(t, err)

	b, err := svc.GetBookingByID(ctx, res.InsertedID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", b.Email)

	_, err = svc.GetBookingByID(ctx, "missing")
	assert.Equal(t, KindNotFound, KindOf(err))

	_, err = svc.GetBookingByID(ctx, "")
	assert.Equal(t, KindInvalid, KindOf(err))
}

func TestGetBookingsForDate(t *testing.T) {
	db := setupTestDB(t)
	svc := NewBookingService(db, db, nil, testTimeout, &testLogger)
	ctx := context.Background()

	_, err := svc.CreateBooking(ctx, cleaningRequest("a@x.com", "9am"))
	require.NoError(t, err)

	bookings, err := svc.GetBookingsForDate(ctx, "2024-01-05")
	require.NoError(t, err)
	assert.Len(t, bookings, 1)

	_, err = svc.GetBookingsForDate(ctx, "tomorrow")
	assert.Equal(t, KindInvalid, KindOf(err))
}

func TestCreateBooking_StoreUnavailable(t *testing.T) {
	db := setupTestDB(t)
	store := new(mockBookingStore)
	store.On("CreateBooking", mock.Anything, mock.Anything).Return(errUnavailable())
	svc := NewBookingService(db, store, nil, testTimeout, &testLogger)

	_, err := svc.CreateBooking(context.Background(), cleaningRequest("a@x.com", "9am"))
	assert.Equal(t, KindTransientStore, KindOf(err))
	store.AssertExpectations(t)
}

func TestExportBookings(t *testing.T) {
	db := setupTestDB(t)
	svc := NewBookingService(db, db, nil, testTimeout, &testLogger)
	ctx := context.Background()

	_, err := svc.CreateBooking(ctx, cleaningRequest("a@x.com", "9am"))
	require.NoError(t, err)

	data, err := svc.ExportBookings(ctx, "2024-01-05")
	require.NoError(t, err)
	// XLSX files are zip archives.
	assert.Equal(t, []byte("PK"), data[:2])

	_, err = svc.ExportBookings(ctx, "bad")
	assert.Equal(t, KindInvalid, KindOf(err))
}
