package service

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"clinicbook/internal/database"
	"clinicbook/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testSecret  = "test-secret"
	testTimeout = 5 * time.Second
)

var testLogger = zerolog.New(io.Discard)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.NewDB(":memory:", &testLogger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	err = db.SyncAppointmentOptions(context.Background(), []models.AppointmentOption{
		{Name: "Cleaning", Price: 40, Slots: []string{"9am", "10am"}},
		{Name: "Teeth Orthodontics", Price: 120.5, Slots: []string{"08.00 AM - 08.30 AM"}},
	})
	require.NoError(t, err)
	return db
}

func seedUser(t *testing.T, db *database.DB, email, role string) *models.User {
	t.Helper()
	u := &models.User{Email: email, Role: role}
	require.NoError(t, db.CreateUser(context.Background(), u))
	return u
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreatePaymentIntent(ctx context.Context, amountCents int64, currency string) (string, error) {
	args := m.Called(ctx, amountCents, currency)
	return args.String(0), args.Error(1)
}

// mockBookingStore fails the test on any unexpected call.
type mockBookingStore struct {
	mock.Mock
}

func (m *mockBookingStore) CreateBooking(ctx context.Context, b *models.Booking) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockBookingStore) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *mockBookingStore) GetBookingsByDate(ctx context.Context, date string) ([]*models.Booking, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}

func (m *mockBookingStore) GetBookingsByEmail(ctx context.Context, email string) ([]*models.Booking, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}

var mockAnyCtx = mock.Anything

func errUnavailable() error {
	return fmt.Errorf("%w: %w", database.ErrUnavailable, context.DeadlineExceeded)
}
