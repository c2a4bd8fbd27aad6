package database

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"clinicbook/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	logger := zerolog.New(io.Discard)
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	return db
}

func testCatalog() []models.AppointmentOption {
	return []models.AppointmentOption{
		{Name: "Teeth Orthodontics", Price: 120, Slots: []string{"08.00 AM - 08.30 AM", "09.00 AM - 09.30 AM"}},
		{Name: "Cleaning", Price: 40, Slots: []string{"9am", "10am"}},
	}
}

func seedCatalog(t *testing.T, db *DB) {
	require.NoError(t, db.SyncAppointmentOptions(context.Background(), testCatalog()))
}

func TestNewDB_DirectoryCreation(t *testing.T) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "nested", "dir", "test.db")
	logger := zerolog.Nop()

	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	defer db.Close()

	assert.FileExists(t, dbPath)
}

func TestNewDB_NilLogger(t *testing.T) {
	db, err := NewDB(":memory:", nil)
	require.NoError(t, err)
	defer db.Close()

	assert.NotNil(t, db.logger)
}

func TestNewDB_Error(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "db_err")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	logger := zerolog.New(io.Discard)
	_, err = NewDB(tmpDir, &logger)
	assert.Error(t, err)
}

func TestNewDB_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reopen.db")
	logger := zerolog.Nop()

	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	require.NoError(t, db.CreateBooking(context.Background(), &models.Booking{
		AppointmentDate: "2024-05-01", Treatment: "Cleaning", Slot: "9am", Email: "a@x.com",
	}))
	require.NoError(t, db.Close())

	db, err = NewDB(dbPath, &logger)
	require.NoError(t, err)
	defer db.Close()

	bookings, err := db.GetBookingsByDate(context.Background(), "2024-05-01")
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
}

func TestDB_Ping(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	err := db.PingContext(context.Background())
	assert.NoError(t, err)
}

func TestSyncAppointmentOptions(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	seedCatalog(t, db)

	options, err := db.GetAppointmentOptions(ctx)
	require.NoError(t, err)
	require.Len(t, options, 2)
	assert.Equal(t, "Teeth Orthodontics", options[0].Name)
	assert.Equal(t, "Cleaning", options[1].Name)
	assert.Equal(t, []string{"9am", "10am"}, options[1].Slots)
	assert.Equal(t, 40.0, options[1].Price)

	// Replacing the catalog drops options that are no longer listed.
	err = db.SyncAppointmentOptions(ctx, []models.AppointmentOption{{Name: "Cleaning", Price: 50, Slots: []string{"9am"}}})
	require.NoError(t, err)

	options, err = db.GetAppointmentOptions(ctx)
	require.NoError(t, err)
	require.Len(t, options, 1)
	assert.Equal(t, 50.0, options[0].Price)
}

func TestGetAppointmentOptions_CacheMiss(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	_, err := db.ExecContext(ctx,
		`INSERT INTO appointment_options (name, price, slots, sort_order) VALUES ('Whitening', 80, '["1pm","2pm"]', 0)`)
	require.NoError(t, err)

	// First read hits the table and fills the cache.
	options, err := db.GetAppointmentOptions(ctx)
	require.NoError(t, err)
	require.Len(t, options, 1)
	assert.Equal(t, []string{"1pm", "2pm"}, options[0].Slots)

	// Callers get copies; mutating one must not leak into the cache.
	options[0].Slots[0] = "changed"
	again, err := db.GetAppointmentOptions(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1pm", again[0].Slots[0])
}

func TestGetAppointmentOption(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()
	seedCatalog(t, db)

	opt, err := db.GetAppointmentOption(ctx, "Cleaning")
	require.NoError(t, err)
	assert.True(t, opt.HasSlot("10am"))

	_, err = db.GetAppointmentOption(ctx, "Surgery")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetAppointmentOptions_Empty(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	options, err := db.GetAppointmentOptions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, options)
}
