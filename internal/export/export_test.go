package export

import (
	"bytes"
	"testing"

	"clinicbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestBookingsWorkbook(t *testing.T) {
	options := []models.AppointmentOption{
		{Name: "Cleaning", Price: 40, Slots: []string{"9am", "10am"}},
	}
	bookings := []*models.Booking{
		{ID: "b-1", AppointmentDate: "2024-01-05", Treatment: "Cleaning", Slot: "9am", Email: "a@x.com", Patient: "Ann", Price: 40, Paid: true, TransactionID: "pi_1"},
		{ID: "b-2", AppointmentDate: "2024-01-05", Treatment: "Retired", Slot: "1pm", Email: "b@x.com", Price: 10},
	}

	data, err := BookingsWorkbook("2024-01-05", options, bookings)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetName}, f.GetSheetList())

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 5)

	assert.Equal(t, "Bookings for 2024-01-05", rows[0][0])
	assert.Equal(t, headers, rows[1])

	assert.Equal(t, "Cleaning", rows[2][0])
	assert.Equal(t, "9am", rows[2][1])
	assert.Equal(t, "Ann", rows[2][2])
	assert.Equal(t, "yes", rows[2][6])
	assert.Equal(t, "pi_1", rows[2][7])

	// Free slot: only treatment and slot are filled.
	assert.Equal(t, []string{"Cleaning", "10am"}, rows[3])

	assert.Equal(t, "Retired", rows[4][0])
	assert.Equal(t, "b@x.com", rows[4][3])
}

func TestBookingsWorkbook_Empty(t *testing.T) {
	data, err := BookingsWorkbook("2024-01-05", nil, nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}
