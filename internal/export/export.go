package export

import (
	"bytes"
	"fmt"

	"clinicbook/internal/models"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Bookings"

var headers = []string{"Treatment", "Slot", "Patient", "Email", "Phone", "Price", "Paid", "Transaction"}

// BookingsWorkbook renders one row per catalog slot for date, filled in
// where a booking holds the slot. Bookings for slots no longer in the catalog
// are appended after their treatment's rows.
func BookingsWorkbook(date string, options []models.AppointmentOption, bookings []*models.Booking) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Bookings for %s", date))
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	_ = f.MergeCell(sheetName, "A1", lastCol+"1")
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	if err := writeHeaders(f); err != nil {
		return nil, err
	}

	bySlot := make(map[string]map[string]*models.Booking)
	for _, b := range bookings {
		if bySlot[b.Treatment] == nil {
			bySlot[b.Treatment] = make(map[string]*models.Booking)
		}
		bySlot[b.Treatment][b.Slot] = b
	}

	bookedStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FCE4D6"}, Pattern: 1},
	})
	paidStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#C6EFCE"}, Pattern: 1},
	})

	row := 3
	writeRow := func(treatment, slot string, b *models.Booking) error {
		values := []any{treatment, slot}
		if b != nil {
			values = []any{treatment, slot, b.Patient, b.Email, b.Phone, b.Price, yesNo(b.Paid), b.TransactionID}
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("error writing row %d: %w", row, err)
		}
		if b != nil {
			style := bookedStyle
			if b.Paid {
				style = paidStyle
			}
			end, _ := excelize.CoordinatesToCellName(len(headers), row)
			_ = f.SetCellStyle(sheetName, cell, end, style)
		}
		row++
		return nil
	}

	seen := make(map[string]bool)
	for _, opt := range options {
		seen[opt.Name] = true
		for _, slot := range opt.Slots {
			b := bySlot[opt.Name][slot]
			delete(bySlot[opt.Name], slot)
			if err := writeRow(opt.Name, slot, b); err != nil {
				return nil, err
			}
		}
		for slot, b := range bySlot[opt.Name] {
			if err := writeRow(opt.Name, slot, b); err != nil {
				return nil, err
			}
		}
	}
	for _, b := range bookings {
		if !seen[b.Treatment] {
			if err := writeRow(b.Treatment, b.Slot, b); err != nil {
				return nil, err
			}
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 25)
	_ = f.SetColWidth(sheetName, "B", lastCol, 18)
	_ = f.DeleteSheet("Sheet1")

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("error writing workbook: %w", err)
	}
	return bytes.Clone(buf.Bytes()), nil
}

func writeHeaders(f *excelize.File) error {
	style, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return fmt.Errorf("error writing header: %w", err)
		}
		_ = f.SetCellStyle(sheetName, cell, cell, style)
	}
	return nil
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
