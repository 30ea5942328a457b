package export

import (
	"fmt"
	"io"
	"time"

	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/model"
	"github.com/xuri/excelize/v2"
)

const (
	SheetName   = "Appointments"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var Columns = []string{"Appointment", "Date", "Time", "Timezone", "Customer", "Service", "Price", "Duration (min)", "Status", "Booked at"}

// WriteXLSX renders appts as a single-sheet workbook, one row per appointment
// in the order given.
func WriteXLSX(w io.Writer, appts []model.Appointment) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}
	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return err
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		last, _ := excelize.CoordinatesToCellName(len(Columns), 1)
		_ = f.SetCellStyle(SheetName, "A1", last, style)
	}

	for i, a := range appts {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			a.ID,
			a.Date,
			a.Time,
			a.Timezone,
			customer(a),
			a.ServiceName,
			a.ServicePrice,
			a.DurationMinutes(),
			string(a.Status),
			a.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	return f.Write(w)
}

func customer(a model.Appointment) string {
	if a.CustomerName != "" {
		return a.CustomerName
	}
	return a.CustomerID
}
