// Package export renders booking lists as spreadsheets for the admin.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/iliyamo/slot-booking/internal/model"
)

const sheet = "Bookings"

var header = []interface{}{"ID", "Date", "Slot", "Time", "Name", "Phone", "Email", "Address", "Notes", "Status"}

// WriteBookings writes an XLSX workbook with one row per booking to w.
func WriteBookings(w io.Writer, bookings []model.Booking, catalog model.Catalog) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, b := range bookings {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{b.ID, b.Date, b.Slot, catalog.Label(b.Slot), b.Name, b.Phone, b.Email, b.Address, b.Notes, string(b.Status)}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("row %d: %w", i+2, err)
		}
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		_ = f.SetRowStyle(sheet, 1, 1, style)
	}
	_ = f.SetColWidth(sheet, "B", "B", 12)
	_ = f.SetColWidth(sheet, "D", "D", 20)
	_ = f.SetColWidth(sheet, "E", "I", 24)
	_ = f.SetPanes(sheet, &excelize.Panes{Freeze: true, Split: false, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	return f.Write(w)
}
