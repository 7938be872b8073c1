// Package export renders the business registry as a spreadsheet.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"metrologi/internal/pelakuusaha/models"
)

const (
	SheetName   = "Pelaku Usaha"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Columns is the header row of the export.
var Columns = []string{"Nama", "Lapak", "Lokasi", "Dagangan", "UTTP", "Status", "Tahun"}

// Row returns the export cells for one business. Tahun is empty when no
// calibration year is known.
func Row(p models.PelakuUsaha) []any {
	var tahun any = ""
	if y := p.LastCalibrationYear(); y > 0 {
		tahun = y
	}
	return []any{
		p.OwnerName,
		string(p.StallKind),
		p.Location,
		p.Goods,
		p.UTTPCount(),
		string(p.Status),
		tahun,
	}
}

// WriteXLSX writes items as a single-sheet workbook to w.
func WriteXLSX(w io.Writer, items []models.PelakuUsaha) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(Columns))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A1", lastCol+"1", bold); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}

	for i, p := range items {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := Row(p)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := f.SetColWidth(SheetName, "A", "D", 24); err != nil {
		return fmt.Errorf("column width: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
