// Package export writes a digitized data frame to CSV and XLSX, with an
// optional metadata sheet built from attrs. CSV uses the standard library;
// XLSX uses github.com/xuri/excelize/v2.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/stratidigit/straditize/internal/frame"
)

// WriteCSV writes f as CSV: one header row of column names (colN for
// columns beyond columnNames), one data row per frame row, NaN cells
// emitted as empty fields.
func WriteCSV(w io.Writer, f *frame.Frame, columnNames []string) error {
	cw := csv.NewWriter(w)
	header := make([]string, f.Cols)
	for c := 0; c < f.Cols; c++ {
		if c < len(columnNames) {
			header[c] = columnNames[c]
		} else {
			header[c] = fmt.Sprintf("col%d", c)
		}
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("export: writing csv header: %w", err)
	}
	for r := 0; r < f.Rows; r++ {
		row := make([]string, f.Cols)
		for c := 0; c < f.Cols; c++ {
			v := f.Values[c][r]
			if v != v { // NaN
				row[c] = ""
			} else {
				row[c] = strconv.FormatFloat(v, 'g', -1, 64)
			}
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("export: writing csv row %d: %w", r, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes f to path as an XLSX workbook, with a "data" sheet
// holding the frame and an optional "attrs" sheet holding metadata
// key/value pairs.
func WriteXLSX(path string, f *frame.Frame, columnNames []string, attrs map[string]string) error {
	xf := excelize.NewFile()
	const sheet = "data"
	idx, err := xf.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("export: creating sheet: %w", err)
	}
	xf.SetActiveSheet(idx)
	xf.DeleteSheet("Sheet1")

	for c := 0; c < f.Cols; c++ {
		name := fmt.Sprintf("col%d", c)
		if c < len(columnNames) {
			name = columnNames[c]
		}
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		if err := xf.SetCellValue(sheet, cell, name); err != nil {
			return fmt.Errorf("export: writing header cell: %w", err)
		}
	}
	for r := 0; r < f.Rows; r++ {
		for c := 0; c < f.Cols; c++ {
			v := f.Values[c][r]
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if v == v { // skip NaN, leave cell blank
				if err := xf.SetCellValue(sheet, cell, v); err != nil {
					return fmt.Errorf("export: writing data cell: %w", err)
				}
			}
		}
	}

	if len(attrs) > 0 {
		if _, err := xf.NewSheet("attrs"); err != nil {
			return fmt.Errorf("export: creating attrs sheet: %w", err)
		}
		keys := make([]string, 0, len(attrs))
		for k := range attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for i, k := range keys {
			xf.SetCellValue("attrs", fmt.Sprintf("A%d", i+1), k)
			xf.SetCellValue("attrs", fmt.Sprintf("B%d", i+1), attrs[k])
		}
	}

	if err := xf.SaveAs(path); err != nil {
		return fmt.Errorf("export: saving %s: %w", path, err)
	}
	return nil
}
