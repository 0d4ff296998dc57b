// Package workbook reads address rows from and writes cleaned rows to
// Excel workbooks.
package workbook

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/address-cleaner/internal/cleaner"
	"github.com/xuri/excelize/v2"
)

const (
	ColumnID       = "Unique ID"
	ColumnLine1    = "AddressLine1"
	ColumnLine2    = "AddressLine2"
	ColumnProvince = "Province"
)

var ErrMissingColumn = errors.New("missing column")

// ReadRecords loads every row below the header of sheet. An empty sheet
// name reads the first sheet. AddressLine1, AddressLine2 and Province must
// all be present in row 1; Unique ID is optional and defaults to the row
// number.
func ReadRecords(path, sheet string) ([]cleaner.Record, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("worksheet %q does not exist", sheet)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: sheet %q is empty", ErrMissingColumn, sheet)
	}

	cols, err := findColumns(rows[0])
	if err != nil {
		return nil, err
	}

	records := make([]cleaner.Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rec := cleaner.Record{
			ID:       cell(row, cols.id),
			Line1:    cell(row, cols.line1),
			Line2:    cell(row, cols.line2),
			Province: cell(row, cols.province),
		}
		if rec.ID == "" {
			rec.ID = strconv.Itoa(i + 2)
		}
		records = append(records, rec)
	}
	return records, nil
}

type columnIndices struct {
	id, line1, line2, province int
}

func findColumns(header []string) (columnIndices, error) {
	cols := columnIndices{id: -1, line1: -1, line2: -1, province: -1}
	for i, h := range header {
		switch strings.TrimSpace(h) {
		case ColumnID:
			cols.id = i
		case ColumnLine1:
			cols.line1 = i
		case ColumnLine2:
			cols.line2 = i
		case ColumnProvince:
			cols.province = i
		}
	}

	var missing []string
	if cols.line1 < 0 {
		missing = append(missing, ColumnLine1)
	}
	if cols.line2 < 0 {
		missing = append(missing, ColumnLine2)
	}
	if cols.province < 0 {
		missing = append(missing, ColumnProvince)
	}
	if len(missing) > 0 {
		return cols, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return cols, nil
}

// GetRows drops trailing empty cells, so short rows are common.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
