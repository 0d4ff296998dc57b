package workbook

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/address-cleaner/internal/cleaner"
	"github.com/xuri/excelize/v2"
)

const (
	FlagsSheet   = "Flags"
	ColumnFlags  = "Flags for Program"
	copySuffix   = " - Copy"
	defaultSheet = "Sheet1"
)

// WriteCleaned writes one row per address to sheet Flags and returns the
// path actually written. An existing file is never replaced: " - Copy" is
// appended to the name until it is free. With debug set, the flag string
// and the cleaned tokens follow each valid row.
func WriteCleaned(path string, addresses []*cleaner.Address, debug bool) (string, error) {
	target, err := freePath(path)
	if err != nil {
		return "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(defaultSheet, FlagsSheet); err != nil {
		return "", fmt.Errorf("create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
	})
	if err != nil {
		return "", fmt.Errorf("create style: %w", err)
	}

	headers := []interface{}{ColumnLine1, ColumnLine2, ColumnFlags}
	if err := f.SetSheetRow(FlagsSheet, "A1", &headers); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}
	if err := f.SetCellStyle(FlagsSheet, "A1", "C1", headerStyle); err != nil {
		return "", fmt.Errorf("style header: %w", err)
	}

	for i, a := range addresses {
		cellName, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(FlagsSheet, cellName, outputRow(a, debug)); err != nil {
			return "", fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(FlagsSheet, "A", "B", 40); err != nil {
		return "", fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetColWidth(FlagsSheet, "C", "D", 30); err != nil {
		return "", fmt.Errorf("set column width: %w", err)
	}

	if err := f.SaveAs(target); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}
	return target, nil
}

func outputRow(a *cleaner.Address, debug bool) *[]interface{} {
	line1, line2, note := a.Output()
	row := []interface{}{line1, line2}
	switch {
	case note != "":
		row = append(row, note)
	case debug:
		row = append(row, a.Flags.String(), strings.Join(a.Original, " "))
	}
	return &row
}

func freePath(path string) (string, error) {
	base := strings.TrimSuffix(path, ".xlsx")
	for {
		candidate := base + ".xlsx"
		_, err := os.Stat(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("check output path: %w", err)
		}
		base += copySuffix
	}
}
