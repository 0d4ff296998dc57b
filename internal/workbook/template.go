package workbook

import (
	"fmt"
	"unicode/utf8"

	"github.com/address-cleaner/internal/cleaner"
	"github.com/xuri/excelize/v2"
)

var templateHeaders = []interface{}{ColumnID, ColumnLine1, ColumnLine2, ColumnProvince}

var aboutLines = []string{
	"Address Cleaner",
	"Fill the Template sheet (or a copy of Blank Template) with one address per row.",
	"AddressLine1 holds the civic address, AddressLine2 any unit, box or delivery information.",
	"Province is the two-letter code; QC rows are read as French.",
	"Rows that cannot be cleaned are written back unchanged with the note \"" + cleaner.InvalidNote + "\".",
}

// WriteTemplate writes an input template with an About sheet, a filled-in
// Template and a Blank Template.
func WriteTemplate(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(defaultSheet, "About"); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	for _, name := range []string{"Template", "Blank Template"} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	styles, err := newTemplateStyles(f)
	if err != nil {
		return err
	}

	for i, line := range aboutLines {
		if err := f.SetCellValue("About", fmt.Sprintf("A%d", i+1), line); err != nil {
			return fmt.Errorf("write about: %w", err)
		}
	}
	if err := f.SetCellStyle("About", "A1", "A1", styles.header); err != nil {
		return fmt.Errorf("style about: %w", err)
	}

	for _, sheet := range []string{"Template", "Blank Template"} {
		if err := f.SetSheetRow(sheet, "A1", &templateHeaders); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		if err := f.SetCellStyle(sheet, "A1", "D1", styles.header); err != nil {
			return fmt.Errorf("style header: %w", err)
		}
	}

	cells := []struct {
		cell  string
		value string
		style int
	}{
		{"B2", "Main Address (North America only)", styles.note},
		{"C2", "External Information", styles.note},
		{"D2", "Helps determine whether Address is FR or EN", styles.note},
		{"B3", "123 SAMPLE STREET", 0},
		{"C3", "PO BOX 23", 0},
		{"D3", "ON", 0},
		{"B4", "432 RUE MONTREAL", 0},
		{"C4", "APT B", 0},
		{"D4", "QC", 0},
		{"B5", "CP 30", 0},
		{"D5", "QC", 0},
		{"B8", "Exceptions (must be fixed manually or left alone)", styles.exception},
		{"B9", "GPS Coordinates", 0},
		{"B10", "Directions to location", 0},
	}
	for _, c := range cells {
		if err := f.SetCellValue("Template", c.cell, c.value); err != nil {
			return fmt.Errorf("write %s: %w", c.cell, err)
		}
		if c.style != 0 {
			if err := f.SetCellStyle("Template", c.cell, c.cell, c.style); err != nil {
				return fmt.Errorf("style %s: %w", c.cell, err)
			}
		}
	}

	for _, sheet := range []string{"About", "Template", "Blank Template"} {
		if err := fitColumns(f, sheet); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save template: %w", err)
	}
	return nil
}

type templateStyles struct {
	header, note, exception int
}

func newTemplateStyles(f *excelize.File) (templateStyles, error) {
	var s templateStyles
	var err error
	s.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FFFF00"}, Pattern: 1},
	})
	if err != nil {
		return s, fmt.Errorf("create header style: %w", err)
	}
	s.note, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Italic: true, Size: 11}})
	if err != nil {
		return s, fmt.Errorf("create note style: %w", err)
	}
	s.exception, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Italic: true, Size: 11}})
	if err != nil {
		return s, fmt.Errorf("create exception style: %w", err)
	}
	return s, nil
}

// fitColumns widens each column to its longest value plus a margin.
func fitColumns(f *excelize.File, sheet string) error {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("read %s: %w", sheet, err)
	}
	widths := map[int]int{}
	for _, row := range rows {
		for i, v := range row {
			if n := utf8.RuneCountInString(v); n > widths[i] {
				widths[i] = n
			}
		}
	}
	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, float64(w+5)); err != nil {
			return fmt.Errorf("set %s width: %w", sheet, err)
		}
	}
	return nil
}
