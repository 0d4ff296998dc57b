package workbook

import (
	"path/filepath"
	"testing"

	"github.com/address-cleaner/internal/cleaner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeInput(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.xlsx")

	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cellName, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, f.SetSheetRow("Sheet1", cellName, &row))
	}
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestReadRecords(t *testing.T) {
	path := writeInput(t, [][]interface{}{
		{"Province", "Unique ID", "AddressLine1", "AddressLine2"},
		{"ON", "A-1", "123 MAIN STREET", "PO BOX 23"},
		{"QC", "", " 432 RUE MONTREAL ", ""},
	})

	records, err := ReadRecords(path, "")
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, cleaner.Record{ID: "A-1", Line1: "123 MAIN STREET", Line2: "PO BOX 23", Province: "ON"}, records[0])
	assert.Equal(t, cleaner.Record{ID: "3", Line1: "432 RUE MONTREAL", Province: "QC"}, records[1])
}

func TestReadRecords_MissingColumn(t *testing.T) {
	path := writeInput(t, [][]interface{}{
		{"AddressLine1", "Province"},
		{"123 MAIN STREET", "ON"},
	})

	_, err := ReadRecords(path, "Sheet1")
	assert.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), ColumnLine2)
}

func TestReadRecords_UnknownSheet(t *testing.T) {
	path := writeInput(t, [][]interface{}{{"AddressLine1", "AddressLine2", "Province"}})

	_, err := ReadRecords(path, "Nope")
	assert.Error(t, err)

	_, err = ReadRecords(filepath.Join(t.TempDir(), "missing.xlsx"), "")
	assert.Error(t, err)
}

func cleanAll(t *testing.T, records []cleaner.Record) []*cleaner.Address {
	t.Helper()
	c := cleaner.NewCleaner(cleaner.MustDefaultRules(), cleaner.DefaultThresholds(), nil)
	out := make([]*cleaner.Address, 0, len(records))
	for _, r := range records {
		out = append(out, c.CleanRecord(r))
	}
	return out
}

func TestWriteCleaned(t *testing.T) {
	addresses := cleanAll(t, []cleaner.Record{
		{Line1: "123 MAIN STREET", Province: "ON"},
		{Line1: "5 KM N OF TOWN", Province: "ON"},
	})
	path := filepath.Join(t.TempDir(), "out.xlsx")

	written, err := WriteCleaned(path, addresses, false)
	require.NoError(t, err)
	assert.Equal(t, path, written)

	f, err := excelize.OpenFile(written)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{FlagsSheet}, f.GetSheetList())
	rows, err := f.GetRows(FlagsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{ColumnLine1, ColumnLine2, ColumnFlags}, rows[0])
	assert.Equal(t, "123 MAIN ST", rows[1][0])
	assert.Len(t, rows[1], 1)
	assert.Equal(t, []string{"5 KM N OF TOWN", "", cleaner.InvalidNote}, rows[2])

	width, err := f.GetColWidth(FlagsSheet, "B")
	require.NoError(t, err)
	assert.Equal(t, 40.0, width)
	width, err = f.GetColWidth(FlagsSheet, "C")
	require.NoError(t, err)
	assert.Equal(t, 30.0, width)
}

func TestWriteCleaned_Debug(t *testing.T) {
	addresses := cleanAll(t, []cleaner.Record{{Line1: "123 MAIN STREET", Province: "ON"}})

	written, err := WriteCleaned(filepath.Join(t.TempDir(), "debug.xlsx"), addresses, true)
	require.NoError(t, err)

	f, err := excelize.OpenFile(written)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(FlagsSheet)
	require.NoError(t, err)
	require.Len(t, rows[1], 4)
	assert.Equal(t, addresses[0].Flags.String(), rows[1][2])
	assert.Contains(t, rows[1][3], "MAIN")
}

func TestWriteCleaned_NeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.xlsx")

	first, err := WriteCleaned(path, nil, false)
	require.NoError(t, err)
	second, err := WriteCleaned(path, nil, false)
	require.NoError(t, err)
	third, err := WriteCleaned(path, nil, false)
	require.NoError(t, err)

	assert.Equal(t, path, first)
	assert.Equal(t, filepath.Join(dir, "out - Copy.xlsx"), second)
	assert.Equal(t, filepath.Join(dir, "out - Copy - Copy.xlsx"), third)
}

func TestWriteTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "AddressTemplate.xlsx")
	require.NoError(t, WriteTemplate(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"About", "Template", "Blank Template"}, f.GetSheetList())

	blank, err := f.GetRows("Blank Template")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{ColumnID, ColumnLine1, ColumnLine2, ColumnProvince}}, blank)

	v, err := f.GetCellValue("Template", "B4")
	require.NoError(t, err)
	assert.Equal(t, "432 RUE MONTREAL", v)

	width, err := f.GetColWidth("Template", "B")
	require.NoError(t, err)
	assert.Greater(t, width, float64(len("432 RUE MONTREAL")))

	// The filled template is itself a readable input.
	records, err := ReadRecords(path, "Template")
	require.NoError(t, err)
	assert.Equal(t, cleaner.Record{ID: "3", Line1: "123 SAMPLE STREET", Line2: "PO BOX 23", Province: "ON"}, records[1])
	assert.Equal(t, cleaner.Record{ID: "5", Line1: "CP 30", Province: "QC"}, records[3])
}
