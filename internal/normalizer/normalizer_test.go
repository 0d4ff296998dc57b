package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"Montée", "MONTEE"},
		{"rue de l'Église", "RUE DE L'EGLISE"},
		{"CÔTE-SAINT-LUC", "COTE-SAINT-LUC"},
		{"123 main st", "123 MAIN ST"},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, Fold(tc.input))
		})
	}
}

func TestStripDiacritics(t *testing.T) {
	assert.Equal(t, "2EME", StripDiacritics("2ÈME"))
	assert.Equal(t, "Montee", StripDiacritics("Montée"))
	assert.Equal(t, "MAIN", StripDiacritics("MAIN"))
}

func TestCleanCell(t *testing.T) {
	for _, s := range []string{"", "  ", "None", "NULL", "nan", "n/a"} {
		assert.Empty(t, CleanCell(s), s)
	}
	assert.Equal(t, "APT 4", CleanCell("  APT 4 "))
}

func TestCollapseSpaces(t *testing.T) {
	assert.Equal(t, "123 MAIN ST", CollapseSpaces("  123   MAIN\tST "))
}

func TestRecordKey(t *testing.T) {
	a := RecordKey(" 432 RUE  MONTREAL", "NULL", "qc")
	b := RecordKey("432 RUE MONTREAL", "", "QC")
	assert.Equal(t, a, b)
	assert.Equal(t, "432 RUE MONTREAL||QC", a)

	assert.NotEqual(t, a, RecordKey("432 rue montreal", "", "QC"))
	assert.NotEqual(t, a, RecordKey("432 RUE MONTRÉAL", "", "QC"))

	assert.NotEqual(t, a, RecordKey("432 RUE MONTREAL", "APT B", "QC"))
	assert.NotEqual(t, a, RecordKey("432 RUE MONTREAL", "", "ON"))
}
