package cleaner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize_Rejects(t *testing.T) {
	testCases := []struct {
		name   string
		raw    string
		reason string
	}{
		{name: "single token", raw: "MAIN", reason: ReasonTooShort},
		{name: "empty cell", raw: "NULL", reason: ReasonTooShort},
		{name: "junction keyword", raw: "JUNCTION HWY 7", reason: ReasonJunction},
		{name: "slash between streets", raw: "BAY ST/BLOOR ST", reason: ReasonJunction},
		{name: "ampersand between streets", raw: "KING & QUEEN", reason: ReasonJunction},
		{name: "corner of", raw: "CORNER OF MAIN AND KING", reason: ReasonJunction},
		{name: "distance and direction", raw: "5 KM N OF TOWN", reason: ReasonDirections},
		{name: "gps style", raw: "NE 12 34", reason: ReasonGPS},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a := Tokenize(tc.raw, "ON")
			assert.True(t, a.Invalid())
			assert.Equal(t, tc.reason, a.Reason)
			assert.True(t, a.Flags.Has(CategoryAddress, TagInvalid))
		})
	}
}

func TestTokenize_KeepsRawTokensWhenInvalid(t *testing.T) {
	a := Tokenize("5 km n of town", "ON")
	assert.Equal(t, []string{"5", "km", "n", "of", "town"}, a.Original)
}

func TestTokenize_Splits(t *testing.T) {
	testCases := []struct {
		name  string
		raw   string
		want  []string
		extra string
	}{
		{name: "comma glued words", raw: "12 MAIN ST,SUITE 5", want: []string{"12", "MAIN", "ST", "SUITE", "5"}},
		{name: "trailing comma kept", raw: "12 MAIN STREET, APT 5", want: []string{"12", "MAIN", "STREET,", "APT", "5"}},
		{name: "range at start not split", raw: "123-125 MAIN ST", want: []string{"123-125", "MAIN", "ST"}},
		{name: "unit and number", raw: "MAIN ST 5-12", want: []string{"MAIN", "ST", "5", "12"}},
		{name: "lone hyphen dropped", raw: "12 MAIN ST - UNIT 5", want: []string{"12", "MAIN", "ST", "UNIT", "5"}},
		{name: "brackets to extra", raw: "12 MAIN ST (REAR)", want: []string{"12", "MAIN", "ST"}, extra: "(REAR)"},
		{name: "multi token brackets", raw: "12 (BACK DOOR) MAIN ST", want: []string{"12", "MAIN", "ST"}, extra: "(BACK DOOR)"},
		{name: "leading symbol dropped", raw: "# 12 MAIN ST", want: []string{"12", "MAIN", "ST"}},
		{name: "stray symbol attached", raw: "12 MAIN ST #", want: []string{"12", "MAIN", "ST#"}},
		{name: "dotted abbreviation kept", raw: "P.O. BOX 12", want: []string{"P.O.", "BOX", "12"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a := Tokenize(tc.raw, "ON")
			assert.False(t, a.Invalid())
			assert.Equal(t, tc.want, a.Original)
			assert.Equal(t, tc.extra, a.Extra)
		})
	}
}

func TestTokenize_UpperCase(t *testing.T) {
	a := Tokenize("123 main st", "on")
	assert.Equal(t, []string{"123", "MAIN", "ST"}, a.Original)
	assert.Equal(t, "ON", a.Province)
	assert.True(t, a.Flags.Has(CategoryStreet, TagFormat))
	assert.False(t, a.French)

	a = Tokenize("432 RUE MONTREAL", "qc")
	assert.True(t, a.French)
	assert.False(t, a.Flags.Has(CategoryStreet, TagFormat))
}

func TestTokenize_FarmRoute(t *testing.T) {
	a := Tokenize("FERME PHYSIQUE 12", "QC")
	assert.True(t, a.Passthrough)
	assert.False(t, a.Invalid())
	assert.Equal(t, "FERME PHYSIQUE 12", a.Street)
}

func TestTokenize_KnownFalsePositives(t *testing.T) {
	for _, raw := range KnownFalsePositives {
		a := Tokenize(raw, "QC")
		assert.True(t, a.Invalid(), raw)
		assert.Equal(t, ReasonJunction, a.Reason, raw)
	}
}
