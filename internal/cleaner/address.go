package cleaner

import "strings"

// InvalidNote is written next to rows that are passed through unchanged.
const InvalidNote = "Invalid, Thus Unchanged"

// Reject reasons recorded on INVALID addresses.
const (
	ReasonTooShort   = "too_short"
	ReasonJunction   = "junction"
	ReasonDirections = "directions"
	ReasonEmpty      = "empty"
	ReasonGPS        = "gps"
)

// Address is one cleaned address line.
type Address struct {
	// Original holds the raw tokens until tokenization succeeds, then the
	// cleaned token sequence used for scoring and display.
	Original []string

	Province     string
	Number       string
	Street       string
	Suffix       string
	AltSuffix    string
	Direction    string
	SuffixNumber string
	Extra        string

	French   bool
	Ordinal  bool
	External bool

	// SuffixAsStreet marks that the only street-type word was promoted to
	// the street name during assignment.
	SuffixAsStreet bool
	// Passthrough marks farm-route designations kept verbatim.
	Passthrough bool
	// Reason explains an INVALID rejection.
	Reason string

	Flags Flag
}

func newAddress(tokens []string, province string) *Address {
	return &Address{Original: tokens, Province: province}
}

// Invalid reports whether the tokenizer rejected the line.
func (a *Address) Invalid() bool {
	return a.Flags.Has(CategoryAddress, TagInvalid)
}

func (a *Address) reject(reason string) *Address {
	a.Reason = reason
	a.Flags.Add(CategoryAddress, TagInvalid)
	return a
}

// Unchanged reports whether the row must be handed back as typed.
func (a *Address) Unchanged() bool {
	return a.Invalid() || (a.Flags.Has(CategoryNumber, TagUndefined) &&
		a.Flags.Has(CategoryStreet, TagUndefined) &&
		a.Flags.Has(CategorySuffix, TagUndefined))
}

// String renders the cleaned civic address line.
func (a *Address) String() string {
	street := strings.TrimRight(strings.TrimSpace(a.Street), "-")
	var parts []string
	if a.French && !a.Ordinal {
		parts = []string{a.Number, strings.TrimSpace(a.Suffix), street, a.SuffixNumber, a.Direction}
	} else {
		parts = []string{a.Number, street, a.Suffix, a.Direction, a.SuffixNumber}
	}
	joined := strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
	return strings.TrimRight(joined, ",")
}

// Output returns the two output address lines and an optional note.
func (a *Address) Output() (line1, line2, note string) {
	if a.Unchanged() {
		return strings.Join(a.Original, " "), a.Extra, InvalidNote
	}
	return a.String(), a.Extra, ""
}
