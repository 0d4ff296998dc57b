package models

import (
	"github.com/address-cleaner/internal/cleaner"
)

// Result status constants
const (
	StatusValid     = "valid"     // no changes were needed
	StatusCleaned   = "cleaned"   // fields were rewritten, see flags
	StatusUnchanged = "unchanged" // handed back as typed
)

// AddressResult is one cleaned input row.
type AddressResult struct {
	ID       string `bson:"id,omitempty" json:"id,omitempty"`
	Line1    string `bson:"line1" json:"line1"` // raw line 1
	Line2    string `bson:"line2" json:"line2"` // raw line 2
	Province string `bson:"province" json:"province"`

	Number       string `bson:"number" json:"number"`
	Street       string `bson:"street" json:"street"`
	Suffix       string `bson:"suffix" json:"suffix"`
	AltSuffix    string `bson:"alt_suffix,omitempty" json:"alt_suffix,omitempty"`
	Direction    string `bson:"direction" json:"direction"`
	SuffixNumber string `bson:"suffix_number,omitempty" json:"suffix_number,omitempty"`
	Extra        string `bson:"extra" json:"extra"`
	French       bool   `bson:"french" json:"french"`

	Output1 string `bson:"output_line1" json:"output_line1"`
	Output2 string `bson:"output_line2" json:"output_line2"`
	Note    string `bson:"note,omitempty" json:"note,omitempty"`

	Flags      map[string][]string `bson:"flags" json:"flags"`
	FlagString string              `bson:"flag_string" json:"flag_string"`
	Reason     string              `bson:"reason,omitempty" json:"reason,omitempty"`
	Status     string              `bson:"status" json:"status"`
	Tokens     []string            `bson:"tokens,omitempty" json:"tokens,omitempty"`

	RulesVersion string     `bson:"rules_version" json:"rules_version"`
	Reference    *Reference `bson:"reference,omitempty" json:"reference,omitempty"`
}

// Reference holds libpostal's reading of the raw line, for comparison only.
type Reference struct {
	HouseNumber string `bson:"house_number,omitempty" json:"house_number,omitempty"`
	Road        string `bson:"road,omitempty" json:"road,omitempty"`
	Unit        string `bson:"unit,omitempty" json:"unit,omitempty"`
	PoBox       string `bson:"po_box,omitempty" json:"po_box,omitempty"`
	City        string `bson:"city,omitempty" json:"city,omitempty"`
	State       string `bson:"state,omitempty" json:"state,omitempty"`
	Postcode    string `bson:"postcode,omitempty" json:"postcode,omitempty"`
}

// NewAddressResult flattens a cleaned address for storage and transport.
func NewAddressResult(r cleaner.Record, a *cleaner.Address, rulesVersion string) AddressResult {
	out1, out2, note := a.Output()
	res := AddressResult{
		ID:           r.ID,
		Line1:        r.Line1,
		Line2:        r.Line2,
		Province:     a.Province,
		Number:       a.Number,
		Street:       a.Street,
		Suffix:       a.Suffix,
		AltSuffix:    a.AltSuffix,
		Direction:    a.Direction,
		SuffixNumber: a.SuffixNumber,
		Extra:        a.Extra,
		French:       a.French,
		Output1:      out1,
		Output2:      out2,
		Note:         note,
		Flags:        a.Flags.Map(),
		FlagString:   a.Flags.String(),
		Reason:       a.Reason,
		Tokens:       append([]string(nil), a.Original...),
		RulesVersion: rulesVersion,
	}
	switch {
	case a.Unchanged():
		res.Status = StatusUnchanged
	case a.Flags.IsValid():
		res.Status = StatusValid
	default:
		res.Status = StatusCleaned
	}
	return res
}

// NeedsReview reports whether a person should look at the row: anything
// rewritten or handed back unchanged.
func (r *AddressResult) NeedsReview() bool {
	return r.Status != StatusValid
}
