//go:build cgo

package external

import (
	"github.com/address-cleaner/app/models"
	"github.com/openvenues/gopostal/expand"
	"github.com/openvenues/gopostal/parser"
)

// Available reports whether libpostal is linked in.
func Available() bool { return true }

// Reference parses raw with libpostal after expanding abbreviations.
func Reference(raw string, french bool) *models.Reference {
	opts := expand.GetDefaultExpansionOptions()
	opts.Languages = languages(french)
	best := raw
	if exps := expand.ExpandAddressOptions(raw, opts); len(exps) > 0 {
		best = exps[0]
	}

	parsed := parser.ParseAddressOptions(best, parser.ParserOptions{Country: "ca", Language: opts.Languages[0]})
	comps := make([]Component, 0, len(parsed))
	for _, c := range parsed {
		comps = append(comps, Component{Label: c.Label, Value: c.Value})
	}
	return toReference(comps)
}
