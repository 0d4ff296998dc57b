// Package external wraps libpostal as an independent reference parser.
// Without cgo the package reports itself unavailable.
package external

import (
	"strings"

	"github.com/address-cleaner/app/models"
)

// Component is one labelled span of a parsed line.
type Component struct {
	Label string
	Value string
}

func languages(french bool) []string {
	if french {
		return []string{"fr", "en"}
	}
	return []string{"en", "fr"}
}

// toReference keeps the first value seen per label.
func toReference(comps []Component) *models.Reference {
	ref := &models.Reference{}
	for _, c := range comps {
		v := strings.ToUpper(strings.TrimSpace(c.Value))
		var dst *string
		switch c.Label {
		case "house_number":
			dst = &ref.HouseNumber
		case "road":
			dst = &ref.Road
		case "unit", "level":
			dst = &ref.Unit
		case "po_box":
			dst = &ref.PoBox
		case "city":
			dst = &ref.City
		case "state":
			dst = &ref.State
		case "postcode":
			dst = &ref.Postcode
		default:
			continue
		}
		if *dst == "" {
			*dst = v
		}
	}
	if *ref == (models.Reference{}) {
		return nil
	}
	return ref
}
