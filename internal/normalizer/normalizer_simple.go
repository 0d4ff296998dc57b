package normalizer

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var reSpaces = regexp.MustCompile(`\s+`)

// placeholders are spreadsheet values that mean "no value".
var placeholders = map[string]bool{"NONE": true, "NULL": true, "NAN": true, "N/A": true}

// Fold transliterates s to upper-case ASCII ("Montée" -> "MONTEE").
func Fold(s string) string {
	return strings.ToUpper(unidecode.Unidecode(s))
}

// StripDiacritics drops combining marks but keeps case: "2ÈME" -> "2EME".
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// CleanCell trims a cell value and maps placeholder values to "".
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if placeholders[strings.ToUpper(s)] {
		return ""
	}
	return s
}

// CollapseSpaces trims s and joins whitespace runs with a single space.
func CollapseSpaces(s string) string {
	return reSpaces.ReplaceAllString(strings.TrimSpace(s), " ")
}

// RecordKey builds the cache key of one input record. Only spacing and
// placeholder cells are normalized; case and accents change the cleaned
// flags and are kept.
func RecordKey(line1, line2, province string) string {
	parts := []string{
		CollapseSpaces(CleanCell(line1)),
		CollapseSpaces(CleanCell(line2)),
		strings.ToUpper(strings.TrimSpace(province)),
	}
	return strings.Join(parts, "|")
}
