package cleaner

import (
	"strings"
	"unicode"

	"github.com/address-cleaner/internal/normalizer"
)

const streetSymbols = ",.!#$%^&*()[]<>/~;=_+–"

// Validator normalizes assigned fields and records what it changed in
// the address flags. Validating an already validated address adds no
// flags and changes no fields.
type Validator struct {
	rules *RuleSet
	th    Thresholds
}

func NewValidator(rules *RuleSet, th Thresholds) *Validator {
	return &Validator{rules: rules, th: th.WithDefaults()}
}

// isPOBox checks the fields where a PO box designation may have landed.
func (a *Address) isPOBox() bool {
	return IsPOBox(a.Extra) || IsPOBox(a.Street) ||
		(a.Street == "" && IsPOBox(a.Extra+" "+a.Number))
}

// Validate normalizes every field of a.
func (v *Validator) Validate(a *Address) {
	po := a.isPOBox()
	v.number(a, po)
	v.direction(a)
	v.street(a, po)
	v.suffix(a, po)
	v.ValidateExtra(a)
}

func (v *Validator) number(a *Address, po bool) {
	if n := removeSymbols(a.Number); n != a.Number {
		a.Flags.Add(CategoryNumber, TagSym)
		a.Number = n
	}
	a.Number = strings.Trim(strings.TrimSpace(a.Number), "-")
	if a.Number == "" && !po {
		a.Flags.Add(CategoryNumber, TagUndefined)
	}
}

var directionAbbrev = []struct{ long, short string }{
	{"NORTH", "N"}, {"NORD", "N"}, {"SOUTH", "S"}, {"SUD", "S"},
	{"WEST", "W"}, {"OUEST", "O"}, {"EAST", "E"}, {"EST", "E"},
}

func (v *Validator) direction(a *Address) {
	d := a.Direction
	if d == "" {
		return
	}
	if hasLower(d) {
		a.Flags.Add(CategoryDirection, TagFormat)
		d = strings.ToUpper(d)
	}
	if strings.Contains(d, ".") || alnumOnly(d) != d {
		a.Flags.Add(CategoryDirection, TagSym)
		d = alnumOnly(d)
	}
	if isDirectionWord(d) {
		a.Flags.Add(CategoryDirection, TagLen)
		for _, ab := range directionAbbrev {
			d = strings.ReplaceAll(d, ab.long, ab.short)
		}
	}
	a.Direction = lettersOnly(d)
}

func (v *Validator) street(a *Address, po bool) {
	street := a.Street
	if i := strings.Index(street, "||"); i >= 0 {
		if left, right := street[:i], street[i+2:]; left == right {
			street = left
		} else {
			street = right
		}
	}
	if hasLower(street) {
		a.Flags.Add(CategoryStreet, TagFormat)
		street = strings.ToUpper(street)
	}

	words := strings.Fields(street)
	for i, w := range words {
		if w == "ST." || w == "STE." {
			continue
		}
		if strings.ContainsAny(w, streetSymbols) {
			a.Flags.Add(CategoryStreet, TagSym)
			words[i] = removeSymbols(w)
		}
	}
	if len(words) >= 2 || (len(words) == 1 && strings.Contains(words[0], "-")) {
		for i, w := range words {
			if saint, ok := saintForm(w); ok {
				a.Flags.Add(CategoryStreet, TagSaint)
				words[i] = saint
			}
		}
	}
	street = strings.Join(strings.Fields(strings.Join(words, " ")), " ")

	if po {
		if a.External {
			a.Flags.Add(CategoryStreet, TagExcess)
		} else if street == "" && strings.Contains(a.Extra, ".") {
			a.Flags.Add(CategoryStreet, TagSym)
			a.Extra = normalizer.CollapseSpaces(removeSymbols(a.Extra))
		}
	}
	if street == "" && !po {
		a.Flags.Add(CategoryStreet, TagUndefined)
	}

	fields := strings.Fields(street)
	for i, w := range fields {
		switch w {
		case "HIGHWAY", "HIWAY":
			fields[i] = "HWY"
		case "RTE":
			fields[i] = "ROUTE"
		}
	}
	a.Street = strings.Trim(strings.Join(fields, " "), "-")
}

// saintForm rewrites SAINT, ST, SAINTE and STE, alone or as the first part
// of a hyphenated name, to "ST." and "STE." followed by the rest of the
// name.
func saintForm(w string) (string, bool) {
	head, rest, hyphen := strings.Cut(w, "-")
	var form string
	switch head {
	case "SAINT", "ST":
		form = "ST."
	case "SAINTE", "STE":
		form = "STE."
	default:
		return w, false
	}
	if hyphen && rest != "" {
		return form + " " + rest, true
	}
	return form, true
}

func (v *Validator) suffix(a *Address, po bool) {
	if a.Suffix == "" {
		if !a.SuffixAsStreet && !strings.Contains(a.Street, "||") && !po {
			a.Flags.Add(CategorySuffix, TagUndefined)
		}
		return
	}
	suffix := a.Suffix
	if !isAlpha(suffix) {
		suffix = strings.ToUpper(lettersOnly(removeSymbols(suffix)))
		a.Flags.Add(CategorySuffix, TagSym)
	}

	if a.French && a.Street != "" && a.AltSuffix != "" && a.Number != "" {
		if v.misplacedSuffix(a) {
			a.Flags.Add(CategorySuffix, TagStruct)
		}
	}

	alt := a.AltSuffix
	unit := isUnitStreet(a.Street)
	if short, ok := v.rules.Preferred(alt); ok {
		switch {
		case suffix != short && (!unit || a.Ordinal):
			suffix = short
			a.Flags.Add(CategorySuffix, Tag(alt))
		case unit && !a.Ordinal && suffix != alt:
			suffix = alt
			a.Flags.Add(CategorySuffix, Tag(alt))
		}
	} else if alt != "" && runeLen(suffix) != runeLen(alt) {
		suffix = alt
		a.Flags.Add(CategorySuffix, Tag(alt))
	}
	a.Suffix = suffix
}

// misplacedSuffix reports a French address whose suffix does not follow
// the civic number.
func (v *Validator) misplacedSuffix(a *Address) bool {
	last := []rune(a.Number)[runeLen(a.Number)-1]
	numIndex := -1
	for i, t := range a.Original {
		if r := []rune(t); len(r) > 0 && r[len(r)-1] == last {
			numIndex = i
		}
	}
	if numIndex < 0 || numIndex >= len(a.Original)-1 {
		return false
	}
	next := removeSymbols(a.Original[numIndex+1])
	if next == a.Suffix || next == a.AltSuffix {
		return false
	}
	short, ok := v.rules.Preferred(a.AltSuffix)
	return !ok || next != short
}

// isUnitStreet matches numbered streets with a letter, such as "12A".
func isUnitStreet(street string) bool {
	if strings.Contains(street, " ") {
		return false
	}
	r := []rune(street)
	if len(r) < 2 || !unicode.IsLetter(r[len(r)-1]) {
		return false
	}
	return isDigits(string(r[:len(r)-1]))
}

// ValidateExtra flags extra information that competes with the second
// address line, folds PO boxes into the street and abbreviates long
// extras.
func (v *Validator) ValidateExtra(a *Address) {
	po := a.isPOBox()
	extra := strings.TrimSpace(a.Extra)
	if !isNumericString(extra) && (runeLen(extra) > 1 || len(strings.Fields(extra)) > 1) && !po && a.External {
		a.Flags.Add(CategoryAddress, TagExcess)
	}
	if po && a.Street == "" && a.Suffix == "" && a.Direction == "" {
		a.Street = normalizer.CollapseSpaces(a.Extra + " " + a.Number)
		a.Number = ""
		a.Extra = ""
	}
	if runeLen(a.Extra) > v.th.ExtraTrimLength {
		a.Extra = TrimExtra(a.Extra)
	}
}

func isNumericString(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsNumber(r) {
			return false
		}
	}
	return true
}

var extraAbbrev = map[string]string{
	"FLOOR":     "FL",
	"APARTMENT": "APT",
	"BUREAU":    "BUR",
	"BUILDING":  "BLDG",
	"NIVEAU":    "NIV",
	"STATION":   "STN",
	"PARK":      "PK",
}

// TrimExtra abbreviates common words of extra: FLOOR to FL, APARTMENT to
// APT, 2IEME to 2E and so on. Trailing commas are kept.
func TrimExtra(extra string) string {
	words := strings.Fields(extra)
	for i, w := range words {
		core := strings.TrimRight(w, ",")
		tail := w[len(core):]
		if short, ok := extraAbbrev[core]; ok {
			words[i] = short + tail
			continue
		}
		if !IsOrdinal(core) {
			continue
		}
		folded := normalizer.StripDiacritics(core)
		switch {
		case strings.Contains(folded, "IE"):
			words[i] = folded[:strings.Index(folded, "I")] + "E" + tail
		case strings.Contains(folded, "EME"):
			words[i] = folded[:strings.Index(folded, "E")] + "E" + tail
		}
	}
	return strings.Join(words, " ")
}
