package cleaner

import "strings"

// Category groups flags by the address field they describe.
type Category int

const (
	CategoryNumber Category = iota
	CategoryStreet
	CategorySuffix
	CategoryDirection
	CategoryAddress
)

var categoryNames = [...]string{"number", "street", "suffix", "direction", "address"}
var categoryShort = [...]string{"N", "ST", "SF", "D", "A"}

func (c Category) String() string {
	if c < CategoryNumber || c > CategoryAddress {
		return "unknown"
	}
	return categoryNames[c]
}

// Categories lists every category in rendering order.
func Categories() []Category {
	return []Category{CategoryNumber, CategoryStreet, CategorySuffix, CategoryDirection, CategoryAddress}
}

// Tag is a single flag value. Suffix canonicalization flags carry the long
// suffix name (e.g. "STREET"), so the vocabulary is open for that category.
type Tag string

const (
	TagSym       Tag = "SYM"
	TagUndefined Tag = "UNDEFINED"
	TagFormat    Tag = "FORMAT"
	TagLen       Tag = "LEN"
	TagSaint     Tag = "ST/STE"
	TagExcess    Tag = "EXCESS"
	TagStruct    Tag = "STRUCT"
	TagInvalid   Tag = "INVALID"
)

// Flag holds the five append-only tag sets of one address.
type Flag struct {
	sets [5][]Tag
}

// Add records tag under category. Adding a tag twice is a no-op.
func (f *Flag) Add(c Category, t Tag) bool {
	if f.Has(c, t) {
		return false
	}
	f.sets[c] = append(f.sets[c], t)
	return true
}

func (f *Flag) Has(c Category, t Tag) bool {
	for _, existing := range f.sets[c] {
		if existing == t {
			return true
		}
	}
	return false
}

// Tags returns a copy of the tags recorded for c in insertion order.
func (f *Flag) Tags(c Category) []Tag {
	out := make([]Tag, len(f.sets[c]))
	copy(out, f.sets[c])
	return out
}

// Len counts every tag across categories.
func (f *Flag) Len() int {
	n := 0
	for _, s := range f.sets {
		n += len(s)
	}
	return n
}

func (f *Flag) IsValid() bool {
	return f.Len() == 0
}

// Map renders the non-empty categories keyed by name.
func (f *Flag) Map() map[string][]string {
	out := make(map[string][]string)
	for _, c := range Categories() {
		if len(f.sets[c]) == 0 {
			continue
		}
		tags := make([]string, len(f.sets[c]))
		for i, t := range f.sets[c] {
			tags[i] = string(t)
		}
		out[c.String()] = tags
	}
	return out
}

// String renders "VALID" or the compact N[..]ST[..]SF[..]D[..]A[..] form.
func (f *Flag) String() string {
	if f.IsValid() {
		return "VALID"
	}
	var b strings.Builder
	for _, c := range Categories() {
		b.WriteString(categoryShort[c])
		b.WriteByte('[')
		for i, t := range f.sets[c] {
			if i > 0 {
				b.WriteByte('/')
			}
			b.WriteString(string(t))
		}
		b.WriteByte(']')
	}
	return b.String()
}
