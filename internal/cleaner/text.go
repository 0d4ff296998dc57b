package cleaner

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/address-cleaner/internal/normalizer"
)

func isAlnumRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r)
}

func isAlnum(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !isAlnumRune(r) {
			return false
		}
	}
	return true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func hasDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}

func hasLower(s string) bool {
	return strings.IndexFunc(s, unicode.IsLower) >= 0
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func countFunc(s string, f func(rune) bool) int {
	n := 0
	for _, r := range s {
		if f(r) {
			n++
		}
	}
	return n
}

func lettersOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) {
			return r
		}
		return -1
	}, s)
}

func alnumOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if isAlnumRune(r) {
			return r
		}
		return -1
	}, s)
}

// removeSymbols keeps letters, digits, hyphens, apostrophes and spaces.
func removeSymbols(s string) string {
	return strings.Map(func(r rune) rune {
		if isAlnumRune(r) || r == '-' || r == '\'' || r == ' ' {
			return r
		}
		return -1
	}, s)
}

// removeChars drops the listed characters and keeps everything else.
func removeChars(s, chars string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(chars, r) {
			return -1
		}
		return r
	}, s)
}

var ordinalPairs = map[string]bool{"TH": true, "ER": true, "RE": true, "ND": true, "RD": true, "ST": true}

// IsOrdinal reports whether token reads as an ordinal number such as
// "1ST", "2ND", "1ER", "2E" or "3IÈME".
func IsOrdinal(token string) bool {
	if !hasDigit(token) || isDigits(token) {
		return false
	}
	if strings.Contains(token, "-") && strings.Trim(token, "-") == token {
		return false
	}
	letters := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) || !isAlnumRune(r) {
			return -1
		}
		return unicode.ToUpper(r)
	}, token)
	letters = normalizer.StripDiacritics(letters)
	switch n := runeLen(letters); {
	case n == 1:
		return letters == "E"
	case n == 2:
		return ordinalPairs[letters]
	case n > 2:
		return strings.Contains(letters, "ERE") || letters == "IER" || strings.Contains(letters, "ME")
	}
	return false
}

var directionWords = []string{
	"NORTH", "WEST", "EAST", "SOUTH", "NORD", "OUEST", "EST", "SUD",
	"SOUTHEAST", "SOUTHWEST", "NORTHEAST", "NORTHWEST",
	"NORDEST", "NORDOUEST", "SUDEST", "SUDOUEST",
}

var directionSet = func() map[string]bool {
	set := make(map[string]bool, len(directionWords)+9)
	for _, w := range directionWords {
		set[w] = true
		set[w[:1]] = true
	}
	for _, w := range []string{"NE", "NW", "SE", "SW"} {
		set[w] = true
	}
	return set
}()

// IsDirection reports whether the letters of token spell a cardinal or
// intercardinal direction in English or French, or its abbreviation.
func IsDirection(token string) bool {
	return directionSet[strings.ToUpper(lettersOnly(token))]
}

func isDirectionWord(s string) bool {
	for _, w := range directionWords {
		if s == w {
			return true
		}
	}
	return false
}

// IsPOBox reports whether s is a PO box designation followed by a number:
// "PO BOX 23", "CP 30", "CASE POSTALE 4", "POBAG 7" or "BOX 12".
func IsPOBox(s string) bool {
	s = removeChars(strings.ToUpper(s), ",. ")
	var word, rest strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) {
			word.WriteRune(r)
		} else {
			rest.WriteRune(r)
		}
	}
	if !isDigits(rest.String()) {
		return false
	}
	w := word.String()
	return strings.Contains(w, "POBOX") || w == "CP" || strings.Contains(w, "CASEPOSTALE") ||
		strings.Contains(w, "POBAG") || w == "BOX"
}
