package cleaner

import (
	"strings"

	"github.com/address-cleaner/internal/normalizer"
)

// Tokenize splits a raw address line into cleaned, upper-case tokens. Lines
// that are not civic addresses (intersections, driving directions, lines
// of fewer than two tokens) come back with an address:INVALID flag and
// their raw tokens untouched.
func Tokenize(raw, province string) *Address {
	province = strings.ToUpper(strings.TrimSpace(province))
	tokens := strings.Fields(normalizer.CleanCell(raw))
	a := newAddress(tokens, province)

	if len(tokens) < 2 {
		a.Original = dropLeadingSymbol(tokens)
		a.reject(ReasonTooShort)
		return a
	}
	if isJunction(tokens) {
		a.Original = dropLeadingSymbol(tokens)
		a.reject(ReasonJunction)
		return a
	}
	if hasDistanceMarker(tokens) {
		a.reject(ReasonDirections)
		return a
	}

	a.French = province == "QC"
	if hasWord(tokens, "FERME") && hasWord(tokens, "PHYSIQUE") {
		a.Street = strings.Join(tokens, " ")
		a.Passthrough = true
		return a
	}

	tokens = splitPunctuation(tokens)
	tokens, a.Extra = extractBrackets(tokens)

	switch {
	case len(tokens) == 0:
		a.reject(ReasonEmpty)
		return a
	case hasDistanceMarker(tokens):
		a.reject(ReasonDirections)
		return a
	case hasWord(tokens, "AND"):
		a.reject(ReasonJunction)
		return a
	case strings.ToUpper(tokens[0]) == "NE" && len(tokens) > 1 && isAlnum(tokens[1]):
		a.reject(ReasonGPS)
		return a
	}

	tokens = dropLeadingSymbol(tokens)
	if len(tokens) == 0 {
		a.reject(ReasonEmpty)
		return a
	}
	tokens = attachSymbols(tokens)

	for i, t := range tokens {
		if hasLower(t) {
			a.Flags.Add(CategoryStreet, TagFormat)
			tokens[i] = strings.ToUpper(t)
		}
	}
	a.Original = tokens
	return a
}

func hasWord(tokens []string, word string) bool {
	for _, t := range tokens {
		if strings.ToUpper(t) == word {
			return true
		}
	}
	return false
}

func dropLeadingSymbol(tokens []string) []string {
	if len(tokens) > 0 && runeLen(tokens[0]) == 1 && !isAlnum(tokens[0]) {
		return tokens[1:]
	}
	return tokens
}

// isJunction reports intersection descriptions such as "BAY/BLOOR",
// "KING & QUEEN", "JUNCTION HWY 7" or "CORNER OF MAIN".
func isJunction(tokens []string) bool {
	joined := strings.ToUpper(strings.Join(tokens, ""))
	for _, sep := range []string{"/", "&"} {
		if strings.Contains(joined, sep) && allLongPieces(strings.Split(joined, sep)) {
			return true
		}
	}
	if strings.Contains(joined, "CORNEROF") {
		return true
	}
	for _, w := range []string{"JUNCTION", "JUNC", "AND"} {
		if hasWord(tokens, w) {
			return true
		}
	}
	return false
}

func allLongPieces(pieces []string) bool {
	for _, p := range pieces {
		if runeLen(p) < 2 {
			return false
		}
	}
	return true
}

// hasDistanceMarker finds "5 KM N OF ..." style directions.
func hasDistanceMarker(tokens []string) bool {
	for i := 0; i < len(tokens)-1; i++ {
		switch strings.ToUpper(tokens[i]) {
		case "KM", "MILE", "MILES":
			if IsDirection(tokens[i+1]) {
				return true
			}
		}
	}
	return false
}

// splitPunctuation breaks tokens glued together by punctuation. Each check
// runs on the current token in turn; the pieces after the first are
// checked when the loop reaches them.
func splitPunctuation(in []string) []string {
	tokens := append([]string(nil), in...)
	for i := 0; i < len(tokens); i++ {
		tokens = splitAt(tokens, i, ",", func(tok string, pieces []string) bool {
			return len(pieces) >= 2 && runeLen(tok) > 3 && noShortPiece(pieces)
		})
		tokens = splitAt(tokens, i, ".", func(tok string, pieces []string) bool {
			return len(pieces) > 1 && runeLen(tok) > 3 && noShortPiece(pieces)
		})
		for _, sep := range []string{`\`, "/"} {
			tokens = splitAt(tokens, i, sep, func(tok string, pieces []string) bool {
				return len(pieces) > 1 && runeLen(tok) > 3 && noSingleLetter(pieces)
			})
		}
		tokens = splitAt(tokens, i, "-", func(tok string, pieces []string) bool {
			if len(pieces) != 2 || !hasDigit(pieces[0]) || !hasDigit(pieces[1]) {
				return false
			}
			return i > 0 || IsOrdinal(pieces[0]) || IsOrdinal(pieces[1])
		})
		if tokens[i] == "-" && i > 0 && i < len(tokens)-1 {
			tokens = append(tokens[:i], tokens[i+1:]...)
			i--
		}
	}
	return tokens
}

func splitAt(tokens []string, i int, sep string, ok func(string, []string) bool) []string {
	tok := tokens[i]
	if !strings.Contains(tok, sep) {
		return tokens
	}
	pieces := strings.Split(tok, sep)
	if !ok(tok, pieces) {
		return tokens
	}
	kept := pieces[:0]
	for _, p := range pieces {
		if p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return tokens
	}
	out := make([]string, 0, len(tokens)+len(kept)-1)
	out = append(out, tokens[:i]...)
	out = append(out, kept...)
	return append(out, tokens[i+1:]...)
}

func noShortPiece(pieces []string) bool {
	for _, p := range pieces {
		if runeLen(p) <= 1 {
			return false
		}
	}
	return true
}

func noSingleLetter(pieces []string) bool {
	for _, p := range pieces {
		if runeLen(p) == 1 && isAlpha(p) {
			return false
		}
	}
	return true
}

// extractBrackets moves every bracketed run of tokens to extra.
func extractBrackets(tokens []string) ([]string, string) {
	var extra []string
	for {
		open := indexFrom(tokens, 0, "([")
		if open < 0 {
			break
		}
		closing := indexFrom(tokens, open, ")]")
		if closing < 0 {
			break
		}
		extra = append(extra, tokens[open:closing+1]...)
		rest := append([]string(nil), tokens[:open]...)
		tokens = append(rest, tokens[closing+1:]...)
	}
	return tokens, strings.Join(extra, " ")
}

func indexFrom(tokens []string, from int, chars string) int {
	for i := from; i < len(tokens); i++ {
		if strings.ContainsAny(tokens[i], chars) {
			return i
		}
	}
	return -1
}

// attachSymbols glues stray one-character symbols, and anything following
// a token that ends in "-", onto the previous token.
func attachSymbols(tokens []string) []string {
	out := []string{tokens[0]}
	for _, t := range tokens[1:] {
		last := len(out) - 1
		if (runeLen(t) == 1 && !isAlnum(t)) || strings.HasSuffix(out[last], "-") {
			out[last] += t
			continue
		}
		out = append(out, t)
	}
	return out
}
