package cleaner

import (
	"math"
	"strings"
	"unicode"

	"github.com/address-cleaner/internal/normalizer"
)

// TokenKind classifies a token before scoring.
type TokenKind int

const (
	KindWord TokenKind = iota
	KindNumber
	KindOrdinal
	KindSymbol
)

func (k TokenKind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindOrdinal:
		return "ordinal"
	case KindSymbol:
		return "symbol"
	}
	return "word"
}

// TokenScore holds the signals computed for one token.
type TokenScore struct {
	Kind        TokenKind `json:"kind"`
	Suffix      float64   `json:"suffix"`
	SuffixMatch string    `json:"suffix_match,omitempty"`
	Ext         float64   `json:"ext"`
	Direction   bool      `json:"direction"`
}

// ScoreContext is everything Score needs to know about one token and its
// neighbours. WordCount is the number of word tokens before Position.
type ScoreContext struct {
	Tokens    []string
	Position  int
	WordCount int
	French    bool
	Prev      *TokenScore
}

func (c ScoreContext) token() string { return c.Tokens[c.Position] }

func (c ScoreContext) at(offset int) (string, bool) {
	i := c.Position + offset
	if i < 0 || i >= len(c.Tokens) {
		return "", false
	}
	return c.Tokens[i], true
}

var highwayWords = []string{"HWY", "HIGHWAY", "ROUTE", "RTE", "RR", "R.R.", "PTH"}

func isHighwayKeyword(tok string) bool {
	if tok == "NO" || tok == "NO." {
		return true
	}
	for _, w := range highwayWords {
		if strings.Contains(tok, w) {
			return true
		}
	}
	return false
}

// Scorer computes suffix, external and direction signals. It holds no
// mutable state and is safe for concurrent use.
type Scorer struct {
	rules *RuleSet
	th    Thresholds
}

func NewScorer(rules *RuleSet, th Thresholds) *Scorer {
	return &Scorer{rules: rules, th: th.WithDefaults()}
}

// Classify reports the kind of token.
func Classify(token string) TokenKind {
	if IsOrdinal(token) {
		return KindOrdinal
	}
	digits := countFunc(token, unicode.IsNumber)
	letters := countFunc(token, unicode.IsLetter)
	switch {
	case digits == 0 && letters == 0:
		return KindSymbol
	case digits > letters:
		return KindNumber
	}
	return KindWord
}

// ScoreAll scores every token left to right.
func (s *Scorer) ScoreAll(tokens []string, french bool) []TokenScore {
	scores := make([]TokenScore, len(tokens))
	words := 0
	for i := range tokens {
		ctx := ScoreContext{Tokens: tokens, Position: i, WordCount: words, French: french}
		if i > 0 {
			ctx.Prev = &scores[i-1]
		}
		scores[i] = s.Score(ctx)
		if k := scores[i].Kind; k == KindWord || k == KindOrdinal {
			words++
		}
	}
	return scores
}

// Score computes the signals of ctx's token.
func (s *Scorer) Score(ctx ScoreContext) TokenScore {
	tok := ctx.token()
	sc := TokenScore{Kind: Classify(tok)}
	switch sc.Kind {
	case KindSymbol:
		return sc
	case KindNumber:
		sc.Ext = s.numberExt(ctx)
		return sc
	}

	orient := 1.0
	if ctx.French {
		orient = -1
	}
	wc := float64(ctx.WordCount)
	suffix, match := s.SuffixFactor(tok)
	sc.Suffix = suffix * math.Pow(s.th.DecayBase, wc*orient)
	sc.SuffixMatch = match
	sc.Ext = s.ExtFactor(tok) * math.Pow(s.th.DecayBase, wc)
	sc.Direction = IsDirection(tok)

	if tok == "MAIN" {
		if prev, ok := ctx.at(-1); ok && isStation(prev) && ctx.Prev != nil {
			sc.Ext = ctx.Prev.Ext
		}
		if next, ok := ctx.at(1); ok && isStation(next) {
			sc.Ext = 2
		}
	}

	// A leading ST/STE, or one after a suffix, is a saint name.
	core := removeSymbols(tok)
	last := ctx.Position == len(ctx.Tokens)-1
	if (core == "ST" || core == "STE") && !last &&
		(ctx.WordCount == 0 || (ctx.Prev != nil && ctx.Prev.Suffix >= s.th.SuffixAccept)) {
		sc.Suffix = 0
		sc.Ext = 0
	}
	return sc
}

func isStation(tok string) bool {
	return tok == "STATION" || tok == "STN"
}

func (s *Scorer) numberExt(ctx ScoreContext) float64 {
	prev, ok := ctx.at(-1)
	if !ok || ctx.Prev == nil {
		return 0
	}
	if isHighwayKeyword(prev) {
		return 0
	}
	if ctx.Prev.Ext > s.th.NumericCarry && !isDigits(removeSymbols(prev)) {
		if before, ok := ctx.at(-2); ok && IsOrdinal(before) {
			return 0
		}
		return s.th.NumericBoost
	}
	return 0
}

// SuffixFactor returns the best suffix similarity of token and the suffix
// that produced it. Letters of the token absent from a suffix cost twice
// that suffix's largest weight.
func (s *Scorer) SuffixFactor(token string) (float64, string) {
	if !strings.ContainsAny(token, ",-.") && !isAlnum(token) {
		return 0, ""
	}
	w := []rune(normalizer.Fold(removeSymbols(token)))
	if len(w) <= 1 {
		return 0, ""
	}
	best, match := 0.0, ""
	for idx, rule := range s.rules.suffixes {
		sfx := []rune(rule.Name)
		penalty := 2 * s.rules.maxWeight[idx]
		sim := 0.0
		for i, j := 0, 0; i < len(w) && j < len(sfx); j++ {
			present := containsRune(sfx, w[i])
			if w[i] == sfx[j] || !present {
				if w[i] == sfx[j] {
					sim += rule.Weights[j]
				}
				if !present {
					sim -= penalty
				}
				i++
			}
		}
		if sim > best {
			best, match = sim, rule.Name
		}
	}
	return best, match
}

const extSymbols = ",!@#$%&^*()-_+=/:[]0123456789."

// ExtFactor scores how much token looks like unit, floor, box or other
// information that belongs outside the street line.
func (s *Scorer) ExtFactor(token string) float64 {
	n := runeLen(token)
	if n >= 2 {
		if IsOrdinal(token) {
			return s.th.OrdinalExt
		}
		if token == "ST" {
			return 0
		}
	} else if isAlpha(token) {
		return 1.05
	}

	sym := symbolFactor(token, n)
	if sym > 0.5 {
		return sym
	}

	word := removeSymbols(token)
	switch word {
	case "LA", "DE", "OF", "ST", "":
		return 0
	case "GD":
		return 1.1
	case "RR":
		return 0.8
	}

	best := sym
	wr := []rune(word)
	for _, kw := range s.rules.external {
		kr := []rune(kw)
		var sim, consec float64
		for j, k := 0, 0; j < len(wr) && k < len(kr); k++ {
			if wr[j] == kr[k] {
				if j == k && len(wr) >= 3 {
					consec += 1.3 / float64(len(wr))
				}
				sim += 0.8/float64(len(wr)) + 1/(2*float64(len(kr)))
				j++
			}
		}
		if !runesSubset(wr, kr) || wr[0] != kr[0] {
			sim, consec = 0, 0
		}
		if missingRequired(kw, word) {
			sim, consec = 0, 0
		}
		best = math.Max(best, math.Max(sim, consec))
	}
	return best
}

// missingRequired guards keywords that share their letters with common
// street words.
func missingRequired(kw, word string) bool {
	switch kw {
	case "SECTION":
		return !strings.Contains(word, "C")
	case "MEZZANINE":
		return !strings.Contains(word, "Z")
	case "PORT", "PORTE":
		return !strings.Contains(word, "T")
	}
	return false
}

func symbolFactor(token string, n int) float64 {
	sym := 0.0
	for _, c := range extSymbols {
		count := strings.Count(token, string(c))
		if count == 0 {
			continue
		}
		switch c {
		case '-', '*':
			if c == '*' && count > 2 {
				sym += 1.1 * float64(count-2)
			}
			sym += 0.5
		case '.':
			switch {
			case sym > 0 && count >= 2:
				sym += 0.5 * float64(count)
			case sym > 0:
				sym += 0.25
			default:
				sym += 0.5
			}
		case ',':
			if n > 5 {
				sym += 0.9 / float64(n)
			} else {
				sym += 0.9
			}
		case '&':
			sym += 0.5
		default:
			sym += 1.1
		}
	}
	return sym
}

func containsRune(rs []rune, r rune) bool {
	for _, x := range rs {
		if x == r {
			return true
		}
	}
	return false
}

func runesSubset(a, b []rune) bool {
	if len(a) == 0 {
		return false
	}
	for _, r := range a {
		if !containsRune(b, r) {
			return false
		}
	}
	return true
}
