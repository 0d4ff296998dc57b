package cleaner

import "strings"

var (
	frenchSuffixes  = map[string]bool{"RUE": true, "PROMENADE": true, "CHEMIN": true}
	englishSuffixes = map[string]bool{"STREET": true, "DRIVE": true, "ROAD": true, "SIDEROAD": true, "CRESCENT": true}
	buildingWords   = map[string]bool{"STATION": true, "PORT": true, "DOCK": true, "PORTE": true, "TOWER": true}
)

var directionExpansion = map[string][2]string{
	"N": {"NORTH", "NORD"},
	"E": {"EAST", "EST"},
	"S": {"SOUTH", "SUD"},
	"W": {"WEST", "WEST"},
	"O": {"OUEST", "OUEST"},
}

// Assigner distributes scored tokens over the address fields using an
// ordered rule table. The first matching rule places the token.
type Assigner struct {
	th Thresholds
}

func NewAssigner(th Thresholds) *Assigner {
	return &Assigner{th: th.WithDefaults()}
}

// assignment is the working state of one Assign call.
type assignment struct {
	th     Thresholds
	tokens []string
	scores []TokenScore
	anchor int
	alt    string
	french bool

	number, street, extra, suffixNumber []string
	direction                           string
	last                                *[]string
}

func (s *assignment) kind(i int) TokenKind { return s.scores[i].Kind }

func (s *assignment) next(i int) (string, bool) {
	if i+1 < len(s.tokens) {
		return s.tokens[i+1], true
	}
	return "", false
}

func (s *assignment) put(acc *[]string, tok string) {
	*acc = append(*acc, tok)
	if acc == &s.number || acc == &s.street {
		s.last = acc
	}
}

type assignRule struct {
	name  string
	match func(s *assignment, i int) bool
	apply func(s *assignment, i int)
}

func isKind(k TokenKind) func(*assignment, int) bool {
	return func(s *assignment, i int) bool { return s.kind(i) == k }
}

func numeric(cond func(*assignment, int) bool) func(*assignment, int) bool {
	return func(s *assignment, i int) bool { return s.kind(i) == KindNumber && cond(s, i) }
}

func direction(cond func(*assignment, int) bool) func(*assignment, int) bool {
	return func(s *assignment, i int) bool {
		return s.kind(i) == KindWord && s.scores[i].Direction && cond(s, i)
	}
}

func always(*assignment, int) bool { return true }

func toStreet(s *assignment, i int)       { s.put(&s.street, s.tokens[i]) }
func toNumber(s *assignment, i int)       { s.put(&s.number, s.tokens[i]) }
func toExtra(s *assignment, i int)        { s.put(&s.extra, s.tokens[i]) }
func toSuffixNumber(s *assignment, i int) { s.put(&s.suffixNumber, s.tokens[i]) }

var assignRules = []assignRule{
	{"symbol", isKind(KindSymbol), func(s *assignment, i int) {
		acc := s.last
		if acc == nil {
			acc = &s.number
		}
		if n := len(*acc); n > 0 {
			(*acc)[n-1] += s.tokens[i]
			return
		}
		s.put(acc, s.tokens[i])
	}},
	{"ordinal", isKind(KindOrdinal), func(s *assignment, i int) {
		if i+1 < len(s.scores) && s.scores[i+1].Ext > s.th.OrdinalLookahead {
			toExtra(s, i)
			return
		}
		toStreet(s, i)
	}},
	{"numeric-external", numeric(func(s *assignment, i int) bool {
		return s.scores[i].Ext >= s.th.ExtInfo
	}), toExtra},
	{"suffix-number", numeric(func(s *assignment, i int) bool {
		return s.anchor >= 0 && i == s.anchor+1 && (!s.french || s.alt == "ROUTE")
	}), toSuffixNumber},
	{"numeric-after-suffix", numeric(func(s *assignment, i int) bool {
		return s.anchor >= 0 && i > s.anchor
	}), toExtra},
	{"route-number", numeric(func(s *assignment, i int) bool {
		return i > 0 && isHighwayKeyword(s.tokens[i-1])
	}), func(s *assignment, i int) {
		toStreet(s, i)
		s.anchor = i
	}},
	{"civic-number", numeric(always), toNumber},
	{"direction-in-name", direction(func(s *assignment, i int) bool {
		return s.anchor < 0 || i < s.anchor
	}), func(s *assignment, i int) {
		if names, ok := directionExpansion[lettersOnly(s.tokens[i])]; ok {
			if s.french {
				s.tokens[i] = names[1]
			} else {
				s.tokens[i] = names[0]
			}
		}
		toStreet(s, i)
	}},
	{"direction", direction(always), func(s *assignment, i int) {
		n := runeLen(s.direction)
		next, _ := s.next(i)
		if n == 2 || n > 5 || next == "TOWER" || next == "MALL" {
			toExtra(s, i)
			return
		}
		s.direction += lettersOnly(s.tokens[i])
	}},
	{"suffix", func(s *assignment, i int) bool { return i == s.anchor }, func(*assignment, int) {}},
	{"external", func(s *assignment, i int) bool {
		if buildingWords[s.tokens[i]] && s.anchor > 0 && i < s.anchor {
			return false
		}
		return s.scores[i].Ext >= s.th.ExtInfo ||
			(s.anchor >= 0 && i > s.anchor && !s.french && s.alt != "PLACE")
	}, toExtra},
	{"street", always, toStreet},
}

// Anchor picks the suffix token: the highest suffix score that is not a
// direction, accepted at SuffixAccept. It returns -1 when nothing
// qualifies. scores may be modified.
func (as *Assigner) Anchor(scores []TokenScore) int {
	if len(scores) == 0 {
		return -1
	}
	best := argmaxSuffix(scores)
	if scores[best].Direction {
		scores[best].Suffix = 0
		best = argmaxSuffix(scores)
	}
	if scores[best].Suffix < as.th.SuffixAccept {
		return -1
	}
	return best
}

func argmaxSuffix(scores []TokenScore) int {
	best := 0
	for i, sc := range scores {
		if sc.Suffix > scores[best].Suffix {
			best = i
		}
	}
	return best
}

// Assign fills a's fields from its Original tokens and their scores.
func (as *Assigner) Assign(a *Address, scores []TokenScore) {
	st := &assignment{
		th:     as.th,
		tokens: append([]string(nil), a.Original...),
		scores: scores,
		french: a.French,
	}
	st.anchor = as.Anchor(scores)
	suffix := ""
	if st.anchor >= 0 {
		suffix = st.tokens[st.anchor]
		st.alt = scores[st.anchor].SuffixMatch
		scores[st.anchor].Ext = 0
		switch {
		case frenchSuffixes[st.alt]:
			st.french = true
		case englishSuffixes[st.alt]:
			st.french = false
		}
	}

	for i := range st.tokens {
		for _, r := range assignRules {
			if r.match(st, i) {
				r.apply(st, i)
				break
			}
		}
	}

	a.Original = st.tokens
	a.French = st.french
	a.Number = strings.Join(st.number, " ")
	a.Street = strings.Join(st.street, " ")
	a.Suffix = suffix
	a.AltSuffix = st.alt
	a.Direction = st.direction
	a.SuffixNumber = strings.Join(st.suffixNumber, " ")
	a.Extra = strings.TrimSpace(strings.Join(append([]string{a.Extra}, st.extra...), " "))

	if a.Street == "ST" {
		a.Street = "ST||STREET"
	}
	if a.Street == "" && a.Suffix != "" {
		a.Street = a.Suffix + "||" + a.AltSuffix
		a.Suffix, a.AltSuffix = "", ""
		a.SuffixAsStreet = true
	}
	if a.AltSuffix == "PLACE" && a.Street != "" {
		joined := strings.Join(st.tokens, " ")
		if p, s := strings.Index(joined, a.Suffix), strings.Index(joined, a.Street); p >= 0 && s >= 0 && p < s {
			a.French = true
		}
	}
	for _, w := range strings.Fields(a.Street) {
		if IsOrdinal(w) {
			a.Ordinal = true
			break
		}
	}
}
