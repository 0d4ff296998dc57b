package cleaner

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

//go:embed data/rules.yaml
var defaultRulesYAML []byte

// Weight used for suffix positions that do not spell the preferred form.
const fillerWeight = 0.07

var (
	ErrInvalidRule  = errors.New("invalid rule")
	ErrRuleExists   = errors.New("rule already exists")
	ErrRuleNotFound = errors.New("rule not found")
)

// SuffixRule is one street-type word and its per-position match weights.
type SuffixRule struct {
	Name      string    `yaml:"name" json:"name"`
	Preferred string    `yaml:"preferred,omitempty" json:"preferred,omitempty"`
	Weights   []float64 `yaml:"weights,omitempty" json:"weights"`
}

// RulesDoc is the persisted form of a RuleSet.
type RulesDoc struct {
	Suffixes []SuffixRule `yaml:"suffixes" json:"suffixes" bson:"suffixes"`
	External []string     `yaml:"external" json:"external" bson:"external"`
}

// RuleSet is an immutable set of suffix weights, external keywords and
// preferred suffix forms. Edits return a new RuleSet.
type RuleSet struct {
	suffixes  []SuffixRule
	index     map[string]int
	maxWeight []float64
	external  []string
	preferred map[string]string
}

// DefaultRules parses the embedded rule data.
func DefaultRules() (*RuleSet, error) {
	return ParseRules(defaultRulesYAML)
}

// MustDefaultRules is DefaultRules for package initialisation and tests.
func MustDefaultRules() *RuleSet {
	rs, err := DefaultRules()
	if err != nil {
		panic(err)
	}
	return rs
}

// LoadRules reads a YAML rules file.
func LoadRules(path string) (*RuleSet, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseRules(b)
}

// ParseRules builds a RuleSet from YAML bytes.
func ParseRules(b []byte) (*RuleSet, error) {
	var doc RulesDoc
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	return NewRuleSet(doc)
}

// NewRuleSet validates doc and fills in generated weights.
func NewRuleSet(doc RulesDoc) (*RuleSet, error) {
	rs := &RuleSet{
		index:     make(map[string]int, len(doc.Suffixes)),
		preferred: make(map[string]string),
	}
	for _, r := range doc.Suffixes {
		r.Name = strings.ToUpper(strings.TrimSpace(r.Name))
		r.Preferred = strings.ToUpper(strings.TrimSpace(r.Preferred))
		if !isAlpha(r.Name) {
			return nil, fmt.Errorf("%w: suffix %q", ErrInvalidRule, r.Name)
		}
		if r.Preferred != "" && !isAlpha(r.Preferred) {
			return nil, fmt.Errorf("%w: preferred form %q", ErrInvalidRule, r.Preferred)
		}
		if _, dup := rs.index[r.Name]; dup {
			return nil, fmt.Errorf("%w: suffix %q", ErrRuleExists, r.Name)
		}
		if len(r.Weights) == 0 {
			r.Weights = SuffixWeights(r.Name, r.Preferred)
		}
		if len(r.Weights) != len([]rune(r.Name)) {
			return nil, fmt.Errorf("%w: suffix %q has %d weights", ErrInvalidRule, r.Name, len(r.Weights))
		}
		weights := make([]float64, len(r.Weights))
		copy(weights, r.Weights)
		r.Weights = weights
		rs.index[r.Name] = len(rs.suffixes)
		rs.suffixes = append(rs.suffixes, r)
		if r.Preferred != "" {
			rs.preferred[r.Name] = r.Preferred
		}
	}
	seen := make(map[string]bool, len(doc.External))
	for _, w := range doc.External {
		w = strings.ToUpper(strings.TrimSpace(w))
		if !isAlpha(w) {
			return nil, fmt.Errorf("%w: external %q", ErrInvalidRule, w)
		}
		if seen[w] {
			continue
		}
		seen[w] = true
		rs.external = append(rs.external, w)
	}
	sort.Strings(rs.external)
	rs.maxWeight = make([]float64, len(rs.suffixes))
	for i, r := range rs.suffixes {
		for _, w := range r.Weights {
			rs.maxWeight[i] = math.Max(rs.maxWeight[i], w)
		}
	}
	return rs, nil
}

// SuffixWeights generates match weights for a new suffix rule. With a
// preferred form, positions spelling it in order weigh 1/len(preferred)
// and the rest weigh 0.07. Without one, every position weighs 1/len and
// the last gets an extra 0.01.
func SuffixWeights(name, preferred string) []float64 {
	n := []rune(name)
	p := []rune(preferred)
	weights := make([]float64, len(n))
	if len(n) == 0 {
		return weights
	}
	if len(p) > 0 {
		share := floorCents(1 / float64(len(p)))
		j := 0
		for i, r := range n {
			if j < len(p) && r == p[j] {
				weights[i] = share
				j++
			} else {
				weights[i] = fillerWeight
			}
		}
		return weights
	}
	share := floorCents(1 / float64(len(n)))
	for i := range weights {
		weights[i] = share
	}
	weights[len(weights)-1] += 0.01
	return weights
}

func floorCents(v float64) float64 {
	return math.Floor(v*100+1e-9) / 100
}

// Suffixes returns a copy of the suffix rules in scoring order.
func (rs *RuleSet) Suffixes() []SuffixRule {
	out := make([]SuffixRule, len(rs.suffixes))
	for i, r := range rs.suffixes {
		out[i] = r
		out[i].Weights = append([]float64(nil), r.Weights...)
	}
	return out
}

// External returns the sorted external keywords.
func (rs *RuleSet) External() []string {
	return append([]string(nil), rs.external...)
}

// Preferred returns the canonical short form of a long suffix.
func (rs *RuleSet) Preferred(long string) (string, bool) {
	short, ok := rs.preferred[long]
	return short, ok
}

// HasSuffix reports whether name is a suffix rule.
func (rs *RuleSet) HasSuffix(name string) bool {
	_, ok := rs.index[strings.ToUpper(name)]
	return ok
}

// HasExternal reports whether word is an external keyword.
func (rs *RuleSet) HasExternal(word string) bool {
	word = strings.ToUpper(word)
	i := sort.SearchStrings(rs.external, word)
	return i < len(rs.external) && rs.external[i] == word
}

// Doc returns the persisted form.
func (rs *RuleSet) Doc() RulesDoc {
	return RulesDoc{Suffixes: rs.Suffixes(), External: rs.External()}
}

// Version is a short content hash of the rules. Equal rule sets share a
// version regardless of how they were built.
func (rs *RuleSet) Version() string {
	b, err := yaml.Marshal(rs.Doc())
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:6])
}

// Save writes the rules as YAML.
func (rs *RuleSet) Save(path string) error {
	b, err := yaml.Marshal(rs.Doc())
	if err != nil {
		return fmt.Errorf("marshal rules: %w", err)
	}
	return os.WriteFile(path, b, 0o644)
}

// WithSuffix adds or replaces a suffix rule. preferred may be empty; when
// set it must be alphabetic and shorter than name.
func (rs *RuleSet) WithSuffix(name, preferred string) (*RuleSet, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	preferred = strings.ToUpper(strings.TrimSpace(preferred))
	if !isAlpha(name) {
		return nil, fmt.Errorf("%w: suffix %q must be alphabetic", ErrInvalidRule, name)
	}
	if preferred != "" {
		if !isAlpha(preferred) {
			return nil, fmt.Errorf("%w: preferred form %q must be alphabetic", ErrInvalidRule, preferred)
		}
		if len([]rune(name)) <= len([]rune(preferred)) {
			return nil, fmt.Errorf("%w: preferred form %q must be shorter than %q", ErrInvalidRule, preferred, name)
		}
	}
	doc := rs.Doc()
	rule := SuffixRule{Name: name, Preferred: preferred, Weights: SuffixWeights(name, preferred)}
	if i, ok := rs.index[name]; ok {
		if rs.suffixes[i].Preferred == preferred {
			return nil, fmt.Errorf("%w: suffix %q", ErrRuleExists, name)
		}
		doc.Suffixes[i] = rule
	} else {
		doc.Suffixes = append(doc.Suffixes, rule)
	}
	return NewRuleSet(doc)
}

// WithoutSuffix removes a suffix rule.
func (rs *RuleSet) WithoutSuffix(name string) (*RuleSet, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	i, ok := rs.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: suffix %q", ErrRuleNotFound, name)
	}
	doc := rs.Doc()
	doc.Suffixes = append(doc.Suffixes[:i], doc.Suffixes[i+1:]...)
	return NewRuleSet(doc)
}

// WithExternal adds an external keyword.
func (rs *RuleSet) WithExternal(word string) (*RuleSet, error) {
	word = strings.ToUpper(strings.TrimSpace(word))
	if !isAlpha(word) {
		return nil, fmt.Errorf("%w: external %q must be alphabetic", ErrInvalidRule, word)
	}
	if rs.HasExternal(word) {
		return nil, fmt.Errorf("%w: external %q", ErrRuleExists, word)
	}
	doc := rs.Doc()
	doc.External = append(doc.External, word)
	return NewRuleSet(doc)
}

// WithoutExternal removes an external keyword.
func (rs *RuleSet) WithoutExternal(word string) (*RuleSet, error) {
	word = strings.ToUpper(strings.TrimSpace(word))
	if !rs.HasExternal(word) {
		return nil, fmt.Errorf("%w: external %q", ErrRuleNotFound, word)
	}
	doc := rs.Doc()
	kept := doc.External[:0]
	for _, w := range doc.External {
		if w != word {
			kept = append(kept, w)
		}
	}
	doc.External = kept
	return NewRuleSet(doc)
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
