package cleaner

// Thresholds are the tuned constants of the scorer and assigner.
type Thresholds struct {
	// ExtInfo is the external score at which a token moves to extra.
	ExtInfo float64 `yaml:"ext_info" json:"ext_info"`
	// OrdinalLookahead sends an ordinal to extra when the next token's
	// external score exceeds it.
	OrdinalLookahead float64 `yaml:"ordinal_lookahead" json:"ordinal_lookahead"`
	// NumericCarry and NumericBoost: a number following a token scoring
	// above NumericCarry externally inherits NumericBoost.
	NumericCarry float64 `yaml:"numeric_carry" json:"numeric_carry"`
	NumericBoost float64 `yaml:"numeric_boost" json:"numeric_boost"`
	// DecayBase is raised to the word position to weight scores.
	DecayBase float64 `yaml:"decay_base" json:"decay_base"`
	// OrdinalExt is the fixed external score of ordinal tokens.
	OrdinalExt float64 `yaml:"ordinal_ext" json:"ordinal_ext"`
	// SuffixAccept is the minimum suffix score of the anchor.
	SuffixAccept float64 `yaml:"suffix_accept" json:"suffix_accept"`
	// ExtraTrimLength is the extra length above which abbreviations apply.
	ExtraTrimLength int `yaml:"extra_trim_length" json:"extra_trim_length"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		ExtInfo:          1.1,
		OrdinalLookahead: 1.3,
		NumericCarry:     1.4,
		NumericBoost:     1.3,
		DecayBase:        1.15,
		OrdinalExt:       0.92,
		SuffixAccept:     1.0,
		ExtraTrimLength:  40,
	}
}

// WithDefaults fills zero fields from DefaultThresholds.
func (t Thresholds) WithDefaults() Thresholds {
	d := DefaultThresholds()
	if t.ExtInfo == 0 {
		t.ExtInfo = d.ExtInfo
	}
	if t.OrdinalLookahead == 0 {
		t.OrdinalLookahead = d.OrdinalLookahead
	}
	if t.NumericCarry == 0 {
		t.NumericCarry = d.NumericCarry
	}
	if t.NumericBoost == 0 {
		t.NumericBoost = d.NumericBoost
	}
	if t.DecayBase == 0 {
		t.DecayBase = d.DecayBase
	}
	if t.OrdinalExt == 0 {
		t.OrdinalExt = d.OrdinalExt
	}
	if t.SuffixAccept == 0 {
		t.SuffixAccept = d.SuffixAccept
	}
	if t.ExtraTrimLength == 0 {
		t.ExtraTrimLength = d.ExtraTrimLength
	}
	return t
}
