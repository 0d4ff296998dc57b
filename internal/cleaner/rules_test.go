package cleaner

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRules(t *testing.T) {
	rules, err := DefaultRules()
	require.NoError(t, err)

	assert.True(t, rules.HasSuffix("STREET"))
	assert.True(t, rules.HasSuffix("rue"))
	assert.True(t, rules.HasExternal("SUITE"))
	assert.False(t, rules.HasExternal("MAIN"))

	short, ok := rules.Preferred("STREET")
	assert.True(t, ok)
	assert.Equal(t, "ST", short)

	_, ok = rules.Preferred("RUE")
	assert.False(t, ok)

	external := rules.External()
	assert.IsIncreasing(t, external)
}

func TestSuffixWeights(t *testing.T) {
	assert.InDeltaSlice(t, []float64{0.5, 0.5, 0.07, 0.07, 0.07, 0.07}, SuffixWeights("STREET", "ST"), 1e-9)
	assert.InDeltaSlice(t, []float64{0.33, 0.33, 0.33, 0.07, 0.07, 0.07}, SuffixWeights("AVENUE", "AVE"), 1e-9)
	assert.InDeltaSlice(t, []float64{0.25, 0.25, 0.25, 0.26}, SuffixWeights("LANE", ""), 1e-9)
	assert.Empty(t, SuffixWeights("", ""))
}

func TestRuleSet_WithSuffix(t *testing.T) {
	rules := MustDefaultRules()

	edited, err := rules.WithSuffix("stravenue", "stra")
	require.NoError(t, err)
	assert.True(t, edited.HasSuffix("STRAVENUE"))
	assert.False(t, rules.HasSuffix("STRAVENUE"))

	short, ok := edited.Preferred("STRAVENUE")
	assert.True(t, ok)
	assert.Equal(t, "STRA", short)

	_, err = rules.WithSuffix("12X", "")
	assert.ErrorIs(t, err, ErrInvalidRule)

	_, err = rules.WithSuffix("STREET", "STREETS")
	assert.ErrorIs(t, err, ErrInvalidRule)

	_, err = rules.WithSuffix("STREET", "ST")
	assert.ErrorIs(t, err, ErrRuleExists)

	replaced, err := rules.WithSuffix("STREET", "STR")
	require.NoError(t, err)
	short, _ = replaced.Preferred("STREET")
	assert.Equal(t, "STR", short)
}

func TestRuleSet_WithoutSuffix(t *testing.T) {
	rules := MustDefaultRules()

	edited, err := rules.WithoutSuffix("street")
	require.NoError(t, err)
	assert.False(t, edited.HasSuffix("STREET"))
	assert.Len(t, edited.Suffixes(), len(rules.Suffixes())-1)

	_, err = rules.WithoutSuffix("NOPE")
	assert.ErrorIs(t, err, ErrRuleNotFound)
}

func TestRuleSet_External(t *testing.T) {
	rules := MustDefaultRules()

	edited, err := rules.WithExternal("kiosk")
	require.NoError(t, err)
	assert.True(t, edited.HasExternal("KIOSK"))
	assert.IsIncreasing(t, edited.External())

	_, err = edited.WithExternal("KIOSK")
	assert.ErrorIs(t, err, ErrRuleExists)

	_, err = rules.WithExternal("UNIT 5")
	assert.ErrorIs(t, err, ErrInvalidRule)

	removed, err := edited.WithoutExternal("KIOSK")
	require.NoError(t, err)
	assert.False(t, removed.HasExternal("KIOSK"))

	_, err = rules.WithoutExternal("KIOSK")
	assert.ErrorIs(t, err, ErrRuleNotFound)
}

func TestRuleSet_SaveLoad(t *testing.T) {
	rules := MustDefaultRules()
	edited, err := rules.WithSuffix("STRAVENUE", "STRA")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, edited.Save(path))

	loaded, err := LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, edited.Doc(), loaded.Doc())
}

func TestParseRules_Invalid(t *testing.T) {
	_, err := ParseRules([]byte("suffixes:\n  - {name: WAY, weights: [0.5]}\n"))
	assert.ErrorIs(t, err, ErrInvalidRule)

	_, err = ParseRules([]byte("suffixes:\n  - {name: WAY}\n  - {name: way}\n"))
	assert.ErrorIs(t, err, ErrRuleExists)

	_, err = ParseRules([]byte("suffixes: ["))
	assert.Error(t, err)
}

func TestRuleSet_Version(t *testing.T) {
	rules := MustDefaultRules()
	assert.Len(t, rules.Version(), 12)
	assert.Equal(t, rules.Version(), MustDefaultRules().Version())

	edited, err := rules.WithExternal("KIOSK")
	require.NoError(t, err)
	assert.NotEqual(t, rules.Version(), edited.Version())

	removed, err := edited.WithoutExternal("KIOSK")
	require.NoError(t, err)
	assert.Equal(t, rules.Version(), removed.Version())
}
