package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/address-cleaner/app/requests"
	"github.com/address-cleaner/internal/cleaner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRulesService_AddSuffix(t *testing.T) {
	cache := NewCacheService(time.Hour)
	as := newTestAddressService(t, cache)
	path := filepath.Join(t.TempDir(), "rules.yaml")
	rs := NewRulesService(nil, as, cache, path, zap.NewNop())
	ctx := context.Background()

	_, _, err := as.CleanOne(ctx, cleaner.Record{Line1: "12 MAIN STRAVENUE", Province: "ON"}, requests.CleanOptions{UseCache: true})
	require.NoError(t, err)
	require.Equal(t, 1, cache.Size())

	_, before := rs.Current()
	rules, warnings, err := rs.AddSuffix(ctx, "stravenue", "stra")
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.True(t, rules.HasSuffix("STRAVENUE"))

	current, after := rs.Current()
	assert.NotEqual(t, before, after)
	assert.True(t, current.HasSuffix("STRAVENUE"))
	assert.Equal(t, 0, cache.Size())

	saved, err := cleaner.LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, after, saved.Version())

	res, hit, err := as.CleanOne(ctx, cleaner.Record{Line1: "12 MAIN STRAVENUE", Province: "ON"}, requests.CleanOptions{UseCache: true})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, after, res.RulesVersion)
}

func TestRulesService_Warnings(t *testing.T) {
	rs := NewRulesService(nil, newTestAddressService(t, nil), nil, "", zap.NewNop())

	_, warnings, err := rs.AddSuffix(context.Background(), "STREETS", "")
	require.NoError(t, err)
	assert.Contains(t, warnings, "STREETS is similar to existing rule STREET")

	_, warnings, err = rs.AddExternal(context.Background(), "SUITES")
	require.NoError(t, err)
	assert.Contains(t, warnings, "SUITES is similar to existing rule SUITE")
}

func TestRulesService_Errors(t *testing.T) {
	rs := NewRulesService(nil, newTestAddressService(t, nil), nil, "", zap.NewNop())
	ctx := context.Background()
	_, before := rs.Current()

	_, _, err := rs.AddSuffix(ctx, "12X", "")
	assert.ErrorIs(t, err, cleaner.ErrInvalidRule)

	_, err = rs.RemoveExternal(ctx, "NOPE")
	assert.ErrorIs(t, err, cleaner.ErrRuleNotFound)

	_, after := rs.Current()
	assert.Equal(t, before, after)

	_, err = rs.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSavedRules)
}

func TestRulesService_RemoveAndReplace(t *testing.T) {
	rs := NewRulesService(nil, newTestAddressService(t, nil), nil, "", zap.NewNop())
	ctx := context.Background()

	rules, err := rs.RemoveSuffix(ctx, "STREET")
	require.NoError(t, err)
	assert.False(t, rules.HasSuffix("STREET"))

	_, _, err = rs.AddExternal(ctx, "KIOSK")
	require.NoError(t, err)
	rules, err = rs.RemoveExternal(ctx, "KIOSK")
	require.NoError(t, err)
	assert.False(t, rules.HasExternal("KIOSK"))

	defaults := cleaner.MustDefaultRules()
	rules, err = rs.Replace(ctx, defaults.Doc(), "reset")
	require.NoError(t, err)
	_, version := rs.Current()
	assert.Equal(t, defaults.Version(), version)
	assert.True(t, rules.HasSuffix("STREET"))
}

func TestSimilarRules(t *testing.T) {
	existing := []string{"AVENUE", "STREET", "COURT"}

	assert.Equal(t, []string{"AVENU is similar to existing rule AVENUE"}, SimilarRules("avenu", existing))
	assert.Empty(t, SimilarRules("STREET", existing))
	assert.Empty(t, SimilarRules("LANE", existing))
}
