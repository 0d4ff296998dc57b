package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/address-cleaner/internal/cleaner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileKeepsDefaults(t *testing.T) {
	t.Setenv("USE_LIBPOSTAL", "")
	t.Setenv("RULES_FILE", "")
	require.NoError(t, Load(filepath.Join(t.TempDir(), "nope.yaml")))
	assert.Equal(t, cleaner.DefaultThresholds(), C.Thresholds)
	assert.Positive(t, C.Workers)
	assert.False(t, C.UseLibpostal)
}

func TestLoad_PartialFile(t *testing.T) {
	t.Setenv("USE_LIBPOSTAL", "1")
	t.Setenv("RULES_FILE", "")
	path := filepath.Join(t.TempDir(), "cleaner.yaml")
	require.NoError(t, os.WriteFile(path, []byte("thresholds:\n  ext_info: 1.2\nworkers: 3\n"), 0o644))

	require.NoError(t, Load(path))
	assert.Equal(t, 1.2, C.Thresholds.ExtInfo)
	assert.Equal(t, 1.15, C.Thresholds.DecayBase)
	assert.Equal(t, 3, C.Workers)
	assert.True(t, C.UseLibpostal)
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cleaner.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: ["), 0o644))
	assert.Error(t, Load(path))
}

func TestCleanerCfg_Rules(t *testing.T) {
	rules, err := Defaults().Rules()
	require.NoError(t, err)
	assert.True(t, rules.HasSuffix("STREET"))

	cfg := Defaults()
	cfg.RulesFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = cfg.Rules()
	assert.Error(t, err)
}
