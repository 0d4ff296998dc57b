package config

import (
	"errors"
	"io/fs"
	"os"
	"runtime"
	"time"

	"github.com/address-cleaner/internal/cleaner"
	"gopkg.in/yaml.v3"
)

type CleanerCfg struct {
	Thresholds   cleaner.Thresholds `yaml:"thresholds" json:"thresholds"`
	Workers      int                `yaml:"workers" json:"workers"`
	UseLibpostal bool               `yaml:"use_libpostal" json:"use_libpostal"`
	// RulesFile overrides the embedded rule tables when set.
	RulesFile string `yaml:"rules_file" json:"rules_file"`
	// ReviewBatchSize caps one Meilisearch push.
	ReviewBatchSize int `yaml:"review_batch_size" json:"review_batch_size"`
}

var C = Defaults()

func Defaults() CleanerCfg {
	return CleanerCfg{
		Thresholds:      cleaner.DefaultThresholds(),
		Workers:         runtime.NumCPU(),
		ReviewBatchSize: 1000,
	}
}

// Load reads path into C. A missing file keeps the defaults.
func Load(path string) error {
	cfg := Defaults()
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return err
	default:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return err
		}
	}
	cfg.Thresholds = cfg.Thresholds.WithDefaults()
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.ReviewBatchSize <= 0 {
		cfg.ReviewBatchSize = 1000
	}
	// ENV overrides
	switch os.Getenv("USE_LIBPOSTAL") {
	case "0":
		cfg.UseLibpostal = false
	case "1":
		cfg.UseLibpostal = true
	}
	if f := os.Getenv("RULES_FILE"); f != "" {
		cfg.RulesFile = f
	}
	C = cfg
	return nil
}

// Rules returns the configured rule set.
func (c CleanerCfg) Rules() (*cleaner.RuleSet, error) {
	if c.RulesFile == "" {
		return cleaner.DefaultRules()
	}
	return cleaner.LoadRules(c.RulesFile)
}

func RequestTimeout() time.Duration { return 1500 * time.Millisecond }
