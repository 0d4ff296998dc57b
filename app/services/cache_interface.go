package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/address-cleaner/app/models"
)

type CacheStats struct {
	HitRate    float64 `json:"hit_rate"`
	TotalHits  int64   `json:"total_hits"`
	TotalMiss  int64   `json:"total_miss"`
	TotalItems int64   `json:"total_items"`
}

func hitRate(hits, misses int64) float64 {
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses)
}

// fingerprint hashes a record key for use as a storage key.
func fingerprint(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// ICacheService stores cleaned rows by record key.
type ICacheService interface {
	Get(ctx context.Context, key string) (*models.AddressResult, bool, error)
	Set(ctx context.Context, key string, result *models.AddressResult) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error

	// InvalidateByRulesVersion drops every entry cleaned with a rule set
	// other than currentVersion.
	InvalidateByRulesVersion(ctx context.Context, currentVersion string) error

	GetStats(ctx context.Context) (*CacheStats, error)
	Exists(ctx context.Context, key string) (bool, error)
	GetTTL(ctx context.Context, key string) (time.Duration, error)
	Close() error
}
