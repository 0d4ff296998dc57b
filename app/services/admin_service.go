package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var ErrUnsupportedExport = errors.New("unsupported export")

// AdminService reports service health and exports stored data.
type AdminService struct {
	db        *mongo.Database
	cache     ICacheService
	addresses *AddressService
	logger    *zap.Logger
}

type SystemStats struct {
	CacheHitRate    float64                `json:"cache_hit_rate"`
	TotalProcessed  int64                  `json:"total_processed"`
	ReviewQueueSize int64                  `json:"review_queue_size"`
	RulesVersion    string                 `json:"rules_version"`
	Uptime          string                 `json:"uptime"`
	MemoryUsage     map[string]interface{} `json:"memory_usage"`
	Goroutines      int                    `json:"goroutines"`
	DatabaseStats   DatabaseStats          `json:"database_stats"`
}

type DatabaseStats struct {
	AddressCache  int64 `json:"address_cache"`
	AddressReview int64 `json:"address_review"`
	RuleSets      int64 `json:"rule_sets"`
}

// NewAdminService builds the service. db and cache may be nil.
func NewAdminService(db *mongo.Database, cache ICacheService, addresses *AddressService, logger *zap.Logger) *AdminService {
	return &AdminService{db: db, cache: cache, addresses: addresses, logger: logger}
}

func (as *AdminService) GetSystemStats(ctx context.Context) (*SystemStats, error) {
	dbStats, err := as.getDatabaseStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("database stats: %w", err)
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	_, version := as.addresses.Cleaner()
	stats := &SystemStats{
		TotalProcessed:  as.addresses.TotalProcessed(),
		ReviewQueueSize: dbStats.AddressReview,
		RulesVersion:    version,
		Uptime:          time.Since(as.addresses.GetStartTime()).Round(time.Second).String(),
		MemoryUsage: map[string]interface{}{
			"alloc_mb":       bToMb(m.Alloc),
			"total_alloc_mb": bToMb(m.TotalAlloc),
			"sys_mb":         bToMb(m.Sys),
			"num_gc":         m.NumGC,
		},
		Goroutines:    runtime.NumGoroutine(),
		DatabaseStats: *dbStats,
	}

	if as.cache != nil {
		cacheStats, err := as.cache.GetStats(ctx)
		if err != nil {
			as.logger.Warn("Failed to read cache stats", zap.Error(err))
		} else {
			stats.CacheHitRate = cacheStats.HitRate
		}
	}
	return stats, nil
}

func (as *AdminService) getDatabaseStats(ctx context.Context) (*DatabaseStats, error) {
	stats := &DatabaseStats{}
	if as.db == nil {
		return stats, nil
	}

	counts := []struct {
		collection string
		dst        *int64
	}{
		{addressCacheCollection, &stats.AddressCache},
		{addressReviewCollection, &stats.AddressReview},
		{ruleSetsCollection, &stats.RuleSets},
	}
	for _, c := range counts {
		n, err := as.db.Collection(c.collection).EstimatedDocumentCount(ctx)
		if err != nil {
			return nil, err
		}
		*c.dst = n
	}
	return stats, nil
}

// InvalidateCache drops every cached row not cleaned with the active
// rules, or every row when all is set.
func (as *AdminService) InvalidateCache(ctx context.Context, all bool) error {
	if as.cache == nil {
		return nil
	}
	if all {
		return as.cache.Clear(ctx)
	}
	_, version := as.addresses.Cleaner()
	return as.cache.InvalidateByRulesVersion(ctx, version)
}

// ExportData dumps up to limit documents of one collection as JSON.
func (as *AdminService) ExportData(ctx context.Context, dataType string, limit int) ([]byte, error) {
	if as.db == nil {
		return nil, fmt.Errorf("%w: no database configured", ErrUnsupportedExport)
	}
	switch dataType {
	case addressCacheCollection, addressReviewCollection, ruleSetsCollection:
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedExport, dataType)
	}

	findOptions := options.Find().SetLimit(int64(limit))
	cursor, err := as.db.Collection(dataType).Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", dataType, err)
	}
	defer cursor.Close(ctx)

	var results []bson.M
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("decode %s: %w", dataType, err)
	}
	return json.MarshalIndent(results, "", "  ")
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}
