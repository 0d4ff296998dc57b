package services

import (
	"context"
	"errors"
	"time"

	"github.com/address-cleaner/app/models"
	"go.uber.org/zap"
)

// HybridCacheService reads through a fast L1 (Redis) to a persistent L2
// (MongoDB) and writes to both.
type HybridCacheService struct {
	l1     ICacheService
	l2     ICacheService
	logger *zap.Logger
}

func NewHybridCacheService(l1, l2 ICacheService, logger *zap.Logger) *HybridCacheService {
	return &HybridCacheService{l1: l1, l2: l2, logger: logger}
}

func (hcs *HybridCacheService) Get(ctx context.Context, key string) (*models.AddressResult, bool, error) {
	result, found, err := hcs.l1.Get(ctx, key)
	if err != nil {
		hcs.logger.Warn("L1 cache failed, falling back to L2", zap.Error(err))
	} else if found {
		return result, true, nil
	}

	result, found, err = hcs.l2.Get(ctx, key)
	if err != nil || !found {
		return nil, false, err
	}

	// promote to L1
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := hcs.l1.Set(bgCtx, key, result); err != nil {
			hcs.logger.Warn("Failed to promote row to L1", zap.Error(err), zap.String("key", key))
		}
	}()
	return result, true, nil
}

// both runs fn on each level in parallel and joins their errors.
func (hcs *HybridCacheService) both(fn func(ICacheService) error) error {
	errCh := make(chan error, 2)
	for _, c := range []ICacheService{hcs.l1, hcs.l2} {
		go func(c ICacheService) { errCh <- fn(c) }(c)
	}
	var errs []error
	for i := 0; i < 2; i++ {
		if err := <-errCh; err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (hcs *HybridCacheService) Set(ctx context.Context, key string, result *models.AddressResult) error {
	err := hcs.both(func(c ICacheService) error { return c.Set(ctx, key, result) })
	if err != nil {
		hcs.logger.Warn("Hybrid cache set failed", zap.Error(err), zap.String("key", key))
	}
	return err
}

func (hcs *HybridCacheService) Delete(ctx context.Context, key string) error {
	return hcs.both(func(c ICacheService) error { return c.Delete(ctx, key) })
}

func (hcs *HybridCacheService) Clear(ctx context.Context) error {
	return hcs.both(func(c ICacheService) error { return c.Clear(ctx) })
}

func (hcs *HybridCacheService) InvalidateByRulesVersion(ctx context.Context, currentVersion string) error {
	return hcs.both(func(c ICacheService) error { return c.InvalidateByRulesVersion(ctx, currentVersion) })
}

// GetStats reports L2 items and the combined hit rate.
func (hcs *HybridCacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	l1, err := hcs.l1.GetStats(ctx)
	if err != nil {
		hcs.logger.Warn("Failed to read L1 stats", zap.Error(err))
		l1 = &CacheStats{}
	}
	l2, err := hcs.l2.GetStats(ctx)
	if err != nil {
		return nil, err
	}

	// an L1 miss is only a real miss when L2 also misses
	hits := l1.TotalHits + l2.TotalHits
	return &CacheStats{
		HitRate:    hitRate(hits, l2.TotalMiss),
		TotalHits:  hits,
		TotalMiss:  l2.TotalMiss,
		TotalItems: l2.TotalItems,
	}, nil
}

func (hcs *HybridCacheService) Exists(ctx context.Context, key string) (bool, error) {
	if ok, err := hcs.l1.Exists(ctx, key); err == nil && ok {
		return true, nil
	}
	return hcs.l2.Exists(ctx, key)
}

func (hcs *HybridCacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	return hcs.l1.GetTTL(ctx, key)
}

func (hcs *HybridCacheService) Close() error {
	return errors.Join(hcs.l1.Close(), hcs.l2.Close())
}
