package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/address-cleaner/app/models"
	"github.com/address-cleaner/app/requests"
	"github.com/address-cleaner/internal/cleaner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSink struct {
	mu      sync.Mutex
	reviews []models.AddressReview
}

func (f *fakeSink) Push(ctx context.Context, reviews []models.AddressReview) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reviews = append(f.reviews, reviews...)
	return nil
}

func newTestAddressService(t *testing.T, cache ICacheService) *AddressService {
	t.Helper()
	c := cleaner.NewCleaner(cleaner.MustDefaultRules(), cleaner.DefaultThresholds(), zap.NewNop())
	return NewAddressService(c, cache, 2, zap.NewNop())
}

func TestAddressService_CleanOne(t *testing.T) {
	as := newTestAddressService(t, nil)

	res, hit, err := as.CleanOne(context.Background(),
		cleaner.Record{ID: "1", Line1: "123 MAIN STREET", Province: "ON"},
		requests.CleanOptions{})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "123 MAIN ST", res.Output1)
	assert.Equal(t, models.StatusCleaned, res.Status)
	assert.Equal(t, []string{"STREET"}, res.Flags["suffix"])
	assert.Nil(t, res.Tokens)

	res, _, err = as.CleanOne(context.Background(),
		cleaner.Record{Line1: "432 RUE MONTREAL", Province: "QC"},
		requests.CleanOptions{Debug: true})
	require.NoError(t, err)
	assert.Equal(t, models.StatusValid, res.Status)
	assert.True(t, res.French)
	assert.Equal(t, []string{"432", "RUE", "MONTREAL"}, res.Tokens)

	res, _, err = as.CleanOne(context.Background(),
		cleaner.Record{Line1: "5 KM N OF TOWN", Line2: "RR 2", Province: "ON"},
		requests.CleanOptions{})
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnchanged, res.Status)
	assert.Equal(t, cleaner.InvalidNote, res.Note)
	assert.Equal(t, cleaner.ReasonDirections, res.Reason)
	assert.Equal(t, "RR 2", res.Output2)
}

func TestAddressService_CleanOneCache(t *testing.T) {
	cache := NewCacheService(time.Hour)
	as := newTestAddressService(t, cache)
	opts := requests.CleanOptions{UseCache: true}
	ctx := context.Background()

	first, hit, err := as.CleanOne(ctx, cleaner.Record{ID: "a", Line1: "123 MAIN STREET", Province: "on"}, opts)
	require.NoError(t, err)
	assert.False(t, hit)

	// spacing and province case share a cache entry
	second, hit, err := as.CleanOne(ctx, cleaner.Record{ID: "b", Line1: "123  MAIN STREET", Province: "ON"}, opts)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "b", second.ID)
	assert.Equal(t, "123  MAIN STREET", second.Line1)
	assert.Equal(t, first.Output1, second.Output1)
	assert.Equal(t, first.FlagString, second.FlagString)

	stats, err := cache.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalHits)
	assert.Equal(t, int64(1), stats.TotalItems)

	// a rules change makes the cached row stale
	c, _ := as.Cleaner()
	edited, err := c.Rules().WithExternal("KIOSK")
	require.NoError(t, err)
	as.SetCleaner(c.WithRules(edited))

	_, hit, err = as.CleanOne(ctx, cleaner.Record{Line1: "123 MAIN STREET", Province: "ON"}, opts)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestAddressService_CleanOneCancelled(t *testing.T) {
	as := newTestAddressService(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := as.CleanOne(ctx, cleaner.Record{Line1: "123 MAIN ST", Province: "ON"}, requests.CleanOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAddressService_ReferenceParser(t *testing.T) {
	as := newTestAddressService(t, nil)
	as.SetReferenceParser(func(raw string, french bool) *models.Reference {
		return &models.Reference{Road: raw}
	})

	res, _, err := as.CleanOne(context.Background(),
		cleaner.Record{Line1: "123 MAIN ST", Province: "ON"},
		requests.CleanOptions{Reference: true})
	require.NoError(t, err)
	require.NotNil(t, res.Reference)
	assert.Equal(t, "123 MAIN ST", res.Reference.Road)
}

func TestAddressService_ProcessBatchJob(t *testing.T) {
	as := newTestAddressService(t, nil)
	sink := &fakeSink{}
	as.SetReviewSink(sink)

	records := []cleaner.Record{
		{ID: "1", Line1: "432 RUE MONTREAL", Province: "QC"},
		{ID: "2", Line1: "123 MAIN STREET", Province: "ON"},
		{ID: "3", Line1: "KING & QUEEN", Province: "ON"},
	}
	err := as.ProcessBatchJob(context.Background(), "job_1", records, requests.CleanOptions{Review: true})
	require.NoError(t, err)

	status, err := as.GetJobStatus("job_1")
	require.NoError(t, err)
	assert.Equal(t, "done", status.Status)
	assert.Equal(t, 3, status.Processed)
	assert.Equal(t, 1.0, status.Progress)
	assert.Equal(t, map[string]int{
		models.StatusValid:     1,
		models.StatusCleaned:   1,
		models.StatusUnchanged: 1,
	}, status.Summary)

	results, err := as.GetJobResults("job_1")
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, res := range results {
		assert.Equal(t, records[i].ID, res.ID)
	}

	require.Len(t, sink.reviews, 2)
	assert.Equal(t, "job_1", sink.reviews[0].JobID)
	assert.Equal(t, models.ReviewStatusPending, sink.reviews[0].Status)
	assert.Equal(t, cleaner.ReasonJunction, sink.reviews[1].Reason)

	stream, err := as.GetJobResultsStream(context.Background(), "job_1")
	require.NoError(t, err)
	var streamed []string
	for res := range stream {
		streamed = append(streamed, res.ID)
	}
	assert.Equal(t, []string{"1", "2", "3"}, streamed)
}

func TestAddressService_ProcessBatchJobCancelled(t *testing.T) {
	as := newTestAddressService(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := as.ProcessBatchJob(ctx, "job_x", []cleaner.Record{{Line1: "123 MAIN ST", Province: "ON"}}, requests.CleanOptions{})
	assert.ErrorIs(t, err, context.Canceled)

	status, err := as.GetJobStatus("job_x")
	require.NoError(t, err)
	assert.Equal(t, "failed", status.Status)

	_, err = as.GetJobResults("job_x")
	assert.ErrorIs(t, err, ErrJobNotDone)
}

func TestAddressService_SubmitBatchJob(t *testing.T) {
	as := newTestAddressService(t, nil)
	as.SubmitBatchJob("job_async", []cleaner.Record{{Line1: "123 MAIN ST", Province: "ON"}}, requests.CleanOptions{})

	require.Eventually(t, func() bool {
		status, err := as.GetJobStatus("job_async")
		return err == nil && status.Status == "done"
	}, 5*time.Second, 10*time.Millisecond)
}

func TestAddressService_UnknownJob(t *testing.T) {
	as := newTestAddressService(t, nil)

	_, err := as.GetJobStatus("nope")
	assert.ErrorIs(t, err, ErrJobNotFound)
	_, err = as.GetJobResults("nope")
	assert.ErrorIs(t, err, ErrJobNotFound)
	_, err = as.GetJobResultsStream(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestAddressService_Scores(t *testing.T) {
	as := newTestAddressService(t, nil)

	scores := as.Scores(cleaner.Record{Line1: "123 MAIN STREET", Province: "ON"})
	require.Len(t, scores, 3)
	assert.Equal(t, cleaner.KindNumber, scores[0].Kind)
	assert.Equal(t, "STREET", scores[2].SuffixMatch)

	assert.Nil(t, as.Scores(cleaner.Record{Line1: "MAIN", Province: "ON"}))
}

func TestAddressService_EstimateBatchProcessingTime(t *testing.T) {
	as := newTestAddressService(t, nil)
	assert.Equal(t, 0, as.EstimateBatchProcessingTime(0))
	assert.Equal(t, 1, as.EstimateBatchProcessingTime(1))
	assert.Equal(t, 3, as.EstimateBatchProcessingTime(5000))
}

func TestAddressService_CleanOneCacheKeepsCase(t *testing.T) {
	cache := NewCacheService(time.Hour)
	as := newTestAddressService(t, cache)
	opts := requests.CleanOptions{UseCache: true}
	ctx := context.Background()

	upper, _, err := as.CleanOne(ctx, cleaner.Record{Line1: "123 MAIN STREET", Province: "ON"}, opts)
	require.NoError(t, err)
	assert.NotContains(t, upper.Flags["street"], "FORMAT")

	lower, hit, err := as.CleanOne(ctx, cleaner.Record{Line1: "123 main street", Province: "ON"}, opts)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Contains(t, lower.Flags["street"], "FORMAT")
	assert.NotEqual(t, upper.FlagString, lower.FlagString)

	first, _, err := as.CleanOne(ctx, cleaner.Record{Line1: "BAY/BLOOR", Province: "ON"}, opts)
	require.NoError(t, err)
	second, hit, err := as.CleanOne(ctx, cleaner.Record{Line1: "Bay/Bloor", Province: "ON"}, opts)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, models.StatusUnchanged, first.Status)
	assert.NotEqual(t, first.Output1, second.Output1)

	stats, err := cache.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalItems)
}
