package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/address-cleaner/app/models"
	"github.com/address-cleaner/app/requests"
	"github.com/address-cleaner/internal/cleaner"
	"github.com/address-cleaner/internal/normalizer"
	"go.uber.org/zap"
)

var (
	ErrJobNotFound = errors.New("job not found")
	ErrJobNotDone  = errors.New("job not finished")
)

// Batch jobs report progress after each chunk.
const jobChunkSize = 500

// Finished jobs are dropped after jobRetention.
const jobRetention = 24 * time.Hour

// ReviewSink receives rows that need a person to look at them.
type ReviewSink interface {
	Push(ctx context.Context, reviews []models.AddressReview) error
}

// ReferenceParser returns an independent reading of a raw line.
type ReferenceParser func(raw string, french bool) *models.Reference

// AddressService cleans rows one at a time or as background batch jobs.
type AddressService struct {
	mu           sync.RWMutex
	cleaner      *cleaner.Cleaner
	rulesVersion string

	cache     ICacheService
	reviews   ReviewSink
	reference ReferenceParser
	workers   int
	logger    *zap.Logger
	startTime time.Time

	processed atomic.Int64
	cacheHits atomic.Int64

	jobs       map[string]*JobStatus
	jobResults map[string][]*models.AddressResult
}

type JobStatus struct {
	JobID              string
	Status             string
	Progress           float64
	Processed          int
	Total              int
	EstimatedRemaining int
	Summary            map[string]int
	Message            string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewAddressService builds the service. cache may be nil.
func NewAddressService(c *cleaner.Cleaner, cache ICacheService, workers int, logger *zap.Logger) *AddressService {
	return &AddressService{
		cleaner:      c,
		rulesVersion: c.Rules().Version(),
		cache:        cache,
		workers:      workers,
		logger:       logger,
		startTime:    time.Now(),
		jobs:         make(map[string]*JobStatus),
		jobResults:   make(map[string][]*models.AddressResult),
	}
}

func (as *AddressService) SetReviewSink(sink ReviewSink) { as.reviews = sink }

func (as *AddressService) SetReferenceParser(p ReferenceParser) { as.reference = p }

// Cleaner returns the active cleaner and its rules version.
func (as *AddressService) Cleaner() (*cleaner.Cleaner, string) {
	as.mu.RLock()
	defer as.mu.RUnlock()
	return as.cleaner, as.rulesVersion
}

// SetCleaner swaps the active cleaner. Running jobs finish with the cleaner
// they started with.
func (as *AddressService) SetCleaner(c *cleaner.Cleaner) string {
	version := c.Rules().Version()
	as.mu.Lock()
	as.cleaner = c
	as.rulesVersion = version
	as.mu.Unlock()

	as.logger.Info("Cleaner rules updated", zap.String("rules_version", version))
	return version
}

// CleanOne cleans one record. The bool reports a cache hit.
func (as *AddressService) CleanOne(ctx context.Context, rec cleaner.Record, opts requests.CleanOptions) (*models.AddressResult, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	c, version := as.Cleaner()
	key := normalizer.RecordKey(rec.Line1, rec.Line2, rec.Province)

	if opts.UseCache && as.cache != nil {
		cached, found, err := as.cache.Get(ctx, key)
		if err != nil {
			as.logger.Warn("Cache lookup failed", zap.Error(err))
		} else if found && cached.RulesVersion == version {
			as.cacheHits.Add(1)
			as.processed.Add(1)
			res := *cached
			res.ID, res.Line1, res.Line2 = rec.ID, rec.Line1, rec.Line2
			as.decorate(&res, opts)
			return &res, true, nil
		}
	}

	res := models.NewAddressResult(rec, c.CleanRecord(rec), version)
	as.processed.Add(1)

	if opts.UseCache && as.cache != nil {
		if err := as.cache.Set(ctx, key, &res); err != nil {
			as.logger.Warn("Cache store failed", zap.Error(err))
		}
	}
	as.decorate(&res, opts)

	if opts.Review && res.NeedsReview() {
		as.pushReviews(ctx, "", []*models.AddressResult{&res})
	}
	return &res, false, nil
}

func (as *AddressService) decorate(res *models.AddressResult, opts requests.CleanOptions) {
	if !opts.Debug {
		res.Tokens = nil
	}
	if opts.Reference && as.reference != nil {
		res.Reference = as.reference(res.Line1, res.French)
	}
}

// Scores returns the per-token scores of line 1, or nil when the line is
// rejected before scoring.
func (as *AddressService) Scores(rec cleaner.Record) []cleaner.TokenScore {
	c, _ := as.Cleaner()
	a := cleaner.Tokenize(rec.Line1, rec.Province)
	if a.Invalid() || a.Passthrough {
		return nil
	}
	return c.Scorer().ScoreAll(a.Original, a.French)
}

// EstimateBatchProcessingTime returns seconds, assuming 2000 rows/s.
func (as *AddressService) EstimateBatchProcessingTime(count int) int {
	return (count + 1999) / 2000
}

// SubmitBatchJob registers a job and cleans records in the background.
func (as *AddressService) SubmitBatchJob(jobID string, records []cleaner.Record, opts requests.CleanOptions) {
	as.mu.Lock()
	as.pruneJobsLocked()
	as.jobs[jobID] = &JobStatus{
		JobID:     jobID,
		Status:    "pending",
		Total:     len(records),
		Message:   "Queued",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	as.mu.Unlock()

	go func() {
		if err := as.ProcessBatchJob(context.Background(), jobID, records, opts); err != nil {
			as.logger.Error("Batch job failed", zap.String("job_id", jobID), zap.Error(err))
		}
	}()
}

// ProcessBatchJob cleans records chunk by chunk, updating the job status.
func (as *AddressService) ProcessBatchJob(ctx context.Context, jobID string, records []cleaner.Record, opts requests.CleanOptions) error {
	c, version := as.Cleaner()
	started := time.Now()

	as.updateJob(jobID, func(job *JobStatus) {
		job.Status = "running"
		job.Total = len(records)
		job.Message = "Processing"
	})

	results := make([]*models.AddressResult, 0, len(records))
	summary := make(map[string]int)
	for from := 0; from < len(records); from += jobChunkSize {
		to := from + jobChunkSize
		if to > len(records) {
			to = len(records)
		}
		cleaned, err := c.CleanAll(ctx, records[from:to], as.workers)
		if err != nil {
			as.updateJob(jobID, func(job *JobStatus) {
				job.Status = "failed"
				job.Message = err.Error()
			})
			return err
		}
		for i, a := range cleaned {
			res := models.NewAddressResult(records[from+i], a, version)
			if !opts.Debug {
				res.Tokens = nil
			}
			summary[res.Status]++
			results = append(results, &res)
		}
		as.processed.Add(int64(len(cleaned)))

		done := to
		rate := float64(done) / time.Since(started).Seconds()
		as.updateJob(jobID, func(job *JobStatus) {
			job.Processed = done
			job.Progress = float64(done) / float64(len(records))
			if rate > 0 {
				job.EstimatedRemaining = int(float64(len(records)-done) / rate)
			}
		})
	}

	as.mu.Lock()
	as.jobResults[jobID] = results
	as.mu.Unlock()

	as.updateJob(jobID, func(job *JobStatus) {
		job.Status = "done"
		job.Progress = 1
		job.Processed = len(records)
		job.EstimatedRemaining = 0
		job.Summary = summary
		job.Message = "Completed"
	})

	if opts.Review {
		var flagged []*models.AddressResult
		for _, res := range results {
			if res.NeedsReview() {
				flagged = append(flagged, res)
			}
		}
		as.pushReviews(ctx, jobID, flagged)
	}

	as.logger.Info("Batch job completed",
		zap.String("job_id", jobID),
		zap.Int("total_records", len(records)),
		zap.Any("summary", summary),
		zap.Duration("elapsed", time.Since(started)))
	return nil
}

func (as *AddressService) pushReviews(ctx context.Context, jobID string, results []*models.AddressResult) {
	if as.reviews == nil || len(results) == 0 {
		return
	}
	reviews := make([]models.AddressReview, len(results))
	for i, res := range results {
		reviews[i] = *models.NewAddressReview(jobID, *res)
	}
	if err := as.reviews.Push(ctx, reviews); err != nil {
		as.logger.Warn("Failed to queue reviews", zap.String("job_id", jobID), zap.Error(err))
	}
}

func (as *AddressService) updateJob(jobID string, fn func(*JobStatus)) {
	as.mu.Lock()
	defer as.mu.Unlock()

	job, exists := as.jobs[jobID]
	if !exists {
		job = &JobStatus{JobID: jobID, CreatedAt: time.Now()}
		as.jobs[jobID] = job
	}
	fn(job)
	job.UpdatedAt = time.Now()
}

// pruneJobsLocked must be called with mu held.
func (as *AddressService) pruneJobsLocked() {
	for id, job := range as.jobs {
		if (job.Status == "done" || job.Status == "failed") && time.Since(job.UpdatedAt) > jobRetention {
			delete(as.jobs, id)
			delete(as.jobResults, id)
		}
	}
}

// GetJobStatus returns a snapshot of the job.
func (as *AddressService) GetJobStatus(jobID string) (JobStatus, error) {
	as.mu.RLock()
	defer as.mu.RUnlock()

	job, exists := as.jobs[jobID]
	if !exists {
		return JobStatus{}, ErrJobNotFound
	}
	snapshot := *job
	if job.Summary != nil {
		snapshot.Summary = make(map[string]int, len(job.Summary))
		for k, v := range job.Summary {
			snapshot.Summary[k] = v
		}
	}
	return snapshot, nil
}

func (as *AddressService) GetJobResults(jobID string) ([]*models.AddressResult, error) {
	as.mu.RLock()
	defer as.mu.RUnlock()

	if _, exists := as.jobs[jobID]; !exists {
		return nil, ErrJobNotFound
	}
	results, exists := as.jobResults[jobID]
	if !exists {
		return nil, ErrJobNotDone
	}
	return results, nil
}

// GetJobResultsStream streams job results until ctx is done.
func (as *AddressService) GetJobResultsStream(ctx context.Context, jobID string) (<-chan *models.AddressResult, error) {
	results, err := as.GetJobResults(jobID)
	if err != nil {
		return nil, err
	}

	resultChannel := make(chan *models.AddressResult, 100)
	go func() {
		defer close(resultChannel)
		for _, result := range results {
			select {
			case <-ctx.Done():
				return
			case resultChannel <- result:
			}
		}
	}()
	return resultChannel, nil
}

func (as *AddressService) GetStartTime() time.Time {
	return as.startTime
}

func (as *AddressService) GetStats() map[string]interface{} {
	as.mu.RLock()
	jobs := len(as.jobs)
	version := as.rulesVersion
	as.mu.RUnlock()

	return map[string]interface{}{
		"uptime_seconds":  int64(time.Since(as.startTime).Seconds()),
		"start_time":      as.startTime.Format(time.RFC3339),
		"total_processed": as.processed.Load(),
		"cache_hits":      as.cacheHits.Load(),
		"jobs":            jobs,
		"rules_version":   version,
		"status":          "running",
	}
}

// TotalProcessed counts rows cleaned since start.
func (as *AddressService) TotalProcessed() int64 {
	return as.processed.Load()
}
