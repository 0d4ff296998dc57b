package search

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/address-cleaner/app/models"
	"github.com/meilisearch/meilisearch-go"
	"go.uber.org/zap"
)

const DefaultReviewIndex = "address_review"

type SearchConfig struct {
	Host      string
	APIKey    string
	IndexName string
	BatchSize int
}

// ReviewQuery narrows a review search.
type ReviewQuery struct {
	Text     string
	Province string
	Status   string
	Reason   string
	Limit    int
	Offset   int
}

// ReviewIndex is the Meilisearch index of rows waiting for review.
type ReviewIndex struct {
	client    *ClientWrapper
	indexName string
	batchSize int
	logger    *zap.Logger
}

func NewReviewIndex(config SearchConfig, logger *zap.Logger) (*ReviewIndex, error) {
	client := NewClientWrapper(config.Host, config.APIKey)
	if err := client.Healthy(); err != nil {
		return nil, fmt.Errorf("connect meilisearch: %w", err)
	}
	if config.IndexName == "" {
		config.IndexName = DefaultReviewIndex
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 1000
	}
	return &ReviewIndex{
		client:    client,
		indexName: config.IndexName,
		batchSize: config.BatchSize,
		logger:    logger,
	}, nil
}

// BuildIndex applies the index settings. Street-type synonyms let "street"
// find rows typed as "ST".
func (ri *ReviewIndex) BuildIndex() error {
	index := ri.client.cli.Index(ri.indexName)

	task, err := index.UpdateSettings(&meilisearch.Settings{
		SearchableAttributes: []string{"line1", "cleaned", "line2", "flag_string"},
		FilterableAttributes: []string{"province", "status", "reason", "job_id", "flag_tags"},
		SortableAttributes:   []string{"created_at"},
		RankingRules:         []string{"words", "typo", "proximity", "attribute", "sort", "exactness"},
		Synonyms: map[string][]string{
			"st":   {"street"},
			"ave":  {"avenue"},
			"rd":   {"road"},
			"blvd": {"boulevard"},
			"ch":   {"chemin"},
			"cp":   {"case postale"},
		},
	})
	if err != nil {
		return fmt.Errorf("configure review index: %w", err)
	}

	ri.logger.Info("Configured review index",
		zap.String("index", ri.indexName),
		zap.Int64("task_uid", task.TaskUID))
	return nil
}

// reviewDocument flattens a review for indexing.
func reviewDocument(r models.AddressReview) map[string]interface{} {
	var tags []string
	for category, list := range r.AutoResult.Flags {
		for _, tag := range list {
			tags = append(tags, category+":"+tag)
		}
	}
	return map[string]interface{}{
		"id":          r.ID,
		"job_id":      r.JobID,
		"line1":       r.Line1,
		"line2":       r.Line2,
		"province":    r.Province,
		"cleaned":     r.Cleaned,
		"flag_string": r.FlagString,
		"flag_tags":   tags,
		"reason":      r.Reason,
		"status":      r.Status,
		"created_at":  r.CreatedAt.Unix(),
	}
}

// IndexReviews adds or replaces reviews in batches.
func (ri *ReviewIndex) IndexReviews(reviews []models.AddressReview) error {
	if len(reviews) == 0 {
		return errors.New("no reviews to index")
	}

	index := ri.client.cli.Index(ri.indexName)
	documents := make([]map[string]interface{}, len(reviews))
	for i, r := range reviews {
		documents[i] = reviewDocument(r)
	}

	for i := 0; i < len(documents); i += ri.batchSize {
		end := i + ri.batchSize
		if end > len(documents) {
			end = len(documents)
		}

		task, err := index.AddDocuments(documents[i:end], "id")
		if err != nil {
			return fmt.Errorf("index reviews %d-%d: %w", i, end, err)
		}

		ri.logger.Debug("Indexed review batch",
			zap.Int("from", i),
			zap.Int("to", end),
			zap.Int64("task_uid", task.TaskUID))
	}

	ri.logger.Info("Indexed reviews", zap.Int("total", len(documents)))
	return nil
}

// Search returns matching reviews and the estimated total.
func (ri *ReviewIndex) Search(q ReviewQuery) ([]models.AddressReview, int64, error) {
	if q.Limit <= 0 {
		q.Limit = 20
	}
	filter := Filter(
		"province", strings.ToUpper(q.Province),
		"status", q.Status,
		"reason", q.Reason,
	)

	result, err := ri.client.SearchIndex(ri.indexName, q.Text, filter, int64(q.Limit), int64(q.Offset))
	if err != nil {
		return nil, 0, fmt.Errorf("search reviews: %w", err)
	}

	reviews := make([]models.AddressReview, 0, len(result.Hits))
	for _, hit := range result.Hits {
		hitMap, ok := hit.(map[string]interface{})
		if !ok {
			continue
		}
		reviews = append(reviews, parseReviewHit(hitMap))
	}
	return reviews, result.EstimatedTotalHits, nil
}

func parseReviewHit(hitMap map[string]interface{}) models.AddressReview {
	str := func(key string) string {
		s, _ := hitMap[key].(string)
		return s
	}
	r := models.AddressReview{
		ID:         str("id"),
		JobID:      str("job_id"),
		Line1:      str("line1"),
		Line2:      str("line2"),
		Province:   str("province"),
		Cleaned:    str("cleaned"),
		FlagString: str("flag_string"),
		Reason:     str("reason"),
		Status:     str("status"),
	}
	if created, ok := hitMap["created_at"].(float64); ok {
		r.CreatedAt = time.Unix(int64(created), 0)
	}
	return r
}
