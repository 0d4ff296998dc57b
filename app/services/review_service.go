package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/address-cleaner/app/models"
	"github.com/address-cleaner/internal/search"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const addressReviewCollection = "address_review"

var (
	ErrReviewNotFound = errors.New("review not found")
	ErrReviewClosed   = errors.New("review already completed")
)

// ReviewService stores flagged rows in MongoDB and mirrors them into the
// search index. Either side may be nil.
type ReviewService struct {
	collection *mongo.Collection
	index      *search.ReviewIndex
	logger     *zap.Logger
}

func NewReviewService(db *mongo.Database, index *search.ReviewIndex, logger *zap.Logger) *ReviewService {
	rs := &ReviewService{index: index, logger: logger}
	if db != nil {
		rs.collection = db.Collection(addressReviewCollection)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, err := rs.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
			{Keys: bson.D{{Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "job_id", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		})
		if err != nil {
			logger.Warn("Failed to create address_review indexes", zap.Error(err))
		}
	}
	return rs
}

// Push stores and indexes reviews.
func (rs *ReviewService) Push(ctx context.Context, reviews []models.AddressReview) error {
	if len(reviews) == 0 {
		return nil
	}
	var errs []error
	if rs.collection != nil {
		docs := make([]interface{}, len(reviews))
		for i := range reviews {
			docs[i] = reviews[i]
		}
		if _, err := rs.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false)); err != nil {
			errs = append(errs, fmt.Errorf("store reviews: %w", err))
		}
	}
	if rs.index != nil {
		if err := rs.index.IndexReviews(reviews); err != nil {
			errs = append(errs, err)
		}
	}
	rs.logger.Info("Queued reviews", zap.Int("count", len(reviews)))
	return errors.Join(errs...)
}

// Search queries the index.
func (rs *ReviewService) Search(q search.ReviewQuery) ([]models.AddressReview, int64, error) {
	if rs.index == nil {
		return nil, 0, errors.New("review search is not configured")
	}
	return rs.index.Search(q)
}

func (rs *ReviewService) Get(ctx context.Context, id string) (*models.AddressReview, error) {
	if rs.collection == nil {
		return nil, ErrReviewNotFound
	}
	var review models.AddressReview
	err := rs.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&review)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrReviewNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load review: %w", err)
	}
	return &review, nil
}

// Approve accepts the automatic result.
func (rs *ReviewService) Approve(ctx context.Context, id, reviewerID string) (*models.AddressReview, error) {
	return rs.update(ctx, id, func(r *models.AddressReview) { r.Approve(reviewerID) })
}

// Reject marks the automatic result wrong without a correction.
func (rs *ReviewService) Reject(ctx context.Context, id, reviewerID string) (*models.AddressReview, error) {
	return rs.update(ctx, id, func(r *models.AddressReview) { r.Reject(reviewerID) })
}

// Correct stores a manual result.
func (rs *ReviewService) Correct(ctx context.Context, id string, manual models.AddressResult, reviewerID string) (*models.AddressReview, error) {
	return rs.update(ctx, id, func(r *models.AddressReview) { r.SetManualResult(manual, reviewerID) })
}

func (rs *ReviewService) update(ctx context.Context, id string, fn func(*models.AddressReview)) (*models.AddressReview, error) {
	review, err := rs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if review.IsCompleted() {
		return nil, fmt.Errorf("%w: %s", ErrReviewClosed, review.Status)
	}
	fn(review)

	if _, err := rs.collection.ReplaceOne(ctx, bson.M{"_id": id}, review); err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}
	if rs.index != nil {
		if err := rs.index.IndexReviews([]models.AddressReview{*review}); err != nil {
			rs.logger.Warn("Failed to reindex review", zap.String("review_id", id), zap.Error(err))
		}
	}
	return review, nil
}

// CountPending returns the number of reviews still waiting.
func (rs *ReviewService) CountPending(ctx context.Context) (int64, error) {
	if rs.collection == nil {
		return 0, nil
	}
	return rs.collection.CountDocuments(ctx, bson.M{"status": models.ReviewStatusPending})
}
