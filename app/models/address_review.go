package models

import (
	"time"

	"github.com/address-cleaner/helpers/utils"
)

// AddressReview is a flagged or unchanged row waiting for a person.
type AddressReview struct {
	ID           string         `bson:"_id" json:"id"`
	JobID        string         `bson:"job_id,omitempty" json:"job_id,omitempty"`
	Line1        string         `bson:"line1" json:"line1"`
	Line2        string         `bson:"line2" json:"line2"`
	Province     string         `bson:"province" json:"province"`
	Cleaned      string         `bson:"cleaned" json:"cleaned"`
	FlagString   string         `bson:"flag_string" json:"flag_string"`
	Reason       string         `bson:"reason,omitempty" json:"reason,omitempty"`
	AutoResult   AddressResult  `bson:"auto_result" json:"auto_result"`
	Status       string         `bson:"status" json:"status"`
	ManualResult *AddressResult `bson:"manual_result,omitempty" json:"manual_result,omitempty"`
	ReviewerID   *string        `bson:"reviewer_id,omitempty" json:"reviewer_id,omitempty"`
	ReviewedAt   *time.Time     `bson:"reviewed_at,omitempty" json:"reviewed_at,omitempty"`
	CreatedAt    time.Time      `bson:"created_at" json:"created_at"`
}

const (
	ReviewStatusPending  = "pending"
	ReviewStatusInReview = "in_review"
	ReviewStatusApproved = "approved"
	ReviewStatusRejected = "rejected"
)

func NewAddressReview(jobID string, result AddressResult) *AddressReview {
	return &AddressReview{
		ID:         utils.GenerateReviewID(),
		JobID:      jobID,
		Line1:      result.Line1,
		Line2:      result.Line2,
		Province:   result.Province,
		Cleaned:    result.Output1,
		FlagString: result.FlagString,
		Reason:     result.Reason,
		AutoResult: result,
		Status:     ReviewStatusPending,
		CreatedAt:  time.Now(),
	}
}

// IsValidReviewStatus reports whether s is a known review status.
func IsValidReviewStatus(s string) bool {
	switch s {
	case ReviewStatusPending, ReviewStatusInReview, ReviewStatusApproved, ReviewStatusRejected:
		return true
	}
	return false
}

func (ar *AddressReview) Approve(reviewerID string) {
	ar.finish(ReviewStatusApproved, reviewerID)
}

func (ar *AddressReview) Reject(reviewerID string) {
	ar.finish(ReviewStatusRejected, reviewerID)
}

// SetManualResult stores a corrected row and approves the review.
func (ar *AddressReview) SetManualResult(result AddressResult, reviewerID string) {
	ar.ManualResult = &result
	ar.finish(ReviewStatusApproved, reviewerID)
}

func (ar *AddressReview) finish(status, reviewerID string) {
	ar.Status = status
	ar.ReviewerID = &reviewerID
	now := time.Now()
	ar.ReviewedAt = &now
}

func (ar *AddressReview) IsCompleted() bool {
	return ar.Status == ReviewStatusApproved || ar.Status == ReviewStatusRejected
}
