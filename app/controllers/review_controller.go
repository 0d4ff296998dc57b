package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/address-cleaner/app/models"
	"github.com/address-cleaner/app/requests"
	"github.com/address-cleaner/app/responses"
	"github.com/address-cleaner/app/services"
	"github.com/address-cleaner/internal/search"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ReviewController serves the manual review queue.
type ReviewController struct {
	reviewService *services.ReviewService
	logger        *zap.Logger
}

func NewReviewController(reviewService *services.ReviewService, logger *zap.Logger) *ReviewController {
	return &ReviewController{reviewService: reviewService, logger: logger}
}

// Search finds reviews by text with optional province, status and reason filters.
func (rc *ReviewController) Search(c *gin.Context) {
	q := search.ReviewQuery{
		Text:     c.Query("q"),
		Province: c.Query("province"),
		Status:   c.DefaultQuery("status", models.ReviewStatusPending),
		Reason:   c.Query("reason"),
		Limit:    20,
	}
	if !models.IsValidReviewStatus(q.Status) {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Unknown review status: "+q.Status)
		return
	}
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= 100 {
		q.Limit = l
	}
	if o, err := strconv.Atoi(c.Query("offset")); err == nil && o >= 0 {
		q.Offset = o
	}

	hits, total, err := rc.reviewService.Search(q)
	if err != nil {
		rc.logger.Error("Review search failed", zap.Error(err))
		respondError(c, http.StatusServiceUnavailable, "SEARCH_ERROR", err.Error())
		return
	}

	c.JSON(http.StatusOK, responses.ReviewSearchResponse{
		Query:  q.Text,
		Hits:   hits,
		Total:  total,
		Limit:  q.Limit,
		Offset: q.Offset,
	})
}

func (rc *ReviewController) Get(c *gin.Context) {
	review, err := rc.reviewService.Get(c.Request.Context(), c.Param("reviewID"))
	if err != nil {
		rc.reviewError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, "OK", review)
}

func (rc *ReviewController) Approve(c *gin.Context) {
	var req requests.ReviewApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request: "+err.Error())
		return
	}
	review, err := rc.reviewService.Approve(c.Request.Context(), c.Param("reviewID"), req.ReviewerID)
	rc.respond(c, "approve", review, err)
}

func (rc *ReviewController) Reject(c *gin.Context) {
	var req requests.ReviewApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request: "+err.Error())
		return
	}
	review, err := rc.reviewService.Reject(c.Request.Context(), c.Param("reviewID"), req.ReviewerID)
	rc.respond(c, "reject", review, err)
}

func (rc *ReviewController) Correct(c *gin.Context) {
	var req requests.ReviewCorrectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request: "+err.Error())
		return
	}
	review, err := rc.reviewService.Correct(c.Request.Context(), c.Param("reviewID"), req.ManualResult, req.ReviewerID)
	rc.respond(c, "correct", review, err)
}

func (rc *ReviewController) respond(c *gin.Context, action string, review *models.AddressReview, err error) {
	if err != nil {
		rc.reviewError(c, err)
		return
	}
	c.JSON(http.StatusOK, responses.ReviewActionResponse{
		Success:   true,
		ReviewID:  review.ID,
		Action:    action,
		Message:   "Review " + review.Status,
		UpdatedAt: time.Now().Format(time.RFC3339),
	})
}

func (rc *ReviewController) reviewError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrReviewNotFound) {
		respondError(c, http.StatusNotFound, "REVIEW_NOT_FOUND", err.Error())
		return
	}
	if errors.Is(err, services.ErrReviewClosed) {
		respondError(c, http.StatusConflict, "REVIEW_CLOSED", err.Error())
		return
	}
	rc.logger.Error("Review update failed", zap.Error(err))
	respondError(c, http.StatusInternalServerError, "REVIEW_ERROR", err.Error())
}
