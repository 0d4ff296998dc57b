package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/address-cleaner/app/responses"
	"github.com/address-cleaner/app/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminController serves stats, cache control and data export.
type AdminController struct {
	adminService  *services.AdminService
	reviewService *services.ReviewService
	environment   string
	logger        *zap.Logger
}

func NewAdminController(adminService *services.AdminService, reviewService *services.ReviewService, environment string, logger *zap.Logger) *AdminController {
	return &AdminController{
		adminService:  adminService,
		reviewService: reviewService,
		environment:   environment,
		logger:        logger,
	}
}

func (ac *AdminController) GetSystemStats(c *gin.Context) {
	ctx := c.Request.Context()
	stats, err := ac.adminService.GetSystemStats(ctx)
	if err != nil {
		ac.logger.Error("Failed to collect system stats", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "STATS_ERROR", "Failed to collect stats: "+err.Error())
		return
	}

	pending, err := ac.reviewService.CountPending(ctx)
	if err != nil {
		ac.logger.Warn("Failed to count pending reviews", zap.Error(err))
	}

	c.JSON(http.StatusOK, responses.SystemStatsResponse{
		CacheHitRate:    stats.CacheHitRate,
		TotalProcessed:  stats.TotalProcessed,
		ReviewQueueSize: pending,
		RulesVersion:    stats.RulesVersion,
		SystemInfo: responses.SystemInfo{
			Version:     "1.0.0",
			Environment: ac.environment,
			Uptime:      stats.Uptime,
			MemoryUsage: stats.MemoryUsage,
			Goroutines:  stats.Goroutines,
		},
		DatabaseStats: responses.DatabaseStats{
			AddressCache:  stats.DatabaseStats.AddressCache,
			AddressReview: stats.DatabaseStats.AddressReview,
			RuleSets:      stats.DatabaseStats.RuleSets,
		},
	})
}

// InvalidateCache drops stale cached rows; ?all=true clears everything.
func (ac *AdminController) InvalidateCache(c *gin.Context) {
	all := c.Query("all") == "true"
	if err := ac.adminService.InvalidateCache(c.Request.Context(), all); err != nil {
		ac.logger.Error("Failed to invalidate cache", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "CACHE_ERROR", "Failed to invalidate cache: "+err.Error())
		return
	}
	ac.logger.Info("Cache invalidated", zap.Bool("all", all))
	respondSuccess(c, http.StatusOK, "Cache invalidated", gin.H{"all": all})
}

func (ac *AdminController) ExportData(c *gin.Context) {
	dataType := c.Param("type")
	limit := 1000
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= 10000 {
		limit = l
	}

	data, err := ac.adminService.ExportData(c.Request.Context(), dataType, limit)
	if errors.Is(err, services.ErrUnsupportedExport) {
		respondError(c, http.StatusBadRequest, "EXPORT_ERROR", err.Error())
		return
	}
	if err != nil {
		ac.logger.Error("Export failed", zap.String("type", dataType), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "EXPORT_ERROR", err.Error())
		return
	}

	filename := fmt.Sprintf("%s_%s.json", dataType, time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/json", data)
}
