package controllers

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/address-cleaner/app/config"
	"github.com/address-cleaner/app/requests"
	"github.com/address-cleaner/app/responses"
	"github.com/address-cleaner/app/services"
	"github.com/address-cleaner/helpers/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AddressController serves address cleaning and batch jobs.
type AddressController struct {
	addressService *services.AddressService
	logger         *zap.Logger
}

func NewAddressController(addressService *services.AddressService, logger *zap.Logger) *AddressController {
	return &AddressController{
		addressService: addressService,
		logger:         logger,
	}
}

// CleanAddress cleans one record.
func (ac *AddressController) CleanAddress(c *gin.Context) {
	var req requests.CleanAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request: "+err.Error())
		return
	}

	startTime := time.Now()
	record := req.Record()

	ctx, cancel := context.WithTimeout(c.Request.Context(), config.RequestTimeout())
	defer cancel()

	result, cacheHit, err := ac.addressService.CleanOne(ctx, record, req.Options)
	if err != nil {
		ac.logger.Error("Failed to clean address", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "CLEAN_ERROR", "Failed to clean address: "+err.Error())
		return
	}

	resp := responses.CleanAddressResponse{
		RulesVersion:     result.RulesVersion,
		Result:           *result,
		ProcessingTimeMs: time.Since(startTime).Milliseconds(),
		CacheHit:         cacheHit,
	}
	if req.Options.Debug {
		resp.Scores = ac.addressService.Scores(record)
	}
	c.JSON(http.StatusOK, resp)
}

// BatchClean starts a background job.
func (ac *AddressController) BatchClean(c *gin.Context) {
	var req requests.BatchCleanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request: "+err.Error())
		return
	}

	jobID := utils.GenerateJobID()
	ac.addressService.SubmitBatchJob(jobID, req.CleanerRecords(), req.Options)

	c.JSON(http.StatusAccepted, responses.BatchCleanResponse{
		JobID:            jobID,
		EstimatedSeconds: ac.addressService.EstimateBatchProcessingTime(len(req.Records)),
		TotalRecords:     len(req.Records),
		Message:          "Job accepted",
	})
}

func (ac *AddressController) GetJobStatus(c *gin.Context) {
	jobID := c.Param("jobID")

	status, err := ac.addressService.GetJobStatus(jobID)
	if err != nil {
		respondError(c, http.StatusNotFound, "JOB_NOT_FOUND", "Job not found: "+jobID)
		return
	}

	c.JSON(http.StatusOK, responses.JobStatusResponse{
		JobID:              jobID,
		Status:             status.Status,
		Progress:           status.Progress,
		Processed:          status.Processed,
		Total:              status.Total,
		EstimatedRemaining: status.EstimatedRemaining,
		Summary:            status.Summary,
		Message:            status.Message,
	})
}

// GetJobResults returns the job rows as JSON, or as NDJSON with
// ?format=ndjson (gzip with &gzip=1).
func (ac *AddressController) GetJobResults(c *gin.Context) {
	jobID := c.Param("jobID")

	if c.Query("format") == "ndjson" {
		ac.streamNDJSONResults(c, jobID, c.Query("gzip") == "1")
		return
	}

	results, err := ac.addressService.GetJobResults(jobID)
	if err != nil {
		ac.jobError(c, jobID, err)
		return
	}
	respondSuccess(c, http.StatusOK, "OK", results)
}

func (ac *AddressController) jobError(c *gin.Context, jobID string, err error) {
	if errors.Is(err, services.ErrJobNotDone) {
		respondError(c, http.StatusConflict, "JOB_NOT_DONE", "Job still running: "+jobID)
		return
	}
	respondError(c, http.StatusNotFound, "JOB_NOT_FOUND", "Job not found: "+jobID)
}

func (ac *AddressController) HealthCheck(c *gin.Context) {
	_, version := ac.addressService.Cleaner()
	c.JSON(http.StatusOK, responses.HealthCheckResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Uptime:    time.Since(ac.addressService.GetStartTime()).Round(time.Second).String(),
		Version:   "1.0.0",
		Services: map[string]string{
			"address_cleaner": "healthy",
			"rules_version":   version,
		},
	})
}

// Status reports service counters.
func (ac *AddressController) Status(c *gin.Context) {
	c.JSON(http.StatusOK, ac.addressService.GetStats())
}

func (ac *AddressController) streamNDJSONResults(c *gin.Context, jobID string, gzipEnabled bool) {
	resultChannel, err := ac.addressService.GetJobResultsStream(c.Request.Context(), jobID)
	if err != nil {
		ac.jobError(c, jobID, err)
		return
	}

	c.Header("Content-Type", "application/x-ndjson")
	var writer gin.ResponseWriter = c.Writer
	if gzipEnabled {
		c.Header("Content-Encoding", "gzip")
		gzWriter := gzip.NewWriter(c.Writer)
		defer gzWriter.Close()
		writer = &gzipResponseWriter{
			ResponseWriter: c.Writer,
			gzWriter:       gzWriter,
		}
	}
	c.Status(http.StatusOK)

	encoder := json.NewEncoder(writer)
	for result := range resultChannel {
		if err := encoder.Encode(result); err != nil {
			ac.logger.Warn("Failed to write NDJSON row", zap.Error(err))
			return
		}
		writer.Flush()
	}
}

type gzipResponseWriter struct {
	gin.ResponseWriter
	gzWriter *gzip.Writer
}

func (w *gzipResponseWriter) Write(data []byte) (int, error) {
	return w.gzWriter.Write(data)
}

func (w *gzipResponseWriter) Flush() {
	w.gzWriter.Flush()
	w.ResponseWriter.Flush()
}
