package responses

import (
	"github.com/address-cleaner/app/models"
	"github.com/address-cleaner/internal/cleaner"
)

type CleanAddressResponse struct {
	RulesVersion     string               `json:"rules_version"`
	Result           models.AddressResult `json:"result"`
	Scores           []cleaner.TokenScore `json:"scores,omitempty"`
	ProcessingTimeMs int64                `json:"processing_time_ms"`
	CacheHit         bool                 `json:"cache_hit"`
}

type BatchCleanResponse struct {
	JobID            string `json:"job_id"`
	EstimatedSeconds int    `json:"estimated_seconds"`
	TotalRecords     int    `json:"total_records"`
	Message          string `json:"message"`
}

type JobStatusResponse struct {
	JobID              string         `json:"job_id"`
	Status             string         `json:"status"`
	Progress           float64        `json:"progress"`
	Processed          int            `json:"processed"`
	Total              int            `json:"total"`
	EstimatedRemaining int            `json:"estimated_remaining"`
	Summary            map[string]int `json:"summary,omitempty"` // rows per result status
	Message            string         `json:"message"`
}

const (
	JobStatusPending = "pending"
	JobStatusRunning = "running"
	JobStatusDone    = "done"
	JobStatusFailed  = "failed"
)

type RulesResponse struct {
	Version  string           `json:"version"`
	Rules    cleaner.RulesDoc `json:"rules"`
	Warnings []string         `json:"warnings,omitempty"`
}

type ReviewSearchResponse struct {
	Query  string                 `json:"query"`
	Hits   []models.AddressReview `json:"hits"`
	Total  int64                  `json:"total"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
}

type ReviewActionResponse struct {
	Success   bool   `json:"success"`
	ReviewID  string `json:"review_id"`
	Action    string `json:"action"`
	Message   string `json:"message"`
	UpdatedAt string `json:"updated_at"`
}

type ErrorResponse struct {
	Error     string      `json:"error"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	Timestamp string      `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

type HealthCheckResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Uptime    string            `json:"uptime"`
	Version   string            `json:"version"`
	Services  map[string]string `json:"services"`
}

type SystemStatsResponse struct {
	CacheHitRate    float64       `json:"cache_hit_rate"`
	TotalProcessed  int64         `json:"total_processed"`
	ReviewQueueSize int64         `json:"review_queue_size"`
	RulesVersion    string        `json:"rules_version"`
	SystemInfo      SystemInfo    `json:"system_info"`
	DatabaseStats   DatabaseStats `json:"database_stats"`
}

type SystemInfo struct {
	Version     string                 `json:"version"`
	Environment string                 `json:"environment"`
	Uptime      string                 `json:"uptime"`
	MemoryUsage map[string]interface{} `json:"memory_usage"`
	Goroutines  int                    `json:"goroutines"`
}

type DatabaseStats struct {
	AddressCache  int64 `json:"address_cache"`
	AddressReview int64 `json:"address_review"`
	RuleSets      int64 `json:"rule_sets"`
}
