package utils

import (
	"strings"

	"github.com/google/uuid"
)

func hexID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// GenerateJobID returns a batch job id ("job_" + 32 hex chars).
func GenerateJobID() string {
	return "job_" + hexID()
}

// GenerateReviewID returns a review document id. Meilisearch ids allow
// only alphanumerics, '-' and '_'.
func GenerateReviewID() string {
	return "rev_" + hexID()
}
