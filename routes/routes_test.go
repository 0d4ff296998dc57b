package routes

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/address-cleaner/app/controllers"
	"github.com/address-cleaner/app/responses"
	"github.com/address-cleaner/app/services"
	"github.com/address-cleaner/internal/cleaner"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	c := cleaner.NewCleaner(cleaner.MustDefaultRules(), cleaner.DefaultThresholds(), logger)
	cache := services.NewCacheService(time.Hour)
	addresses := services.NewAddressService(c, cache, 2, logger)
	reviews := services.NewReviewService(nil, nil, logger)
	rules := services.NewRulesService(nil, addresses, cache, filepath.Join(t.TempDir(), "rules.yaml"), logger)
	admin := services.NewAdminService(nil, cache, addresses, logger)

	router := gin.New()
	SetupAllRoutes(router, Controllers{
		Address: controllers.NewAddressController(addresses, logger),
		Rules:   controllers.NewRulesController(rules, logger),
		Review:  controllers.NewReviewController(reviews, logger),
		Admin:   controllers.NewAdminController(admin, reviews, "test", logger),
	})
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCleanAddress(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/v1/addresses/clean", gin.H{
		"line1":    "123 MAIN STREET",
		"line2":    "APT 4",
		"province": "ON",
		"options":  gin.H{"use_cache": true, "debug": true},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp responses.CleanAddressResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "123 MAIN ST", resp.Result.Output1)
	assert.Equal(t, "APT 4", resp.Result.Output2)
	assert.Equal(t, "cleaned", resp.Result.Status)
	assert.NotEmpty(t, resp.Scores)
	assert.False(t, resp.CacheHit)

	w = doJSON(t, router, http.MethodPost, "/v1/addresses/clean", gin.H{
		"line1":    " 123  MAIN STREET",
		"line2":    "APT 4",
		"province": "ON",
		"options":  gin.H{"use_cache": true},
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.CacheHit)

	w = doJSON(t, router, http.MethodPost, "/v1/addresses/clean", gin.H{
		"line1":    "123 main street",
		"line2":    "APT 4",
		"province": "ON",
		"options":  gin.H{"use_cache": true},
	})
	require.Equal(t, http.StatusOK, w.Code)
	resp = responses.CleanAddressResponse{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.CacheHit)
	assert.Contains(t, resp.Result.Flags["street"], "FORMAT")
}

func TestCleanAddress_InvalidRequest(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/v1/addresses/clean", gin.H{"line1": "123 MAIN ST", "province": "ONT"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp responses.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_REQUEST", resp.Error)
	assert.NotEmpty(t, resp.Timestamp)
}

func TestBatchJob(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/v1/addresses/jobs", gin.H{
		"records": []gin.H{
			{"id": "1", "line1": "123 MAIN STREET", "province": "ON"},
			{"id": "2", "line1": "KING & QUEEN", "province": "ON"},
		},
	})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	var accepted responses.BatchCleanResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &accepted))
	assert.Equal(t, 2, accepted.TotalRecords)
	require.NotEmpty(t, accepted.JobID)

	base := "/v1/addresses/jobs/" + accepted.JobID
	require.Eventually(t, func() bool {
		w := doJSON(t, router, http.MethodGet, base+"/status", nil)
		var status responses.JobStatusResponse
		return json.Unmarshal(w.Body.Bytes(), &status) == nil && status.Status == responses.JobStatusDone
	}, 5*time.Second, 10*time.Millisecond)

	w = doJSON(t, router, http.MethodGet, base+"/results?format=ndjson&gzip=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))

	gz, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(gz)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"output_line1":"123 MAIN ST"`)
	assert.Contains(t, lines[1], `"reason":"junction"`)
}

func TestJobNotFound(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/v1/addresses/jobs/job_missing/status", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodGet, "/v1/addresses/jobs/job_missing/results?format=ndjson", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "JOB_NOT_FOUND")
}

func TestRulesEditing(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/v1/rules", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var before responses.RulesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &before))

	w = doJSON(t, router, http.MethodPost, "/v1/rules/suffixes", gin.H{"name": "STREETS"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var added responses.RulesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &added))
	assert.NotEqual(t, before.Version, added.Version)
	assert.NotEmpty(t, added.Warnings)

	w = doJSON(t, router, http.MethodPost, "/v1/rules/suffixes", gin.H{"name": "STREET", "preferred": "ST"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, router, http.MethodPost, "/v1/rules/external", gin.H{"word": "UNIT 5"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/v1/rules/external/NOPE", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/v1/rules/suffixes/STREETS", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var removed responses.RulesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &removed))
	assert.Equal(t, before.Version, removed.Version)
}

func TestReviewSearchWithoutIndex(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/v1/review/search?q=main", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = doJSON(t, router, http.MethodPost, "/v1/review/rev_missing/approve", gin.H{"reviewer_id": "u1"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminAndHealth(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/v1/admin/stats", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var stats responses.SystemStatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, "test", stats.SystemInfo.Environment)
	assert.NotEmpty(t, stats.RulesVersion)

	w = doJSON(t, router, http.MethodPost, "/v1/admin/cache/invalidate?all=true", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/v1/admin/export/address_cache", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	for _, path := range []string{"/health", "/v1/health", "/", "/status"} {
		w = doJSON(t, router, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	w = doJSON(t, router, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
