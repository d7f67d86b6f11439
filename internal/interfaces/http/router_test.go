package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	applearning "github.com/wucy1/ProDocuX/internal/application/learning"
	"github.com/wucy1/ProDocuX/internal/config"
	"github.com/wucy1/ProDocuX/internal/domain/profile"
	"github.com/wucy1/ProDocuX/internal/infrastructure/monitoring/logging"
	filestore "github.com/wucy1/ProDocuX/internal/infrastructure/storage/file"
	"github.com/wucy1/ProDocuX/internal/infrastructure/storage/memory"
	"github.com/wucy1/ProDocuX/internal/interfaces/http/handlers"
	learningtypes "github.com/wucy1/ProDocuX/pkg/types/learning"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := logging.NewNopLogger()
	store, err := filestore.NewStore(t.TempDir(), logger)
	require.NoError(t, err)

	rs, err := profile.NewRuleSet("cosmetic-msds", "work-1", []profile.Field{
		{Name: "product_name"},
	})
	require.NoError(t, err)
	_, err = store.Save(context.Background(), rs)
	require.NoError(t, err)

	var cfg config.Config
	config.ApplyDefaults(&cfg)
	svc, err := applearning.NewService(cfg.Learning, time.Minute, applearning.Dependencies{
		Profiles: store,
		Events:   memory.NewEventStore(),
		Logger:   logger,
	})
	require.NoError(t, err)

	return NewRouter(RouterConfig{
		LearningHandler: handlers.NewLearningHandler(svc, logger),
		ProfileHandler:  handlers.NewProfileHandler(svc, logger),
		HealthHandler:   handlers.NewHealthHandler("test"),
		Logger:          logger,
		Mode:            "test",
	})
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestLearnJSONEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/learning/json", map[string]interface{}{
		"work_id":   "work-1",
		"profile":   "cosmetic-msds",
		"original":  map[string]string{"product_name": "ABC Cream"},
		"corrected": map[string]string{"product_name": "abc cream"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result learningtypes.LearningResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Applied)
	assert.Equal(t, learningtypes.StatusApplied, result.Status)
	assert.Equal(t, 2, result.ProfileVersion)
	require.Len(t, result.Transformations, 1)
	assert.Equal(t, learningtypes.TransformCaseConversion, result.Transformations[0].Tag)
}

func TestLearnJSONAcceptsRawExtractionOutput(t *testing.T) {
	router := newTestRouter(t)

	// Corrected arrives as the raw model response, fenced block included.
	rec := doJSON(t, router, http.MethodPost, "/api/v1/learning/json", map[string]interface{}{
		"work_id":   "work-1",
		"profile":   "cosmetic-msds",
		"original":  map[string]string{"product_name": "ABC Cream"},
		"corrected": "Here is the result:\n```json\n{\"product_name\": \"abc cream\"}\n```",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result learningtypes.LearningResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Diffs, 1)
	assert.Equal(t, "product_name", result.Diffs[0].Path)
}

func TestLearnJSONValidation(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/learning/json", map[string]interface{}{
		"profile": "cosmetic-msds",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLearnJSONUnknownProfile(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/learning/json", map[string]interface{}{
		"work_id":   "work-1",
		"profile":   "no-such-profile",
		"original":  map[string]string{"product_name": "a"},
		"corrected": map[string]string{"product_name": "b"},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProfileVersionsAndRollback(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/learning/json", map[string]interface{}{
		"work_id":   "work-1",
		"profile":   "cosmetic-msds",
		"original":  map[string]string{"product_name": "ABC Cream"},
		"corrected": map[string]string{"product_name": "abc cream"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodGet, "/api/v1/profiles/cosmetic-msds/versions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listing struct {
		Versions []profile.VersionInfo `json:"versions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	require.Len(t, listing.Versions, 2)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/profiles/cosmetic-msds/rollback", map[string]int{"version": 1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var rollback struct {
		Profile    *profile.RuleSet `json:"profile"`
		NewVersion int              `json:"new_version"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rollback))
	assert.Equal(t, 1, rollback.Profile.Version)
	assert.Equal(t, 3, rollback.NewVersion)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/profiles/cosmetic-msds?version=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var v2 profile.RuleSet
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v2))
	assert.Equal(t, 2, v2.Version)
	assert.NotEmpty(t, v2.Rules)
}

func TestTrendsAndClearHistory(t *testing.T) {
	router := newTestRouter(t)

	for i := 0; i < 2; i++ {
		rec := doJSON(t, router, http.MethodPost, "/api/v1/learning/json", map[string]interface{}{
			"work_id":   "work-1",
			"profile":   "cosmetic-msds",
			"original":  map[string]string{"product_name": fmt.Sprintf("Name %d", i)},
			"corrected": map[string]string{"product_name": fmt.Sprintf("name %d", i)},
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec := doJSON(t, router, http.MethodGet, "/api/v1/learning/works/work-1/trends", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var trends learningtypes.TrendMetrics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &trends))
	assert.Equal(t, 2, trends.TotalCorrections)
	assert.Len(t, trends.LearningCurve, 2)

	rec = doJSON(t, router, http.MethodDelete, "/api/v1/learning/works/work-1/history", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/learning/works/work-1/trends", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &trends))
	assert.Zero(t, trends.TotalCorrections)
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
