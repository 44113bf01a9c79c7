package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azure/brand-visibility-engine/internal/analysis"
	"github.com/azure/brand-visibility-engine/internal/config"
	"github.com/azure/brand-visibility-engine/internal/models"
	"github.com/azure/brand-visibility-engine/internal/storage"
)

const scenarioBody = `{"run":{"brand":"Nike","search_type":"brand","results":[
	{"provider":"openai","prompt":"best shoes","brand_mentioned":true},
	{"provider":"openai","prompt":"best shoes","brand_mentioned":false,"competitors_mentioned":["Adidas"]}
]},"summary":"Nike has 40% share of voice."}`

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	store, err := storage.NewFileStorage(t.TempDir())
	require.NoError(t, err)
	cfg := &config.Config{PendingPrefix: "runs/", ReportPrefix: "reports/"}
	return newRouter(analysis.NewService(cfg, store, nil))
}

func do(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, target, strings.NewReader(body)))
	return rec
}

func TestHealthCheck(t *testing.T) {
	rec := do(newTestRouter(t), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
}

func TestAnalyzeAndFetchReport(t *testing.T) {
	router := newTestRouter(t)

	rec := do(router, http.MethodPost, "/analyze", scenarioBody)
	require.Equal(t, http.StatusOK, rec.Code)

	var report models.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 2, report.TotalMentionSlots)
	assert.Equal(t, "Nike has 50.0% share of voice.", report.CorrectedSummary)

	rec = do(router, http.MethodGet, "/reports/"+report.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), report.ID)

	rec = do(router, http.MethodGet, "/reports/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(router, http.MethodGet, "/reports/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeRejectsBadBody(t *testing.T) {
	rec := do(newTestRouter(t), http.MethodPost, "/analyze", "{")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error"`)
}

func TestSubmitQueuesRun(t *testing.T) {
	rec := do(newTestRouter(t), http.MethodPost, "/runs", scenarioBody)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"runs/`)
}

func TestCorrectEndpoint(t *testing.T) {
	body := `{"text":"Nike has 40% share of voice.",
		"rows":[{"brand":"Nike","shareOfVoice":35},{"brand":"Adidas","shareOfVoice":25}]}`
	rec := do(newTestRouter(t), http.MethodPost, "/correct", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "Nike has 35.0% share of voice.", out["text"])
}

func TestMethodNotAllowed(t *testing.T) {
	rec := do(newTestRouter(t), http.MethodGet, "/analyze", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
