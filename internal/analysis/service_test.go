package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/azure/brand-visibility-engine/internal/config"
	"github.com/azure/brand-visibility-engine/internal/models"
	"github.com/azure/brand-visibility-engine/internal/storage"
)

// MockStorage is a mock implementation of the storage interface
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Store(ctx context.Context, name string, data []byte) error {
	args := m.Called(ctx, name, data)
	return args.Error(0)
}

func (m *MockStorage) Retrieve(ctx context.Context, name string) ([]byte, error) {
	args := m.Called(ctx, name)
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockStorage) List(ctx context.Context, prefix string) ([]string, error) {
	args := m.Called(ctx, prefix)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStorage) Delete(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

// MockNotificationService is a mock implementation of the notification service
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) SendReport(ctx context.Context, report *models.Report) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *MockNotificationService) SendAlert(ctx context.Context, alert *models.Alert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

var fixedNow = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{PendingPrefix: "runs/", ReportPrefix: "reports/"}
}

func newTestService(store storage.StorageInterface, notifier *MockNotificationService) *Service {
	var s *Service
	if notifier == nil {
		s = NewService(testConfig(), store, nil)
	} else {
		s = NewService(testConfig(), store, notifier)
	}
	s.now = func() time.Time { return fixedNow }
	return s
}

func scenarioRun() models.RunStatusResponse {
	return models.RunStatusResponse{
		Brand:      "Nike",
		SearchType: models.SearchTypeBrand,
		Results: []models.Result{
			{Provider: models.ProviderOpenAI, Prompt: "best shoes", BrandMentioned: true},
			{Provider: models.ProviderOpenAI, Prompt: "best shoes", CompetitorsMentioned: []string{"Adidas"}},
		},
	}
}

// gapRun has Nike absent from every response, which yields a critical prompt gap
func gapRun() models.RunStatusResponse {
	run := models.RunStatusResponse{Brand: "Nike", SearchType: models.SearchTypeBrand}
	for i := 0; i < 5; i++ {
		run.Results = append(run.Results, models.Result{
			Provider:             models.ProviderOpenAI,
			Prompt:               "trail shoes",
			CompetitorsMentioned: []string{"Adidas"},
		})
	}
	return run
}

func TestService_AnalyzeScenario(t *testing.T) {
	s := newTestService(&MockStorage{}, nil)

	report := s.Analyze(models.AnalysisRequest{
		Run:     scenarioRun(),
		Summary: "Nike has 40% share of voice.",
	})

	_, err := uuid.Parse(report.ID)
	assert.NoError(t, err)
	assert.Equal(t, fixedNow, report.GeneratedAt)
	assert.Equal(t, 2, report.TotalResults)
	assert.Equal(t, 0, report.ErroredResults)
	assert.Equal(t, 2, report.TotalMentionSlots)

	require.Len(t, report.Breakdown, 2)
	assert.Equal(t, "Nike", report.Breakdown[0].Brand)
	assert.Equal(t, 50.0, report.Breakdown[0].VisibilityScore)
	assert.Equal(t, 50.0, report.Breakdown[0].ShareOfVoice)
	assert.Equal(t, 50.0, report.Breakdown[1].ShareOfVoice)

	assert.Equal(t, "Nike has 50.0% share of voice.", report.CorrectedSummary)
	assert.Empty(t, report.QuickWins)
}

func TestService_AnalyzeExclusions(t *testing.T) {
	cfg := testConfig()
	cfg.ExcludedBrands = []string{"Adidas"}
	s := NewService(cfg, &MockStorage{}, nil)

	run := scenarioRun()
	run.Results[1].CompetitorsMentioned = []string{"Adidas", "Puma"}
	report := s.Analyze(models.AnalysisRequest{Run: run, ExcludedBrands: []string{"puma"}})

	require.Len(t, report.Breakdown, 1)
	assert.Equal(t, "Nike", report.Breakdown[0].Brand)
	assert.Equal(t, 1, report.TotalMentionSlots)
}

func TestService_AnalyzeCategorySummaryAndRecommendations(t *testing.T) {
	s := newTestService(&MockStorage{}, nil)
	run := models.RunStatusResponse{
		Brand:      "Running Shoes",
		SearchType: models.SearchTypeCategory,
		Results: []models.Result{
			{Provider: models.ProviderOpenAI, BrandMentioned: true, AllBrandsMentioned: []string{"Nike", "Running Shoes"}},
			{Provider: models.ProviderGemini, BrandMentioned: true, AllBrandsMentioned: []string{"Nike", "Adidas"}},
		},
	}

	report := s.Analyze(models.AnalysisRequest{
		Run:                 run,
		Summary:             "Nike dominates the category.",
		RecommendationItems: []string{"**Win comparisons**: Adidas (10%) trails Nike."},
		Recommendations:     "ignored when items are present",
	})

	assert.True(t, strings.HasPrefix(report.CorrectedSummary, "Nike is the market leader with a 100.0% visibility score"))
	require.Len(t, report.Recommendations, 1)
	assert.Equal(t, "Adidas (50.0%) trails Nike.", report.Recommendations[0].Description)
	assert.Nil(t, report.QuickWins)
}

func TestService_ProcessPending(t *testing.T) {
	mockStorage := &MockStorage{}
	mockNotifications := &MockNotificationService{}
	s := newTestService(mockStorage, mockNotifications)

	data, err := json.Marshal(gapRun())
	require.NoError(t, err)

	mockStorage.On("List", mock.Anything, "runs/").Return([]string{"runs/a.json", "runs/notes.txt"}, nil)
	mockStorage.On("Retrieve", mock.Anything, "runs/a.json").Return(data, nil)
	mockStorage.On("Store", mock.Anything, mock.MatchedBy(func(name string) bool {
		return strings.HasPrefix(name, "reports/") && strings.HasSuffix(name, ".json")
	}), mock.Anything).Return(nil)
	mockStorage.On("Delete", mock.Anything, "runs/a.json").Return(nil)
	mockNotifications.On("SendReport", mock.Anything, mock.AnythingOfType("*models.Report")).Return(nil)
	mockNotifications.On("SendAlert", mock.Anything, mock.MatchedBy(func(a *models.Alert) bool {
		return a.Type == "critical" && a.QuickWin != nil && a.QuickWin.Type == models.QuickWinPromptGap
	})).Return(nil)

	require.NoError(t, s.ProcessPending(context.Background()))

	mockStorage.AssertExpectations(t)
	mockNotifications.AssertExpectations(t)
	mockNotifications.AssertNumberOfCalls(t, "SendAlert", 1)
	mockStorage.AssertNotCalled(t, "Retrieve", mock.Anything, "runs/notes.txt")

	var metrics Metrics
	require.NoError(t, json.Unmarshal([]byte(s.GetMetrics()), &metrics))
	assert.Equal(t, 1, metrics.ProcessedRuns)
	assert.Equal(t, 1, metrics.AlertsSent)
	assert.Equal(t, 1, metrics.QuickWinsBySeverity["critical"])
	assert.Equal(t, 1, metrics.QuickWinsBySeverity["high"])
}

func TestService_ProcessPendingKeepsFailedRuns(t *testing.T) {
	mockStorage := &MockStorage{}
	s := newTestService(mockStorage, nil)

	data, err := json.Marshal(models.AnalysisRequest{Run: scenarioRun()})
	require.NoError(t, err)

	mockStorage.On("List", mock.Anything, "runs/").Return([]string{"runs/bad.json", "runs/good.json"}, nil)
	mockStorage.On("Retrieve", mock.Anything, "runs/bad.json").Return([]byte(nil), errors.New("blob gone"))
	mockStorage.On("Retrieve", mock.Anything, "runs/good.json").Return(data, nil)
	mockStorage.On("Store", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	mockStorage.On("Delete", mock.Anything, "runs/good.json").Return(nil)

	err = s.ProcessPending(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "runs/bad.json: blob gone")
	mockStorage.AssertNotCalled(t, "Delete", mock.Anything, "runs/bad.json")

	var metrics Metrics
	require.NoError(t, json.Unmarshal([]byte(s.GetMetrics()), &metrics))
	assert.Equal(t, 1, metrics.ProcessedRuns)
	assert.Equal(t, 1, metrics.FailedRuns)
	assert.Equal(t, 1, metrics.ErrorCount)
}

func TestService_ProcessPendingListError(t *testing.T) {
	mockStorage := &MockStorage{}
	s := newTestService(mockStorage, nil)
	mockStorage.On("List", mock.Anything, "runs/").Return([]string(nil), errors.New("denied"))

	err := s.ProcessPending(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list pending runs")
}

func TestService_SubmitProcessAndFetchWithFileStorage(t *testing.T) {
	store, err := storage.NewFileStorage(t.TempDir())
	require.NoError(t, err)
	s := newTestService(store, nil)
	ctx := context.Background()

	name, err := s.Submit(ctx, models.AnalysisRequest{Run: scenarioRun()})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(name, "runs/2024-05-01-09-00-00-"))

	require.NoError(t, s.ProcessPending(ctx))

	pending, err := store.List(ctx, "runs/")
	require.NoError(t, err)
	assert.Empty(t, pending)

	reports, err := store.List(ctx, "reports/")
	require.NoError(t, err)
	require.Len(t, reports, 1)

	id := strings.TrimSuffix(strings.TrimPrefix(reports[0], "reports/"), ".json")
	report, err := s.GetReport(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Nike", report.Brand)
	assert.Equal(t, 2, report.TotalMentionSlots)

	_, err = s.GetReport(ctx, "../etc/passwd")
	assert.Error(t, err)
}

func TestDecodeRequest(t *testing.T) {
	bare := `{"brand":"Nike","search_type":"brand","results":[{"provider":"openai","brand_mentioned":true}]}`
	req, err := DecodeRequest([]byte(bare))
	require.NoError(t, err)
	assert.Equal(t, "Nike", req.Run.Brand)
	require.Len(t, req.Run.Results, 1)

	wrapped := `{"run":{"brand":"Shoes","search_type":"category","results":[]},"excluded_brands":["Puma"],"summary":"text"}`
	req, err = DecodeRequest([]byte(wrapped))
	require.NoError(t, err)
	assert.True(t, req.Run.IsCategory())
	assert.Equal(t, []string{"Puma"}, req.ExcludedBrands)
	assert.Equal(t, "text", req.Summary)

	_, err = DecodeRequest([]byte("not json"))
	assert.Error(t, err)
}

func TestService_AlertsRespectMinScore(t *testing.T) {
	s := newTestService(&MockStorage{}, nil)
	report := s.Analyze(models.AnalysisRequest{Run: gapRun()})

	alerts := s.Alerts(report)
	require.Len(t, alerts, 1)
	assert.Equal(t, "Critical visibility gap for Nike", alerts[0].Title)
	assert.Equal(t, fixedNow, alerts[0].CreatedAt)

	s.config.AlertMinScore = 10
	assert.Empty(t, s.Alerts(report))
}
