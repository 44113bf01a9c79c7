package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/azure/brand-visibility-engine/internal/brands"
	"github.com/azure/brand-visibility-engine/internal/config"
	"github.com/azure/brand-visibility-engine/internal/models"
	"github.com/azure/brand-visibility-engine/internal/narrative"
	"github.com/azure/brand-visibility-engine/internal/notifications"
	"github.com/azure/brand-visibility-engine/internal/opportunities"
	"github.com/azure/brand-visibility-engine/internal/recommendations"
	"github.com/azure/brand-visibility-engine/internal/sentiment"
	"github.com/azure/brand-visibility-engine/internal/storage"
)

// Service computes reports for runs and drains the pending-run queue
type Service struct {
	config              *config.Config
	storage             storage.StorageInterface
	notificationService notifications.NotificationInterface
	classifier          recommendations.ClassifierConfig
	thresholds          opportunities.Thresholds
	narrative           narrative.Options
	metrics             *Metrics
	mu                  sync.RWMutex
	now                 func() time.Time
}

// Metrics holds processing metrics
type Metrics struct {
	ProcessedRuns       int            `json:"processed_runs"`
	FailedRuns          int            `json:"failed_runs"`
	LastRun             time.Time      `json:"last_run"`
	LastRunDuration     string         `json:"last_run_duration"`
	LastReportID        string         `json:"last_report_id,omitempty"`
	QuickWinsBySeverity map[string]int `json:"quick_wins_by_severity"`
	AlertsSent          int            `json:"alerts_sent"`
	ErrorCount          int            `json:"error_count"`
}

// NewService creates a new analysis service. notificationService may be nil.
func NewService(cfg *config.Config, storage storage.StorageInterface, notificationService notifications.NotificationInterface) *Service {
	opts := narrative.DefaultOptions()
	if len(cfg.ProviderNames) > 0 {
		opts.Providers = cfg.ProviderNames
	}
	opts.RenameMentionRate = cfg.RenameMentionRate

	return &Service{
		config:              cfg,
		storage:             storage,
		notificationService: notificationService,
		classifier:          recommendations.DefaultClassifierConfig(),
		thresholds:          opportunities.DefaultThresholds(),
		narrative:           opts,
		metrics: &Metrics{
			QuickWinsBySeverity: make(map[string]int),
		},
		now: time.Now,
	}
}

// NarrativeOptions returns the correction options every report uses
func (s *Service) NarrativeOptions() narrative.Options {
	return s.narrative
}

// Analyze runs every engine component over one request. It never fails.
func (s *Service) Analyze(req models.AnalysisRequest) *models.Report {
	run := req.Run
	resolver := brands.NewResolver(brands.OptionsForRun(run, s.exclusions(req)))
	rows := resolver.Breakdown(run.Results)

	report := &models.Report{
		ID:                uuid.NewString(),
		GeneratedAt:       s.now().UTC(),
		Brand:             run.Brand,
		SearchType:        run.SearchType,
		TotalResults:      len(run.Results),
		ErroredResults:    len(run.Results) - resolver.EligibleCount(run.Results),
		TotalMentionSlots: resolver.TotalMentionSlots(run.Results),
		Breakdown:         rows,
		Sentiment:         sentiment.NewAnalyzer(resolver).Summary(run.Results),
		QuickWins:         opportunities.NewDetector(resolver, s.thresholds).QuickWins(run.Results),
	}

	parser := recommendations.NewParser(s.classifier, run.IsCategory(), rows, s.narrative)
	if len(req.RecommendationItems) > 0 {
		report.Recommendations = parser.ParseItems(req.RecommendationItems)
	} else if req.Recommendations != "" {
		report.Recommendations = parser.ParseText(req.Recommendations)
	}

	if req.Summary != "" {
		report.CorrectedSummary = s.CorrectSummary(req.Summary, run.IsCategory(), rows)
	}

	logrus.Debugf("Analyzed %s run for %q: %d results, %d brands, %d quick wins",
		run.SearchType, run.Brand, report.TotalResults, len(rows), len(report.QuickWins))
	return report
}

// CorrectSummary rewrites summary prose against rows. Category summaries also get
// the market-leader and competitive-landscape treatment.
func (s *Service) CorrectSummary(text string, isCategory bool, rows []models.BrandBreakdownRow) string {
	if isCategory {
		return narrative.CorrectIndustrySummary(text, rows, s.narrative)
	}
	return narrative.Correct(text, rows, s.narrative)
}

func (s *Service) exclusions(req models.AnalysisRequest) []string {
	out := make([]string, 0, len(s.config.ExcludedBrands)+len(req.ExcludedBrands))
	out = append(out, s.config.ExcludedBrands...)
	return append(out, req.ExcludedBrands...)
}

// Submit queues a request under the pending prefix and returns its storage name
func (s *Service) Submit(ctx context.Context, req models.AnalysisRequest) (string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	name := path.Join(s.config.PendingPrefix, fmt.Sprintf("%s-%s.json", s.now().UTC().Format("2006-01-02-15-04-05"), uuid.NewString()))
	if err := s.storage.Store(ctx, name, data); err != nil {
		return "", fmt.Errorf("failed to queue run: %w", err)
	}
	return name, nil
}

// ProcessPending analyzes every queued run, stores its report and removes it from the
// queue. A run that fails stays queued and the rest are still processed.
func (s *Service) ProcessPending(ctx context.Context) error {
	start := s.now()
	logrus.Info("Starting pending run processing")

	names, err := s.storage.List(ctx, s.config.PendingPrefix)
	if err != nil {
		s.recordFailure()
		return fmt.Errorf("failed to list pending runs: %w", err)
	}

	var reports []*models.Report
	var errs []error
	for _, name := range names {
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		report, err := s.processOne(ctx, name)
		if err != nil {
			logrus.Errorf("Failed to process %s: %v", name, err)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		reports = append(reports, report)
	}

	alerts := 0
	for _, report := range reports {
		alerts += s.notify(ctx, report)
	}

	s.updateMetrics(reports, len(errs), alerts, s.now().Sub(start))
	logrus.Infof("Processed %d pending runs (%d failed) in %v", len(reports), len(errs), s.now().Sub(start))

	if len(errs) > 0 {
		return fmt.Errorf("failed to process %d pending runs: %w", len(errs), errors.Join(errs...))
	}
	return nil
}

func (s *Service) processOne(ctx context.Context, name string) (*models.Report, error) {
	data, err := s.storage.Retrieve(ctx, name)
	if err != nil {
		return nil, err
	}

	req, err := DecodeRequest(data)
	if err != nil {
		return nil, err
	}

	report := s.Analyze(req)
	if err := s.StoreReport(ctx, report); err != nil {
		return nil, err
	}

	if err := s.storage.Delete(ctx, name); err != nil {
		return nil, fmt.Errorf("report %s stored but run not dequeued: %w", report.ID, err)
	}
	return report, nil
}

// DecodeRequest accepts an AnalysisRequest or a bare RunStatusResponse
func DecodeRequest(data []byte) (models.AnalysisRequest, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return models.AnalysisRequest{}, fmt.Errorf("failed to decode run: %w", err)
	}

	var req models.AnalysisRequest
	if _, wrapped := probe["run"]; wrapped {
		if err := json.Unmarshal(data, &req); err != nil {
			return models.AnalysisRequest{}, fmt.Errorf("failed to decode analysis request: %w", err)
		}
		return req, nil
	}

	if err := json.Unmarshal(data, &req.Run); err != nil {
		return models.AnalysisRequest{}, fmt.Errorf("failed to decode run status: %w", err)
	}
	return req, nil
}

// StoreReport writes report under the report prefix
func (s *Service) StoreReport(ctx context.Context, report *models.Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := s.storage.Store(ctx, s.reportName(report.ID), data); err != nil {
		return fmt.Errorf("failed to store report: %w", err)
	}
	return nil
}

// GetReport loads a stored report by ID
func (s *Service) GetReport(ctx context.Context, id string) (*models.Report, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid report id %q: %w", id, err)
	}
	data, err := s.storage.Retrieve(ctx, s.reportName(id))
	if err != nil {
		return nil, err
	}
	var report models.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", id, err)
	}
	return &report, nil
}

func (s *Service) reportName(id string) string {
	return path.Join(s.config.ReportPrefix, id+".json")
}

// notify sends the report and one alert per qualifying critical quick win.
// It returns the number of alerts delivered.
func (s *Service) notify(ctx context.Context, report *models.Report) int {
	if s.notificationService == nil {
		return 0
	}

	if err := s.notificationService.SendReport(ctx, report); err != nil {
		logrus.Errorf("Failed to send report %s: %v", report.ID, err)
	}

	sent := 0
	for _, alert := range s.Alerts(report) {
		if err := s.notificationService.SendAlert(ctx, alert); err != nil {
			logrus.Errorf("Failed to send alert %s: %v", alert.ID, err)
			continue
		}
		sent++
	}
	return sent
}

// Alerts builds one critical alert per critical quick win scoring at least AlertMinScore
func (s *Service) Alerts(report *models.Report) []*models.Alert {
	var alerts []*models.Alert
	for i := range report.QuickWins {
		win := report.QuickWins[i]
		if win.Severity != models.SeverityCritical || win.Score < s.config.AlertMinScore {
			continue
		}
		alerts = append(alerts, &models.Alert{
			ID:        uuid.NewString(),
			Type:      "critical",
			Title:     fmt.Sprintf("Critical visibility gap for %s", report.Brand),
			Message:   win.Description,
			Brand:     report.Brand,
			QuickWin:  &win,
			CreatedAt: s.now().UTC(),
		})
	}
	return alerts
}

func (s *Service) updateMetrics(reports []*models.Report, failed, alerts int, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.ProcessedRuns += len(reports)
	s.metrics.FailedRuns += failed
	s.metrics.AlertsSent += alerts
	s.metrics.LastRun = s.now().UTC()
	s.metrics.LastRunDuration = duration.String()
	if failed > 0 {
		s.metrics.ErrorCount++
	}

	for _, report := range reports {
		s.metrics.LastReportID = report.ID
		for _, win := range report.QuickWins {
			s.metrics.QuickWinsBySeverity[string(win.Severity)]++
		}
	}
}

func (s *Service) recordFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics.ErrorCount++
	s.metrics.LastRun = s.now().UTC()
}

// GetMetrics returns current metrics as JSON
func (s *Service) GetMetrics() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, _ := json.MarshalIndent(s.metrics, "", "  ")
	return string(data)
}
