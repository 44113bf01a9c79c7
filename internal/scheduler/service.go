package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/azure/brand-visibility-engine/internal/config"
)

// Processor drains the pending-run queue
type Processor interface {
	ProcessPending(ctx context.Context) error
}

// Service runs the processor on the configured cron schedule
type Service struct {
	config    *config.Config
	processor Processor
	cron      *cron.Cron
	timeout   time.Duration

	mu      sync.Mutex
	running bool
}

// NewService creates a new scheduler service
func NewService(cfg *config.Config, processor Processor) (*Service, error) {
	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.TimeZone, err)
	}

	return &Service{
		config:    cfg,
		processor: processor,
		cron:      cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		timeout:   10 * time.Minute,
	}, nil
}

// Start registers the processing job and starts the cron loop
func (s *Service) Start() error {
	if _, err := s.cron.AddFunc(s.config.ProcessSchedule, s.Tick); err != nil {
		return fmt.Errorf("failed to schedule processing: %w", err)
	}

	s.cron.Start()
	logrus.Infof("Scheduler started with schedule %q", s.config.ProcessSchedule)
	return nil
}

// Tick runs one processing pass unless the previous one is still going
func (s *Service) Tick() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		logrus.Warn("Skipping scheduled processing, previous run still in progress")
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	logrus.Info("Starting scheduled processing run")
	if err := s.processor.ProcessPending(ctx); err != nil {
		logrus.Errorf("Scheduled processing run failed: %v", err)
	}
}

// Stop stops the scheduler and waits for a running job to finish
func (s *Service) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
		logrus.Info("Scheduler stopped")
	}
}
