// Package maintenance provides scheduled maintenance tasks for the usageref store.
package maintenance

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/thebtf/usageref/internal/config"
	"github.com/thebtf/usageref/internal/db/gorm"
)

// Service handles scheduled maintenance tasks.
type Service struct {
	log              zerolog.Logger
	lastRunTime      time.Time
	lastHealth       *gorm.HealthInfo
	store            *gorm.Store
	stopCh           chan struct{}
	doneCh           chan struct{}
	interval         time.Duration
	lastRunDuration  time.Duration
	totalRuns        int64
	totalOptimizeRun int64
	totalFailures    int64
	mu               sync.Mutex
	running          bool
	stopOnce         sync.Once
}

// NewService creates a new maintenance service. A non-positive
// MaintenanceIntervalMinutes disables the scheduler.
func NewService(store *gorm.Store, cfg *config.Config, log zerolog.Logger) *Service {
	interval := time.Duration(0)
	if cfg != nil && cfg.MaintenanceIntervalMinutes > 0 {
		interval = time.Duration(cfg.MaintenanceIntervalMinutes) * time.Minute
	}
	return &Service{
		store:    store,
		interval: interval,
		log:      log.With().Str("component", "maintenance").Logger(),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Enabled reports whether the scheduler runs.
func (s *Service) Enabled() bool {
	return s.interval > 0
}

// Start begins the maintenance loop and blocks until ctx is done or Stop is called.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		close(s.doneCh)
	}()

	if !s.Enabled() {
		s.log.Info().Msg("Maintenance disabled, not starting scheduler")
		return
	}

	s.log.Info().Dur("interval", s.interval).Msg("Starting maintenance scheduler")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("Maintenance shutting down due to context cancellation")
			return
		case <-s.stopCh:
			s.log.Info().Msg("Maintenance shutting down due to stop signal")
			return
		case <-ticker.C:
			s.Run(ctx)
		}
	}
}

// Stop signals the maintenance service to stop.
func (s *Service) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// Wait waits for Start to return.
func (s *Service) Wait() {
	<-s.doneCh
}

// Run executes all maintenance tasks once.
func (s *Service) Run(ctx context.Context) {
	start := time.Now()
	s.log.Debug().Msg("Starting maintenance run")

	ctx, cancel := s.store.WithTimeout(ctx, gorm.SlowQueryTimeout, "maintenance")
	defer cancel()

	var failed int64

	// Task 1: refresh planner statistics
	optimized := false
	if err := s.store.Optimize(ctx); err != nil {
		s.log.Error().Err(err).Msg("Failed to optimize database")
		failed++
	} else {
		optimized = true
	}

	// Task 2: record pool and latency health
	health := s.store.HealthCheck(ctx)
	switch health.Status {
	case "unhealthy":
		s.log.Error().Str("error", health.Error).Msg("Database unhealthy")
		failed++
	case "degraded":
		s.log.Warn().Str("warning", health.Warning).Msg("Database degraded")
	}

	s.mu.Lock()
	s.lastRunTime = time.Now()
	s.lastRunDuration = time.Since(start)
	s.lastHealth = health
	s.totalRuns++
	s.totalFailures += failed
	if optimized {
		s.totalOptimizeRun++
	}
	s.mu.Unlock()

	s.log.Info().
		Dur("duration", time.Since(start)).
		Str("db_status", health.Status).
		Int("open_connections", health.OpenConnections).
		Msg("Maintenance run completed")
}

// RunNow triggers an immediate maintenance run in the background.
func (s *Service) RunNow(ctx context.Context) {
	go s.Run(context.WithoutCancel(ctx))
}

// Stats returns maintenance statistics.
func (s *Service) Stats() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := map[string]any{
		"enabled":          s.Enabled(),
		"interval_minutes": int(s.interval / time.Minute),
		"last_run":         s.lastRunTime,
		"last_duration_ms": s.lastRunDuration.Milliseconds(),
		"total_runs":       s.totalRuns,
		"total_optimizes":  s.totalOptimizeRun,
		"total_failures":   s.totalFailures,
		"running":          s.running,
	}
	if s.lastHealth != nil {
		stats["db_status"] = s.lastHealth.Status
	}
	return stats
}
