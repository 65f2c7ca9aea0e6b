package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"veil-hq/veil/pkg/telemetry/metrics"
)

// Scheduler triggers periodic full rescans on a cron schedule. It covers
// deployments where the watcher cannot see changes (network filesystems,
// extensions synced by an external tool).
type Scheduler struct {
	registry *Registry
	schedule string
	cron     *cron.Cron
	mu       sync.Mutex
	logger   *slog.Logger
	running  bool
}

// NewScheduler creates a rescan scheduler. schedule is a standard cron
// expression; an empty schedule disables the scheduler.
func NewScheduler(registry *Registry, schedule string, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		registry: registry,
		schedule: schedule,
		cron:     cron.New(),
		logger:   logger.With("component", "webext.scheduler"),
	}
}

// Start begins scheduled rescans. It returns immediately; rescans run on
// the cron goroutine until the context is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Info("rescan schedule not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	_, err := s.cron.AddFunc(s.schedule, func() {
		s.runRescan(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule rescan: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("rescan scheduler started", "schedule", s.schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// runRescan executes one scheduled rescan.
func (s *Scheduler) runRescan(ctx context.Context) {
	s.logger.Debug("starting scheduled extension rescan")

	if err := s.registry.LoadAll(ctx, metrics.TriggerSchedule); err != nil {
		s.logger.Error("scheduled rescan failed", "error", err)
		return
	}

	s.logger.Debug("scheduled extension rescan complete",
		"loaded", s.registry.Count(),
		"enabled", s.registry.EnabledCount(),
	)
}

// Stop halts scheduled rescans. A rescan already in flight completes.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.cron.Stop()
	s.running = false
	s.logger.Info("rescan scheduler stopped")
}
