package usecase

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"Newsroom/internal/ports"
)

// Scheduler runs the synchronizer on every tick of a scheduling driver.
// A tick that fires while the previous sync is still running is skipped.
type Scheduler struct {
	driver  ports.Scheduler
	sync    *Synchronizer
	ownerID string
	logger  *slog.Logger
	running atomic.Bool
}

// NewScheduler syncs ownerID's sources on every tick (all sources when ownerID is empty).
func NewScheduler(driver ports.Scheduler, sync *Synchronizer, ownerID string, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, sync: sync, ownerID: ownerID, logger: logger}
}

// Start registers the sync job with the driver.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.sync == nil {
		return nil
	}
	return s.driver.Start(ctx, func(trigger time.Time) { s.RunOnce(ctx, trigger) })
}

// RunOnce performs one scheduled sync and reports whether it actually ran.
func (s *Scheduler) RunOnce(ctx context.Context, trigger time.Time) bool {
	if !s.running.CompareAndSwap(false, true) {
		s.log(slog.LevelWarn, "previous sync still running, skipping tick", "trigger", trigger)
		return false
	}
	defer s.running.Store(false)

	stats, err := s.sync.SyncOwner(ctx, s.ownerID)
	if err != nil {
		s.log(slog.LevelError, "scheduled sync failed", "trigger", trigger, "error", err)
		return true
	}
	s.log(slog.LevelInfo, "scheduled sync finished",
		"trigger", trigger,
		"sources", stats.SourcesProcessed,
		"errored", stats.SourcesErrored,
		"new", stats.ItemsNew,
	)
	return true
}

// Stop tears down the driver, waiting for an in-flight tick within ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}
	return s.driver.Stop(ctx)
}

func (s *Scheduler) log(level slog.Level, msg string, args ...any) {
	if s.logger != nil {
		s.logger.Log(context.Background(), level, msg, args...)
	}
}
