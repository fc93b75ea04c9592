package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

const pruneTimeout = 30 * time.Second

// Pruner deletes archived snapshots older than a cutoff.
type Pruner interface {
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Janitor periodically enforces the archive retention window.
type Janitor struct {
	scheduler *gocron.Scheduler
	pruner    Pruner
	retention time.Duration
	interval  time.Duration
	logger    *slog.Logger
}

func NewJanitor(pruner Pruner, retention, interval time.Duration, logger *slog.Logger) *Janitor {
	if logger == nil {
		logger = slog.Default()
	}
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Janitor{
		scheduler: s,
		pruner:    pruner,
		retention: retention,
		interval:  interval,
		logger:    logger,
	}
}

// Start schedules the prune job, which also runs once immediately.
func (j *Janitor) Start() error {
	if j.retention <= 0 || j.interval <= 0 {
		return fmt.Errorf("janitor needs a positive retention and interval, got %s and %s", j.retention, j.interval)
	}

	if _, err := j.scheduler.Every(j.interval).Do(j.RunOnce); err != nil {
		return fmt.Errorf("schedule prune job: %w", err)
	}

	j.scheduler.StartAsync()
	j.logger.Info("archive janitor started", "retention", j.retention, "interval", j.interval)
	return nil
}

// RunOnce prunes the archive a single time.
func (j *Janitor) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), pruneTimeout)
	defer cancel()

	removed, err := j.pruner.Prune(ctx, j.retention)
	if err != nil {
		j.logger.Error("prune failed", "error", err)
		return
	}
	if removed > 0 {
		j.logger.Info("pruned archive", "removed", removed)
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (j *Janitor) Stop() {
	if j.scheduler != nil {
		j.scheduler.Stop()
	}
}
