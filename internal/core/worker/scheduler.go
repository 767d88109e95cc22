package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/vietddude/oracle-updater/internal/core/domain"
)

// RunFunc executes one job run.
type RunFunc func(ctx context.Context) error

// Scheduler triggers a run on a fixed interval.
type Scheduler struct {
	interval time.Duration
	run      RunFunc
	log      *slog.Logger
}

// NewScheduler creates a new Scheduler worker.
func NewScheduler(interval time.Duration, run RunFunc, log *slog.Logger) *Scheduler {
	if log == nil {
		panic("worker: nil logger")
	}
	return &Scheduler{
		interval: interval,
		run:      run,
		log:      log.With("component", "scheduler"),
	}
}

// Start runs the scheduler loop until ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	if s.interval <= 0 {
		return // Scheduling disabled
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Initial run
	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	err := s.run(ctx)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrJobInProgress):
		s.log.Info("Scheduled run skipped, previous run still active")
	case ctx.Err() != nil:
	default:
		// The job already logged the failure; the next tick retries
		s.log.Debug("Scheduled run failed", "error", err)
	}
}
