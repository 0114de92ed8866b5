package collector

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultInterval is the wait between scheduled collection runs.
const DefaultInterval = time.Hour

// Runner is the unit of work the scheduler drives on its timer.
type Runner interface {
	CollectAll(ctx context.Context) error
}

// Scheduler triggers the orchestrator once at startup and then on a fixed
// period until the context is cancelled. The full period elapses after each
// run completes, so the effective period is at least the configured one
// plus the run's own duration. Run failures are logged and never kill the
// loop.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	logger   zerolog.Logger
}

// NewScheduler creates a Scheduler driving the given runner.
func NewScheduler(runner Runner, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		runner:   runner,
		interval: interval,
		logger:   log.With().Str("component", "scheduler").Logger(),
	}
}

// Start blocks, running collection cycles until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info().Dur("interval", s.interval).Msg("starting collection scheduler")

	for {
		s.runOnce(ctx)

		select {
		case <-ctx.Done():
			s.logger.Info().Msg("shutting down collection scheduler")
			return
		case <-time.After(s.interval):
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	start := time.Now()
	err := s.runner.CollectAll(ctx)
	switch {
	case err == nil:
		s.logger.Debug().Dur("duration", time.Since(start)).Msg("scheduled collection run finished")
	case errors.Is(err, context.Canceled):
		// Shutdown; the select after us exits the loop.
	default:
		s.logger.Error().Err(err).Msg("scheduled collection run failed")
	}
}
