// Package scheduler runs the periodic batch scoring loop.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/kautilya-labs/georisk/internal/risk"
)

// Scheduler rescores a fixed watchlist of countries on an interval. Countries
// are scored sequentially within a cycle; the engine already parallelizes the
// signals inside each run.
type Scheduler struct {
	engine    *risk.Engine
	countries []string
	interval  time.Duration
	logger    *slog.Logger
	stop      chan struct{}
	running   atomic.Bool

	// onScore, when set, receives every successful assessment.
	onScore func(*risk.Assessment)
}

// New creates a scheduler over the engine and watchlist.
func New(engine *risk.Engine, countries []string, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		engine:    engine,
		countries: countries,
		interval:  interval,
		logger:    logger,
		stop:      make(chan struct{}),
	}
}

// WithScoreCallback registers a callback invoked for each completed run.
func (s *Scheduler) WithScoreCallback(fn func(*risk.Assessment)) *Scheduler {
	s.onScore = fn
	return s
}

// Running reports whether the scoring loop is active.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// Start scores the full watchlist immediately, then on every tick. Blocks
// until the context is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.running.Store(true)
	defer s.running.Store(false)

	s.logger.Info("scheduler started",
		"countries", len(s.countries),
		"interval", s.interval,
	)

	s.safeCycle(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-s.stop:
			s.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.safeCycle(ctx)
		}
	}
}

// Stop signals the scheduler to stop.
func (s *Scheduler) Stop() {
	select {
	case s.stop <- struct{}{}:
	default:
	}
}

// safeCycle contains panics so a bad cycle never kills the loop.
func (s *Scheduler) safeCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic in scoring cycle", "panic", fmt.Sprint(r))
		}
	}()
	s.cycle(ctx)
}

// cycle scores every watched country once. A failed country is logged and
// skipped; the rest of the watchlist still runs.
func (s *Scheduler) cycle(ctx context.Context) {
	start := time.Now()
	ok, failed := 0, 0

	for _, country := range s.countries {
		if ctx.Err() != nil {
			return
		}

		assessment, err := s.engine.Compute(ctx, country)
		if err != nil {
			failed++
			s.logger.Error("scoring failed", "country", country, "error", err)
			continue
		}
		ok++
		if s.onScore != nil {
			s.onScore(assessment)
		}
	}

	s.logger.Info("scoring cycle complete",
		"ok", ok,
		"failed", failed,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
}
