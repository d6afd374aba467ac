package collector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

// ErrorPolicy decides what a Loop does when an iteration fails
type ErrorPolicy int

const (
	// ContinueOnError logs the failure and waits for the next tick
	ContinueOnError ErrorPolicy = iota
	// StopOnError ends the loop and returns the failure from Run
	StopOnError
)

func (p ErrorPolicy) String() string {
	switch p {
	case ContinueOnError:
		return "continue"
	case StopOnError:
		return "stop"
	default:
		return fmt.Sprintf("ErrorPolicy(%d)", int(p))
	}
}

// Iteration is a single probe pass
type Iteration func(ctx context.Context) error

// LoopConfig describes the schedule of a Loop
type LoopConfig struct {
	Name     string
	Interval time.Duration
	Delay    time.Duration // waited once before the first iteration
	Policy   ErrorPolicy
}

// Loop runs an Iteration on a fixed interval until its context is cancelled.
// Iterations never overlap: a slow iteration delays the next one and ticks
// missed in the meantime are dropped.
type Loop struct {
	cfg     LoopConfig
	iterate Iteration
	clock   clockwork.Clock
	metrics *Metrics
	logger  *slog.Logger
}

// NewLoop creates a new probe loop
func NewLoop(cfg LoopConfig, iterate Iteration, clock clockwork.Clock, metrics *Metrics, logger *slog.Logger) *Loop {
	return &Loop{
		cfg:     cfg,
		iterate: iterate,
		clock:   clock,
		metrics: metrics,
		logger:  logger.With("probe", cfg.Name),
	}
}

// Name returns the probe name used in logs and metric labels
func (l *Loop) Name() string {
	return l.cfg.Name
}

// Run blocks until ctx is done, or until an iteration fails under StopOnError.
// The first iteration runs right after the configured delay.
func (l *Loop) Run(ctx context.Context) error {
	up := l.metrics.probeUp.WithLabelValues(l.cfg.Name)
	up.Set(1)
	defer up.Set(0)

	if l.cfg.Delay > 0 {
		l.logger.Info("Probe loop waiting before first run", "delay", l.cfg.Delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.clock.After(l.cfg.Delay):
		}
	}

	ticker := l.clock.NewTicker(l.cfg.Interval)
	defer ticker.Stop()

	l.logger.Info("Probe loop started", "interval", l.cfg.Interval, "on_error", l.cfg.Policy)

	for {
		if err := l.runOnce(ctx); err != nil {
			if ctx.Err() != nil {
				l.logger.Info("Probe loop stopping", "error", err)
				return ctx.Err()
			}
			if l.cfg.Policy == StopOnError {
				return fmt.Errorf("%s: %w", l.cfg.Name, err)
			}
			l.logger.Error("Probe iteration failed", "error", err)
		}

		select {
		case <-ctx.Done():
			l.logger.Info("Probe loop stopping")
			return ctx.Err()
		case <-ticker.Chan():
		}
	}
}

// runOnce executes one iteration on its own goroutine so a panic or a long
// blocking measurement is contained, and waits for it to finish.
func (l *Loop) runOnce(ctx context.Context) error {
	l.metrics.probeRuns.WithLabelValues(l.cfg.Name).Inc()
	start := l.clock.Now()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic in probe iteration: %v", r)
			}
		}()
		done <- l.iterate(ctx)
	}()
	err := <-done

	if err != nil {
		l.metrics.probeErrors.WithLabelValues(l.cfg.Name).Inc()
		return err
	}

	now := l.clock.Now()
	l.metrics.probeLastSuccess.WithLabelValues(l.cfg.Name).Set(float64(now.Unix()))
	l.logger.Debug("Probe iteration completed", "duration", now.Sub(start))
	return nil
}
