package collector

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/R167/homenet_exporter/internal/client"
)

// LatencyProbeName labels the Cloudflare latency loop
const LatencyProbeName = "cfspeedtest"

// LatencyProbe publishes Cloudflare edge latency measurements
type LatencyProbe struct {
	tester  client.LatencyTester
	samples int
	metrics *Metrics
	logger  *slog.Logger
}

// NewLatencyProbe creates a new latency probe
func NewLatencyProbe(tester client.LatencyTester, samples int, metrics *Metrics, logger *slog.Logger) *LatencyProbe {
	return &LatencyProbe{
		tester:  tester,
		samples: samples,
		metrics: metrics,
		logger:  logger,
	}
}

// NewLatencyLoop creates the latency loop. Failures are logged and the loop
// carries on with the next tick.
func NewLatencyLoop(tester client.LatencyTester, cfg LatencyConfig, clock clockwork.Clock, metrics *Metrics, logger *slog.Logger) *Loop {
	probe := NewLatencyProbe(tester, cfg.Samples, metrics, logger.With("probe", LatencyProbeName))
	return NewLoop(LoopConfig{
		Name:     LatencyProbeName,
		Interval: cfg.Interval,
		Delay:    cfg.Delay(),
		Policy:   ContinueOnError,
	}, probe.Probe, clock, metrics, logger)
}

// Probe runs one measurement and records the mean and each sample
func (p *LatencyProbe) Probe(ctx context.Context) error {
	results, avg, err := p.tester.MeasureLatency(ctx, p.samples)
	if err != nil {
		return fmt.Errorf("latency test: %w", err)
	}

	p.metrics.latencyAvg.Set(avg)
	for _, r := range results {
		p.metrics.latencySamples.Observe(r)
	}

	p.logger.Debug("Latency measured", "samples", len(results), "avg_ms", avg)
	return nil
}
