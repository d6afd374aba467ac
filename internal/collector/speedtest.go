package collector

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/R167/homenet_exporter/internal/client"
)

// SpeedtestProbeName labels the speedtest CLI loop
const SpeedtestProbeName = "speedtestnet"

// bandwidthDivisor converts the CLI's raw bandwidth figure to the unit the
// dashboards plot
const bandwidthDivisor = 175_000.0

// SpeedtestProbe publishes the results of speedtest CLI runs
type SpeedtestProbe struct {
	tester  client.Speedtester
	metrics *Metrics
	logger  *slog.Logger
}

// NewSpeedtestProbe creates a new speedtest probe
func NewSpeedtestProbe(tester client.Speedtester, metrics *Metrics, logger *slog.Logger) *SpeedtestProbe {
	return &SpeedtestProbe{
		tester:  tester,
		metrics: metrics,
		logger:  logger,
	}
}

// NewSpeedtestLoop creates the speedtest loop. Failures are logged and the
// loop carries on with the next tick.
func NewSpeedtestLoop(tester client.Speedtester, cfg SpeedtestConfig, clock clockwork.Clock, metrics *Metrics, logger *slog.Logger) *Loop {
	probe := NewSpeedtestProbe(tester, metrics, logger.With("probe", SpeedtestProbeName))
	return NewLoop(LoopConfig{
		Name:     SpeedtestProbeName,
		Interval: cfg.Interval,
		Policy:   ContinueOnError,
	}, probe.Probe, clock, metrics, logger)
}

// Probe runs one speedtest and records its result, if it produced one
func (p *SpeedtestProbe) Probe(ctx context.Context) error {
	result, err := p.tester.RunSpeedtest(ctx)
	if err != nil {
		return fmt.Errorf("speedtest: %w", err)
	}
	if result == nil {
		p.logger.Warn("Speedtest finished without a result record")
		return nil
	}

	p.record(result)
	return nil
}

func (p *SpeedtestProbe) record(result *client.SpeedtestResult) {
	download := float64(result.Download.Bandwidth) / bandwidthDivisor
	upload := float64(result.Upload.Bandwidth) / bandwidthDivisor

	p.metrics.speedtestBandwidth.WithLabelValues(typeDownload).Set(download)
	p.metrics.speedtestBandwidth.WithLabelValues(typeUpload).Set(upload)

	p.metrics.speedtestPing.WithLabelValues(typeHigh).Set(result.Ping.High)
	p.metrics.speedtestPing.WithLabelValues(typeJitter).Set(result.Ping.Jitter)
	p.metrics.speedtestPing.WithLabelValues(typeLow).Set(result.Ping.Low)
	p.metrics.speedtestPing.WithLabelValues(typeLatency).Set(result.Ping.Latency)

	p.metrics.speedtestPacketLoss.Set(result.PacketLoss)

	p.logger.Info("Speedtest completed",
		"download", download,
		"upload", upload,
		"ping_ms", result.Ping.Latency,
		"packet_loss", result.PacketLoss)
}
