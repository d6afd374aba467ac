package collector

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Label values for the type label shared by the cellular and speedtest metrics
const (
	typeINTF     = "INTF"
	typeNSA      = "NSA"
	typeDownload = "download"
	typeUpload   = "upload"
	typeHigh     = "high"
	typeJitter   = "jitter"
	typeLow      = "low"
	typeLatency  = "latency"
)

// latencyBuckets covers edge round trips from a few ms up to a badly degraded link
var latencyBuckets = []float64{2.5, 5, 10, 15, 20, 30, 50, 75, 100, 150, 250, 500, 1000}

// Metrics holds every series the probe loops publish. The metric names are
// dotted to match existing dashboards; the text exposition escapes the dots
// to underscores.
//
// All fields are safe for concurrent use, so loops write to them without
// further coordination.
type Metrics struct {
	// Cloudflare latency
	latencyAvg     prometheus.Gauge
	latencySamples prometheus.Histogram

	// Router cellular status
	cellularUp   prometheus.Gauge
	cellularRSSI *prometheus.GaugeVec
	cellularRSRP *prometheus.GaugeVec
	cellularSINR *prometheus.GaugeVec
	cellularRSRQ *prometheus.GaugeVec

	// speedtest CLI
	speedtestBandwidth  *prometheus.GaugeVec
	speedtestPing       *prometheus.GaugeVec
	speedtestPacketLoss prometheus.Gauge

	// Loop health
	probeUp          *prometheus.GaugeVec
	probeRuns        *prometheus.CounterVec
	probeErrors      *prometheus.CounterVec
	probeLastSuccess *prometheus.GaugeVec
}

// NewMetrics creates the probe metrics and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	signalGauge := func(name, help string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: help}, []string{"type"})
	}

	m := &Metrics{
		latencyAvg: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cfspeedtest.avg_latency",
			Help: "Mean Cloudflare edge latency of the last measurement in milliseconds",
		}),
		latencySamples: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cfspeedtest.latency",
			Help:    "Individual Cloudflare edge latency samples in milliseconds",
			Buckets: latencyBuckets,
		}),

		cellularUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cellular.up",
			Help: "Whether the router reports the cellular interface as up (1 = up, 0 = anything else)",
		}),
		cellularRSSI: signalGauge("cellular.RSSI", "Received signal strength indicator in dBm"),
		cellularRSRP: signalGauge("cellular.RSRP", "Reference signal received power in dBm"),
		cellularSINR: signalGauge("cellular.SINR", "Signal to interference plus noise ratio in dB"),
		cellularRSRQ: signalGauge("cellular.RSRQ", "Reference signal received quality in dB"),

		speedtestBandwidth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "speedtestnet.bandwidth",
			Help: "Bandwidth reported by the last speedtest run, raw bandwidth divided by 175000",
		}, []string{"type"}),
		speedtestPing: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "speedtestnet.ping",
			Help: "Idle ping statistics of the last speedtest run in milliseconds",
		}, []string{"type"}),
		speedtestPacketLoss: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "speedtestnet.packet_loss",
			Help: "Packet loss reported by the last speedtest run (0 when not reported)",
		}),

		probeUp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "homenet_probe_up",
			Help: "Whether the probe loop is running (1 = running, 0 = stopped)",
		}, []string{"probe"}),
		probeRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "homenet_probe_runs_total",
			Help: "Total number of probe iterations",
		}, []string{"probe"}),
		probeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "homenet_probe_errors_total",
			Help: "Total number of failed probe iterations",
		}, []string{"probe"}),
		probeLastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "homenet_probe_last_success_timestamp_seconds",
			Help: "Unix time of the last successful probe iteration",
		}, []string{"probe"}),
	}

	reg.MustRegister(
		m.latencyAvg,
		m.latencySamples,
		m.cellularUp,
		m.cellularRSSI,
		m.cellularRSRP,
		m.cellularSINR,
		m.cellularRSRQ,
		m.speedtestBandwidth,
		m.speedtestPing,
		m.speedtestPacketLoss,
		m.probeUp,
		m.probeRuns,
		m.probeErrors,
		m.probeLastSuccess,
	)

	return m
}
