package collector

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/R167/homenet_exporter/internal/client"
)

// RouterProbeName labels the router session loop
const RouterProbeName = "nr5103e"

// RouterProbe polls the router's cellular status over a long-lived session.
//
// The probe logs in on its first iteration and reuses the session from then
// on; it never refreshes it proactively. A failed poll is returned to the
// loop, which stops under StopOnError. MaxRelogins > 0 allows that many
// fresh logins per iteration before giving up.
type RouterProbe struct {
	router      client.Router
	password    client.Password
	maxRelogins int
	metrics     *Metrics
	logger      *slog.Logger

	session       client.Session
	authenticated bool
}

// NewRouterProbe creates a new router probe
func NewRouterProbe(router client.Router, password client.Password, maxRelogins int, metrics *Metrics, logger *slog.Logger) *RouterProbe {
	return &RouterProbe{
		router:      router,
		password:    password,
		maxRelogins: maxRelogins,
		metrics:     metrics,
		logger:      logger,
	}
}

// NewRouterLoop creates the router loop. Unlike the other loops a failure
// stops it: the session is assumed valid for the life of the process.
func NewRouterLoop(router client.Router, password client.Password, cfg RouterConfig, clock clockwork.Clock, metrics *Metrics, logger *slog.Logger) *Loop {
	probe := NewRouterProbe(router, password, cfg.MaxRelogins, metrics, logger.With("probe", RouterProbeName))
	return NewLoop(LoopConfig{
		Name:     RouterProbeName,
		Interval: cfg.Interval,
		Policy:   StopOnError,
	}, probe.Probe, clock, metrics, logger)
}

// Probe logs in if needed, fetches the WAN status and records it
func (p *RouterProbe) Probe(ctx context.Context) error {
	if !p.authenticated {
		if err := p.login(ctx); err != nil {
			return err
		}
	}

	status, err := p.router.WanStatus(ctx, p.session)
	for attempt := 1; err != nil && attempt <= p.maxRelogins; attempt++ {
		p.logger.Warn("WAN status failed, logging in again",
			"attempt", attempt,
			"max_relogins", p.maxRelogins,
			"error", err)
		if err = p.login(ctx); err != nil {
			continue
		}
		status, err = p.router.WanStatus(ctx, p.session)
	}
	if err != nil {
		return fmt.Errorf("wan status: %w", err)
	}

	p.record(status)
	return nil
}

func (p *RouterProbe) login(ctx context.Context) error {
	p.authenticated = false
	session, err := p.router.Login(ctx, p.password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	p.session = session
	p.authenticated = true
	p.logger.Info("Logged in to router")
	return nil
}

func (p *RouterProbe) record(status *client.WanStatus) {
	p.metrics.cellularUp.Set(interfaceUp(status.IntfStatus))

	p.metrics.cellularRSSI.WithLabelValues(typeINTF).Set(float64(status.IntfRSSI))
	p.metrics.cellularRSRP.WithLabelValues(typeINTF).Set(float64(status.IntfRSRP))
	p.metrics.cellularSINR.WithLabelValues(typeINTF).Set(float64(status.IntfSINR))
	p.metrics.cellularRSRQ.WithLabelValues(typeINTF).Set(float64(status.IntfRSRQ))

	p.metrics.cellularRSSI.WithLabelValues(typeNSA).Set(float64(status.NSARSSI))
	p.metrics.cellularRSRP.WithLabelValues(typeNSA).Set(float64(status.NSARSRP))
	p.metrics.cellularSINR.WithLabelValues(typeNSA).Set(float64(status.NSASINR))
	p.metrics.cellularRSRQ.WithLabelValues(typeNSA).Set(float64(status.NSARSRQ))

	p.logger.Debug("WAN status",
		"status", status.IntfStatus,
		"technology", status.IntfCurrentAccessTechnology,
		"band", status.IntfCurrentBand,
		"nsa_band", status.NSABand)
}

// interfaceUp is 1 only for the exact string "Up"
func interfaceUp(status string) float64 {
	if status == "Up" {
		return 1.0
	}
	return 0.0
}
