package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/R167/homenet_exporter/internal/client"
	"github.com/R167/homenet_exporter/internal/collector"
	"github.com/R167/homenet_exporter/internal/config"
)

type options struct {
	configFile      string
	listenAddr      string
	logLevel        string
	routerAddr      string
	speedtestServer string
}

func newRootCmd(version, commit, date string) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "homenet_exporter",
		Short: "Prometheus exporter for home network latency, cellular signal and bandwidth",
		Long: "homenet_exporter periodically measures Cloudflare edge latency, polls the\n" +
			"NR5103E router for cellular signal quality, runs the speedtest CLI, and\n" +
			"serves the results on a Prometheus /metrics endpoint.",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			return run(cfg)
		},
	}

	bindFlags(cmd, opts)

	cmd.Version = version
	cmd.SetVersionTemplate(fmt.Sprintf("homenet_exporter version {{.Version}}\ncommit: %s\nbuilt: %s\n", commit, date))

	return cmd
}

func bindFlags(cmd *cobra.Command, opts *options) {
	cmd.Flags().StringVar(&opts.configFile, "config", "", "config file path (optional)")
	cmd.Flags().StringVar(&opts.listenAddr, "listen", config.DefaultListenAddr, "Address to listen on for metrics")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", config.DefaultLogLevel, "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&opts.routerAddr, "router", client.DefaultRouterAddress, "NR5103E management base URL")
	cmd.Flags().StringVar(&opts.speedtestServer, "speedtest-server", client.DefaultSpeedtestServer, "speedtest server ID")
}

// loadConfig reads the config file and applies flags that were set explicitly
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("listen") {
		cfg.Listen = opts.listenAddr
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if flags.Changed("router") {
		cfg.Router.Address = opts.routerAddr
	}
	if flags.Changed("speedtest-server") {
		cfg.Speedtest.ServerID = opts.speedtestServer
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogger(logLevel string) *slog.Logger {
	var level slog.Level
	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
}

// buildLoops creates a loop for every enabled probe
func buildLoops(cfg *config.Config, password string, metrics *collector.Metrics, logger *slog.Logger) []*collector.Loop {
	clock := clockwork.NewRealClock()

	var loops []*collector.Loop
	if !cfg.Latency.Disabled {
		tester := client.NewCloudflareLatency(cfg.Latency.URL)
		loops = append(loops, collector.NewLatencyLoop(tester, cfg.Latency, clock, metrics, logger))
	}
	if !cfg.Router.Disabled {
		router := client.NewRouterClient(cfg.Router.Address)
		loops = append(loops, collector.NewRouterLoop(router, client.Password(password), cfg.Router, clock, metrics, logger))
	}
	if !cfg.Speedtest.Disabled {
		tester := client.NewSpeedtestCLI(cfg.Speedtest.Binary, cfg.Speedtest.ServerID)
		loops = append(loops, collector.NewSpeedtestLoop(tester, cfg.Speedtest, clock, metrics, logger))
	}
	return loops
}

func run(cfg *config.Config) error {
	logger := setupLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	password, err := cfg.RouterPassword()
	if err != nil {
		logger.Error("Missing router credentials", "error", err)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := collector.NewMetrics(prometheus.DefaultRegisterer)

	// Each loop is supervised on its own: a stopped loop is logged and the
	// others keep running until shutdown.
	var loops errgroup.Group
	for _, loop := range buildLoops(cfg, password, metrics, logger) {
		loops.Go(func() error {
			if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Probe loop stopped", "probe", loop.Name(), "error", err)
			}
			return nil
		})
	}

	// Setup HTTP server with timeouts
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:         cfg.Listen,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting homenet exporter",
			"address", cfg.Listen,
			"router", cfg.Router.Address,
			"speedtest_server", cfg.Speedtest.ServerID)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received, stopping gracefully...")
	case err = <-serverErr:
		logger.Error("HTTP server error", "error", err)
	}
	stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	// In-flight probes see the cancelled context and return
	_ = loops.Wait()

	logger.Info("Exporter stopped")
	return err
}
