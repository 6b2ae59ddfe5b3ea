package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/AnatoleLucet/sigreact"
	"github.com/AnatoleLucet/sigreact/internal/logging"
	"github.com/AnatoleLucet/sigreact/reclaim"
)

type runFlags struct {
	sites         int
	abandonRatio  float64
	writes        int
	strategy      string
	sweepInterval time.Duration
	wait          time.Duration
	json          bool
	logLevel      string
	logFormat     string
	metricsAddr   string
	trace         bool
}

func runCmd() *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a speculative render simulation",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := reclaim.LoadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("strategy") {
				cfg.Strategy = f.strategy
			}
			if cmd.Flags().Changed("sweep-interval") {
				cfg.SweepInterval = f.sweepInterval
			}

			return runSoak(cmd.Context(), cmd.OutOrStdout(), cfg, f)
		},
	}

	cmd.Flags().IntVar(&f.sites, "sites", 1000, "Number of subscription sites to render")
	cmd.Flags().Float64Var(&f.abandonRatio, "abandon-ratio", 0.25, "Share of sites that never mount")
	cmd.Flags().IntVar(&f.writes, "writes", 10, "Writes to the shared observable after mounting")
	cmd.Flags().StringVar(&f.strategy, "strategy", reclaim.StrategyAuto, "Reclaim strategy: auto, finalizer or sweep")
	cmd.Flags().DurationVar(&f.sweepInterval, "sweep-interval", reclaim.DefaultSweepInterval, "Sweep strategy period")
	cmd.Flags().DurationVar(&f.wait, "wait", 30*time.Second, "Maximum time to wait for abandoned reactions to be reclaimed")
	cmd.Flags().BoolVar(&f.json, "json", false, "Print the report as JSON")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	cmd.Flags().StringVar(&f.logFormat, "log-format", "text", "Log format: text or json")
	cmd.Flags().StringVar(&f.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	cmd.Flags().BoolVar(&f.trace, "trace", false, "Print reclaim spans to stdout")

	return cmd
}

func runSoak(ctx context.Context, out io.Writer, cfg reclaim.Config, f runFlags) error {
	if f.sites < 0 || f.abandonRatio < 0 || f.abandonRatio > 1 {
		return errors.New("sites must be non-negative and abandon-ratio within [0, 1]")
	}

	logger := logging.New(os.Stderr, f.logLevel, f.logFormat)
	slog.SetDefault(logger)

	registry := prometheus.NewRegistry()
	opts := []reclaim.Option{
		reclaim.WithLogger(logger),
		reclaim.WithMetrics(reclaim.NewMetrics(registry, "")),
	}

	if f.trace {
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("failed to create trace exporter: %w", err)
		}

		tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Warn("tracer provider shutdown error", "error", err)
			}
		}()

		opts = append(opts, reclaim.WithTracerProvider(tp))
	}

	if f.metricsAddr != "" {
		srv := &http.Server{
			Addr:              f.metricsAddr,
			Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		defer srv.Close()
	}

	strategy, err := reclaim.New(cfg, opts...)
	if err != nil {
		return err
	}
	defer strategy.Close()

	engine := sigreact.NewEngine(sigreact.Config{}, sigreact.WithLogger(logger))

	logger.Info("starting soak",
		"strategy", strategy.Name(),
		"sites", f.sites,
		"abandon_ratio", f.abandonRatio)

	report, err := simulate(ctx, simulation{
		sites:        f.sites,
		abandonRatio: f.abandonRatio,
		writes:       f.writes,
		wait:         f.wait,
		engine:       engine,
		strategy:     strategy,
		logger:       logger,
	})
	if err != nil {
		return err
	}

	if f.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	return report.print(out)
}
