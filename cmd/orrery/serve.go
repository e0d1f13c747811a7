package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"latency.space/orrery/server"
	"latency.space/orrery/shared/clock"
	"latency.space/orrery/shared/logging"
)

func serveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and frame stream",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}

	cmd.Flags().String("http-addr", "", "API listen address (overrides server.http_addr)")
	cmd.Flags().Float64("rate", 0, "initial clock rate, simulated days per wall day (overrides clock.rate)")
	a.v.BindPFlag("server.http_addr", cmd.Flags().Lookup("http-addr"))
	a.v.BindPFlag("clock.rate", cmd.Flags().Lookup("rate"))

	return cmd
}

func (a *app) serve(ctx context.Context) error {
	cat, err := a.loadCatalog()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := server.NewMetricsCollector(reg)
	engine := a.newEngine(cat, metrics)

	start, err := a.cfg.Clock.StartTime(time.Now())
	if err != nil {
		return err
	}
	clk, err := clock.NewAt(start, a.cfg.Clock.Rate)
	if err != nil {
		return fmt.Errorf("starting clock: %w", err)
	}
	if a.cfg.Clock.Paused {
		clk.Pause()
	}
	level.Info(logging.Subsystem(a.logger, "clock")).Log("msg", "clock started", "time", start.Format(time.RFC3339), "instant", clk.Instant(), "rate", clk.Rate(), "paused", clk.IsPaused())

	srv, err := server.New(server.Options{
		Config:   a.cfg.Server,
		Engine:   engine,
		Clock:    clk,
		Metrics:  metrics,
		Gatherer: reg,
		Logger:   a.logger,
	})
	if err != nil {
		return err
	}

	level.Info(a.logger).Log("msg", "serving catalog", "bodies", cat.Len())
	if err := srv.Run(ctx); err != nil {
		return err
	}
	level.Info(a.logger).Log("msg", "server exited gracefully")
	return nil
}
