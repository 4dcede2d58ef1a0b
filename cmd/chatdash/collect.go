package main

import (
	"context"
	"os"

	"codeberg.org/mutker/chatdash/internal/config"
	"codeberg.org/mutker/chatdash/internal/errors"
	"codeberg.org/mutker/chatdash/internal/generator"
	"codeberg.org/mutker/chatdash/internal/history"
	"codeberg.org/mutker/chatdash/internal/logger"
	"codeberg.org/mutker/chatdash/internal/pid"
	"codeberg.org/mutker/chatdash/internal/snapshot"
	"codeberg.org/mutker/chatdash/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newCollectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Generate metrics into the fast and historical stores",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			return runCollect(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.Duration("interval", config.DefaultInterval, "tick period of every metric")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address")
	flags.String("pid-file", "", "single instance guard (default: $TMPDIR/chatdash-collect.pid)")

	return cmd
}

func runCollect(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}

	if err := logger.Init(cfg.LogLevel, os.Stderr, logger.IsService()); err != nil {
		return err
	}
	logger.Debug().Msg("Config loaded")

	errFactory := errors.New()

	if err := pid.Acquire(cfg.Collector.PIDFile); err != nil {
		return errFactory.Wrap(errors.ErrInitApp, err)
	}
	defer func() {
		if err := pid.Release(cfg.Collector.PIDFile); err != nil {
			logger.Error().Err(err).Msg("Failed to remove PID file")
		}
	}()

	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	go handleSignals(cancel)

	loc, _ := cfg.Location()

	snaps, err := snapshot.Dial(ctx, snapshot.Options{
		Addr:     cfg.Redis.Addr(),
		DB:       cfg.Redis.DB,
		Password: cfg.Redis.Password,
	}, logger.Component("snapshot"))
	if err != nil {
		return errFactory.Wrap(errors.ErrInitApp, err)
	}
	defer snaps.Close()

	hist, err := history.Open(ctx, cfg.HistoryStore(), logger.Component("history"))
	if err != nil {
		return errFactory.Wrap(errors.ErrInitApp, err)
	}
	defer func() {
		if err := hist.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close history store")
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	gen, err := generator.New(generator.Config{
		Interval: cfg.Collector.Interval,
		Location: loc,
	}, snaps, hist,
		generator.WithRecorder(telemetry.NewRecorder(reg)),
		generator.WithLogger(logger.Component("generator")),
	)
	if err != nil {
		return errFactory.Wrap(errors.ErrInitApp, err)
	}

	group, ctx := errgroup.WithContext(ctx)
	if cfg.Collector.MetricsAddr != "" {
		group.Go(func() error {
			return telemetry.Serve(ctx, cfg.Collector.MetricsAddr, reg, logger.Component("telemetry"))
		})
	}
	group.Go(func() error {
		return gen.Run(ctx)
	})

	if err := group.Wait(); err != nil {
		return errFactory.Wrap(errors.ErrCollectLoop, err)
	}

	logger.Info().Msg("Exiting...")

	return nil
}
