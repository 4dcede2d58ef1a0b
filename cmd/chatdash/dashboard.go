package main

import (
	"context"
	"os"

	"codeberg.org/mutker/chatdash/internal/analytics"
	"codeberg.org/mutker/chatdash/internal/config"
	"codeberg.org/mutker/chatdash/internal/dashboard"
	"codeberg.org/mutker/chatdash/internal/errors"
	"codeberg.org/mutker/chatdash/internal/history"
	"codeberg.org/mutker/chatdash/internal/logger"
	"codeberg.org/mutker/chatdash/internal/snapshot"
	"github.com/spf13/cobra"
)

func newDashboardCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show the live analytics dashboard",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			return runDashboard(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.Duration("refresh", config.DefaultRefreshInterval, "refresh period")
	flags.Duration("window", config.DefaultWindow, "trailing window of the charts")
	flags.String("log-file", "", "write logs to this file instead of discarding them")

	return cmd
}

// setupDashboardLogging keeps log output off the terminal the dashboard
// draws on.
func setupDashboardLogging(cfg *config.Config) (func(), error) {
	if cfg.Dashboard.LogFile == "" {
		logger.Disable()
		return func() {}, nil
	}

	f, err := os.OpenFile(cfg.Dashboard.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, errors.New().Wrap(errors.ErrInitApp, err)
	}
	if err := logger.Init(cfg.LogLevel, f, true); err != nil {
		f.Close()
		return nil, err
	}

	return func() { f.Close() }, nil
}

func runDashboard(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}

	closeLog, err := setupDashboardLogging(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	errFactory := errors.New()

	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	go handleSignals(cancel)

	loc, _ := cfg.Location()

	snaps, err := snapshot.Dial(ctx, snapshot.Options{
		Addr:     cfg.Redis.Addr(),
		DB:       cfg.Redis.DB,
		Password: cfg.Redis.Password,
		Timeout:  cfg.Dashboard.QueryTimeout,
	}, logger.Component("snapshot"))
	if err != nil {
		return errFactory.Wrap(errors.ErrInitApp, err)
	}
	defer snaps.Close()

	histCfg := cfg.HistoryStore()
	histCfg.ReadOnly = true
	hist, err := history.Open(ctx, histCfg, logger.Component("history"))
	if err != nil {
		return errFactory.Wrap(errors.ErrInitApp, err)
	}
	defer hist.Close()

	refresher := analytics.NewRefresher(analytics.RefresherConfig{
		Window:       cfg.Dashboard.Window,
		QueryTimeout: cfg.Dashboard.QueryTimeout,
		Location:     loc,
	}, snaps, hist, logger.Component("analytics"))

	model := dashboard.NewModel(ctx, refresher, dashboard.Config{
		RefreshInterval: cfg.Dashboard.RefreshInterval,
		Window:          cfg.Dashboard.Window,
		Location:        loc,
	})

	return dashboard.Run(ctx, model)
}
