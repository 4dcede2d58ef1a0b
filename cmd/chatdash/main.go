package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"codeberg.org/mutker/chatdash/internal/config"
	"codeberg.org/mutker/chatdash/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "chatdash",
		Short:         "Live chatbot analytics: a metric collector and a terminal dashboard.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String("log-level", config.DefaultLogLevel, "log level (debug, info, warning, error)")
	flags.String("timezone", "", "IANA time zone for hour bands and charts (default: local)")
	flags.String("redis-host", config.DefaultRedisHost, "fast store host")
	flags.Int("redis-port", config.DefaultRedisPort, "fast store port")
	flags.Int("redis-db", 0, "fast store database")
	flags.String("history-uri", config.DefaultHistoryURI, "historical store URI (mongodb://... or sqlite://path)")
	flags.String("history-db", config.DefaultHistoryDatabase, "historical store database name")

	root.AddCommand(newCollectCommand(), newDashboardCommand())

	return root
}

// loadConfig reads the configuration with the command's flags on top.
func loadConfig(flags *pflag.FlagSet) (*config.Config, error) {
	cfg, err := config.Load(flags)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}
