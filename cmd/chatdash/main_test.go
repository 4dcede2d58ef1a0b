package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/mutker/chatdash/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the loader at an empty config file and clears the
// environment it reads.
func isolate(t *testing.T) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "chatdash.toml")
	require.NoError(t, os.WriteFile(path, nil, 0o600))
	t.Setenv("CHATDASH_CONFIG", path)

	for _, env := range []string{"REDIS_HOST", "REDIS_PORT", "MONGODB_URI", "CHATDASH_REDIS_PORT", "CHATDASH_LOG_LEVEL"} {
		t.Setenv(env, "")
		os.Unsetenv(env)
	}
}

func TestCommandsBindConfigFlags(t *testing.T) {
	isolate(t)

	root := newRootCommand()
	collect, _, err := root.Find([]string{"collect"})
	require.NoError(t, err)

	require.NoError(t, collect.ParseFlags([]string{"--interval=2s", "--redis-port=6380", "--metrics-addr=:9108"}))
	cfg, err := loadConfig(collect.Flags())
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.Collector.Interval)
	assert.Equal(t, 6380, cfg.Redis.Port)
	assert.Equal(t, ":9108", cfg.Collector.MetricsAddr)
}

func TestDashboardLogging(t *testing.T) {
	isolate(t)

	cfg, err := loadConfig(newDashboardCommand().Flags())
	require.NoError(t, err)

	closeLog, err := setupDashboardLogging(cfg)
	require.NoError(t, err)
	closeLog()

	path := filepath.Join(t.TempDir(), "dashboard.log")
	cfg.Dashboard.LogFile = path
	closeLog, err = setupDashboardLogging(cfg)
	require.NoError(t, err)
	logger.Info().Msg("hello")
	closeLog()
	assert.FileExists(t, path)

	logger.Disable()
}
