package config

import (
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"codeberg.org/mutker/chatdash/internal/errors"
	"codeberg.org/mutker/chatdash/internal/history"
	"codeberg.org/mutker/chatdash/internal/logger"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultLogLevel        = "info"
	DefaultRedisHost       = "localhost"
	DefaultRedisPort       = 6379
	DefaultHistoryURI      = "mongodb://localhost:27017/"
	DefaultHistoryDatabase = "chatbot_analytics"
	DefaultInterval        = 5 * time.Second
	DefaultRefreshInterval = 5 * time.Second
	DefaultWindow          = 24 * time.Hour
	DefaultQueryTimeout    = 3 * time.Second

	envPrefix  = "CHATDASH"
	configName = "chatdash"
)

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	DB       int    `mapstructure:"db"`
	Password string `mapstructure:"password"`
}

// Addr returns host:port for the Redis client.
func (r RedisConfig) Addr() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}

type HistoryConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type CollectorConfig struct {
	Interval    time.Duration `mapstructure:"interval"`
	MetricsAddr string        `mapstructure:"metrics_addr"`
	PIDFile     string        `mapstructure:"pid_file"`
}

type DashboardConfig struct {
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	Window          time.Duration `mapstructure:"window"`
	QueryTimeout    time.Duration `mapstructure:"query_timeout"`
	LogFile         string        `mapstructure:"log_file"`
}

type Config struct {
	LogLevel  string          `mapstructure:"log_level"`
	Timezone  string          `mapstructure:"timezone"`
	Redis     RedisConfig     `mapstructure:"redis"`
	History   HistoryConfig   `mapstructure:"history"`
	Collector CollectorConfig `mapstructure:"collector"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
}

// flagKeys maps command line flag names to configuration keys. Only flags
// present on the given flag set are bound.
var flagKeys = map[string]string{
	"log-level":    "log_level",
	"timezone":     "timezone",
	"redis-host":   "redis.host",
	"redis-port":   "redis.port",
	"redis-db":     "redis.db",
	"history-uri":  "history.uri",
	"history-db":   "history.database",
	"interval":     "collector.interval",
	"metrics-addr": "collector.metrics_addr",
	"pid-file":     "collector.pid_file",
	"refresh":      "dashboard.refresh_interval",
	"window":       "dashboard.window",
	"log-file":     "dashboard.log_file",
}

// legacyEnv lists the unprefixed variables the collector and dashboard have
// always read.
var legacyEnv = map[string]string{
	"redis.host":  "REDIS_HOST",
	"redis.port":  "REDIS_PORT",
	"history.uri": "MONGODB_URI",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("timezone", "")
	v.SetDefault("redis.host", DefaultRedisHost)
	v.SetDefault("redis.port", DefaultRedisPort)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("history.uri", DefaultHistoryURI)
	v.SetDefault("history.database", DefaultHistoryDatabase)
	v.SetDefault("collector.interval", DefaultInterval)
	v.SetDefault("collector.metrics_addr", "")
	v.SetDefault("collector.pid_file", filepath.Join(os.TempDir(), "chatdash-collect.pid"))
	v.SetDefault("dashboard.refresh_interval", DefaultRefreshInterval)
	v.SetDefault("dashboard.window", DefaultWindow)
	v.SetDefault("dashboard.query_timeout", DefaultQueryTimeout)
	v.SetDefault("dashboard.log_file", "")
}

// Load builds the configuration from defaults, an optional TOML file, the
// environment and flags, in increasing order of precedence. flags may be nil.
func Load(flags *pflag.FlagSet) (*Config, error) {
	errFactory := errors.New()
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		prefixed := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
		}
	}

	v.SetConfigType("toml")
	if path := os.Getenv(envPrefix + "_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath("/etc/chatdash")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "chatdash"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errFactory.Wrap(errors.ErrReadConfig, err)
		}
		logger.Debug().Msg("No config file found, using defaults")
	}

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, errFactory.Wrap(errors.ErrBindFlags, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks every option that has a restricted domain.
func (c *Config) Validate() error {
	errFactory := errors.New()

	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return errFactory.WithData(errors.ErrInvalidTimezone, c.Timezone)
	}
	if c.Redis.Port < 1 || c.Redis.Port > 65535 {
		return errFactory.WithData(errors.ErrInvalidPort, c.Redis.Port)
	}
	if err := c.HistoryStore().Validate(); err != nil {
		return err
	}
	if c.Collector.Interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Collector.Interval.String())
	}
	if c.Dashboard.RefreshInterval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Dashboard.RefreshInterval.String())
	}
	if c.Dashboard.Window <= 0 {
		return errFactory.WithData(errors.ErrInvalidWindow, c.Dashboard.Window.String())
	}
	if c.Dashboard.QueryTimeout <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Dashboard.QueryTimeout.String())
	}

	return nil
}

// Location resolves the configured time zone. An empty zone is the process
// local zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}

	return time.LoadLocation(c.Timezone)
}

// HistoryStore returns the options for opening the historical store.
func (c *Config) HistoryStore() history.Config {
	cfg := history.DefaultConfig()
	cfg.URI = c.History.URI
	cfg.Database = c.History.Database
	return cfg
}
