// Package snapshot is the fast key-value store holding the latest value of
// each metric. Every write overwrites the previous value.
package snapshot

import (
	"context"
	"strconv"
	"time"

	"codeberg.org/mutker/chatdash/internal/errors"
	"codeberg.org/mutker/chatdash/internal/logger"
	"codeberg.org/mutker/chatdash/internal/metrics"
	"github.com/go-redis/redis"
)

type Store interface {
	Set(ctx context.Context, m metrics.Metric, value float64) error
	// Get returns the latest value of m; ok is false when none was written.
	Get(ctx context.Context, m metrics.Metric) (value float64, ok bool, err error)
	// GetAll returns the latest value of every metric that has one.
	GetAll(ctx context.Context) (map[metrics.Metric]float64, error)
}

type RedisStore struct {
	db     *redis.Client
	logger logger.Logger
}

// Options selects the Redis server.
type Options struct {
	Addr     string
	DB       int
	Password string
	// Timeout bounds dialing and each read or write on the connection. The
	// client ignores context deadlines, so this is what bounds a query.
	// Zero keeps the client defaults.
	Timeout time.Duration
}

func (o Options) client() *redis.Options {
	ro := &redis.Options{
		Addr:     o.Addr,
		DB:       o.DB,
		Password: o.Password,
	}
	if o.Timeout > 0 {
		ro.DialTimeout = o.Timeout
		ro.ReadTimeout = o.Timeout
		ro.WriteTimeout = o.Timeout
	}
	return ro
}

// Dial connects to Redis and checks the connection.
func Dial(ctx context.Context, opts Options, log logger.Logger) (*RedisStore, error) {
	client := redis.NewClient(opts.client())

	if err := client.WithContext(ctx).Ping().Err(); err != nil {
		client.Close()
		return nil, errors.New().WithData(ErrConnectFailed, struct {
			Addr  string
			Error string
		}{
			Addr:  opts.Addr,
			Error: err.Error(),
		})
	}

	log.Info().Str("addr", opts.Addr).Int("db", opts.DB).Msg("Snapshot store connected")

	return NewRedisStore(client, log), nil
}

func NewRedisStore(db *redis.Client, log logger.Logger) *RedisStore {
	return &RedisStore{db: db, logger: log}
}

func (s *RedisStore) Set(ctx context.Context, m metrics.Metric, value float64) error {
	if !m.Valid() {
		return errors.New().WithData(ErrUnknownMetric, string(m))
	}

	err := s.db.WithContext(ctx).Set(m.Key(), formatValue(value), 0).Err()
	if err != nil {
		return errors.New().WithData(ErrWriteFailed, struct {
			Key   string
			Error string
		}{
			Key:   m.Key(),
			Error: err.Error(),
		})
	}

	return nil
}

func (s *RedisStore) Get(ctx context.Context, m metrics.Metric) (float64, bool, error) {
	errFactory := errors.New()

	if !m.Valid() {
		return 0, false, errFactory.WithData(ErrUnknownMetric, string(m))
	}

	raw, err := s.db.WithContext(ctx).Get(m.Key()).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errFactory.Wrap(ErrReadFailed, err)
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, errFactory.WithData(ErrMalformedValue, struct {
			Key   string
			Value string
		}{
			Key:   m.Key(),
			Value: raw,
		})
	}

	return value, true, nil
}

// GetAll reads all keys in one round trip. Values that do not parse as
// numbers are reported as absent.
func (s *RedisStore) GetAll(ctx context.Context) (map[metrics.Metric]float64, error) {
	all := metrics.All()

	values, err := s.db.WithContext(ctx).MGet(metrics.Keys()...).Result()
	if err != nil {
		return nil, errors.New().Wrap(ErrReadFailed, err)
	}

	result := make(map[metrics.Metric]float64, len(all))
	for i, raw := range values {
		str, ok := raw.(string)
		if !ok {
			continue
		}

		value, err := strconv.ParseFloat(str, 64)
		if err != nil {
			s.logger.Debug().
				Str("key", all[i].Key()).
				Str("value", str).
				Msg("Ignoring malformed snapshot value")
			continue
		}
		result[all[i]] = value
	}

	return result, nil
}

func (s *RedisStore) Close() error {
	return s.db.Close()
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
