// Package history is the append-only historical store: one collection of
// timestamped samples per metric, queryable by time range.
package history

import (
	"context"
	"time"

	"codeberg.org/mutker/chatdash/internal/errors"
	"codeberg.org/mutker/chatdash/internal/logger"
	"codeberg.org/mutker/chatdash/internal/metrics"
)

// Store appends samples and answers range queries. Implementations must be
// safe for concurrent use by the four generator loops.
type Store interface {
	Append(ctx context.Context, sample metrics.Sample) error
	// Range returns the samples of m with from <= timestamp <= to, ordered
	// by timestamp ascending.
	Range(ctx context.Context, m metrics.Metric, from, to time.Time) ([]metrics.Sample, error)
	Close() error
}

// Aggregator is implemented by stores that can group samples server-side.
// Bucketing uses loc for hour and weekday boundaries.
type Aggregator interface {
	// HourlyTotals sums the sample values per hour, ordered by hour.
	HourlyTotals(ctx context.Context, m metrics.Metric, from, to time.Time, loc *time.Location) ([]metrics.Point, error)
	// WeekHourTotals sums the sample values per (weekday, hour). Only cells
	// with samples are returned.
	WeekHourTotals(ctx context.Context, m metrics.Metric, from, to time.Time, loc *time.Location) ([]metrics.Cell, error)
}

// Open connects to the backend selected by cfg.URI.
func Open(ctx context.Context, cfg Config, log logger.Logger) (Store, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	backend, path, _ := ParseURI(cfg.URI)
	if backend == BackendSQLite {
		open := OpenSQLite
		if cfg.ReadOnly {
			open = OpenSQLiteReadOnly
		}
		s, err := open(path, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	s, err := OpenMongo(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func checkMetric(m metrics.Metric) error {
	if !m.Valid() {
		return errors.New().WithData(ErrUnknownMetric, string(m))
	}
	return nil
}
