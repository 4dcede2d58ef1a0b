// Package generator synthesizes the four metric streams. Each metric runs
// its own tick loop with its own running state; loops share nothing but the
// two stores they publish to.
package generator

import (
	"context"
	"math/rand"
	"time"

	"codeberg.org/mutker/chatdash/internal/errors"
	"codeberg.org/mutker/chatdash/internal/history"
	"codeberg.org/mutker/chatdash/internal/logger"
	"codeberg.org/mutker/chatdash/internal/metrics"
	"codeberg.org/mutker/chatdash/internal/snapshot"
	"codeberg.org/mutker/chatdash/internal/telemetry"
	"golang.org/x/sync/errgroup"
)

const DefaultInterval = 5 * time.Second

type Config struct {
	// Interval is the tick period of every loop.
	Interval time.Duration
	// Location decides hour bands and weekends. Nil means time.Local.
	Location *time.Location
}

type Generator struct {
	cfg       Config
	snapshots snapshot.Store
	history   history.Store
	recorder  *telemetry.Recorder
	logger    logger.Logger
	now       func() time.Time
	seed      int64
}

type Option func(*Generator)

func WithRecorder(r *telemetry.Recorder) Option {
	return func(g *Generator) { g.recorder = r }
}

func WithLogger(l logger.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithSeed makes the four random sources deterministic.
func WithSeed(seed int64) Option {
	return func(g *Generator) { g.seed = seed }
}

func New(cfg Config, snapshots snapshot.Store, hist history.Store, opts ...Option) (*Generator, error) {
	errFactory := errors.New()

	if cfg.Interval <= 0 {
		return nil, errFactory.WithData(errors.ErrInvalidInterval, cfg.Interval.String())
	}
	if snapshots == nil || hist == nil {
		return nil, errFactory.WithMessage(ErrInvalidConfig, "generator needs both stores")
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}

	g := &Generator{
		cfg:       cfg,
		snapshots: snapshots,
		history:   hist,
		logger:    logger.Component("generator"),
		now:       time.Now,
		seed:      time.Now().UnixNano(),
	}
	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

// Run starts one loop per metric and blocks until ctx is done. The first
// tick of every loop happens immediately.
func (g *Generator) Run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)

	for i, m := range metrics.All() {
		model := NewModel(m, rand.New(rand.NewSource(g.seed+int64(i))))
		group.Go(func() error {
			g.loop(ctx, model)
			return nil
		})
	}

	g.logger.Info().
		Str("interval", g.cfg.Interval.String()).
		Str("location", g.cfg.Location.String()).
		Msg("Generator started")

	err := group.Wait()

	g.logger.Info().Msg("Generator stopped")

	return err
}

func (g *Generator) loop(ctx context.Context, model Model) {
	ticker := time.NewTicker(g.cfg.Interval)
	defer ticker.Stop()

	for {
		g.Tick(ctx, model)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Tick advances model once and publishes the reading to both stores. Write
// failures are logged and counted; the running state is kept either way.
func (g *Generator) Tick(ctx context.Context, model Model) Reading {
	m := model.Metric()
	reading := model.Next(g.now().In(g.cfg.Location))

	g.recorder.Tick(m)
	g.recorder.Observe(m, reading.Latest)

	g.logger.Debug().
		Str("metric", string(m)).
		Float64("value", reading.Sample.Value).
		Float64("latest", reading.Latest).
		Msg("Tick")

	if err := g.snapshots.Set(ctx, m, reading.Latest); err != nil {
		g.recorder.WriteError(m, telemetry.StoreSnapshot)
		g.logger.ErrorWithCode(errors.New().Wrap(ErrSnapshotWrite, err)).
			Str("metric", string(m)).
			Msg("Failed to update snapshot")
	}

	if err := g.history.Append(ctx, reading.Sample); err != nil {
		g.recorder.WriteError(m, telemetry.StoreHistory)
		g.logger.ErrorWithCode(errors.New().Wrap(ErrHistoryWrite, err)).
			Str("metric", string(m)).
			Msg("Failed to append sample")
	}

	return reading
}
