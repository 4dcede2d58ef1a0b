package analytics

import (
	"context"
	"sync"
	"time"

	"codeberg.org/mutker/chatdash/internal/errors"
	"codeberg.org/mutker/chatdash/internal/history"
	"codeberg.org/mutker/chatdash/internal/logger"
	"codeberg.org/mutker/chatdash/internal/metrics"
	"codeberg.org/mutker/chatdash/internal/snapshot"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// Chart names a part of the view that is refreshed independently.
type Chart string

const (
	ChartSnapshot  Chart = "snapshot"
	ChartMessages  Chart = "messages"
	ChartCost      Chart = "cost"
	ChartRateLimit Chart = "rate_limit"
	ChartActivity  Chart = "activity"
)

// View is everything the dashboard draws for one refresh.
type View struct {
	At       time.Time
	Window   Window
	Snapshot Snapshot
	// Messages holds hourly sums of messages handled.
	Messages []metrics.Point
	// Cost is the raw cumulative spend series.
	Cost []metrics.Point
	// RateLimit is the raw remaining quota series.
	RateLimit []metrics.Point
	// Activity sums active users per weekday and hour.
	Activity Heatmap
	// Failed lists the charts that fell back to their empty default.
	Failed []Chart
}

type RefresherConfig struct {
	Window       time.Duration
	QueryTimeout time.Duration
	Location     *time.Location
}

// Refresher runs one query per chart. A failed or slow chart gets its empty
// default and never holds back the others longer than QueryTimeout.
type Refresher struct {
	cfg       RefresherConfig
	snapshots snapshot.Store
	history   history.Store
	logger    logger.Logger
}

func NewRefresher(cfg RefresherConfig, snapshots snapshot.Store, hist history.Store, log logger.Logger) *Refresher {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}

	return &Refresher{
		cfg:       cfg,
		snapshots: snapshots,
		history:   hist,
		logger:    log,
	}
}

// Refresh builds the view for the trailing window ending at now.
func (r *Refresher) Refresh(ctx context.Context, now time.Time) View {
	window := Trailing(now, r.cfg.Window)
	view := View{
		At:       now,
		Window:   window,
		Snapshot: FormatSnapshot(nil),
	}

	var (
		group  errgroup.Group
		mu     sync.Mutex
		failed []Chart
	)

	run := func(chart Chart, query func(ctx context.Context) error) {
		group.Go(func() error {
			qctx, cancel := r.queryContext(ctx)
			defer cancel()

			if err := query(qctx); err != nil {
				r.logger.ErrorWithCode(queryError(chart, err)).
					Str("chart", string(chart)).
					Msg("Chart refresh failed")

				mu.Lock()
				failed = append(failed, chart)
				mu.Unlock()
			}
			return nil
		})
	}

	run(ChartSnapshot, func(ctx context.Context) error {
		values, err := r.snapshots.GetAll(ctx)
		if err != nil {
			return err
		}
		view.Snapshot = FormatSnapshot(values)
		return nil
	})
	run(ChartMessages, func(ctx context.Context) error {
		points, err := r.hourly(ctx, metrics.Messages, window)
		view.Messages = points
		return err
	})
	run(ChartCost, func(ctx context.Context) error {
		points, err := r.raw(ctx, metrics.APICost, window)
		view.Cost = points
		return err
	})
	run(ChartRateLimit, func(ctx context.Context) error {
		points, err := r.raw(ctx, metrics.RateLimit, window)
		view.RateLimit = points
		return err
	})
	run(ChartActivity, func(ctx context.Context) error {
		heatmap, err := r.heatmap(ctx, metrics.ActiveUsers, window)
		view.Activity = heatmap
		return err
	})

	_ = group.Wait()

	view.Failed = sortCharts(failed)

	return view
}

// queryError classifies a failed chart query. Deadline overruns carry
// errors.ErrTimeout beneath the chart code.
func queryError(chart Chart, err error) errors.Error {
	errFactory := errors.New()

	code := ErrChartQuery
	if chart == ChartSnapshot {
		code = ErrSnapshotQuery
	}
	if errors.Is(err, context.DeadlineExceeded) {
		err = errFactory.Wrap(errors.ErrTimeout, err)
	}
	return errFactory.Wrap(code, err).WithData(string(chart))
}

func (r *Refresher) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.cfg.QueryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.cfg.QueryTimeout)
}

// hourly returns an empty non-nil series on failure.
func (r *Refresher) hourly(ctx context.Context, m metrics.Metric, w Window) ([]metrics.Point, error) {
	if agg, ok := r.history.(history.Aggregator); ok {
		points, err := agg.HourlyTotals(ctx, m, w.From, w.To, r.cfg.Location)
		if err != nil {
			return []metrics.Point{}, err
		}
		if points == nil {
			points = []metrics.Point{}
		}
		return SortPoints(points), nil
	}

	samples, err := r.history.Range(ctx, m, w.From, w.To)
	if err != nil {
		return []metrics.Point{}, err
	}
	return HourlyTotals(samples, r.cfg.Location), nil
}

func (r *Refresher) raw(ctx context.Context, m metrics.Metric, w Window) ([]metrics.Point, error) {
	samples, err := r.history.Range(ctx, m, w.From, w.To)
	if err != nil {
		return []metrics.Point{}, err
	}
	return RawSeries(samples), nil
}

func (r *Refresher) heatmap(ctx context.Context, m metrics.Metric, w Window) (Heatmap, error) {
	if agg, ok := r.history.(history.Aggregator); ok {
		cells, err := agg.WeekHourTotals(ctx, m, w.From, w.To, r.cfg.Location)
		if err != nil {
			return Heatmap{}, err
		}
		return HeatmapFromCells(cells), nil
	}

	samples, err := r.history.Range(ctx, m, w.From, w.To)
	if err != nil {
		return Heatmap{}, err
	}
	return BuildHeatmap(samples, r.cfg.Location), nil
}

var chartOrder = []Chart{ChartSnapshot, ChartMessages, ChartCost, ChartRateLimit, ChartActivity}

func sortCharts(charts []Chart) []Chart {
	return lo.Filter(chartOrder, func(c Chart, _ int) bool { return lo.Contains(charts, c) })
}
