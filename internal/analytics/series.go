// Package analytics turns historical samples into chart series. Everything
// here is read-only and deterministic for a given input.
package analytics

import (
	"sort"
	"time"

	"codeberg.org/mutker/chatdash/internal/metrics"
	"github.com/samber/lo"
)

const DefaultWindow = 24 * time.Hour

// Window is a closed time range.
type Window struct {
	From time.Time
	To   time.Time
}

// Trailing returns the window of length d ending at now.
func Trailing(now time.Time, d time.Duration) Window {
	return Window{From: now.Add(-d), To: now}
}

// HourStart truncates t to the start of its hour in loc.
func HourStart(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, loc)
}

// HourlyTotals sums sample values per hour, ordered by hour. Empty input
// yields an empty, non-nil series.
func HourlyTotals(samples []metrics.Sample, loc *time.Location) []metrics.Point {
	totals := map[int64]float64{}
	starts := map[int64]time.Time{}

	for _, s := range samples {
		start := HourStart(s.Timestamp, loc)
		key := start.Unix()
		totals[key] += s.Value
		starts[key] = start
	}

	keys := lo.Keys(totals)
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	return lo.Map(keys, func(k int64, _ int) metrics.Point {
		return metrics.Point{Time: starts[k], Value: totals[k]}
	})
}

// RawSeries plots samples as-is, ordered by timestamp. Samples with equal
// timestamps keep their input order.
func RawSeries(samples []metrics.Sample) []metrics.Point {
	points := lo.Map(samples, func(s metrics.Sample, _ int) metrics.Point {
		return metrics.Point{Time: s.Timestamp, Value: s.Value}
	})
	sort.SliceStable(points, func(i, j int) bool { return points[i].Time.Before(points[j].Time) })

	return points
}

// SortPoints orders points by time in place.
func SortPoints(points []metrics.Point) []metrics.Point {
	sort.SliceStable(points, func(i, j int) bool { return points[i].Time.Before(points[j].Time) })
	return points
}
