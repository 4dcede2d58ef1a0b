package analytics

import (
	"testing"
	"time"

	"codeberg.org/mutker/chatdash/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(ts time.Time, v float64) metrics.Sample {
	return metrics.Sample{Timestamp: ts, Metric: metrics.Messages, Value: v}
}

func TestTrailing(t *testing.T) {
	now := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)
	w := Trailing(now, 24*time.Hour)

	assert.Equal(t, time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), w.From)
	assert.Equal(t, now, w.To)
}

func TestHourlyTotalsSumsWithinHour(t *testing.T) {
	samples := []metrics.Sample{
		sample(time.Date(2024, 1, 1, 9, 13, 0, 0, time.UTC), 4),
		sample(time.Date(2024, 1, 1, 9, 47, 0, 0, time.UTC), 6),
	}

	points := HourlyTotals(samples, time.UTC)
	require.Len(t, points, 1)
	assert.Equal(t, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), points[0].Time)
	assert.Equal(t, 10.0, points[0].Value)
}

func TestHourlyTotalsOrdersBuckets(t *testing.T) {
	samples := []metrics.Sample{
		sample(time.Date(2024, 1, 1, 11, 5, 0, 0, time.UTC), 1),
		sample(time.Date(2024, 1, 1, 9, 5, 0, 0, time.UTC), 2),
		sample(time.Date(2024, 1, 1, 11, 55, 0, 0, time.UTC), 3),
		sample(time.Date(2023, 12, 31, 23, 59, 0, 0, time.UTC), 5),
	}

	points := HourlyTotals(samples, time.UTC)
	require.Len(t, points, 3)
	assert.Equal(t, 5.0, points[0].Value)
	assert.Equal(t, 2.0, points[1].Value)
	assert.Equal(t, 4.0, points[2].Value)
}

func TestHourlyTotalsUsesLocation(t *testing.T) {
	// 09:30 UTC is 15:00 at +05:30
	loc := time.FixedZone("IST", 5*3600+30*60)
	samples := []metrics.Sample{sample(time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC), 1)}

	points := HourlyTotals(samples, loc)
	require.Len(t, points, 1)
	assert.Equal(t, 15, points[0].Time.Hour())
	assert.Equal(t, 0, points[0].Time.Minute())
}

func TestEmptyWindowYieldsEmptySeries(t *testing.T) {
	hourly := HourlyTotals(nil, time.UTC)
	assert.NotNil(t, hourly)
	assert.Empty(t, hourly)

	raw := RawSeries(nil)
	assert.NotNil(t, raw)
	assert.Empty(t, raw)
}

func TestRawSeriesSortsDefensively(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	samples := []metrics.Sample{
		sample(base.Add(2*time.Minute), 3),
		sample(base, 1),
		sample(base.Add(time.Minute), 2),
		sample(base.Add(time.Minute), 2.5),
	}

	points := RawSeries(samples)
	require.Len(t, points, 4)
	assert.Equal(t, []float64{1, 2, 2.5, 3}, []float64{points[0].Value, points[1].Value, points[2].Value, points[3].Value})
}

func TestAggregationIsIdempotent(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var samples []metrics.Sample
	for i := 0; i < 500; i++ {
		samples = append(samples, sample(base.Add(time.Duration(i*7)*time.Minute), float64(i%13)))
	}

	assert.Equal(t, HourlyTotals(samples, time.UTC), HourlyTotals(samples, time.UTC))
	assert.Equal(t, RawSeries(samples), RawSeries(samples))
	assert.Equal(t, BuildHeatmap(samples, time.UTC), BuildHeatmap(samples, time.UTC))
}
