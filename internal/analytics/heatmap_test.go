package analytics

import (
	"testing"
	"time"

	"codeberg.org/mutker/chatdash/internal/metrics"
	"github.com/stretchr/testify/assert"
)

func TestHeatmapSingleSample(t *testing.T) {
	// 2024-01-03 is a Wednesday
	ts := time.Date(2024, 1, 3, 3, 0, 0, 0, time.UTC)
	h := BuildHeatmap([]metrics.Sample{{Timestamp: ts, Metric: metrics.ActiveUsers, Value: 12}}, time.UTC)

	assert.Len(t, h, 7)
	assert.Len(t, h[0], 24)
	assert.Equal(t, 12.0, h[2][3])
	assert.Equal(t, 1, h.NonZero())
	assert.Equal(t, "Wed", metrics.WeekdayLabels[2])
}

func TestHeatmapWeekEnds(t *testing.T) {
	monday := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sunday := time.Date(2024, 1, 7, 23, 0, 0, 0, time.UTC)

	h := BuildHeatmap([]metrics.Sample{
		{Timestamp: monday, Value: 1},
		{Timestamp: sunday, Value: 2},
		{Timestamp: sunday.Add(-7 * 24 * time.Hour), Value: 3},
	}, time.UTC)

	assert.Equal(t, 1.0, h[0][0])
	assert.Equal(t, 5.0, h[6][23])
	assert.Equal(t, 5.0, h.Max())
}

func TestHeatmapEmpty(t *testing.T) {
	h := BuildHeatmap(nil, time.UTC)
	assert.Equal(t, Heatmap{}, h)
	assert.Zero(t, h.Max())
	assert.Zero(t, h.NonZero())
}

func TestHeatmapFromCells(t *testing.T) {
	h := HeatmapFromCells([]metrics.Cell{
		{Day: 2, Hour: 3, Value: 4},
		{Day: 2, Hour: 3, Value: 1},
		{Day: 7, Hour: 0, Value: 9},
		{Day: 0, Hour: 24, Value: 9},
	})

	assert.Equal(t, 5.0, h[2][3])
	assert.Equal(t, 1, h.NonZero())
}

func TestHeatmapFromCellsMatchesBuild(t *testing.T) {
	ts := time.Date(2024, 1, 3, 3, 0, 0, 0, time.UTC)
	built := BuildHeatmap([]metrics.Sample{{Timestamp: ts, Value: 12}}, time.UTC)
	pivoted := HeatmapFromCells([]metrics.Cell{{Day: metrics.MondayIndex(ts.Weekday()), Hour: ts.Hour(), Value: 12}})

	assert.Equal(t, built, pivoted)
}
