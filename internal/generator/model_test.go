package generator

import (
	"math/rand"
	"testing"
	"time"

	"codeberg.org/mutker/chatdash/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const draws = 10000

// hourIn returns a representative hour for each band.
var hourIn = map[metrics.HourBand]int{
	metrics.BusinessHours: 11,
	metrics.EveningPeak:   20,
	metrics.OffHours:      3,
}

func TestMessageDeltaBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, band := range metrics.Bands() {
		r := MessageRange(band)
		seen := map[int]bool{}
		for i := 0; i < draws; i++ {
			d := MessageDelta(rng, hourIn[band])
			require.GreaterOrEqual(t, d, r.Lo, band.String())
			require.LessOrEqual(t, d, r.Hi, band.String())
			seen[d] = true
		}
		// Both ends are reachable
		assert.True(t, seen[r.Lo], "%s lower bound never drawn", band)
		assert.True(t, seen[r.Hi], "%s upper bound never drawn", band)
	}
}

func TestCostDeltaBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for _, band := range metrics.Bands() {
		r := CostRange(band)
		for i := 0; i < draws; i++ {
			d := CostDelta(rng, hourIn[band])
			require.GreaterOrEqual(t, d, r.Lo, band.String())
			require.LessOrEqual(t, d, r.Hi, band.String())
		}
	}
}

func TestRateLimitDeltaBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for _, band := range metrics.Bands() {
		r := RateLimitRange(band)
		for i := 0; i < draws; i++ {
			d := RateLimitDelta(rng, hourIn[band])
			require.GreaterOrEqual(t, d, r.Lo, band.String())
			require.LessOrEqual(t, d, r.Hi, band.String())
		}
	}
}

func TestBandBoundariesAreInclusive(t *testing.T) {
	assert.Equal(t, IntRange{5, 15}, MessageRange(metrics.BandOf(9)))
	assert.Equal(t, IntRange{5, 15}, MessageRange(metrics.BandOf(17)))
	assert.Equal(t, IntRange{8, 20}, MessageRange(metrics.BandOf(18)))
	assert.Equal(t, IntRange{8, 20}, MessageRange(metrics.BandOf(22)))
	assert.Equal(t, IntRange{0, 5}, MessageRange(metrics.BandOf(23)))
	assert.Equal(t, IntRange{0, 5}, MessageRange(metrics.BandOf(8)))
}

func TestUserBase(t *testing.T) {
	wednesday := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	saturday := time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		hour    int
		weekday int
		weekend int
	}{
		{hour: 11, weekday: 20, weekend: 14},
		{hour: 20, weekday: 30, weekend: 21},
		{hour: 3, weekday: 10, weekend: 7},
	}
	for _, tt := range tests {
		h := time.Duration(tt.hour) * time.Hour
		assert.Equal(t, tt.weekday, UserBase(wednesday.Add(h)))
		assert.Equal(t, tt.weekend, UserBase(saturday.Add(h)))
		assert.Equal(t, tt.weekend, UserBase(saturday.AddDate(0, 0, 1).Add(h)))
	}
}

func TestActiveUsersNoiseBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	sunday := time.Date(2024, 1, 7, 4, 0, 0, 0, time.UTC)

	for i := 0; i < draws; i++ {
		u := ActiveUsers(rng, sunday)
		// Weekend off-hours is the lowest base: 7 - 5
		require.GreaterOrEqual(t, u, 2)
		require.LessOrEqual(t, u, 12)
	}
}

func TestClampRateLimit(t *testing.T) {
	assert.Equal(t, 80, ClampRateLimit(75))
	assert.Equal(t, 80, ClampRateLimit(80))
	assert.Equal(t, 93, ClampRateLimit(93))
	assert.Equal(t, 100, ClampRateLimit(102))
}

func TestRateLimitStaysInBounds(t *testing.T) {
	model := NewModel(metrics.RateLimit, rand.New(rand.NewSource(5)))
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < draws; i++ {
		r := model.Next(start.Add(time.Duration(i) * 5 * time.Minute))
		require.GreaterOrEqual(t, r.Latest, float64(MinRateLimit))
		require.LessOrEqual(t, r.Latest, float64(MaxRateLimit))
		require.Equal(t, r.Latest, r.Sample.Value)
	}
}

func TestCumulativeModelsAreMonotonic(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, m := range []metrics.Metric{metrics.Messages, metrics.APICost} {
		model := NewModel(m, rand.New(rand.NewSource(6)))
		prev := -1.0
		for i := 0; i < draws; i++ {
			r := model.Next(start.Add(time.Duration(i) * 5 * time.Minute))
			require.GreaterOrEqual(t, r.Latest, prev, m.String())
			prev = r.Latest
		}
	}
}

func TestMessageSampleCarriesDelta(t *testing.T) {
	model := NewModel(metrics.Messages, rand.New(rand.NewSource(7)))
	noon := time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)

	total := 0.0
	for i := 0; i < 10; i++ {
		r := model.Next(noon)
		total += r.Sample.Value
		assert.Equal(t, total, r.Latest)
		assert.Equal(t, metrics.Messages, r.Sample.Metric)
		assert.True(t, r.Sample.Timestamp.Equal(noon))
	}
}

func TestCostStartsAtInitialValue(t *testing.T) {
	model := NewModel(metrics.APICost, rand.New(rand.NewSource(8)))
	r := model.Next(time.Date(2024, 1, 3, 3, 0, 0, 0, time.UTC))

	assert.GreaterOrEqual(t, r.Latest, initialAPICost+0.02)
	assert.LessOrEqual(t, r.Latest, initialAPICost+0.08)
	assert.Equal(t, r.Latest, r.Sample.Value)
}

func TestNewModelUnknownMetric(t *testing.T) {
	assert.Nil(t, NewModel("bogus", rand.New(rand.NewSource(1))))
}
