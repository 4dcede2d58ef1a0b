package generator

import (
	"math/rand"
	"time"

	"codeberg.org/mutker/chatdash/internal/metrics"
)

const (
	initialMessages    = 0
	initialActiveUsers = 1
	initialAPICost     = 0.10
	initialRateLimit   = 100

	MinRateLimit = 80
	MaxRateLimit = 100

	weekendFactor = 0.7
	userNoise     = 5
)

// IntRange and FloatRange are inclusive bounds of a uniform draw.
type IntRange struct{ Lo, Hi int }

type FloatRange struct{ Lo, Hi float64 }

var (
	messageRanges = map[metrics.HourBand]IntRange{
		metrics.BusinessHours: {5, 15},
		metrics.EveningPeak:   {8, 20},
		metrics.OffHours:      {0, 5},
	}
	costRanges = map[metrics.HourBand]FloatRange{
		metrics.BusinessHours: {0.05, 0.15},
		metrics.EveningPeak:   {0.08, 0.20},
		metrics.OffHours:      {0.02, 0.08},
	}
	rateLimitRanges = map[metrics.HourBand]IntRange{
		metrics.BusinessHours: {-3, 1},
		metrics.EveningPeak:   {-5, 0},
		metrics.OffHours:      {0, 2},
	}
	userBase = map[metrics.HourBand]int{
		metrics.BusinessHours: 20,
		metrics.EveningPeak:   30,
		metrics.OffHours:      10,
	}
)

func MessageRange(b metrics.HourBand) IntRange   { return messageRanges[b] }
func CostRange(b metrics.HourBand) FloatRange    { return costRanges[b] }
func RateLimitRange(b metrics.HourBand) IntRange { return rateLimitRanges[b] }

func (r IntRange) draw(rng *rand.Rand) int {
	return r.Lo + rng.Intn(r.Hi-r.Lo+1)
}

func (r FloatRange) draw(rng *rand.Rand) float64 {
	return r.Lo + rng.Float64()*(r.Hi-r.Lo)
}

// MessageDelta draws the number of messages handled in one tick at hour.
func MessageDelta(rng *rand.Rand, hour int) int {
	return messageRanges[metrics.BandOf(hour)].draw(rng)
}

// CostDelta draws the spend added in one tick at hour.
func CostDelta(rng *rand.Rand, hour int) float64 {
	return costRanges[metrics.BandOf(hour)].draw(rng)
}

// RateLimitDelta draws the quota change of one tick at hour.
func RateLimitDelta(rng *rand.Rand, hour int) int {
	return rateLimitRanges[metrics.BandOf(hour)].draw(rng)
}

// UserBase returns the expected active users at t before noise. Weekend
// values are truncated toward zero.
func UserBase(t time.Time) int {
	base := userBase[metrics.BandOf(t.Hour())]
	if metrics.IsWeekend(t) {
		base = int(float64(base) * weekendFactor)
	}
	return base
}

// ActiveUsers draws the active user count at t. The result is not clamped.
func ActiveUsers(rng *rand.Rand, t time.Time) int {
	return UserBase(t) + rng.Intn(2*userNoise+1) - userNoise
}

func ClampRateLimit(v int) int {
	return min(max(v, MinRateLimit), MaxRateLimit)
}

// Reading is the outcome of one tick: the sample to append and the running
// value for the snapshot.
type Reading struct {
	Sample metrics.Sample
	Latest float64
}

// Model owns the running state of one metric. Next advances the state and
// is not safe for concurrent use.
type Model interface {
	Metric() metrics.Metric
	Next(now time.Time) Reading
}

// NewModel returns the model for m with its initial state.
func NewModel(m metrics.Metric, rng *rand.Rand) Model {
	switch m {
	case metrics.Messages:
		return &messageModel{rng: rng, count: initialMessages}
	case metrics.ActiveUsers:
		return &userModel{rng: rng, users: initialActiveUsers}
	case metrics.APICost:
		return &costModel{rng: rng, cost: initialAPICost}
	case metrics.RateLimit:
		return &rateLimitModel{rng: rng, remaining: initialRateLimit}
	default:
		return nil
	}
}

type messageModel struct {
	rng   *rand.Rand
	count int64
}

func (*messageModel) Metric() metrics.Metric { return metrics.Messages }

// The sample carries the tick's delta; the snapshot the cumulative count.
func (m *messageModel) Next(now time.Time) Reading {
	delta := MessageDelta(m.rng, now.Hour())
	m.count += int64(delta)

	return Reading{
		Sample: metrics.Sample{Timestamp: now, Metric: metrics.Messages, Value: float64(delta)},
		Latest: float64(m.count),
	}
}

type userModel struct {
	rng   *rand.Rand
	users int
}

func (*userModel) Metric() metrics.Metric { return metrics.ActiveUsers }

func (m *userModel) Next(now time.Time) Reading {
	m.users = ActiveUsers(m.rng, now)

	return Reading{
		Sample: metrics.Sample{Timestamp: now, Metric: metrics.ActiveUsers, Value: float64(m.users)},
		Latest: float64(m.users),
	}
}

type costModel struct {
	rng  *rand.Rand
	cost float64
}

func (*costModel) Metric() metrics.Metric { return metrics.APICost }

func (m *costModel) Next(now time.Time) Reading {
	m.cost += CostDelta(m.rng, now.Hour())

	return Reading{
		Sample: metrics.Sample{Timestamp: now, Metric: metrics.APICost, Value: m.cost},
		Latest: m.cost,
	}
}

type rateLimitModel struct {
	rng       *rand.Rand
	remaining int
}

func (*rateLimitModel) Metric() metrics.Metric { return metrics.RateLimit }

func (m *rateLimitModel) Next(now time.Time) Reading {
	m.remaining = ClampRateLimit(m.remaining + RateLimitDelta(m.rng, now.Hour()))

	return Reading{
		Sample: metrics.Sample{Timestamp: now, Metric: metrics.RateLimit, Value: float64(m.remaining)},
		Latest: float64(m.remaining),
	}
}
