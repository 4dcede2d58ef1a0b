package dashboard

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"codeberg.org/mutker/chatdash/internal/analytics"
	"codeberg.org/mutker/chatdash/internal/metrics"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)

type fakeRefresher struct {
	calls atomic.Int32
	view  analytics.View
}

func (f *fakeRefresher) Refresh(_ context.Context, now time.Time) analytics.View {
	f.calls.Add(1)
	v := f.view
	v.At = now
	v.Window = analytics.Trailing(now, 24*time.Hour)
	return v
}

func sampleView() analytics.View {
	var heat analytics.Heatmap
	heat[2][3] = 12

	return analytics.View{
		Snapshot: analytics.FormatSnapshot(map[metrics.Metric]float64{
			metrics.Messages:  1234567,
			metrics.APICost:   0.1,
			metrics.RateLimit: 97,
		}),
		Messages: []metrics.Point{
			{Time: testNow.Add(-3 * time.Hour), Value: 4},
			{Time: testNow.Add(-2 * time.Hour), Value: 10},
		},
		Cost: []metrics.Point{
			{Time: testNow.Add(-2 * time.Hour), Value: 0.2},
			{Time: testNow.Add(-time.Hour), Value: 0.35},
		},
		Activity: heat,
	}
}

func newTestModel(r Refresher) Model {
	m := NewModel(context.Background(), r, Config{
		RefreshInterval: time.Second,
		Window:          24 * time.Hour,
		Location:        time.UTC,
	})
	m.now = func() time.Time { return testNow }
	return m
}

func TestInitRefreshesImmediately(t *testing.T) {
	r := &fakeRefresher{view: sampleView()}
	m := newTestModel(r)

	cmd := m.Init()
	require.NotNil(t, cmd)

	msg := cmd()
	require.IsType(t, viewMsg{}, msg)
	assert.Equal(t, int32(1), r.calls.Load())
	assert.Equal(t, testNow, analytics.View(msg.(viewMsg)).At)
}

func TestViewMsgSchedulesNextTick(t *testing.T) {
	r := &fakeRefresher{view: sampleView()}
	m := newTestModel(r)

	next, cmd := m.Update(m.Init()())
	model := next.(Model)

	assert.True(t, model.hasData)
	assert.False(t, model.refreshing)
	assert.NotNil(t, cmd)
}

func TestTickTriggersSingleRefresh(t *testing.T) {
	r := &fakeRefresher{view: sampleView()}
	m := newTestModel(r)

	next, cmd := m.Update(tickMsg(testNow))
	require.NotNil(t, cmd)
	model := next.(Model)
	assert.True(t, model.refreshing)

	// A tick during a refresh is dropped
	_, again := model.Update(tickMsg(testNow))
	assert.Nil(t, again)

	cmd()
	assert.Equal(t, int32(1), r.calls.Load())
}

func TestManualRefreshKeepsSingleTickChain(t *testing.T) {
	r := &fakeRefresher{view: sampleView()}
	m := newTestModel(r)

	next, tick := m.Update(m.Init()())
	require.NotNil(t, tick)
	model := next.(Model)

	next, refresh := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	require.NotNil(t, refresh)
	next, extra := next.(Model).Update(refresh())
	assert.Nil(t, extra, "manual refresh must not start another tick")
	model = next.(Model)
	assert.True(t, model.tickPending)

	for range 3 {
		next, refresh = model.Update(tickMsg(testNow))
		require.NotNil(t, refresh)
		next, tick = next.(Model).Update(refresh())
		require.NotNil(t, tick)
		model = next.(Model)
	}

	// One initial refresh, one manual, one per interval
	assert.Equal(t, int32(5), r.calls.Load())
}

func TestTickDuringManualRefreshIsRescheduled(t *testing.T) {
	r := &fakeRefresher{view: sampleView()}
	m := newTestModel(r)

	next, _ := m.Update(m.Init()())
	next, refresh := next.(Model).Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	require.NotNil(t, refresh)

	next, dropped := next.(Model).Update(tickMsg(testNow))
	assert.Nil(t, dropped)
	assert.False(t, next.(Model).tickPending)

	next, tick := next.(Model).Update(refresh())
	assert.NotNil(t, tick)
	assert.True(t, next.(Model).tickPending)
}

func TestQuitKey(t *testing.T) {
	m := newTestModel(&fakeRefresher{})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestWindowSize(t *testing.T) {
	m := newTestModel(&fakeRefresher{})

	next, _ := m.Update(tea.WindowSizeMsg{Width: 160, Height: 50})
	assert.Equal(t, 160, next.(Model).width)
}

func TestViewRendersSnapshotAndCharts(t *testing.T) {
	m := newTestModel(&fakeRefresher{view: sampleView()})
	next, _ := m.Update(m.Init()())

	out := next.(Model).View()

	assert.Contains(t, out, "1,234,567")
	assert.Contains(t, out, "$0.10")
	assert.Contains(t, out, "97%")
	assert.Contains(t, out, "Last 24 hours")
	assert.Contains(t, out, "Currently online")
	assert.Contains(t, out, "Remaining quota")
	assert.Contains(t, out, "Message Volume")
	assert.Contains(t, out, "Wed")
	// No rate limit samples
	assert.Contains(t, out, "No data in window")
}

func TestViewShowsFailedCharts(t *testing.T) {
	v := sampleView()
	v.Failed = []analytics.Chart{analytics.ChartCost}
	m := newTestModel(&fakeRefresher{view: v})
	next, _ := m.Update(m.Init()())

	assert.Contains(t, next.(Model).View(), "unavailable: cost")
}

func TestViewBeforeFirstRefresh(t *testing.T) {
	out := newTestModel(&fakeRefresher{}).View()
	assert.True(t, strings.HasPrefix(out, "Loading"))
}
