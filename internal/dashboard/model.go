// Package dashboard is the terminal presentation of the analytics view. It
// owns no data: every refresh asks the Refresher for a fresh View.
package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"codeberg.org/mutker/chatdash/internal/analytics"
	"codeberg.org/mutker/chatdash/internal/errors"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"
)

const (
	defaultWidth  = 100
	defaultHeight = 40
	chartHeight   = 6
)

// Refresher produces the view for the window ending at now.
type Refresher interface {
	Refresh(ctx context.Context, now time.Time) analytics.View
}

type Config struct {
	RefreshInterval time.Duration
	Window          time.Duration
	Location        *time.Location
}

type tickMsg time.Time

type viewMsg analytics.View

type Model struct {
	ctx        context.Context
	refresher  Refresher
	cfg        Config
	now        func() time.Time
	view       analytics.View
	hasData    bool
	refreshing bool

	// tickPending is set while a tick is scheduled; at most one is.
	tickPending bool
	width       int
	height      int
}

func NewModel(ctx context.Context, refresher Refresher, cfg Config) Model {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Window <= 0 {
		cfg.Window = analytics.DefaultWindow
	}

	return Model{
		ctx:       ctx,
		refresher: refresher,
		cfg:       cfg,
		now:       time.Now,
		width:     defaultWidth,
		height:    defaultHeight,
	}
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) refreshCmd() tea.Cmd {
	ctx, refresher, now := m.ctx, m.refresher, m.now
	return func() tea.Msg {
		return viewMsg(refresher.Refresh(ctx, now()))
	}
}

// Init refreshes immediately; later refreshes follow every RefreshInterval.
func (m Model) Init() tea.Cmd { return m.refreshCmd() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.tickPending = false
		if m.refreshing {
			// The refresh in flight reschedules the tick when it lands
			return m, nil
		}
		m.refreshing = true
		return m, m.refreshCmd()

	case viewMsg:
		m.view = analytics.View(msg)
		m.hasData = true
		m.refreshing = false
		if m.tickPending {
			return m, nil
		}
		m.tickPending = true
		return m, tickCmd(m.cfg.RefreshInterval)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			if m.refreshing {
				return m, nil
			}
			m.refreshing = true
			return m, m.refreshCmd()
		}
	}

	return m, nil
}

func (m Model) View() string {
	if !m.hasData {
		return dimStyle.Render("Loading analytics...") + "\n"
	}

	v := m.view
	loc := m.cfg.Location

	header := headerStyle.Render("Chatbot Analytics") + "  " +
		dimStyle.Render(fmt.Sprintf("updated %s, window %s", v.At.In(loc).Format("15:04:05"), m.cfg.Window))

	half := max(m.width/2-1, 40)
	row := func(left, right string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top,
			lipgloss.NewStyle().Width(half).Render(left),
			right)
	}

	messages := renderLineChart(lineChart{
		Title:     "Message Volume (hourly)",
		Points:    v.Messages,
		Color:     colorBlue,
		Fill:      true,
		ZeroBased: true,
		YFmt:      formatCountAxis,
	}, v.Window.From, v.Window.To, loc, half, chartHeight)
	cost := renderLineChart(lineChart{
		Title:  "API Cost",
		Points: v.Cost,
		Color:  colorPeach,
		YFmt:   formatCostAxis,
	}, v.Window.From, v.Window.To, loc, half, chartHeight)
	rateLimit := renderLineChart(lineChart{
		Title:  "Rate Limit Remaining",
		Points: v.RateLimit,
		Color:  colorYellow,
		YFmt:   formatPercentAxis,
	}, v.Window.From, v.Window.To, loc, half, chartHeight)
	activity := renderHeatmap("User Activity by Hour", v.Activity)

	sections := []string{
		header,
		renderCards(snapshotCards(v.Snapshot), m.width),
		row(messages, cost),
		row(rateLimit, activity),
	}
	if len(v.Failed) > 0 {
		names := lo.Map(v.Failed, func(c analytics.Chart, _ int) string { return string(c) })
		sections = append(sections, errorStyle.Render("unavailable: "+strings.Join(names, ", ")))
	}
	sections = append(sections, dimStyle.Render("r refresh · q quit"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// Run draws the dashboard until the user quits or ctx is done.
func Run(ctx context.Context, model Model) error {
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := program.Run(); err != nil {
		if ctx.Err() != nil && errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return errors.New().Wrap(errors.ErrDashboardRun, err)
	}

	return nil
}
