package dashboard

import (
	"fmt"
	"math"
	"strings"
	"time"

	"codeberg.org/mutker/chatdash/internal/analytics"
	"codeberg.org/mutker/chatdash/internal/metrics"
	"github.com/charmbracelet/lipgloss"
)

const (
	yAxisW   = 10
	minPlotW = 20
	minPlotH = 3
)

var brailleDots = [4][2]rune{
	{0x01, 0x08}, // top
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80}, // bottom
}

// brailleCanvas packs a 2x4 pixel block into each character cell.
type brailleCanvas struct {
	cw, ch int
	pw, ph int
	grid   []bool
}

func newBrailleCanvas(cw, ch int) *brailleCanvas {
	pw, ph := cw*2, ch*4
	return &brailleCanvas{cw: cw, ch: ch, pw: pw, ph: ph, grid: make([]bool, pw*ph)}
}

func (c *brailleCanvas) set(px, py int) {
	if px >= 0 && px < c.pw && py >= 0 && py < c.ph {
		c.grid[py*c.pw+px] = true
	}
}

func (c *brailleCanvas) drawLine(x0, y0, x1, y1 int) {
	dx := float64(x1 - x0)
	dy := float64(y1 - y0)
	steps := math.Max(math.Abs(dx), math.Abs(dy))
	if steps == 0 {
		c.set(x0, y0)
		return
	}
	xInc := dx / steps
	yInc := dy / steps
	x, y := float64(x0), float64(y0)
	for i := 0; i <= int(steps); i++ {
		c.set(int(math.Round(x)), int(math.Round(y)))
		x += xInc
		y += yInc
	}
}

func (c *brailleCanvas) fillBelow() {
	for px := 0; px < c.pw; px++ {
		top := -1
		for py := 0; py < c.ph; py++ {
			if c.grid[py*c.pw+px] {
				top = py
				break
			}
		}
		if top < 0 {
			continue
		}
		for py := top; py < c.ph; py++ {
			c.grid[py*c.pw+px] = true
		}
	}
}

func (c *brailleCanvas) render(color lipgloss.Color) []string {
	style := lipgloss.NewStyle().Foreground(color)
	lines := make([]string, c.ch)
	for cy := 0; cy < c.ch; cy++ {
		var sb strings.Builder
		for cx := 0; cx < c.cw; cx++ {
			pattern := rune(0x2800)
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if c.grid[(cy*4+dy)*c.pw+cx*2+dx] {
						pattern |= brailleDots[dy][dx]
					}
				}
			}
			if pattern == 0x2800 {
				sb.WriteRune(' ')
			} else {
				sb.WriteString(style.Render(string(pattern)))
			}
		}
		lines[cy] = sb.String()
	}
	return lines
}

// lineChart describes one time series panel.
type lineChart struct {
	Title  string
	Points []metrics.Point
	Color  lipgloss.Color
	// Fill shades the area below the line.
	Fill bool
	// ZeroBased anchors the y axis at 0 instead of the series minimum.
	ZeroBased bool
	YFmt      func(float64) string
}

// renderLineChart draws points across [from, to] in a w by h cell area.
func renderLineChart(c lineChart, from, to time.Time, loc *time.Location, w, h int) string {
	var sb strings.Builder
	sb.WriteString(sectionStyle.Render(c.Title) + "\n")

	plotW := max(w-yAxisW-1, minPlotW)
	h = max(h, minPlotH)

	if len(c.Points) == 0 {
		sb.WriteString(dimStyle.Render("No data in window") + "\n")
		return sb.String()
	}

	minY, maxY := c.Points[0].Value, c.Points[0].Value
	for _, p := range c.Points {
		minY = math.Min(minY, p.Value)
		maxY = math.Max(maxY, p.Value)
	}
	if c.ZeroBased {
		minY = math.Min(minY, 0)
	}
	if maxY == minY {
		maxY = minY + 1
	}

	span := to.Sub(from)
	if span <= 0 {
		span = time.Second
	}

	canvas := newBrailleCanvas(plotW, h)
	toPixel := func(p metrics.Point) (int, int) {
		fx := float64(p.Time.Sub(from)) / float64(span)
		fy := (p.Value - minY) / (maxY - minY)
		px := int(math.Round(fx * float64(canvas.pw-1)))
		py := (canvas.ph - 1) - int(math.Round(fy*float64(canvas.ph-1)))
		return px, py
	}

	prevX, prevY := toPixel(c.Points[0])
	canvas.set(prevX, prevY)
	for _, p := range c.Points[1:] {
		x, y := toPixel(p)
		canvas.drawLine(prevX, prevY, x, y)
		prevX, prevY = x, y
	}
	if c.Fill {
		canvas.fillBelow()
	}

	plot := canvas.render(c.Color)
	for row, line := range plot {
		label := ""
		switch row {
		case 0:
			label = c.YFmt(maxY)
		case h - 1:
			label = c.YFmt(minY)
		case (h - 1) / 2:
			label = c.YFmt((maxY + minY) / 2)
		}
		sb.WriteString(fmt.Sprintf("%*s%s%s\n", yAxisW-1, dimStyle.Render(label), axisStyle.Render("┤"), line))
	}
	sb.WriteString(fmt.Sprintf("%*s%s%s\n", yAxisW-1, "", axisStyle.Render("└"), axisStyle.Render(strings.Repeat("─", plotW))))
	sb.WriteString(fmt.Sprintf("%*s %s\n", yAxisW-1, "", dimStyle.Render(timeAxis(from, to, loc, plotW))))

	return sb.String()
}

// timeAxis spreads HH:MM labels over width columns.
func timeAxis(from, to time.Time, loc *time.Location, width int) string {
	const labels = 5
	line := []byte(strings.Repeat(" ", width))
	for i := 0; i < labels; i++ {
		frac := float64(i) / float64(labels-1)
		t := from.Add(time.Duration(frac * float64(to.Sub(from)))).In(loc)
		label := t.Format("15:04")
		start := int(frac*float64(width-1)) - len(label)/2
		start = max(0, min(start, width-len(label)))
		copy(line[start:], label)
	}
	return string(line)
}

var shades = []rune{'·', '░', '▒', '▓', '█'}

// renderHeatmap draws weekdays as rows and hours as columns, two
// characters per hour.
func renderHeatmap(title string, h analytics.Heatmap) string {
	var sb strings.Builder
	sb.WriteString(sectionStyle.Render(title) + "\n")

	sb.WriteString("     ")
	for hour := 0; hour < analytics.Hours; hour += 3 {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("%-6d", hour)))
	}
	sb.WriteString("\n")

	peak := h.Max()
	for day := 0; day < analytics.Days; day++ {
		sb.WriteString(labelStyle.Render(fmt.Sprintf("%-5s", metrics.WeekdayLabels[day])))
		for hour := 0; hour < analytics.Hours; hour++ {
			sb.WriteString(heatCell(h[day][hour], peak))
		}
		sb.WriteString("\n")
	}

	legend := fmt.Sprintf("peak %s active users per hour", analytics.FormatCount(peak))
	sb.WriteString(dimStyle.Render(legend) + "\n")

	return sb.String()
}

func heatCell(v, peak float64) string {
	if v <= 0 || peak <= 0 {
		return axisStyle.Render(strings.Repeat(string(shades[0]), 2))
	}

	frac := v / peak
	shade := shades[1+int(math.Min(frac*float64(len(shades)-1), float64(len(shades)-2)))]
	color := heatRamp[1+int(math.Min(frac*float64(len(heatRamp)-1), float64(len(heatRamp)-2)))]

	return lipgloss.NewStyle().Foreground(color).Render(strings.Repeat(string(shade), 2))
}

func formatCountAxis(v float64) string {
	switch {
	case math.Abs(v) >= 1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	case math.Abs(v) >= 1e4:
		return fmt.Sprintf("%.0fK", v/1e3)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}

func formatCostAxis(v float64) string {
	switch {
	case v >= 1000:
		return fmt.Sprintf("$%.1fK", v/1000)
	case v >= 100:
		return fmt.Sprintf("$%.0f", v)
	default:
		return fmt.Sprintf("$%.2f", v)
	}
}

func formatPercentAxis(v float64) string {
	return fmt.Sprintf("%.0f%%", v)
}
