package analytics

import (
	"time"

	"codeberg.org/mutker/chatdash/internal/metrics"
)

const (
	Days  = 7
	Hours = 24
)

// Heatmap holds summed values indexed by [day][hour], Monday first.
type Heatmap [Days][Hours]float64

// BuildHeatmap sums sample values per (weekday, hour) in loc.
func BuildHeatmap(samples []metrics.Sample, loc *time.Location) Heatmap {
	var h Heatmap
	for _, s := range samples {
		t := s.Timestamp.In(loc)
		h[metrics.MondayIndex(t.Weekday())][t.Hour()] += s.Value
	}
	return h
}

// HeatmapFromCells pivots sparse cells into a dense grid. Cells outside the
// grid are ignored.
func HeatmapFromCells(cells []metrics.Cell) Heatmap {
	var h Heatmap
	for _, c := range cells {
		if c.Day < 0 || c.Day >= Days || c.Hour < 0 || c.Hour >= Hours {
			continue
		}
		h[c.Day][c.Hour] += c.Value
	}
	return h
}

// Max returns the largest cell value, or 0 for an empty grid.
func (h *Heatmap) Max() float64 {
	var m float64
	for d := range h {
		for _, v := range h[d] {
			m = max(m, v)
		}
	}
	return m
}

// NonZero counts cells with a value.
func (h *Heatmap) NonZero() int {
	n := 0
	for d := range h {
		for _, v := range h[d] {
			if v != 0 {
				n++
			}
		}
	}
	return n
}
