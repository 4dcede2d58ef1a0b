package metrics

import "time"

// HourBand parameterizes the generation model by time of day.
type HourBand int

const (
	OffHours HourBand = iota
	BusinessHours
	EveningPeak
)

func (b HourBand) String() string {
	switch b {
	case BusinessHours:
		return "business"
	case EveningPeak:
		return "evening"
	default:
		return "off"
	}
}

// BandOf classifies an hour of day. Business hours are 09-17 and the
// evening peak 18-22, both inclusive.
func BandOf(hour int) HourBand {
	switch {
	case hour >= 9 && hour <= 17:
		return BusinessHours
	case hour >= 18 && hour <= 22:
		return EveningPeak
	default:
		return OffHours
	}
}

// Bands returns every hour band.
func Bands() []HourBand {
	return []HourBand{BusinessHours, EveningPeak, OffHours}
}

// IsWeekend reports whether t falls on Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// MondayIndex maps Go's Sunday-first weekday to the Monday-first index used
// by the heatmap (Mon=0..Sun=6).
func MondayIndex(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

// WeekdayLabels are the heatmap column labels, indexed by MondayIndex.
var WeekdayLabels = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
