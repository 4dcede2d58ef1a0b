package analytics

import (
	"fmt"

	"codeberg.org/mutker/chatdash/internal/metrics"
	"github.com/dustin/go-humanize"
)

// Defaults shown when a snapshot key is absent.
var snapshotDefaults = map[metrics.Metric]float64{
	metrics.Messages:    0,
	metrics.ActiveUsers: 0,
	metrics.APICost:     0,
	metrics.RateLimit:   100,
}

// Snapshot is the latest value of each metric formatted for a stat card.
type Snapshot struct {
	Messages    string
	ActiveUsers string
	APICost     string
	RateLimit   string
}

// FormatSnapshot formats the latest values. Missing entries take their
// defaults: 0, 0, $0.00 and 100%.
func FormatSnapshot(values map[metrics.Metric]float64) Snapshot {
	get := func(m metrics.Metric) float64 {
		if v, ok := values[m]; ok {
			return v
		}
		return snapshotDefaults[m]
	}

	return Snapshot{
		Messages:    FormatCount(get(metrics.Messages)),
		ActiveUsers: FormatCount(get(metrics.ActiveUsers)),
		APICost:     FormatCost(get(metrics.APICost)),
		RateLimit:   FormatPercent(get(metrics.RateLimit)),
	}
}

// FormatCount renders 1234567 as "1,234,567".
func FormatCount(v float64) string {
	return humanize.Comma(int64(v))
}

// FormatCost renders 0.1 as "$0.10".
func FormatCost(v float64) string {
	return "$" + humanize.FormatFloat("#,###.##", v)
}

// FormatPercent renders 97 as "97%".
func FormatPercent(v float64) string {
	return fmt.Sprintf("%d%%", int64(v))
}
