package analytics

import (
	"testing"

	"codeberg.org/mutker/chatdash/internal/metrics"
	"github.com/stretchr/testify/assert"
)

func TestFormatSnapshot(t *testing.T) {
	s := FormatSnapshot(map[metrics.Metric]float64{
		metrics.Messages:    1234567,
		metrics.ActiveUsers: 23,
		metrics.APICost:     0.1,
		metrics.RateLimit:   97,
	})

	assert.Equal(t, Snapshot{
		Messages:    "1,234,567",
		ActiveUsers: "23",
		APICost:     "$0.10",
		RateLimit:   "97%",
	}, s)
}

func TestFormatSnapshotDefaults(t *testing.T) {
	assert.Equal(t, Snapshot{
		Messages:    "0",
		ActiveUsers: "0",
		APICost:     "$0.00",
		RateLimit:   "100%",
	}, FormatSnapshot(nil))

	partial := FormatSnapshot(map[metrics.Metric]float64{metrics.Messages: 5})
	assert.Equal(t, "$0.00", partial.APICost)
	assert.Equal(t, "100%", partial.RateLimit)
}

func TestFormatCost(t *testing.T) {
	assert.Equal(t, "$1,234.50", FormatCost(1234.5))
	assert.Equal(t, "$12.35", FormatCost(12.345678))
}
