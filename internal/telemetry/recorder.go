// Package telemetry exposes the collector's own health as Prometheus
// metrics: loop iterations, store write failures and the last value
// generated for each metric.
package telemetry

import (
	"codeberg.org/mutker/chatdash/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "chatdash"

// Store labels for write failures.
const (
	StoreSnapshot = "snapshot"
	StoreHistory  = "history"
)

// Recorder is safe for concurrent use. A nil *Recorder discards everything.
type Recorder struct {
	ticks       *prometheus.CounterVec
	writeErrors *prometheus.CounterVec
	latest      *prometheus.GaugeVec
}

// NewRecorder registers the collector metrics with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		ticks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "ticks_total",
			Help:      "Generation cycles run, per metric.",
		}, []string{"metric"}),
		writeErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "write_errors_total",
			Help:      "Failed writes, per metric and store.",
		}, []string{"metric", "store"}),
		latest: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "latest_value",
			Help:      "Most recent generated value, per metric.",
		}, []string{"metric"}),
	}
}

func (r *Recorder) Tick(m metrics.Metric) {
	if r == nil {
		return
	}
	r.ticks.WithLabelValues(string(m)).Inc()
}

func (r *Recorder) WriteError(m metrics.Metric, store string) {
	if r == nil {
		return
	}
	r.writeErrors.WithLabelValues(string(m), store).Inc()
}

// Observe records the latest value of m.
func (r *Recorder) Observe(m metrics.Metric, value float64) {
	if r == nil {
		return
	}
	r.latest.WithLabelValues(string(m)).Set(value)
}
