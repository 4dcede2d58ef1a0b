// Package metrics defines the four synthetic metric families and the names
// under which they are stored in the fast store and the historical store.
package metrics

import (
	"time"

	"github.com/samber/lo"
)

// Metric identifies one metric family.
type Metric string

const (
	Messages    Metric = "messages"
	ActiveUsers Metric = "active_users"
	APICost     Metric = "api_cost"
	RateLimit   Metric = "rate_limit"
)

type descriptor struct {
	key        string
	collection string
	field      string
}

var descriptors = map[Metric]descriptor{
	Messages:    {key: "total_messages", collection: "message_logs", field: "count"},
	ActiveUsers: {key: "active_users", collection: "user_activity", field: "count"},
	APICost:     {key: "api_cost", collection: "api_costs", field: "cost"},
	RateLimit:   {key: "rate_limit", collection: "rate_limits", field: "remaining"},
}

// All returns the metric families in display order.
func All() []Metric {
	return []Metric{Messages, ActiveUsers, APICost, RateLimit}
}

// Parse returns the metric with the given name.
func Parse(name string) (Metric, bool) {
	return lo.Find(All(), func(m Metric) bool { return string(m) == name })
}

// Valid reports whether m is one of the four known families.
func (m Metric) Valid() bool {
	_, ok := descriptors[m]
	return ok
}

// Key is the fast store key holding the latest value.
func (m Metric) Key() string { return descriptors[m].key }

// Collection is the historical collection (or table) name.
func (m Metric) Collection() string { return descriptors[m].collection }

// Field is the name of the value field in historical documents.
func (m Metric) Field() string { return descriptors[m].field }

func (m Metric) String() string { return string(m) }

// Keys returns the fast store keys of all metrics.
func Keys() []string {
	return lo.Map(All(), func(m Metric, _ int) string { return m.Key() })
}

// Sample is one persisted observation. Samples are append-only.
type Sample struct {
	Timestamp time.Time
	Metric    Metric
	Value     float64
}

// Point is one element of a chart series.
type Point struct {
	Time  time.Time
	Value float64
}

// Cell is one non-empty heatmap cell. Day is Monday-first (Mon=0..Sun=6).
type Cell struct {
	Day   int
	Hour  int
	Value float64
}
