package analytics

import "codeberg.org/mutker/chatdash/internal/errors"

const (
	ErrChartQuery    = errors.ErrorCode("analytics_chart_query_failed")
	ErrSnapshotQuery = errors.ErrorCode("analytics_snapshot_query_failed")
)
