package snapshot

import "codeberg.org/mutker/chatdash/internal/errors"

const (
	ErrConnectFailed  = errors.ErrUnavailable
	ErrWriteFailed    = errors.ErrorCode("snapshot_write_failed")
	ErrReadFailed     = errors.ErrorCode("snapshot_read_failed")
	ErrMalformedValue = errors.ErrorCode("snapshot_malformed_value")
	ErrUnknownMetric  = errors.ErrorCode("snapshot_unknown_metric")
)
