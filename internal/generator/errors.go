package generator

import "codeberg.org/mutker/chatdash/internal/errors"

const (
	ErrInvalidConfig = errors.ErrInvalidConfig
	ErrSnapshotWrite = errors.ErrorCode("generator_snapshot_write_failed")
	ErrHistoryWrite  = errors.ErrorCode("generator_history_write_failed")
)
