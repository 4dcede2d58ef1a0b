package telemetry

import "codeberg.org/mutker/chatdash/internal/errors"

const (
	ErrInvalidConfig = errors.ErrorCode("telemetry_invalid_config")
	ErrServeFailed   = errors.ErrorCode("telemetry_serve_failed")
	ErrShutdown      = errors.ErrorCode("telemetry_shutdown_failed")
)
