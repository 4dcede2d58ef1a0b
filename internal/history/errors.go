package history

import "codeberg.org/mutker/chatdash/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig = errors.ErrInvalidConfig
	ErrInvalidURI    = errors.ErrInvalidURI
	ErrInvalidDBPath = errors.ErrorCode("history_invalid_db_path")

	// Schema Errors
	ErrSchemaInitFailed       = errors.ErrorCode("history_schema_init_failed")
	ErrSchemaValidationFailed = errors.ErrorCode("history_schema_validation_failed")
	ErrSchemaMigrationFailed  = errors.ErrorCode("history_schema_migration_failed")
	ErrSchemaMismatch         = errors.ErrorCode("history_schema_mismatch")

	// Storage Errors
	ErrStorageInit   = errors.ErrInitFailed
	ErrStorageClose  = errors.ErrShutdownFailed
	ErrAppendFailed  = errors.ErrorCode("history_append_failed")
	ErrQueryFailed   = errors.ErrorCode("history_query_failed")
	ErrUnknownMetric = errors.ErrorCode("history_unknown_metric")
	ErrReadOnly      = errors.ErrorCode("history_read_only")
)
