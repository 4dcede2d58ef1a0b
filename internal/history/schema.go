package history

import (
	"database/sql"
	"fmt"
	"strings"

	"codeberg.org/mutker/chatdash/internal/errors"
	"codeberg.org/mutker/chatdash/internal/logger"
	"codeberg.org/mutker/chatdash/internal/metrics"
)

const SchemaVersion = 1

const createVersionsSQL = `
	CREATE TABLE IF NOT EXISTS schema_versions (
	    version     INTEGER PRIMARY KEY,
	    applied_at  TEXT NOT NULL
	);`

// columnTypes holds the SQL type of each metric's value column. Counters
// are integers; cost is fractional.
var columnTypes = map[metrics.Metric]string{
	metrics.Messages:    "INTEGER",
	metrics.ActiveUsers: "INTEGER",
	metrics.APICost:     "REAL",
	metrics.RateLimit:   "INTEGER",
}

// Timestamps are stored as unix milliseconds.
func createCollectionSQL(m metrics.Metric) string {
	table, field := m.Collection(), m.Field()
	typ := columnTypes[m]
	check := fmt.Sprintf("CHECK (typeof(%s) = 'integer')", field)
	if typ == "REAL" {
		check = fmt.Sprintf("CHECK (typeof(%s) IN ('real', 'integer'))", field)
	}

	return fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %[1]s (
	    id         INTEGER PRIMARY KEY AUTOINCREMENT,
	    timestamp  INTEGER NOT NULL,
	    %[2]s      %[3]s NOT NULL %[4]s
	);
	CREATE INDEX IF NOT EXISTS idx_%[1]s_timestamp ON %[1]s(timestamp);`, table, field, typ, check)
}

// GetCreateTablesSQL returns the full schema.
func GetCreateTablesSQL() string {
	var sb strings.Builder
	sb.WriteString(createVersionsSQL)
	for _, m := range metrics.All() {
		sb.WriteString(createCollectionSQL(m))
	}
	return sb.String()
}

// GetInsertSampleSQL returns the SQL to append a sample of m.
func GetInsertSampleSQL(m metrics.Metric) string {
	return fmt.Sprintf("INSERT INTO %s (timestamp, %s) VALUES (?, ?)", m.Collection(), m.Field())
}

// GetRangeSQL returns the SQL selecting samples of m within a closed
// timestamp range.
func GetRangeSQL(m metrics.Metric) string {
	return fmt.Sprintf(`
	SELECT timestamp, %[2]s
	FROM %[1]s
	WHERE timestamp >= ? AND timestamp <= ?
	ORDER BY timestamp ASC, id ASC`, m.Collection(), m.Field())
}

// InitSchema creates a new database schema with the current version
func InitSchema(db *sql.DB, log logger.Logger) error {
	errFactory := errors.New()

	log.Debug().Msg("Creating database...")

	tx, err := db.Begin()
	if err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
				log.Debug().Err(err).Msg("Failed to rollback transaction")
			}
		}
	}()

	createSQL := GetCreateTablesSQL()
	log.Debug().Str("sql", createSQL).Msg("Executing SQL statement")
	if _, err := tx.Exec(createSQL); err != nil {
		return errFactory.WithData(ErrSchemaInitFailed, struct {
			Error string
			SQL   string
		}{
			Error: err.Error(),
			SQL:   createSQL,
		})
	}

	if _, err := tx.Exec(`
        INSERT INTO schema_versions (version, applied_at)
        VALUES (?, datetime('now'))
    `, SchemaVersion); err != nil {
		return errFactory.WithData(ErrSchemaInitFailed, struct {
			Error string
			Phase string
		}{
			Error: err.Error(),
			Phase: "record_version",
		})
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}
	committed = true

	log.Info().
		Int("version", SchemaVersion).
		Msg("Schema initialized successfully")

	return nil
}

// GetSchemaVersion returns the current schema version, 0 for an empty database.
func GetSchemaVersion(db *sql.DB) (int, error) {
	errFactory := errors.New()

	exists, err := TableExists(db, "schema_versions")
	if err != nil {
		return 0, errFactory.Wrap(ErrSchemaValidationFailed, err)
	}
	if !exists {
		return 0, nil
	}

	var version int
	err = db.QueryRow(`
        SELECT version
        FROM schema_versions
        ORDER BY version DESC
        LIMIT 1
    `).Scan(&version)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, errFactory.WithData(ErrSchemaValidationFailed, struct {
			Phase string
			Error string
		}{
			Phase: "get_version",
			Error: err.Error(),
		})
	}

	return version, nil
}

// existingTables returns the metric tables present in db.
func existingTables(db *sql.DB) ([]string, error) {
	var tables []string
	for _, m := range metrics.All() {
		ok, err := TableExists(db, m.Collection())
		if err != nil {
			return nil, err
		}
		if ok {
			tables = append(tables, m.Collection())
		}
	}
	return tables, nil
}

// TableExists checks if a table exists
func TableExists(db *sql.DB, tableName string) (bool, error) {
	var exists bool
	err := db.QueryRow(`
        SELECT EXISTS (
            SELECT 1 FROM sqlite_master
            WHERE type='table' AND name=?
        )
    `, tableName).Scan(&exists)
	if err != nil {
		return false, errors.New().WithData(ErrSchemaValidationFailed, struct {
			Phase string
			Table string
			Error string
		}{
			Phase: "check_table_exists",
			Table: tableName,
			Error: err.Error(),
		})
	}
	return exists, nil
}
