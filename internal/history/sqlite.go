package history

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"codeberg.org/mutker/chatdash/internal/errors"
	"codeberg.org/mutker/chatdash/internal/logger"
	"codeberg.org/mutker/chatdash/internal/metrics"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps history in a single local database file. It is used
// when no document store is available.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger   logger.Logger
	readOnly bool
	mu       sync.Mutex
}

// OpenSQLite opens the database at path for appending, creating it and its
// schema when missing. An outdated schema is backed up before it is replaced.
func OpenSQLite(path string, log logger.Logger) (*SQLiteStore, error) {
	return openSQLite(path, false, log)
}

// OpenSQLiteReadOnly opens an existing database for range queries. It fails
// when the file is missing or its schema is not current, and never writes.
func OpenSQLiteReadOnly(path string, log logger.Logger) (*SQLiteStore, error) {
	return openSQLite(path, true, log)
}

func openSQLite(path string, readOnly bool, log logger.Logger) (*SQLiteStore, error) {
	errFactory := errors.New()

	if path == "" {
		return nil, errFactory.New(ErrInvalidDBPath)
	}

	// The collector writes while the dashboard reads from another process
	dsn := path + "?_journal=WAL&_busy_timeout=5000"
	if readOnly {
		if _, err := os.Stat(path); err != nil {
			return nil, errFactory.WithData(ErrStorageInit, struct {
				Phase string
				Path  string
				Error string
			}{
				Phase: "stat_database",
				Path:  path,
				Error: err.Error(),
			})
		}
		dsn = path + "?_query_only=true&_busy_timeout=5000"
	} else if err := os.MkdirAll(filepath.Dir(path), defaultDirPerm); err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Path  string
			Error string
		}{
			Phase: "create_directory",
			Path:  path,
			Error: err.Error(),
		})
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Error string
		}{
			Phase: "open_database",
			Error: err.Error(),
		})
	}

	if readOnly {
		err = CheckSchema(db)
	} else {
		err = ValidateAndUpdateSchema(db, filepath.Join(filepath.Dir(path), "backups"), log)
	}
	if err != nil {
		db.Close()
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Error string
		}{
			Phase: "schema_version",
			Error: err.Error(),
		})
	}

	log.Info().
		Str("path", path).
		Int("schema_version", SchemaVersion).
		Bool("read_only", readOnly).
		Msg("History store initialized")

	return &SQLiteStore{
		db:       db,
		path:     path,
		logger:   log,
		readOnly: readOnly,
	}, nil
}

func (s *SQLiteStore) Append(ctx context.Context, sample metrics.Sample) error {
	if s.readOnly {
		return errors.New().WithData(ErrReadOnly, string(sample.Metric))
	}
	if err := checkMetric(sample.Metric); err != nil {
		return err
	}

	var value any = sample.Value
	if columnTypes[sample.Metric] == "INTEGER" {
		value = int64(sample.Value)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, GetInsertSampleSQL(sample.Metric), sample.Timestamp.UnixMilli(), value)
	if err != nil {
		return errors.New().WithData(ErrAppendFailed, struct {
			Metric string
			Error  string
		}{
			Metric: string(sample.Metric),
			Error:  err.Error(),
		})
	}

	return nil
}

func (s *SQLiteStore) Range(ctx context.Context, m metrics.Metric, from, to time.Time) ([]metrics.Sample, error) {
	if err := checkMetric(m); err != nil {
		return nil, err
	}

	errFactory := errors.New()

	rows, err := s.db.QueryContext(ctx, GetRangeSQL(m), from.UnixMilli(), to.UnixMilli())
	if err != nil {
		return nil, errFactory.Wrap(ErrQueryFailed, err)
	}
	defer rows.Close()

	var samples []metrics.Sample
	for rows.Next() {
		var (
			ts    int64
			value float64
		)
		if err := rows.Scan(&ts, &value); err != nil {
			return nil, errFactory.Wrap(ErrQueryFailed, err)
		}
		samples = append(samples, metrics.Sample{
			Timestamp: time.UnixMilli(ts),
			Metric:    m,
			Value:     value,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, errFactory.Wrap(ErrQueryFailed, err)
	}

	return samples, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Checkpoint WAL and cleanup on close; the writer owns the WAL
	if !s.readOnly {
		if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
			return errors.New().WithData(ErrStorageClose, struct {
				Phase string
				Error string
			}{
				Phase: "checkpoint_wal",
				Error: err.Error(),
			})
		}
	}

	if err := s.db.Close(); err != nil {
		return errors.New().WithData(ErrStorageClose, struct {
			Phase string
			Error string
		}{
			Phase: "close_database",
			Error: err.Error(),
		})
	}

	s.logger.Info().Str("path", s.path).Msg("History store closed")

	return nil
}
