package history

import (
	"net/url"
	"strings"
	"time"

	"codeberg.org/mutker/chatdash/internal/errors"
)

const (
	// File system permissions and paths
	defaultDirPerm  = 0o755
	defaultDatabase = "chatbot_analytics"
	defaultTimeout  = 10 * time.Second
)

// Backend names a historical store implementation.
type Backend string

const (
	BackendMongo  Backend = "mongodb"
	BackendSQLite Backend = "sqlite"
)

type Config struct {
	// URI selects the backend: mongodb://, mongodb+srv:// or sqlite://<path>.
	URI      string
	Database string
	// Timeout bounds connection setup.
	Timeout time.Duration
	// ReadOnly opens the store for queries only. The schema is checked but
	// never created or migrated, and Append fails.
	ReadOnly bool
}

func DefaultConfig() Config {
	return Config{
		URI:      "mongodb://localhost:27017/",
		Database: defaultDatabase,
		Timeout:  defaultTimeout,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	backend, path, err := ParseURI(c.URI)
	if err != nil {
		return err
	}
	if backend == BackendSQLite && path == "" {
		return errFactory.New(ErrInvalidDBPath)
	}
	if backend == BackendMongo && c.Database == "" {
		return errFactory.WithMessage(ErrInvalidConfig, "history database name is empty")
	}
	return nil
}

// ParseURI returns the backend of uri and, for sqlite, the database path.
// "sqlite:///var/lib/chatdash/history.db" has path "/var/lib/chatdash/history.db".
func ParseURI(uri string) (Backend, string, error) {
	errFactory := errors.New()

	u, err := url.Parse(uri)
	if err != nil {
		return "", "", errFactory.Wrap(ErrInvalidURI, err)
	}

	switch u.Scheme {
	case "mongodb", "mongodb+srv":
		return BackendMongo, "", nil
	case "sqlite":
		return BackendSQLite, strings.TrimPrefix(uri, "sqlite://"), nil
	default:
		return "", "", errFactory.WithData(ErrInvalidURI, uri)
	}
}
