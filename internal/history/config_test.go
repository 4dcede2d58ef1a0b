package history

import (
	"testing"

	"codeberg.org/mutker/chatdash/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURI(t *testing.T) {
	tests := []struct {
		uri     string
		backend Backend
		path    string
		wantErr bool
	}{
		{uri: "mongodb://localhost:27017/", backend: BackendMongo},
		{uri: "mongodb+srv://cluster.example.net/", backend: BackendMongo},
		{uri: "sqlite:///var/lib/chatdash/history.db", backend: BackendSQLite, path: "/var/lib/chatdash/history.db"},
		{uri: "sqlite://history.db", backend: BackendSQLite, path: "history.db"},
		{uri: "postgres://localhost/db", wantErr: true},
		{uri: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			backend, path, err := ParseURI(tt.uri)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.HasCode(err, ErrInvalidURI))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.backend, backend)
			assert.Equal(t, tt.path, path)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.URI = "sqlite://"
	assert.True(t, errors.HasCode(cfg.Validate(), ErrInvalidDBPath))

	cfg = DefaultConfig()
	cfg.Database = ""
	assert.True(t, errors.HasCode(cfg.Validate(), ErrInvalidConfig))
}
