package migrate

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/and161185/jobassist/migrations"
)

func TestVersionTableIsNamespaced(t *testing.T) {
	require.NotEqual(t, "goose_db_version", VersionTable)
	require.True(t, strings.HasPrefix(VersionTable, "jobassist_"))
}

func TestEmbeddedMigrations(t *testing.T) {
	names, err := fs.Glob(migrations.FS, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)
	require.Equal(t, "00001_client_sessions.sql", names[0])

	for _, n := range names {
		b, err := fs.ReadFile(migrations.FS, n)
		require.NoError(t, err)
		require.Contains(t, string(b), "-- +goose Up", n)
		require.Contains(t, string(b), "-- +goose Down", n)
	}

	b, err := fs.ReadFile(migrations.FS, names[0])
	require.NoError(t, err)
	// session values are stored sealed, never as text
	for _, col := range []string{"salt       BYTEA", "token      BYTEA", "user_json  BYTEA"} {
		require.Contains(t, string(b), col)
	}
}
