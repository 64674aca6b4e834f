package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLiteCreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ratings.db")

	db, err := OpenSQLite(path)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.HealthCheck(context.Background()))

	var name string
	err = db.Conn().QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='rating_snapshots'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "rating_snapshots", name)
}

func TestOpenSQLiteIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ratings.db")

	first, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := OpenSQLite(path)
	require.NoError(t, err)
	assert.NoError(t, second.Close())
}

func TestEmbeddedSchemas(t *testing.T) {
	for _, name := range []string{"schema/postgres.sql", "schema/sqlite.sql"} {
		ddl, err := schemaFS.ReadFile(name)
		require.NoError(t, err, name)
		assert.Contains(t, string(ddl), "rating_snapshots")
	}
}
