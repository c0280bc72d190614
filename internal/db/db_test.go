package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAndMigrateCreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "app.db")
	db, err := OpenAndMigrate(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	for _, table := range []string{"users", "games", "daily_results"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, table)
		assert.Equal(t, table, name)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	db, err := OpenAndMigrate(filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	assert.NoError(t, Migrate(db))
	assert.NoError(t, db.Ping(), "migrate must leave the handle open")
}
