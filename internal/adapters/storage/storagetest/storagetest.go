// Package storagetest opens migrated in-memory databases for store tests.
package storagetest

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"saepe/internal/adapters/storage"
)

// OpenDB returns a fully migrated in-memory SQLite database closed at test cleanup.
// POST: the pool holds a single connection so every query sees the same database
func OpenDB(t testing.TB) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, storage.MigrateDB(db, ":memory:"))
	return db
}
