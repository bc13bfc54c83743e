// Package storagetest opens throwaway in-memory databases for tests.
package storagetest

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/thebrando/brando/storage"
	"gorm.io/gorm"
)

// Open returns a fresh in-memory SQLite database with models migrated. It is
// closed when the test ends.
func Open(t testing.TB, models ...any) *gorm.DB {
	t.Helper()
	db, err := storage.Open("sqlite", ":memory:", "silent")
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close(db) })
	if len(models) > 0 {
		require.NoError(t, db.AutoMigrate(models...))
	}
	return db
}
