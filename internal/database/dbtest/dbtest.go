// Package dbtest opens throwaway in-memory databases for tests.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/thereayou/warbler/internal/database"
	"gorm.io/driver/sqlite"
)

// New returns a migrated, empty database private to the calling test.
func New(t testing.TB) *database.Database {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())

	db := &database.Database{}
	require.NoError(t, db.Open(sqlite.Open(dsn)))

	// a single connection keeps the in-memory database alive and avoids
	// shared-cache table locks
	require.NoError(t, db.SetMaxOpenConns(1))

	t.Cleanup(func() { _ = db.Close() })
	return db
}
