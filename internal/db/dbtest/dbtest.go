// Package dbtest opens migrated in-memory SQLite databases for tests.
package dbtest

import (
	"fmt"
	"sync/atomic"
	"testing"

	"eshop/internal/config"
	"eshop/internal/db"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var counter atomic.Int64

// New returns a fresh migrated and seeded database private to the test.
// The pool is pinned to one connection so the shared-cache memory database
// lives as long as the test and concurrent transactions serialize.
func New(t *testing.T) *gorm.DB {
	t.Helper()
	name := fmt.Sprintf("file:eshop_test_%d?mode=memory&cache=shared", counter.Add(1))
	gdb, err := db.Open(&config.Config{DBDriver: "sqlite", SQLitePath: name})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb))
	require.NoError(t, db.Seed(gdb, "admin123", bcrypt.MinCost))
	return gdb
}
