// Package dbtest opens migrated in-memory SQLite databases for tests.
package dbtest

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"gorm.io/driver/sqlite"

	"github.com/emojiblog/emojiblog/internal/db"
)

var seq atomic.Int64

// New returns a fresh, migrated database that is closed when t ends.
// The pool holds a single connection, so concurrent callers are serialized.
func New(t testing.TB) *db.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:emojiblog_test_%d?mode=memory&cache=shared", seq.Add(1))
	database, err := db.Open(sqlite.Open(dsn), "ERROR")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := database.DB.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() { _ = database.Close() })
	return database
}
