// Package storetest opens throwaway stores backed by in-memory SQLite for
// tests in other packages.
package storetest

import (
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/zulandar/studyflow/internal/config"
	"github.com/zulandar/studyflow/internal/db"
	"github.com/zulandar/studyflow/internal/realtime"
	"github.com/zulandar/studyflow/internal/store"
)

// Env bundles a migrated database, an in-process feed and a store using both.
type Env struct {
	DB    *gorm.DB
	Hub   *realtime.Hub
	Store *store.Store
}

// OpenDB returns a migrated in-memory SQLite database. The pool is limited
// to one connection so every query sees the same in-memory database.
func OpenDB(t testing.TB) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

// New returns a fresh Env with the default board content.
func New(t testing.TB, opts ...store.Option) *Env {
	t.Helper()
	gdb := OpenDB(t)
	hub := realtime.NewHub(nil)
	t.Cleanup(hub.Close)
	defaults := config.Default().Defaults
	return &Env{
		DB:    gdb,
		Hub:   hub,
		Store: store.New(gdb, hub, defaults, nil, opts...),
	}
}

// FixedClock returns a clock that always reports at.
func FixedClock(at time.Time) store.Option {
	return store.WithClock(func() time.Time { return at })
}
