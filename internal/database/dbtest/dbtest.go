// Package dbtest provides throwaway databases for tests.
package dbtest

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/MarynarzSwiata/HomeBank-Bridge-sub001/internal/config"
	"github.com/MarynarzSwiata/HomeBank-Bridge-sub001/internal/database"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns an isolated in-memory database with the full schema.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	// one named in-memory database per test; a single pooled connection
	// keeps it alive for the test's duration
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}

// OpenStore returns a Store backed by a file in a temp directory, for
// tests exercising handlers that take the guarded store.
func OpenStore(t *testing.T) *database.Store {
	t.Helper()

	store, err := database.Open(config.DatabaseConfig{
		Path: filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	if err := database.AutoMigrate(store.Get()); err != nil {
		t.Fatalf("migrate test store: %v", err)
	}
	return store
}
