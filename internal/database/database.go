package database

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/MarynarzSwiata/HomeBank-Bridge-sub001/internal/config"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store owns the live database handle. Request code must go through Get
// so an administrative restore can release the file, swap it on disk and
// reacquire while every other request blocks on the lock.
type Store struct {
	mu  sync.RWMutex
	db  *gorm.DB
	cfg config.DatabaseConfig
}

// Open creates the SQLite database connection with basic tuning and
// wraps it in a Store.
func Open(cfg config.DatabaseConfig) (*Store, error) {
	db, err := open(cfg)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, cfg: cfg}, nil
}

func open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	// ensure parent directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	gormLogger := logger.Default
	if !cfg.LogMode {
		gormLogger = gormLogger.LogMode(logger.Silent)
	}

	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}

	// connection pool
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// SQLite performance and reliability tuning. busy_timeout bounds the
	// wait for the file lock before a statement fails.
	_, _ = sqlDB.Exec("PRAGMA journal_mode = WAL;")
	_, _ = sqlDB.Exec("PRAGMA synchronous = NORMAL;")
	_, _ = sqlDB.Exec("PRAGMA foreign_keys = ON;")
	_, _ = sqlDB.Exec("PRAGMA busy_timeout = 5000;")

	return db, nil
}

// Get returns the current handle. It blocks while a Replace is in
// progress. A handle obtained before a swap started keeps pointing at
// the closed pool: statements on it fail with a closed-database error
// and the request is refused, it can never write into the new file.
func (s *Store) Get() *gorm.DB {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.cfg.Path
}

// Checkpoint flushes the WAL into the main file so the file on disk is
// complete before a download copies it.
func (s *Store) Checkpoint() error {
	db := s.Get()
	return db.Exec("PRAGMA wal_checkpoint(TRUNCATE);").Error
}

// Replace swaps the database file with the one at newFile and reopens
// the connection. New Get calls block until it returns; requests that
// already hold the old handle error out against the closed pool.
// SQLite cannot have its file replaced while a pool still holds it
// open.
func (s *Store) Replace(newFile string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}

	// drop WAL leftovers from the old file
	_ = os.Remove(s.cfg.Path + "-wal")
	_ = os.Remove(s.cfg.Path + "-shm")

	if err := os.Rename(newFile, s.cfg.Path); err != nil {
		return fmt.Errorf("swap database file: %w", err)
	}

	db, err := open(s.cfg)
	if err != nil {
		return fmt.Errorf("reopen database: %w", err)
	}
	if err := AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate restored database: %w", err)
	}

	s.db = db
	return nil
}
