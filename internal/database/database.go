// Package database manages the SQLite connection and schema migrations.
package database

import (
	"fmt"
	"log/slog"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"civitrack/internal/config"
	"civitrack/internal/visits"
)

const busyTimeoutMs = 5000

// Manager owns the GORM connection lifecycle: open, pragmas, pool limits,
// migrations and WAL checkpoints.
type Manager struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *gorm.DB
}

// NewManager creates a database manager for the configured SQLite file.
func NewManager(cfg *config.Config, logger *slog.Logger) *Manager {
	return &Manager{cfg: cfg, logger: logger}
}

// Init opens the connection and applies the SQLite pragmas.
func (m *Manager) Init() error {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d&_journal_mode=WAL&_txlock=immediate",
		m.cfg.DatabaseName, busyTimeoutMs)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to open database %s: %w", m.cfg.DatabaseName, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to access underlying connection: %w", err)
	}
	if n := m.cfg.GetMaxOpenConns(); n > 0 {
		sqlDB.SetMaxOpenConns(n)
	}
	if n := m.cfg.GetMaxIdleConns(); n > 0 {
		sqlDB.SetMaxIdleConns(n)
	}

	m.db = db
	return nil
}

// GetConnection returns the shared GORM handle.
func (m *Manager) GetConnection() *gorm.DB {
	return m.db
}

// MigrateDatabase runs schema migrations for all civitrack models.
func (m *Manager) MigrateDatabase() error {
	if m.db == nil {
		return gorm.ErrInvalidDB
	}

	// Run migrations in a transaction
	err := m.db.Transaction(func(tx *gorm.DB) error {
		return tx.AutoMigrate(
			&visits.User{},
			&visits.Module{},
			&visits.Visit{},
		)
	})
	if err != nil {
		m.logger.Error("Failed to auto-migrate database", slog.Any("error", err))
		return err
	}

	if err := m.CheckpointWAL("FULL"); err != nil {
		m.logger.Warn("Failed to checkpoint WAL after migration", slog.Any("error", err))
	}

	m.logger.Info("Database migration completed successfully")
	return nil
}

// CheckpointWAL forces a write-ahead-log checkpoint of the given mode.
func (m *Manager) CheckpointWAL(mode string) error {
	if m.db == nil {
		return gorm.ErrInvalidDB
	}
	return m.db.Exec("PRAGMA wal_checkpoint(" + mode + ")").Error
}

// Close closes the underlying connection pool.
func (m *Manager) Close() error {
	if m.db == nil {
		return nil
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
