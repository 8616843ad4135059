// Package testsupport provides shared helpers for civitrack tests: an
// isolated in-memory SQLite database per test and fixture builders for
// the domain models.
package testsupport

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"civitrack/internal/visits"
)

// testDBCache caches test databases by root test name so subtests share
// the database of their parent.
var testDBCache = make(map[string]*gorm.DB)
var testDBCacheMu sync.Mutex

// SetupTestDB creates a migrated test database. It uses a named in-memory
// database with cache=shared so multiple connections within the same test
// see the same data.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	rootName := t.Name()
	if idx := strings.Index(rootName, "/"); idx > 0 {
		rootName = rootName[:idx]
	}

	testDBCacheMu.Lock()
	if db, exists := testDBCache[rootName]; exists {
		testDBCacheMu.Unlock()
		return db
	}
	testDBCacheMu.Unlock()

	sanitizedName := strings.ReplaceAll(rootName, "/", "_")
	dsn := fmt.Sprintf("file:test_%s_%d?mode=memory&cache=shared", sanitizedName, time.Now().UnixNano())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("testsupport: failed to open test database: %v", err)
	}

	db.Exec("PRAGMA foreign_keys = ON")

	if err := db.AutoMigrate(&visits.User{}, &visits.Module{}, &visits.Visit{}); err != nil {
		t.Fatalf("testsupport: failed to migrate models: %v", err)
	}

	testDBCacheMu.Lock()
	testDBCache[rootName] = db
	testDBCacheMu.Unlock()

	t.Cleanup(func() {
		testDBCacheMu.Lock()
		delete(testDBCache, rootName)
		testDBCacheMu.Unlock()
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return db
}

// GetLogger returns a quiet logger for tests.
func GetLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})
	return slog.New(handler)
}

// CleanTables deletes all rows from the given tables and resets their
// autoincrement counters.
func CleanTables(t *testing.T, db *gorm.DB, tables ...string) {
	t.Helper()
	for _, table := range tables {
		db.Exec("DELETE FROM " + table)
		db.Exec("DELETE FROM sqlite_sequence WHERE name=?", table)
	}
}

// CreateTestUser inserts a user. A zero birthday means no birthday on file.
func CreateTestUser(t *testing.T, db *gorm.DB, name, gender string, birthday time.Time) visits.User {
	t.Helper()

	user := visits.User{
		Name:   name,
		Email:  strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com",
		Gender: gender,
	}
	if !birthday.IsZero() {
		b := birthday.UTC()
		user.Birthday = &b
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("testsupport: failed to create user: %v", err)
	}
	return user
}

// CreateTestModule inserts an active module.
func CreateTestModule(t *testing.T, db *gorm.DB, name string) visits.Module {
	t.Helper()

	module := visits.Module{Name: name, Active: true}
	if err := db.Create(&module).Error; err != nil {
		t.Fatalf("testsupport: failed to create module: %v", err)
	}
	return module
}

// CreateTestVisit inserts a registered visit. userID and moduleID of 0
// mean no linked user/module.
func CreateTestVisit(t *testing.T, db *gorm.DB, at time.Time, userID, moduleID uint) visits.Visit {
	t.Helper()

	visit := visits.Visit{
		VisitedAt: at.UTC(),
		Status:    visits.StatusRegistrada,
	}
	if userID != 0 {
		visit.UserID = &userID
	}
	if moduleID != 0 {
		visit.ModuleID = &moduleID
	}
	if err := db.Create(&visit).Error; err != nil {
		t.Fatalf("testsupport: failed to create visit: %v", err)
	}
	return visit
}
