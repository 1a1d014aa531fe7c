// File: internal/database/database.go
package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/iyunix/go-docchat/internal/domain"
)

// MemoryPath opens a private in-memory database (tests, dry runs).
const MemoryPath = ":memory:"

// pragmas are applied by the driver on every new connection.
const pragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

// DSN builds a glebarez/sqlite DSN with foreign-key enforcement enabled.
func DSN(path string) string {
	if path == MemoryPath || path == "" {
		return "file::memory:?" + pragmas
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + pragmas
}

// Open connects to the SQLite file at path and caps the pool at a single
// connection so writes are serialized and an in-memory database is shared.
func Open(path string, gormLogger logger.Interface) (*gorm.DB, error) {
	if gormLogger == nil {
		gormLogger = logger.Default.LogMode(logger.Warn)
	}
	db, err := gorm.Open(sqlite.Open(DSN(path)), &gorm.Config{
		Logger:  gormLogger,
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open database %q: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("access database pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := ForeignKeysEnabled(db); err != nil {
		return nil, err
	}
	return db, nil
}

// ForeignKeysEnabled verifies that cascade deletes will actually be enforced.
func ForeignKeysEnabled(db *gorm.DB) error {
	var enabled int
	if err := db.Raw("PRAGMA foreign_keys").Scan(&enabled).Error; err != nil {
		return fmt.Errorf("read foreign_keys pragma: %w", err)
	}
	if enabled != 1 {
		return fmt.Errorf("foreign key enforcement is not active")
	}
	return nil
}

// Migrate creates or updates the conversations and messages tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&domain.Conversation{}, &domain.Message{}); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// OpenAndMigrate is the usual startup path.
func OpenAndMigrate(path string, gormLogger logger.Interface) (*gorm.DB, error) {
	db, err := Open(path, gormLogger)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Close releases the underlying pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that the database is reachable.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
