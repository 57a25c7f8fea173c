package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/SergeiKhy/hashlink/internal/config"
	"github.com/jmoiron/sqlx"
	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	_ "modernc.org/sqlite"                               // Local SQLite driver
)

type SQLiteDB struct {
	DB *sqlx.DB
}

func isRemoteSQLite(path string) bool {
	return strings.HasPrefix(path, "libsql://") ||
		strings.HasPrefix(path, "wss://") ||
		strings.HasPrefix(path, "https://")
}

func NewSQLiteDB(cfg config.SQLiteConfig) (*SQLiteDB, error) {
	driverName := "sqlite"
	dsn := cfg.Path

	if isRemoteSQLite(cfg.Path) {
		driverName = "libsql"
	} else {
		if dir := filepath.Dir(cfg.Path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
		dsn = cfg.Path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// Local SQLite serialises writers anyway; a single connection avoids SQLITE_BUSY.
	if driverName == "sqlite" {
		db.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteDB{DB: db}, nil
}

// Migrate applies the sqlite schema migrations.
func (db *SQLiteDB) Migrate() error {
	return migrateSQLite(db.DB.DB)
}

func (db *SQLiteDB) Close() error {
	return db.DB.Close()
}
