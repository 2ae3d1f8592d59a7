package health

import (
	"context"
	"database/sql"
	"fmt"
	"os"
)

// SQLiteChecker checks SQLite database connectivity.
type SQLiteChecker struct {
	db *sql.DB
}

// NewSQLiteChecker creates a new SQLite health checker.
func NewSQLiteChecker(db *sql.DB) *SQLiteChecker {
	return &SQLiteChecker{db: db}
}

// Name returns the checker name.
func (c *SQLiteChecker) Name() string {
	return "sqlite"
}

// Check verifies the SQLite database is accessible.
func (c *SQLiteChecker) Check(ctx context.Context) error {
	if c.db == nil {
		return fmt.Errorf("database not initialized")
	}
	return c.db.PingContext(ctx)
}

// UploadDirChecker verifies the upload directory is present and writable.
type UploadDirChecker struct {
	dir string
}

// NewUploadDirChecker creates a new upload directory checker.
func NewUploadDirChecker(dir string) *UploadDirChecker {
	return &UploadDirChecker{dir: dir}
}

// Name returns the checker name.
func (c *UploadDirChecker) Name() string {
	return "uploads"
}

// Check verifies the upload directory exists and is writable.
func (c *UploadDirChecker) Check(ctx context.Context) error {
	info, err := os.Stat(c.dir)
	if err != nil {
		return fmt.Errorf("upload dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("upload path is not a directory")
	}

	probe, err := os.CreateTemp(c.dir, ".healthcheck-*")
	if err != nil {
		return fmt.Errorf("upload dir not writable: %w", err)
	}
	probe.Close()
	os.Remove(probe.Name())
	return nil
}
