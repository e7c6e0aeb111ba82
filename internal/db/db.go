package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

func Connect(driverName, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	return db, nil
}

// SQLiteDSN makes sure the directory holding dbPath exists and returns
// a DSN with busy timeout, WAL and foreign keys enabled.
func SQLiteDSN(dbPath string) (string, error) {
	if dbPath == "" {
		return "", fmt.Errorf("empty database path")
	}
	if err := ensureDir(dbPath); err != nil {
		return "", fmt.Errorf("create database directory: %w", err)
	}
	return fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on&_journal_mode=WAL", dbPath), nil
}

func ensureDir(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
