package sqlite

import (
	"database/sql"
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"github.com/samber/oops"
	_ "modernc.org/sqlite" // Pure Go driver
)

// Config defines SQLite connection parameters.
type Config struct {
	BusyTimeout  time.Duration
	MaxOpenConns int
}

// DefaultConfig returns settings for a single-process CLI: one connection,
// rollback journal so the store stays a single file on disk.
func DefaultConfig() Config {
	return Config{
		BusyTimeout:  5 * time.Second,
		MaxOpenConns: 1,
	}
}

// DSN builds the driver URI for dbPath. The path is percent-escaped so '?',
// '#' and '%' in file names are not read as URI syntax.
func DSN(dbPath string, cfg Config) string {
	query := url.Values{}
	query.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", cfg.BusyTimeout.Milliseconds()))
	query.Add("_pragma", "foreign_keys(ON)")
	query.Add("_pragma", "journal_mode(DELETE)")

	path := (&url.URL{Path: filepath.ToSlash(dbPath)}).EscapedPath()
	return "file:" + path + "?" + query.Encode()
}

// Open opens the database file at dbPath, creating it if needed, and checks
// that it is reachable. Foreign keys are enforced on every connection.
func Open(dbPath string, cfg Config) (*sql.DB, error) {
	dsn := DSN(dbPath, cfg)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, oops.In("sqlite").With("db_path", dbPath).Wrapf(err, "open failed")
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxOpenConns)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, oops.In("sqlite").With("db_path", dbPath).Wrapf(err, "ping failed")
	}

	return db, nil
}
