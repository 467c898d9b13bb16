package database

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/labdesk/lab-ledger-api/pkg/config"
)

//go:embed schema.sql
var schema string

// New returns a connected client for the configured driver.
func New(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return newSQLite(cfg)
	case config.DriverPostgres, "":
		return newPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func newPostgres(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.Source())
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	db.SetConnMaxLifetime(1 * time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

func newSQLite(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite3", cfg.Source())
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, err
	}

	// file-backed sqlite serialises writers anyway; a single connection
	// avoids SQLITE_BUSY under concurrent handlers.
	db.SetMaxOpenConns(1)

	return db, nil
}

// Bootstrap applies the embedded schema, translating the DDL for sqlite.
// Every statement is idempotent so repeated startups are safe.
func Bootstrap(db *sqlx.DB, driver string) error {
	ddl := schema
	if driver == config.DriverSQLite {
		ddl = translateToSQLite(ddl)
	}

	for _, stmt := range strings.Split(ddl, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("bootstrap schema: %w", err)
		}
	}

	return nil
}

// translateToSQLite converts the postgres DDL to the sqlite dialect.
func translateToSQLite(sql string) string {
	replacements := []struct{ from, to string }{
		{"BIGSERIAL PRIMARY KEY", "INTEGER PRIMARY KEY AUTOINCREMENT"},
		{"BIGINT", "INTEGER"},
	}
	result := sql
	for _, r := range replacements {
		result = strings.ReplaceAll(result, r.from, r.to)
	}
	return result
}

// IsUniqueViolation reports whether err is a unique constraint violation.
// When names are given, at least one must appear in the driver's constraint
// detail; postgres reports the index name while sqlite reports the indexed
// columns, so callers pass both spellings.
func IsUniqueViolation(err error, names ...string) bool {
	if err == nil {
		return false
	}

	var detail string
	var pqErr *pq.Error
	var sqliteErr sqlite3.Error
	switch {
	case errors.As(err, &pqErr):
		if pqErr.Code != "23505" {
			return false
		}
		detail = pqErr.Constraint + " " + pqErr.Message
	case errors.As(err, &sqliteErr):
		if sqliteErr.ExtendedCode != sqlite3.ErrConstraintUnique {
			return false
		}
		detail = sqliteErr.Error()
	default:
		return false
	}

	if len(names) == 0 {
		return true
	}
	for _, name := range names {
		if strings.Contains(detail, name) {
			return true
		}
	}
	return false
}
