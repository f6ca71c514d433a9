package config

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// NewDB opens postgres:// URLs with lib/pq and sqlite://<path> (or :memory:) with modernc sqlite.
func NewDB(cfg *Config) (*sqlx.DB, error) {
	driver, dsn, err := ParseDatabaseURL(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, err
	}

	if driver == "sqlite" {
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}

// ParseDatabaseURL maps DATABASE_URL to a driver name and DSN.
func ParseDatabaseURL(raw string) (driver, dsn string, err error) {
	switch {
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		return "postgres", raw, nil
	case strings.HasPrefix(raw, "sqlite://"):
		return "sqlite", sqliteDSN(strings.TrimPrefix(raw, "sqlite://")), nil
	case raw == ":memory:", strings.HasSuffix(raw, ".db"), strings.HasSuffix(raw, ".sqlite3"):
		return "sqlite", sqliteDSN(raw), nil
	case raw == "":
		return "", "", fmt.Errorf("DATABASE_URL is empty")
	default:
		return "", "", fmt.Errorf("unsupported DATABASE_URL scheme: %q", raw)
	}
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_time_format=sqlite&_pragma=foreign_keys(1)"
}
