package db

import (
	"fmt"
	"strings"
)

// Connection URLs carry an optional driver token in the scheme, e.g.
// "postgresql+asyncpg://..." or "sqlite+pysqlite:///ledger.db". The runtime
// engine accepts async drivers, the migration engine only sync ones; the
// normalization helpers convert between the two spellings.

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

type scheme struct {
	dialect string // DialectPostgres or DialectSQLite
	driver  string // token after "+", may be empty
	rest    string // everything after "://"
}

func splitURL(rawURL string) (scheme, error) {
	idx := strings.Index(rawURL, "://")
	if idx < 0 {
		return scheme{}, fmt.Errorf("malformed database URL: %q", rawURL)
	}
	head, rest := rawURL[:idx], rawURL[idx+len("://"):]

	var dialect, driver string
	if plus := strings.Index(head, "+"); plus >= 0 {
		dialect, driver = head[:plus], head[plus+1:]
	} else {
		dialect = head
	}

	switch dialect {
	case "postgresql", "postgres":
		dialect = DialectPostgres
	case "sqlite":
		dialect = DialectSQLite
	default:
		return scheme{}, fmt.Errorf("unsupported database dialect: %q", head)
	}
	return scheme{dialect: dialect, driver: driver, rest: rest}, nil
}

func isAsyncDriver(driver string) bool {
	return driver == "asyncpg" || driver == "aiosqlite"
}

// NormalizeAsyncURL converts a sync connection URL to its async-driver
// equivalent: postgresql[+psycopg] -> postgresql+asyncpg,
// sqlite[+pysqlite] -> sqlite+aiosqlite. Async URLs pass through unchanged.
func NormalizeAsyncURL(rawURL string) (string, error) {
	s, err := splitURL(rawURL)
	if err != nil {
		return "", err
	}
	switch s.dialect {
	case DialectPostgres:
		if s.driver != "" && s.driver != "psycopg" && s.driver != "asyncpg" {
			return "", fmt.Errorf("unsupported postgres driver: %q", s.driver)
		}
		return "postgresql+asyncpg://" + s.rest, nil
	default:
		if s.driver != "" && s.driver != "pysqlite" && s.driver != "aiosqlite" {
			return "", fmt.Errorf("unsupported sqlite driver: %q", s.driver)
		}
		return "sqlite+aiosqlite://" + s.rest, nil
	}
}

// NormalizeSyncURL converts an async connection URL back to its sync-driver
// equivalent, for the migration engine which always runs synchronously.
func NormalizeSyncURL(rawURL string) (string, error) {
	s, err := splitURL(rawURL)
	if err != nil {
		return "", err
	}
	switch s.dialect {
	case DialectPostgres:
		switch s.driver {
		case "", "psycopg", "asyncpg":
			return "postgresql+psycopg://" + s.rest, nil
		}
		return "", fmt.Errorf("unsupported postgres driver: %q", s.driver)
	default:
		switch s.driver {
		case "", "pysqlite", "aiosqlite":
			return "sqlite+pysqlite://" + s.rest, nil
		}
		return "", fmt.Errorf("unsupported sqlite driver: %q", s.driver)
	}
}

// RejectAsyncURL fails when the URL carries an async driver token. The
// migration engine calls this before opening a connection.
func RejectAsyncURL(rawURL string) error {
	s, err := splitURL(rawURL)
	if err != nil {
		return err
	}
	if isAsyncDriver(s.driver) {
		return fmt.Errorf("migration engine requires a sync driver, got %q", s.driver)
	}
	return nil
}

// DriverDSN resolves a connection URL to the dialect name and the DSN the
// corresponding Go driver expects.
func DriverDSN(rawURL string) (dialect, dsn string, err error) {
	s, err := splitURL(rawURL)
	if err != nil {
		return "", "", err
	}
	if s.dialect == DialectPostgres {
		return DialectPostgres, "postgres://" + s.rest, nil
	}
	return DialectSQLite, sqlitePath(s.rest), nil
}

// sqlitePath maps the URL path part to a file path the sqlite driver accepts:
// "sqlite:///ledger.db" is relative, "sqlite:////var/ledger.db" absolute,
// "sqlite://" or a ":memory:" path is an in-memory database.
func sqlitePath(rest string) string {
	if rest == "" || rest == "/" || strings.Contains(rest, ":memory:") {
		return ":memory:"
	}
	if strings.HasPrefix(rest, "//") {
		return rest[1:] // absolute path
	}
	return strings.TrimPrefix(rest, "/")
}
