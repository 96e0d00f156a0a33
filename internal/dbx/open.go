package dbx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect names the SQL engine behind a DSN.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

var ErrUnsupportedDSN = errors.New("unsupported database DSN")

const sqlitePragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// ParseDSN maps a configured DSN to a dialect, a database/sql driver name and
// the string that driver expects.
//
//	postgres://... | postgresql://...  -> pgx
//	sqlite:<path>  | sqlite::memory:   -> modernc sqlite
//	file:<path>?...                    -> modernc sqlite, passed through
func ParseDSN(dsn string) (Dialect, string, string, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return Postgres, "pgx", dsn, nil
	case strings.HasPrefix(dsn, "file:"):
		return SQLite, "sqlite", dsn, nil
	case strings.HasPrefix(dsn, "sqlite:"):
		path := strings.TrimPrefix(dsn, "sqlite:")
		switch {
		case path == "":
			return "", "", "", fmt.Errorf("%w: empty sqlite path", ErrUnsupportedDSN)
		case path == ":memory:", strings.Contains(path, "?"):
			return SQLite, "sqlite", path, nil
		default:
			return SQLite, "sqlite", path + "?" + sqlitePragmas, nil
		}
	default:
		return "", "", "", ErrUnsupportedDSN
	}
}

// Open opens and pings the database named by dsn.
func Open(ctx context.Context, dsn string) (*sql.DB, Dialect, error) {
	dialect, driver, driverDSN, err := ParseDSN(dsn)
	if err != nil {
		return nil, "", err
	}

	db, err := sql.Open(driver, driverDSN)
	if err != nil {
		return nil, "", fmt.Errorf("open %s db: %w", dialect, err)
	}

	// every new connection to :memory: is a fresh, empty database
	if driverDSN == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, "", fmt.Errorf("ping %s db: %w", dialect, err)
	}

	return db, dialect, nil
}
