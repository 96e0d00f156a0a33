package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/bookmarker/internal/dbx"
	"github.com/dmitrijs2005/bookmarker/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func stubGooseUp(t *testing.T, fn func(ctx context.Context, dialect goose.Dialect, db *sql.DB, fsys fs.FS) error) {
	t.Helper()
	orig := gooseUp
	gooseUp = fn
	t.Cleanup(func() { gooseUp = orig })
}

func TestNew(t *testing.T) {
	pg, err := New(dbx.Postgres)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := pg.(*PostgresRepositoryManager); !ok {
		t.Fatalf("want *PostgresRepositoryManager, got %T", pg)
	}

	lite, err := New(dbx.SQLite)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := lite.(*SQLiteRepositoryManager); !ok {
		t.Fatalf("want *SQLiteRepositoryManager, got %T", lite)
	}

	if _, err := New("mysql"); err == nil {
		t.Fatal("expected error for unsupported dialect")
	}
}

func TestFactories_ReturnConcreteRepos(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	if _, ok := NewPostgresRepositoryManager().Users(db).(*users.PostgresRepository); !ok {
		t.Fatal("postgres Users() is not *users.PostgresRepository")
	}
	if _, ok := NewSQLiteRepositoryManager().Users(db).(*users.SQLiteRepository); !ok {
		t.Fatal("sqlite Users() is not *users.SQLiteRepository")
	}
}

func TestRunMigrations_PassesDialectAndFiles(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	cases := []struct {
		name    string
		m       RepositoryManager
		dialect goose.Dialect
	}{
		{"postgres", NewPostgresRepositoryManager(), goose.DialectPostgres},
		{"sqlite", NewSQLiteRepositoryManager(), goose.DialectSQLite3},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stubGooseUp(t, func(ctx context.Context, dialect goose.Dialect, got *sql.DB, fsys fs.FS) error {
				if dialect != tc.dialect {
					return errors.New("unexpected dialect")
				}
				if got != db {
					return errors.New("unexpected db")
				}
				if _, err := fs.Stat(fsys, "00001_create_users.sql"); err != nil {
					return err
				}
				return nil
			})

			if err := tc.m.RunMigrations(context.Background(), db); err != nil {
				t.Fatalf("RunMigrations error: %v", err)
			}
		})
	}
}

func TestRunMigrations_Error(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	boom := errors.New("boom")
	stubGooseUp(t, func(ctx context.Context, dialect goose.Dialect, db *sql.DB, fsys fs.FS) error {
		return boom
	})

	err := NewPostgresRepositoryManager().RunMigrations(context.Background(), db)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestRunMigrations_SQLiteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, dialect, err := dbx.Open(ctx, "sqlite:"+filepath.Join(t.TempDir(), "m.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	m, err := New(dialect)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := m.RunMigrations(ctx, db); err != nil {
			t.Fatalf("RunMigrations #%d: %v", i+1, err)
		}
	}

	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		t.Fatalf("users table missing: %v", err)
	}
}
