// Package db contains the SQL schema, migrations and queries used by the
// storage package. SQLite and Postgres are supported.
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres sql.DB driver initialization
	"github.com/pressly/goose/v3"
	"modernc.org/sqlite" // sqlite sql.DB driver initialization
)

// Driver names accepted by [Open].
const (
	SQLite   = "sqlite"
	Postgres = "postgres"
)

//go:embed migrations/*/*.sql
var migrations embed.FS

// Open initializes a database connection for driver using dsn, and then
// migrates the database to match the current state expected of the system.
// For SQLite, dsn is a file path; if the file does not exist, its parent
// directory is created.
func Open(ctx context.Context, logger *slog.Logger, driver, dsn string) (*sqlx.DB, error) {
	var (
		handle  *sql.DB
		dialect goose.Dialect
		err     error
	)
	switch driver {
	case SQLite:
		dialect = goose.DialectSQLite3
		handle, err = openSQLite(ctx, dsn)
	case Postgres:
		dialect = goose.DialectPostgres
		handle, err = openPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return nil, err
	}

	if err = migrate(ctx, logger.With(slog.String("db", driver)), handle, dialect, driver); err != nil {
		_ = handle.Close()
		return nil, err
	}
	return sqlx.NewDb(handle, driver), nil
}

func migrate(ctx context.Context, logger *slog.Logger, handle *sql.DB, dialect goose.Dialect, driver string) error {
	fsys, err := fs.Sub(migrations, "migrations/"+driver)
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	provider, err := goose.NewProvider(dialect, handle, fsys,
		goose.WithVerbose(true),
		goose.WithLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug)),
	)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}
	if _, err = provider.Up(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// registerSQLiteHook installs the connection pragmas once per process; the
// hook applies to every connection the driver opens afterwards.
var registerSQLiteHook = sync.OnceFunc(func() {
	sqlite.RegisterConnectionHook(func(conn sqlite.ExecQuerierContext, _ string) error {
		const initSQL = `
		pragma journal_mode = WAL; -- allow concurrent writes
		pragma synchronous = normal; -- don't wait for fsync except on checkpointing
		pragma temp_store = memory; -- temporary indices
		pragma foreign_keys = on; -- cascade task deletes with their owner
		`
		_, err := conn.ExecContext(context.Background(), initSQL, nil)
		return err
	})
})

func openSQLite(ctx context.Context, dbPath string) (*sql.DB, error) {
	if dbPath == ":memory:" { //nolint:revive // for documentation
		// noop
	} else if _, err := os.Stat(dbPath); err != nil {
		const userOnlyDirPerms = 0o700
		if err = os.MkdirAll(filepath.Dir(dbPath), userOnlyDirPerms); err != nil {
			return nil, fmt.Errorf("failed to create db parent directory: %w", err)
		}
	}

	if strings.ContainsRune(dbPath, '?') {
		dbPath += "&"
	} else {
		dbPath += "?"
	}
	dbPath += "_time_format=sqlite"

	registerSQLiteHook()

	handle, err := sql.Open(SQLite, dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create DB handler: %w", err)
	} else if err = handle.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}
	handle.SetMaxOpenConns(1)
	return handle, nil
}

func openPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	handle, err := sql.Open(Postgres, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create DB handler: %w", err)
	} else if err = handle.PingContext(ctx); err != nil {
		_ = handle.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}
	return handle, nil
}
