package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/influxdata/influxdb/pkg/snowflake"
	"github.com/jmoiron/sqlx"

	"github.com/stolasapp/taskapi/internal/config"
	"github.com/stolasapp/taskapi/internal/storage/db"
)

// DB is a [Store] backed by a SQL database.
type DB struct {
	ids     *snowflake.Generator
	db      *sqlx.DB
	queries *db.Queries
}

// NewDB initializes a DB with the given config and logger.
func NewDB(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*DB, error) {
	handle, err := db.Open(ctx, logger, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	return newDB(handle), nil
}

func newDB(handle *sqlx.DB) *DB {
	return &DB{
		ids:     snowflake.New(rand.IntN(1023)), //nolint:gosec,mnd // this isn't for crypto
		db:      handle,
		queries: db.New(handle),
	}
}

// Close satisfies the [Store] interface.
func (d *DB) Close() error {
	return d.db.Close()
}

// ListTasks satisfies the [Tasks] interface.
func (d *DB) ListTasks(ctx context.Context, owner uint64) ([]db.Task, error) {
	return d.queries.ListTasks(ctx, owner)
}

// GetTask satisfies the [Tasks] interface.
func (d *DB) GetTask(ctx context.Context, id int64) (db.Task, error) {
	task, err := d.queries.GetTask(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return task, ErrNotFound
	}
	return task, err
}

// CreateTask satisfies the [Tasks] interface.
func (d *DB) CreateTask(ctx context.Context, owner uint64, title, description string) (db.Task, error) {
	task := db.Task{
		Owner:       owner,
		Title:       title,
		Description: description,
	}
	if task.Title == "" {
		return task, ErrInvalidTask
	}
	id, err := d.queries.InsertTask(ctx, task)
	if db.IsForeignKeyViolation(err) {
		// the owner was deleted concurrently
		return db.Task{}, ErrNotFound
	} else if err != nil {
		return db.Task{}, err
	}
	task.ID = id
	return task, nil
}

// UpdateTask satisfies the [Tasks] interface.
func (d *DB) UpdateTask(ctx context.Context, id int64, patch db.TaskPatch) (task db.Task, err error) {
	err = d.withTx(ctx, func(q *db.Queries) error {
		current, err := q.GetTask(ctx, id)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		} else if err != nil {
			return err
		}
		task = patch.Apply(current)
		if task.Title == "" {
			return ErrInvalidTask
		}
		_, err = q.UpdateTask(ctx, task)
		return err
	})
	if err != nil {
		return db.Task{}, err
	}
	return task, nil
}

// DeleteTask satisfies the [Tasks] interface.
func (d *DB) DeleteTask(ctx context.Context, id int64) error {
	return expectRow(d.queries.DeleteTask(ctx, id))
}

// GetUser satisfies the [Users] interface.
func (d *DB) GetUser(ctx context.Context, userID uint64) (db.User, error) {
	user, err := d.queries.GetUser(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return user, ErrNotFound
	}
	return user, err
}

// GetUserByName satisfies the [Users] interface.
func (d *DB) GetUserByName(ctx context.Context, name string) (db.User, error) {
	user, err := d.queries.GetUserByName(ctx, NormalizeUsername(name))
	if errors.Is(err, sql.ErrNoRows) {
		return user, ErrNotFound
	}
	return user, err
}

// CreateUser satisfies the [Users] interface.
func (d *DB) CreateUser(ctx context.Context, name string, passwordHash []byte) (db.User, error) {
	user := db.User{
		ID:           d.ids.Next(),
		Name:         NormalizeUsername(name),
		PasswordHash: passwordHash,
	}
	if !validateUsername(user.Name) {
		return db.User{}, ErrInvalidUsername
	}
	switch err := d.queries.InsertUser(ctx, user); {
	case errors.Is(err, sql.ErrNoRows):
		return db.User{}, ErrAlreadyExists
	case err != nil:
		return db.User{}, err
	default:
		return user, nil
	}
}

// DeleteUser satisfies the [Users] interface.
func (d *DB) DeleteUser(ctx context.Context, userID uint64) error {
	return expectRow(d.queries.DeleteUser(ctx, userID))
}

// withTx runs fn inside a transaction, committing if it returns nil and
// rolling back otherwise (including on panic).
func (d *DB) withTx(ctx context.Context, fn func(q *db.Queries) error) (err error) {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(d.queries.WithTx(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback failed: %w", rbErr))
		}
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func expectRow(affected int64, err error) error {
	switch {
	case err != nil:
		return err
	case affected == 0:
		return ErrNotFound
	default:
		return nil
	}
}

var _ Store = (*DB)(nil)
