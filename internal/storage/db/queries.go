package db

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

var (
	userColumns = []string{"id", "name", "password_hash"}
	taskColumns = []string{"id", "owner", "title", "description", "done"}
)

// Queries runs the statements used by the storage package against either a
// database handle or an open transaction.
type Queries struct {
	db      sqlx.ExtContext
	builder sq.StatementBuilderType
}

// New returns Queries bound to handle. The placeholder format is chosen from
// the handle's driver name.
func New(handle sqlx.ExtContext) *Queries {
	format := sq.PlaceholderFormat(sq.Question)
	if handle.DriverName() == Postgres {
		format = sq.Dollar
	}
	return &Queries{
		db:      handle,
		builder: sq.StatementBuilder.PlaceholderFormat(format),
	}
}

// WithTx returns Queries that run inside tx.
func (q *Queries) WithTx(tx *sqlx.Tx) *Queries {
	return &Queries{db: tx, builder: q.builder}
}

// GetUser returns the user with the given id, or [sql.ErrNoRows].
func (q *Queries) GetUser(ctx context.Context, id uint64) (User, error) {
	return get[User](ctx, q.db, q.builder.
		Select(userColumns...).
		From("users").
		Where(sq.Eq{"id": id}))
}

// GetUserByName returns the user with the given name, or [sql.ErrNoRows].
// Names are stored lower-cased; callers normalize before calling.
func (q *Queries) GetUserByName(ctx context.Context, name string) (User, error) {
	return get[User](ctx, q.db, q.builder.
		Select(userColumns...).
		From("users").
		Where(sq.Eq{"name": name}))
}

// InsertUser creates the user. If the name is already taken, nothing is
// written and [sql.ErrNoRows] is returned.
func (q *Queries) InsertUser(ctx context.Context, user User) error {
	query, args, err := q.builder.
		Insert("users").
		Columns(userColumns...).
		Values(user.ID, user.Name, user.PasswordHash).
		Suffix("ON CONFLICT (name) DO NOTHING RETURNING id").
		ToSql()
	if err != nil {
		return err
	}
	var id uint64
	return q.db.QueryRowxContext(ctx, query, args...).Scan(&id)
}

// DeleteUser removes the user, returning the number of rows deleted. Tasks
// owned by the user are removed by the foreign key cascade.
func (q *Queries) DeleteUser(ctx context.Context, id uint64) (int64, error) {
	return exec(ctx, q.db, q.builder.
		Delete("users").
		Where(sq.Eq{"id": id}))
}

// ListTasks returns the tasks owned by owner in creation order.
func (q *Queries) ListTasks(ctx context.Context, owner uint64) ([]Task, error) {
	query, args, err := q.builder.
		Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"owner": owner}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}
	tasks := []Task{}
	if err = sqlx.SelectContext(ctx, q.db, &tasks, query, args...); err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetTask returns the task with the given id, or [sql.ErrNoRows].
func (q *Queries) GetTask(ctx context.Context, id int64) (Task, error) {
	return get[Task](ctx, q.db, q.builder.
		Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"id": id}))
}

// InsertTask creates the task and returns its assigned id. The ID field of
// task is ignored.
func (q *Queries) InsertTask(ctx context.Context, task Task) (int64, error) {
	query, args, err := q.builder.
		Insert("tasks").
		Columns("owner", "title", "description", "done").
		Values(task.Owner, task.Title, task.Description, task.Done).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, err
	}
	var id int64
	err = q.db.QueryRowxContext(ctx, query, args...).Scan(&id)
	return id, err
}

// UpdateTask overwrites the mutable fields of the task with task.ID,
// returning the number of rows updated.
func (q *Queries) UpdateTask(ctx context.Context, task Task) (int64, error) {
	return exec(ctx, q.db, q.builder.
		Update("tasks").
		Set("title", task.Title).
		Set("description", task.Description).
		Set("done", task.Done).
		Where(sq.Eq{"id": task.ID}))
}

// DeleteTask removes the task, returning the number of rows deleted.
func (q *Queries) DeleteTask(ctx context.Context, id int64) (int64, error) {
	return exec(ctx, q.db, q.builder.
		Delete("tasks").
		Where(sq.Eq{"id": id}))
}

func get[T any](ctx context.Context, db sqlx.QueryerContext, stmt sq.SelectBuilder) (out T, err error) {
	query, args, err := stmt.ToSql()
	if err != nil {
		return out, err
	}
	err = sqlx.GetContext(ctx, db, &out, query, args...)
	return out, err
}

func exec(ctx context.Context, db sqlx.ExecerContext, stmt sq.Sqlizer) (int64, error) {
	query, args, err := stmt.ToSql()
	if err != nil {
		return 0, err
	}
	var res sql.Result
	if res, err = db.ExecContext(ctx, query, args...); err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
