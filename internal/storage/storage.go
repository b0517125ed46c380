// Package storage provides the state management for tasks and users.
package storage

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/stolasapp/taskapi/internal/config"
	"github.com/stolasapp/taskapi/internal/storage/db"
)

const (
	// ErrNotFound is returned when a task or user cannot be found.
	ErrNotFound Error = "not found"
	// ErrAlreadyExists is returned if a unique user already exists.
	ErrAlreadyExists Error = "already exists"
	// ErrInvalidUsername is returned when a username fails validation.
	ErrInvalidUsername Error = "username must be 1-120 characters without whitespace or colons"
	// ErrInvalidTask is returned when a task would be stored without a title.
	ErrInvalidTask Error = "task title must not be empty"
	// ErrInternal is returned for any other type of error.
	ErrInternal Error = "internal error"
)

// Error is an error type returned by the storage implementation.
type Error string

// Error satisfies [error].
func (e Error) Error() string { return string(e) }

// Colons cannot be sent in a basic auth username, and whitespace is never
// intentional.
var usernameRegex = regexp.MustCompile(`^[^\s:]{1,120}$`)

// NormalizeUsername returns the canonical form of a username. Usernames are
// compared case-insensitively.
func NormalizeUsername(name string) string {
	return strings.ToLower(name)
}

func validateUsername(name string) bool {
	return usernameRegex.MatchString(name)
}

// Tasks are the methods on a storage implementation that are responsible for
// accessing and modifying tasks.
type Tasks interface {
	// ListTasks returns the tasks owned by the user in creation order. An
	// empty result is not an error.
	ListTasks(ctx context.Context, owner uint64) ([]db.Task, error)
	// GetTask returns a single task. An [ErrNotFound] is returned if the task
	// ID does not exist.
	GetTask(ctx context.Context, id int64) (db.Task, error)
	// CreateTask stores a new task for owner with a freshly assigned ID. IDs
	// are never reused, even after deletes. An [ErrInvalidTask] is returned if
	// the title is empty.
	CreateTask(ctx context.Context, owner uint64, title, description string) (db.Task, error)
	// UpdateTask atomically applies patch to the task and returns the result.
	// Fields absent from the patch are unchanged; ID and owner cannot be
	// patched. An [ErrNotFound] is returned if the task ID does not exist, and
	// [ErrInvalidTask] if the patch empties the title.
	UpdateTask(ctx context.Context, id int64, patch db.TaskPatch) (db.Task, error)
	// DeleteTask removes the task. An [ErrNotFound] is returned if the task ID
	// does not exist.
	DeleteTask(ctx context.Context, id int64) error
}

// Users are the methods on a storage implementation that are responsible for
// accessing and modifying users.
type Users interface {
	// GetUser returns a single user with the specified ID. An [ErrNotFound] is
	// returned if the user ID does not exist.
	GetUser(ctx context.Context, userID uint64) (db.User, error)
	// GetUserByName returns a single user with the specified name, compared
	// case-insensitively. An [ErrNotFound] is returned if the user name does
	// not exist.
	GetUserByName(ctx context.Context, name string) (db.User, error)
	// CreateUser stores a new user with the normalized name and the given
	// password hash. An [ErrAlreadyExists] error is returned if the username is
	// already in use, and [ErrInvalidUsername] if it fails validation.
	CreateUser(ctx context.Context, name string, passwordHash []byte) (db.User, error)
	// DeleteUser removes a user and all their tasks. Note that this is a hard
	// delete; data is not recoverable. An [ErrNotFound] is returned if the user
	// ID does not exist.
	DeleteUser(ctx context.Context, userID uint64) error
}

// Store is the combination interface for [Tasks] and [Users].
type Store interface {
	Tasks
	Users
	// Close releases any resources held by the store. An error is returned if
	// the store cannot be cleanly closed.
	Close() error
}

// New returns the Store selected by the database section of cfg.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Store, error) {
	if cfg.Database.Driver == config.DriverMemory {
		logger.WarnContext(ctx, "using in-memory storage; data is lost on exit")
		return NewMemory(), nil
	}
	return NewDB(ctx, cfg, logger)
}
