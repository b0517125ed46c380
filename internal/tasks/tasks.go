// Package tasks implements the task and user operations of the API,
// independent of the HTTP transport.
//
// Every operation that acts on behalf of a user reads the caller from the
// context (see [sec.GetAuthenticatedUser]) and fails with
// [connect.CodeUnauthenticated] if there is none. Task operations then
// resolve in a fixed order, stopping at the first failure:
//
//  1. the caller is authenticated            → Unauthenticated
//  2. the request is well-formed             → InvalidArgument
//  3. the target task exists                 → NotFound
//  4. the caller owns the target task        → PermissionDenied
//  5. the storage operation succeeds         → Internal
//
// Errors are *connect.Error values so the transport can map them to status
// codes without inspecting storage errors.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/stolasapp/taskapi/internal/sec"
	"github.com/stolasapp/taskapi/internal/storage"
	"github.com/stolasapp/taskapi/internal/storage/db"
)

// Handler is the set of operations exposed by the API.
type Handler interface {
	// ListTasks returns the caller's tasks. NotFound if there are none.
	ListTasks(ctx context.Context) ([]db.Task, error)
	// CreateTask stores a new task owned by the caller.
	CreateTask(ctx context.Context, title, description string) (db.Task, error)
	// GetTask returns one of the caller's tasks.
	GetTask(ctx context.Context, id int64) (db.Task, error)
	// UpdateTask applies a partial update to one of the caller's tasks.
	UpdateTask(ctx context.Context, id int64, patch db.TaskPatch) (db.Task, error)
	// DeleteTask removes one of the caller's tasks.
	DeleteTask(ctx context.Context, id int64) error
	// ListUserTasks returns the owner and their tasks, which may be empty.
	// Only the owner may list them.
	ListUserTasks(ctx context.Context, ownerID uint64) (db.User, []db.Task, error)
	// RegisterUser creates a user. It does not require authentication.
	RegisterUser(ctx context.Context, username, password string) (db.User, error)
	// GetCurrentUser returns the caller.
	GetCurrentUser(ctx context.Context) (db.User, error)
	// DeleteCurrentUser removes the caller and all of their tasks.
	DeleteCurrentUser(ctx context.Context) error
}

// Service is the default [Handler], backed by a [storage.Store].
type Service struct {
	store  storage.Store
	logger *slog.Logger
}

// New returns a Service using store.
func New(store storage.Store, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
	}
}

// caller returns the authenticated user from ctx.
func caller(ctx context.Context) (db.User, error) {
	user := sec.GetAuthenticatedUser(ctx)
	if user.ID == 0 {
		return user, connect.NewError(connect.CodeUnauthenticated, errors.New("authentication required"))
	}
	return user, nil
}

// storageError converts a storage error into a connect error, describing the
// missing resource as what.
func storageError(err error, what string) error {
	var storageErr storage.Error
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, fmt.Errorf("%s not found", what))
	case errors.Is(err, storage.ErrAlreadyExists):
		return connect.NewError(connect.CodeAlreadyExists, fmt.Errorf("%s already exists", what))
	case errors.Is(err, storage.ErrInternal):
		return connect.NewError(connect.CodeInternal, err)
	case errors.As(err, &storageErr):
		return connect.NewError(connect.CodeInvalidArgument, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

func invalidArgument(msg string) error {
	return connect.NewError(connect.CodeInvalidArgument, errors.New(msg))
}

var _ Handler = (*Service)(nil)
