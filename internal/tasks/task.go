package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/stolasapp/taskapi/internal/storage/db"
)

// ListTasks satisfies [Handler].
func (s *Service) ListTasks(ctx context.Context) ([]db.Task, error) {
	user, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	tasks, err := s.store.ListTasks(ctx, user.ID)
	if err != nil {
		return nil, storageError(err, "tasks")
	}
	if len(tasks) == 0 {
		return nil, connect.NewError(connect.CodeNotFound, errors.New("no tasks found"))
	}
	return tasks, nil
}

// CreateTask satisfies [Handler].
func (s *Service) CreateTask(ctx context.Context, title, description string) (db.Task, error) {
	user, err := caller(ctx)
	if err != nil {
		return db.Task{}, err
	}
	if title == "" {
		return db.Task{}, invalidArgument("title is required")
	}
	task, err := s.store.CreateTask(ctx, user.ID, title, description)
	if err != nil {
		return db.Task{}, storageError(err, "user")
	}
	s.logger.DebugContext(ctx, "created task",
		slog.Int64("task", task.ID),
		slog.Uint64("owner", task.Owner),
	)
	return task, nil
}

// GetTask satisfies [Handler].
func (s *Service) GetTask(ctx context.Context, id int64) (db.Task, error) {
	user, err := caller(ctx)
	if err != nil {
		return db.Task{}, err
	}
	return s.ownedTask(ctx, user, id)
}

// UpdateTask satisfies [Handler].
func (s *Service) UpdateTask(ctx context.Context, id int64, patch db.TaskPatch) (db.Task, error) {
	user, err := caller(ctx)
	if err != nil {
		return db.Task{}, err
	}
	if patch.IsEmpty() {
		return db.Task{}, invalidArgument("at least one of title, description or done is required")
	} else if patch.Title != nil && *patch.Title == "" {
		return db.Task{}, invalidArgument("title must not be empty")
	}
	if _, err = s.ownedTask(ctx, user, id); err != nil {
		return db.Task{}, err
	}
	task, err := s.store.UpdateTask(ctx, id, patch)
	if err != nil {
		return db.Task{}, storageError(err, taskName(id))
	}
	return task, nil
}

// DeleteTask satisfies [Handler].
func (s *Service) DeleteTask(ctx context.Context, id int64) error {
	user, err := caller(ctx)
	if err != nil {
		return err
	}
	if _, err = s.ownedTask(ctx, user, id); err != nil {
		return err
	}
	if err = s.store.DeleteTask(ctx, id); err != nil {
		return storageError(err, taskName(id))
	}
	s.logger.DebugContext(ctx, "deleted task", slog.Int64("task", id))
	return nil
}

// ListUserTasks satisfies [Handler].
func (s *Service) ListUserTasks(ctx context.Context, ownerID uint64) (db.User, []db.Task, error) {
	user, err := caller(ctx)
	if err != nil {
		return db.User{}, nil, err
	}
	owner, err := s.store.GetUser(ctx, ownerID)
	if err != nil {
		return db.User{}, nil, storageError(err, fmt.Sprintf("user %d", ownerID))
	}
	if owner.ID != user.ID {
		return db.User{}, nil, connect.NewError(connect.CodePermissionDenied,
			errors.New("only the owner may list these tasks"))
	}
	tasks, err := s.store.ListTasks(ctx, owner.ID)
	if err != nil {
		return db.User{}, nil, storageError(err, "tasks")
	}
	return owner, tasks, nil
}

// ownedTask resolves the task and checks that user owns it.
func (s *Service) ownedTask(ctx context.Context, user db.User, id int64) (db.Task, error) {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return db.Task{}, storageError(err, taskName(id))
	}
	if task.Owner != user.ID {
		return db.Task{}, connect.NewError(connect.CodePermissionDenied,
			errors.New("only the owner may access this task"))
	}
	return task, nil
}

func taskName(id int64) string {
	return fmt.Sprintf("task %d", id)
}
