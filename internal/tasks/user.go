package tasks

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/stolasapp/taskapi/internal/sec"
	"github.com/stolasapp/taskapi/internal/storage"
	"github.com/stolasapp/taskapi/internal/storage/db"
)

// RegisterUser satisfies [Handler].
func (s *Service) RegisterUser(ctx context.Context, username, password string) (db.User, error) {
	switch {
	case username == "":
		return db.User{}, invalidArgument("username is required")
	case password == "":
		return db.User{}, invalidArgument("password is required")
	case len(password) > sec.MaxPasswordLen:
		return db.User{}, invalidArgument("password must be at most 72 bytes")
	}

	// reject taken names before paying for the hash; the store still enforces
	// uniqueness on insert
	if _, err := s.store.GetUserByName(ctx, username); err == nil {
		return db.User{}, storageError(storage.ErrAlreadyExists, "user")
	} else if !errors.Is(err, storage.ErrNotFound) {
		return db.User{}, storageError(err, "user")
	}

	hash, err := sec.HashPassword(password)
	if err != nil {
		return db.User{}, connect.NewError(connect.CodeInvalidArgument, err)
	}
	user, err := s.store.CreateUser(ctx, username, hash)
	if err != nil {
		return db.User{}, storageError(err, "user")
	}
	s.logger.InfoContext(ctx, "created user",
		slog.String("name", user.Name),
		slog.Uint64("id", user.ID),
	)
	return user, nil
}

// GetCurrentUser satisfies [Handler].
func (s *Service) GetCurrentUser(ctx context.Context) (db.User, error) {
	return caller(ctx)
}

// DeleteCurrentUser satisfies [Handler]. The caller's tasks are deleted with
// them.
func (s *Service) DeleteCurrentUser(ctx context.Context) error {
	user, err := caller(ctx)
	if err != nil {
		return err
	}
	if err = s.store.DeleteUser(ctx, user.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return storageError(err, "user")
	}
	s.logger.InfoContext(ctx, "user deleted", slog.String("name", user.Name))
	return nil
}
