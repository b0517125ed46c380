// Package devseed populates a store with a demo user and generated tasks for
// development.
package devseed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"strconv"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/stolasapp/taskapi/internal/sec"
	"github.com/stolasapp/taskapi/internal/storage"
	"github.com/stolasapp/taskapi/internal/storage/db"
)

// Demo account credentials.
const (
	DemoUsername = "demo"
	DemoPassword = "demo"
)

// Corpus generation constants.
const (
	minTasks      = 3
	maxExtraTasks = 5 // 3-7 tasks total
	doneChance    = 30
)

// Seed returns the generator seed from the TASKAPI_DEV_SEED environment
// variable, or a random value if not set.
func Seed() uint64 {
	if env := os.Getenv("TASKAPI_DEV_SEED"); env != "" {
		if seed, err := strconv.ParseUint(env, 10, 64); err == nil {
			return seed
		}
	}
	return rand.Uint64() //nolint:gosec // intentionally weak random for test data
}

// Populate creates the demo user with a handful of generated tasks. If the
// demo user already exists it is returned unchanged, so repeated runs against
// a persistent store do not pile up tasks.
func Populate(ctx context.Context, store storage.Store, logger *slog.Logger, seed uint64) (db.User, error) {
	user, err := store.GetUserByName(ctx, DemoUsername)
	if err == nil {
		return user, nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return db.User{}, fmt.Errorf("failed to look up demo user: %w", err)
	}

	hash, err := sec.HashPassword(DemoPassword)
	if err != nil {
		return db.User{}, err
	}
	user, err = store.CreateUser(ctx, DemoUsername, hash)
	if err != nil {
		return db.User{}, fmt.Errorf("failed to create demo user: %w", err)
	}

	faker := gofakeit.New(seed)
	count := minTasks + faker.IntN(maxExtraTasks)
	for range count {
		task, err := store.CreateTask(ctx, user.ID, generateTitle(faker), faker.Sentence(faker.IntRange(4, 12)))
		if err != nil {
			return db.User{}, fmt.Errorf("failed to create demo task: %w", err)
		}
		if faker.IntN(100) < doneChance {
			done := true
			if _, err = store.UpdateTask(ctx, task.ID, db.TaskPatch{Done: &done}); err != nil {
				return db.User{}, fmt.Errorf("failed to update demo task: %w", err)
			}
		}
	}

	logger.InfoContext(ctx, "seeded demo user",
		slog.String("name", DemoUsername),
		slog.Int("tasks", count),
		slog.Uint64("seed", seed),
	)
	return user, nil
}

func generateTitle(faker *gofakeit.Faker) string {
	patterns := []func(*gofakeit.Faker) string{
		func(f *gofakeit.Faker) string { return fmt.Sprintf("%s the %s", f.Verb(), f.Noun()) },
		func(f *gofakeit.Faker) string { return fmt.Sprintf("Buy %s", f.Noun()) },
		func(f *gofakeit.Faker) string { return fmt.Sprintf("Call %s", f.FirstName()) },
		func(f *gofakeit.Faker) string { return fmt.Sprintf("Fix the %s %s", f.Adjective(), f.Noun()) },
		func(f *gofakeit.Faker) string { return fmt.Sprintf("Return the %s to %s", f.Noun(), f.FirstName()) },
	}
	return patterns[faker.IntN(len(patterns))](faker)
}
