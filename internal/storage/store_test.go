package storage

import (
	"sync"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stolasapp/taskapi/internal/storage/db"
)

// testStore runs the behaviour every [Store] implementation must share.
func testStore(t *testing.T, newStore func(t *testing.T) Store) {
	t.Helper()

	t.Run("UserCRUD", func(t *testing.T) {
		t.Parallel()
		store := newStore(t)

		user, err := store.CreateUser(t.Context(), "Joan", []byte("hash"))
		require.NoError(t, err)
		assert.NotZero(t, user.ID)
		assert.Equal(t, "joan", user.Name, "usernames are lower-cased")

		actual, err := store.GetUser(t.Context(), user.ID)
		require.NoError(t, err)
		assert.Equal(t, user, actual)

		actual, err = store.GetUserByName(t.Context(), "JOAN")
		require.NoError(t, err)
		assert.Equal(t, user, actual)

		_, err = store.CreateUser(t.Context(), "jOaN", []byte("other"))
		require.ErrorIs(t, err, ErrAlreadyExists)

		_, err = store.GetUserByName(t.Context(), "not a real user")
		require.ErrorIs(t, err, ErrNotFound)

		for _, name := range []string{"", "has space", "has:colon"} {
			_, err = store.CreateUser(t.Context(), name, []byte("hash"))
			require.ErrorIs(t, err, ErrInvalidUsername, name)
		}

		require.NoError(t, store.DeleteUser(t.Context(), user.ID))
		_, err = store.GetUserByName(t.Context(), user.Name)
		require.ErrorIs(t, err, ErrNotFound)
		_, err = store.GetUser(t.Context(), user.ID)
		require.ErrorIs(t, err, ErrNotFound)
		require.ErrorIs(t, store.DeleteUser(t.Context(), user.ID), ErrNotFound)

		_, err = store.CreateUser(t.Context(), "joan", []byte("again"))
		require.NoError(t, err, "name is free again after delete")
	})

	t.Run("TaskCRUD", func(t *testing.T) {
		t.Parallel()
		store := newStore(t)
		owner := createUser(t, store)

		tasks, err := store.ListTasks(t.Context(), owner.ID)
		require.NoError(t, err)
		assert.Empty(t, tasks)

		_, err = store.CreateTask(t.Context(), owner.ID, "", "no title")
		require.ErrorIs(t, err, ErrInvalidTask)

		task, err := store.CreateTask(t.Context(), owner.ID, "Buy milk", "")
		require.NoError(t, err)
		assert.Equal(t, db.Task{
			ID:    task.ID,
			Owner: owner.ID,
			Title: "Buy milk",
		}, task)

		actual, err := store.GetTask(t.Context(), task.ID)
		require.NoError(t, err)
		assert.Equal(t, task, actual)

		done := true
		updated, err := store.UpdateTask(t.Context(), task.ID, db.TaskPatch{Done: &done})
		require.NoError(t, err)
		task.Done = true
		assert.Equal(t, task, updated, "only done changes")

		empty := ""
		updated, err = store.UpdateTask(t.Context(), task.ID, db.TaskPatch{Description: &empty, Title: ptr("Buy oat milk")})
		require.NoError(t, err)
		assert.Equal(t, "Buy oat milk", updated.Title)
		assert.Empty(t, updated.Description)
		assert.True(t, updated.Done)

		_, err = store.UpdateTask(t.Context(), task.ID, db.TaskPatch{Title: &empty})
		require.ErrorIs(t, err, ErrInvalidTask)
		actual, err = store.GetTask(t.Context(), task.ID)
		require.NoError(t, err)
		assert.Equal(t, "Buy oat milk", actual.Title, "rejected patch writes nothing")

		_, err = store.UpdateTask(t.Context(), task.ID+1000, db.TaskPatch{Done: &done})
		require.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, store.DeleteTask(t.Context(), task.ID))
		_, err = store.GetTask(t.Context(), task.ID)
		require.ErrorIs(t, err, ErrNotFound)
		require.ErrorIs(t, store.DeleteTask(t.Context(), task.ID), ErrNotFound)
	})

	t.Run("ListTasks", func(t *testing.T) {
		t.Parallel()
		store := newStore(t)
		alice := createUser(t, store)
		bob := createUser(t, store)

		var want []db.Task
		for range 5 {
			task, err := store.CreateTask(t.Context(), alice.ID, gofakeit.Sentence(3), gofakeit.Sentence(8))
			require.NoError(t, err)
			want = append(want, task)
			_, err = store.CreateTask(t.Context(), bob.ID, gofakeit.Sentence(3), "")
			require.NoError(t, err)
		}

		tasks, err := store.ListTasks(t.Context(), alice.ID)
		require.NoError(t, err)
		assert.Equal(t, want, tasks, "owner's tasks only, in insertion order")
	})

	t.Run("IDsAreNeverReused", func(t *testing.T) {
		t.Parallel()
		store := newStore(t)
		owner := createUser(t, store)

		first, err := store.CreateTask(t.Context(), owner.ID, "first", "")
		require.NoError(t, err)
		second, err := store.CreateTask(t.Context(), owner.ID, "second", "")
		require.NoError(t, err)
		assert.Greater(t, second.ID, first.ID)

		// deleting the highest id must not free it up
		require.NoError(t, store.DeleteTask(t.Context(), second.ID))
		third, err := store.CreateTask(t.Context(), owner.ID, "third", "")
		require.NoError(t, err)
		assert.Greater(t, third.ID, second.ID)
	})

	t.Run("ConcurrentCreates", func(t *testing.T) {
		t.Parallel()
		store := newStore(t)
		owner := createUser(t, store)

		const workers = 8
		const perWorker = 10
		ids := make(chan int64, workers*perWorker)
		var wg sync.WaitGroup
		for range workers {
			wg.Go(func() {
				for range perWorker {
					task, err := store.CreateTask(t.Context(), owner.ID, "task", "")
					if assert.NoError(t, err) {
						ids <- task.ID
					}
				}
			})
		}
		wg.Wait()
		close(ids)

		seen := map[int64]bool{}
		for id := range ids {
			assert.False(t, seen[id], "duplicate id %d", id)
			seen[id] = true
		}
		assert.Len(t, seen, workers*perWorker)
	})

	t.Run("CreateTaskForMissingOwner", func(t *testing.T) {
		t.Parallel()
		store := newStore(t)

		user := createUser(t, store)
		require.NoError(t, store.DeleteUser(t.Context(), user.ID))

		_, err := store.CreateTask(t.Context(), user.ID, "orphan", "")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("DeleteUserCascades", func(t *testing.T) {
		t.Parallel()
		store := newStore(t)
		owner := createUser(t, store)
		other := createUser(t, store)

		task, err := store.CreateTask(t.Context(), owner.ID, "mine", "")
		require.NoError(t, err)
		kept, err := store.CreateTask(t.Context(), other.ID, "theirs", "")
		require.NoError(t, err)

		require.NoError(t, store.DeleteUser(t.Context(), owner.ID))

		_, err = store.GetTask(t.Context(), task.ID)
		require.ErrorIs(t, err, ErrNotFound)
		_, err = store.GetTask(t.Context(), kept.ID)
		require.NoError(t, err)
	})
}

// fakeUsername returns a random name that always passes username validation.
func fakeUsername() string {
	return gofakeit.LetterN(8) + gofakeit.DigitN(6)
}

func createUser(t *testing.T, store Users) db.User {
	t.Helper()
	user, err := store.CreateUser(t.Context(), fakeUsername(), []byte("hash"))
	require.NoError(t, err)
	return user
}

func ptr[T any](v T) *T { return &v }

func TestFakeUsernameIsValid(t *testing.T) {
	t.Parallel()
	for range 10000 {
		name := fakeUsername()
		require.True(t, validateUsername(name), "invalid generated username %q", name)
	}
}
