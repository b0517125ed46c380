package storage

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/stolasapp/taskapi/internal/storage/db"
)

// Memory is a [Store] held entirely in process memory. A single lock
// serializes all writes, and IDs come from counters that only ever increase.
type Memory struct {
	mu       sync.RWMutex
	users    map[uint64]db.User
	names    map[string]uint64
	tasks    map[int64]db.Task
	lastUser uint64
	lastTask int64
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		users: make(map[uint64]db.User),
		names: make(map[string]uint64),
		tasks: make(map[int64]db.Task),
	}
}

// Close satisfies the [Store] interface.
func (m *Memory) Close() error { return nil }

// ListTasks satisfies the [Tasks] interface.
func (m *Memory) ListTasks(_ context.Context, owner uint64) ([]db.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tasks := []db.Task{}
	for _, task := range m.tasks {
		if task.Owner == owner {
			tasks = append(tasks, task)
		}
	}
	slices.SortFunc(tasks, func(a, b db.Task) int { return cmp.Compare(a.ID, b.ID) })
	return tasks, nil
}

// GetTask satisfies the [Tasks] interface.
func (m *Memory) GetTask(_ context.Context, id int64) (db.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	task, ok := m.tasks[id]
	if !ok {
		return db.Task{}, ErrNotFound
	}
	return task, nil
}

// CreateTask satisfies the [Tasks] interface.
func (m *Memory) CreateTask(_ context.Context, owner uint64, title, description string) (db.Task, error) {
	if title == "" {
		return db.Task{}, ErrInvalidTask
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[owner]; !ok {
		// mirrors the foreign key on the SQL backends
		return db.Task{}, ErrNotFound
	}
	m.lastTask++
	task := db.Task{
		ID:          m.lastTask,
		Owner:       owner,
		Title:       title,
		Description: description,
	}
	m.tasks[task.ID] = task
	return task, nil
}

// UpdateTask satisfies the [Tasks] interface.
func (m *Memory) UpdateTask(_ context.Context, id int64, patch db.TaskPatch) (db.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.tasks[id]
	if !ok {
		return db.Task{}, ErrNotFound
	}
	task := patch.Apply(current)
	if task.Title == "" {
		return db.Task{}, ErrInvalidTask
	}
	m.tasks[id] = task
	return task, nil
}

// DeleteTask satisfies the [Tasks] interface.
func (m *Memory) DeleteTask(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(m.tasks, id)
	return nil
}

// GetUser satisfies the [Users] interface.
func (m *Memory) GetUser(_ context.Context, userID uint64) (db.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[userID]
	if !ok {
		return db.User{}, ErrNotFound
	}
	return user, nil
}

// GetUserByName satisfies the [Users] interface.
func (m *Memory) GetUserByName(_ context.Context, name string) (db.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.names[NormalizeUsername(name)]
	if !ok {
		return db.User{}, ErrNotFound
	}
	return m.users[id], nil
}

// CreateUser satisfies the [Users] interface.
func (m *Memory) CreateUser(_ context.Context, name string, passwordHash []byte) (db.User, error) {
	name = NormalizeUsername(name)
	if !validateUsername(name) {
		return db.User{}, ErrInvalidUsername
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.names[name]; ok {
		return db.User{}, ErrAlreadyExists
	}
	m.lastUser++
	user := db.User{
		ID:           m.lastUser,
		Name:         name,
		PasswordHash: slices.Clone(passwordHash),
	}
	m.users[user.ID] = user
	m.names[user.Name] = user.ID
	return user, nil
}

// DeleteUser satisfies the [Users] interface.
func (m *Memory) DeleteUser(_ context.Context, userID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	for id, task := range m.tasks {
		if task.Owner == userID {
			delete(m.tasks, id)
		}
	}
	delete(m.names, user.Name)
	delete(m.users, userID)
	return nil
}

var _ Store = (*Memory)(nil)
