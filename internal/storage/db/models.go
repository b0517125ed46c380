package db

import "strconv"

// User is a registered principal. The password hash is never serialized.
type User struct {
	ID           uint64 `db:"id"`
	Name         string `db:"name"`
	PasswordHash []byte `db:"password_hash" json:"-"`
}

// TasksPath returns the path listing the user's tasks.
func (u User) TasksPath() string {
	return "/users/" + strconv.FormatUint(u.ID, 10) + "/tasks"
}

// Task is a single to-do item owned by exactly one user.
type Task struct {
	ID          int64  `db:"id"`
	Owner       uint64 `db:"owner"`
	Title       string `db:"title"`
	Description string `db:"description"`
	Done        bool   `db:"done"`
}

// Path returns the path of the task item.
func (t Task) Path() string {
	return "/tasks/" + strconv.FormatInt(t.ID, 10)
}

// TaskPatch is a partial update to a Task. Nil fields are left untouched.
type TaskPatch struct {
	Title       *string
	Description *string
	Done        *bool
}

// IsEmpty reports whether the patch would not change anything.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Done == nil
}

// Apply returns a copy of task with the supplied fields overlaid.
func (p TaskPatch) Apply(task Task) Task {
	if p.Title != nil {
		task.Title = *p.Title
	}
	if p.Description != nil {
		task.Description = *p.Description
	}
	if p.Done != nil {
		task.Done = *p.Done
	}
	return task
}
