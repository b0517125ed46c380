// Package component provides the JSON representations rendered by the taskapi
// web app.
package component

import "github.com/stolasapp/taskapi/internal/storage/db"

// Task is the public view of a task. Author is only set when tasks are listed
// through their owner.
type Task struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Done        bool   `json:"done"`
	URI         string `json:"uri"`
	Author      string `json:"author,omitempty"`
}

// User is the public view of a user. The password hash is never rendered.
type User struct {
	URI      string `json:"uri"`
	Username string `json:"username"`
	TasksURI string `json:"tasks_uri"`
}

// TaskEnvelope wraps a single task response body.
type TaskEnvelope struct {
	Task Task `json:"task"`
}

// TaskListEnvelope wraps a task list response body.
type TaskListEnvelope struct {
	Tasks []Task `json:"tasks"`
}

// UserEnvelope wraps a single user response body.
type UserEnvelope struct {
	User User `json:"user"`
}

// Task renders task with links relative to l.
func (l Links) Task(task db.Task) Task {
	return Task{
		Title:       task.Title,
		Description: task.Description,
		Done:        task.Done,
		URI:         l.Resolve(task.Path()),
	}
}

// Tasks renders a list of tasks. If author is non-nil, its name is attached to
// each task.
func (l Links) Tasks(tasks []db.Task, author *db.User) []Task {
	out := make([]Task, 0, len(tasks))
	for _, task := range tasks {
		view := l.Task(task)
		if author != nil {
			view.Author = author.Name
		}
		out = append(out, view)
	}
	return out
}

// User renders user with links relative to l.
func (l Links) User(user db.User) User {
	return User{
		URI:      l.Resolve(CurrentUserPath),
		Username: user.Name,
		TasksURI: l.Resolve(user.TasksPath()),
	}
}
