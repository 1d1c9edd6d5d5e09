package models

import "time"

// Task is one entry in the user's task list.
type Task struct {
	ID          int64
	Title       string
	Description string
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskCreate carries the fields of a new task.
type TaskCreate struct {
	Title       string
	Description string
}

// TaskUpdate carries a partial update; nil fields are left untouched by the server.
type TaskUpdate struct {
	Title       *string
	Description *string
	Completed   *bool
}
