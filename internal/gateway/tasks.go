package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/taskdocs/agentic-web-ui/internal/models"
)

type taskResponse struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type taskCreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type taskUpdateRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
}

func (t taskResponse) task() models.Task {
	return models.Task{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		CreatedAt:   parseTime(t.CreatedAt),
		UpdatedAt:   parseTime(t.UpdatedAt),
	}
}

func (c *Client) taskList(ctx context.Context, op, path string) ([]models.Task, error) {
	var res []taskResponse
	if err := c.getJSON(ctx, op, path, &res); err != nil {
		return nil, err
	}

	tasks := make([]models.Task, len(res))
	for i, t := range res {
		tasks[i] = t.task()
	}
	return tasks, nil
}

// Tasks fetches the user's full task list.
func (c *Client) Tasks(ctx context.Context) ([]models.Task, error) {
	return c.taskList(ctx, "list tasks", "/tasks/get_tasks")
}

// CompletedTasks fetches only completed tasks.
func (c *Client) CompletedTasks(ctx context.Context) ([]models.Task, error) {
	return c.taskList(ctx, "list completed tasks", "/tasks/get_completed_tasks")
}

// PendingTasks fetches only tasks not yet completed.
func (c *Client) PendingTasks(ctx context.Context) ([]models.Task, error) {
	return c.taskList(ctx, "list pending tasks", "/tasks/get_pending_tasks")
}

// CreateTask creates a new task and returns the stored record.
func (c *Client) CreateTask(ctx context.Context, task models.TaskCreate) (models.Task, error) {
	var res taskResponse
	err := c.sendJSON(ctx, "create task", http.MethodPost, "/tasks/create_task", taskCreateRequest{
		Title:       task.Title,
		Description: task.Description,
	}, &res)
	if err != nil {
		return models.Task{}, err
	}
	return res.task(), nil
}

// UpdateTask applies a partial update to the task with the given id.
func (c *Client) UpdateTask(ctx context.Context, id int64, update models.TaskUpdate) (models.Task, error) {
	var res taskResponse
	err := c.sendJSON(ctx, "update task", http.MethodPut, fmt.Sprintf("/tasks/update_task/%d", id), taskUpdateRequest{
		Title:       update.Title,
		Description: update.Description,
		Completed:   update.Completed,
	}, &res)
	if err != nil {
		return models.Task{}, err
	}
	return res.task(), nil
}

// DeleteTask removes the task with the given id.
func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	req, err := c.newRequest(ctx, http.MethodDelete, fmt.Sprintf("/tasks/delete_task/%d", id), nil)
	if err != nil {
		return err
	}
	return c.send("delete task", req, &deleteResponse{})
}

// MarkTaskCompleted flips the task to completed through the dedicated endpoint. There is no
// mark-pending counterpart on the service; un-completing goes through UpdateTask.
func (c *Client) MarkTaskCompleted(ctx context.Context, id int64) (models.Task, error) {
	req, err := c.newRequest(ctx, http.MethodPatch, fmt.Sprintf("/tasks/mark_completed/%d", id), nil)
	if err != nil {
		return models.Task{}, err
	}

	var res taskResponse
	if err := c.send("mark task completed", req, &res); err != nil {
		return models.Task{}, err
	}
	return res.task(), nil
}
