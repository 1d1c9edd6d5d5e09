package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/taskdocs/agentic-web-ui/internal/models"
)

type tasksPageData struct {
	Tasks  []models.Task
	Filter string
	Error  string
}

// HandleTasks renders the task list, optionally filtered to completed or pending tasks.
func (m Main) HandleTasks(w http.ResponseWriter, r *http.Request) {
	token, err := m.tokens.Token()
	if err != nil {
		m.logger.Error("Failed to read stored credential", slog.String(errLoggerKey, err.Error()))
	}
	if token == "" {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	filter := r.URL.Query().Get("filter")

	var tasks []models.Task
	switch filter {
	case "completed":
		tasks, err = m.gateway.CompletedTasks(r.Context())
	case "pending":
		tasks, err = m.gateway.PendingTasks(r.Context())
	default:
		filter = "all"
		tasks, err = m.gateway.Tasks(r.Context())
	}

	data := tasksPageData{Tasks: tasks, Filter: filter}
	if err != nil {
		if m.handleUnauthorized(w, r, err) {
			return
		}
		m.logger.Error("Failed to fetch tasks", slog.String(errLoggerKey, err.Error()))
		data.Error = "could not load tasks"
	}

	if err := m.templates.ExecuteTemplate(w, "tasks.html", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// HandleTaskCreate creates a task from the posted form.
func (m Main) HandleTaskCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	title := r.FormValue("title")
	if title == "" {
		http.Error(w, "title is required", http.StatusBadRequest)
		return
	}

	_, err := m.gateway.CreateTask(r.Context(), models.TaskCreate{
		Title:       title,
		Description: r.FormValue("description"),
	})
	if err != nil {
		if m.handleUnauthorized(w, r, err) {
			return
		}
		m.logger.Error("Failed to create task", slog.String(errLoggerKey, err.Error()))
	}
	http.Redirect(w, r, "/tasks", http.StatusSeeOther)
}

// HandleTaskToggle flips a task's completion state. Completing goes through the dedicated
// endpoint; un-completing goes through the generic update since the service has no mark-pending
// counterpart.
func (m Main) HandleTaskToggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, err := strconv.ParseInt(r.FormValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid task id", http.StatusBadRequest)
		return
	}

	if r.FormValue("completed") == "true" {
		uncompleted := false
		_, err = m.gateway.UpdateTask(r.Context(), id, models.TaskUpdate{Completed: &uncompleted})
	} else {
		_, err = m.gateway.MarkTaskCompleted(r.Context(), id)
	}
	if err != nil {
		if m.handleUnauthorized(w, r, err) {
			return
		}
		m.logger.Error("Failed to toggle task",
			slog.Int64("taskID", id),
			slog.String(errLoggerKey, err.Error()))
	}
	http.Redirect(w, r, "/tasks", http.StatusSeeOther)
}

// HandleTaskDelete removes the posted task id.
func (m Main) HandleTaskDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, err := strconv.ParseInt(r.FormValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid task id", http.StatusBadRequest)
		return
	}

	if err := m.gateway.DeleteTask(r.Context(), id); err != nil {
		if m.handleUnauthorized(w, r, err) {
			return
		}
		m.logger.Error("Failed to delete task",
			slog.Int64("taskID", id),
			slog.String(errLoggerKey, err.Error()))
	}
	http.Redirect(w, r, "/tasks", http.StatusSeeOther)
}
