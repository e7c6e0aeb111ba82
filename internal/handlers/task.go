package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/chepyr/task-api/internal/db"
	"github.com/chepyr/task-api/internal/models"
)

/*
handles routes:
- GET /api/tasks - list the caller's tasks, newest first
- POST /api/tasks - create a task
- GET/PUT/DELETE /api/tasks/{id} - single task, owner only
*/

func (h *Handler) ListTasks(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	tasks, err := h.TaskRepo.ListByUserID(ctx, currentUserID(c))
	if err != nil {
		h.log(c).Error("list tasks failed", slog.String("error", err.Error()))
		sendError(c, "Failed to list tasks", http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *Handler) CreateTask(c *gin.Context) {
	fields, ok := h.bindFields(c)
	if !ok {
		return
	}
	title, ok := fields["title"]
	if !ok {
		sendError(c, "Title is required", http.StatusBadRequest)
		return
	}

	userID := currentUserID(c)
	task := models.NewTask(userID, title, fields["description"], fields["due_date"], fields["priority"])
	if !task.IsValid() {
		sendError(c, "Invalid task data", http.StatusBadRequest)
		return
	}
	if createdAt := fields["created_at"]; createdAt != "" {
		task.CreatedAt = models.NormalizeCreatedAt(createdAt)
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	id, err := h.TaskRepo.Create(ctx, &task)
	if errors.Is(err, db.ErrUnknownUser) {
		// Signed token for a user row that no longer exists.
		sendError(c, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if err != nil {
		h.log(c).Error("create task failed", slog.String("error", err.Error()))
		sendError(c, "Failed to create task", http.StatusInternalServerError)
		return
	}
	task.ID = id

	h.WSHub.Broadcast(userID, eventTaskCreated, task)
	c.JSON(http.StatusCreated, task)
}

func (h *Handler) GetTask(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	task, ok := h.loadOwnedTask(ctx, c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, task)
}

// UpdateTask merges the body into the stored task; keys missing from the
// body keep their current values.
func (h *Handler) UpdateTask(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	task, ok := h.loadOwnedTask(ctx, c)
	if !ok {
		return
	}
	fields, ok := h.bindFields(c)
	if !ok {
		return
	}

	task.Apply(fields)
	if !task.IsValid() {
		sendError(c, "Invalid task data", http.StatusBadRequest)
		return
	}

	err := h.TaskRepo.Update(ctx, &task)
	if errors.Is(err, db.ErrTaskNotFound) {
		sendError(c, "Task not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log(c).Error("update task failed", slog.Int64("task_id", task.ID), slog.String("error", err.Error()))
		sendError(c, "Failed to update task", http.StatusInternalServerError)
		return
	}

	if stored, err := h.TaskRepo.GetByID(ctx, task.ID); err == nil && stored.ID != 0 {
		task = stored
	}
	h.WSHub.Broadcast(task.UserID, eventTaskUpdated, task)
	c.JSON(http.StatusOK, task)
}

func (h *Handler) DeleteTask(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	task, ok := h.loadOwnedTask(ctx, c)
	if !ok {
		return
	}

	err := h.TaskRepo.Delete(ctx, task.ID, task.UserID)
	if errors.Is(err, db.ErrTaskNotFound) {
		sendError(c, "Task not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log(c).Error("delete task failed", slog.Int64("task_id", task.ID), slog.String("error", err.Error()))
		sendError(c, "Failed to delete task", http.StatusInternalServerError)
		return
	}

	h.WSHub.Broadcast(task.UserID, eventTaskDeleted, deletedTask{ID: task.ID})
	sendMessage(c, "Task deleted successfully", http.StatusOK)
}

// loadOwnedTask resolves the :id path parameter to a task owned by the
// caller, answering 404 or 403 otherwise.
func (h *Handler) loadOwnedTask(ctx context.Context, c *gin.Context) (models.Task, bool) {
	taskID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || taskID <= 0 {
		sendError(c, "Task not found", http.StatusNotFound)
		return models.Task{}, false
	}

	task, err := h.TaskRepo.GetByID(ctx, taskID)
	if err != nil {
		h.log(c).Error("load task failed", slog.Int64("task_id", taskID), slog.String("error", err.Error()))
		sendError(c, "Failed to load task", http.StatusInternalServerError)
		return models.Task{}, false
	}
	if task.ID == 0 {
		sendError(c, "Task not found", http.StatusNotFound)
		return models.Task{}, false
	}
	if task.UserID != currentUserID(c) {
		sendError(c, "Forbidden", http.StatusForbidden)
		return models.Task{}, false
	}
	return task, true
}
