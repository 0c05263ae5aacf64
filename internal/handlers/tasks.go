package handlers

import (
	"log/slog"
	"net/http"

	"task-tracker/backend/internal/apperr"
	"task-tracker/backend/internal/middleware"
	"task-tracker/backend/internal/models"
	"task-tracker/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

type TaskHandler struct {
	taskService services.TaskService
	log         *slog.Logger
}

func NewTaskHandler(taskService services.TaskService, log *slog.Logger) *TaskHandler {
	if log == nil {
		log = slog.Default()
	}
	return &TaskHandler{taskService: taskService, log: log}
}

func (h *TaskHandler) GetTasks(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}

	var query models.TaskQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondError(c, h.log, apperr.Validation(map[string]string{"query": "Invalid query parameters"}))
		return
	}

	tasks, err := h.taskService.ListTasks(c.Request.Context(), owner, query)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}

	var input models.TaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		invalidBody(c, h.log)
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), owner, input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, task)
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	id, ok := h.taskID(c)
	if !ok {
		return
	}

	var patch models.TaskPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		invalidBody(c, h.log)
		return
	}

	task, err := h.taskService.UpdateTask(c.Request.Context(), owner, id, patch)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	id, ok := h.taskID(c)
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(c.Request.Context(), owner, id); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted"})
}

func (h *TaskHandler) owner(c *gin.Context) (uuid.UUID, bool) {
	owner, ok := middleware.UserID(c)
	if !ok {
		respondError(c, h.log, apperr.ErrUnauthorized)
	}
	return owner, ok
}

// An id that cannot name any task answers the same as a missing task.
func (h *TaskHandler) taskID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.FromString(c.Param("id"))
	if err != nil || id.IsNil() {
		respondError(c, h.log, apperr.NotFound("Task not found"))
		return uuid.Nil, false
	}
	return id, true
}
