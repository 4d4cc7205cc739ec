package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"taskflow/internal/middleware"
	"taskflow/internal/models"
	"taskflow/internal/services"
)

type TaskHandler struct {
	service services.TaskService
	logger  *slog.Logger
}

func NewTaskHandler(service services.TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{service: service, logger: logger}
}

// GET /tasks?status=&assignee_id=
func (h *TaskHandler) List(c *gin.Context) {
	var filter models.TaskFilter
	if s := c.Query("status"); s != "" {
		st := models.TaskStatus(s)
		if !st.Valid() {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "invalid status"})
			return
		}
		filter.Status = &st
	}
	if s := c.Query("assignee_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "invalid assignee_id"})
			return
		}
		filter.AssigneeID = &id
	}

	items, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, "task][list", err, "")
		return
	}
	c.JSON(http.StatusOK, items)
}

// GET /tasks/:id
func (h *TaskHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	task, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, "task][get", err, "Task not found")
		return
	}
	c.JSON(http.StatusOK, task)
}

// POST /tasks
func (h *TaskHandler) Create(c *gin.Context) {
	var in models.CreateTaskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		bindError(c, err)
		return
	}
	user := middleware.CurrentUser(c)
	if user == nil {
		middleware.Unauthorized(c, "Not authenticated")
		return
	}

	task, err := h.service.Create(c.Request.Context(), user.ID, in)
	if err != nil {
		respondError(c, h.logger, "task][create", err, "Assignee not found")
		return
	}
	h.logger.Info("[task][create][ok]", "task_id", task.ID, "creator_id", user.ID)
	c.JSON(http.StatusCreated, task)
}

// PATCH /tasks/:id
func (h *TaskHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in models.UpdateTaskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		bindError(c, err)
		return
	}

	task, err := h.service.Update(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, h.logger, "task][update", err, "Task not found")
		return
	}
	h.logger.Info("[task][update][ok]", "task_id", id)
	c.JSON(http.StatusOK, task)
}

// DELETE /tasks/:id
func (h *TaskHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, "task][delete", err, "Task not found")
		return
	}
	h.logger.Info("[task][delete][ok]", "task_id", id)
	c.Status(http.StatusNoContent)
}
