package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskflow/internal/models"
	"taskflow/internal/services"
)

type AttachmentHandler struct {
	service services.AttachmentService
	logger  *slog.Logger
}

func NewAttachmentHandler(service services.AttachmentService, logger *slog.Logger) *AttachmentHandler {
	return &AttachmentHandler{service: service, logger: logger}
}

// POST /tasks/:id/attachments (multipart field "file")
func (h *AttachmentHandler) Upload(c *gin.Context) {
	taskID, ok := paramID(c, "id")
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "file is required"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, h.logger, "attachment][upload", err, "")
		return
	}
	defer f.Close()

	a, err := h.service.Upload(c.Request.Context(), taskID, fh.Filename, fh.Header.Get("Content-Type"), f)
	if err != nil {
		respondError(c, h.logger, "attachment][upload", err, "Task not found")
		return
	}
	h.logger.Info("[attachment][upload][ok]", "task_id", taskID, "attachment_id", a.ID, "size", a.FileSize)
	c.JSON(http.StatusCreated, a)
}

// GET /tasks/:id/attachments
func (h *AttachmentHandler) List(c *gin.Context) {
	taskID, ok := paramID(c, "id")
	if !ok {
		return
	}
	list, err := h.service.List(c.Request.Context(), taskID)
	if err != nil {
		respondError(c, h.logger, "attachment][list", err, "Task not found")
		return
	}
	c.JSON(http.StatusOK, list)
}

// DELETE /tasks/:id/attachments/:attachment_id
func (h *AttachmentHandler) Delete(c *gin.Context) {
	taskID, ok := paramID(c, "id")
	if !ok {
		return
	}
	id, ok := paramID(c, "attachment_id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), taskID, id); err != nil {
		respondError(c, h.logger, "attachment][delete", err, "Attachment not found")
		return
	}
	h.logger.Info("[attachment][delete][ok]", "task_id", taskID, "attachment_id", id)
	c.Status(http.StatusNoContent)
}

// GET /tasks/:id/attachments/:attachment_id/download
//
// Local storage has no signed URLs, so the answer points at the file route.
func (h *AttachmentHandler) Download(c *gin.Context) {
	taskID, ok := paramID(c, "id")
	if !ok {
		return
	}
	id, ok := paramID(c, "attachment_id")
	if !ok {
		return
	}
	a, _, err := h.service.Open(c.Request.Context(), taskID, id)
	if err != nil {
		respondError(c, h.logger, "attachment][download", err, "Attachment not found")
		return
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if fwd := c.GetHeader("X-Forwarded-Proto"); fwd != "" {
		scheme = fwd
	}
	c.JSON(http.StatusOK, models.AttachmentDownload{
		URL:      fmt.Sprintf("%s://%s/tasks/%d/attachments/%d/file", scheme, c.Request.Host, taskID, id),
		Filename: a.Filename,
	})
}

// GET /tasks/:id/attachments/:attachment_id/file
func (h *AttachmentHandler) File(c *gin.Context) {
	taskID, ok := paramID(c, "id")
	if !ok {
		return
	}
	id, ok := paramID(c, "attachment_id")
	if !ok {
		return
	}
	a, abs, err := h.service.Open(c.Request.Context(), taskID, id)
	if err != nil {
		respondError(c, h.logger, "attachment][file", err, "Attachment not found")
		return
	}
	c.FileAttachment(abs, a.Filename)
}
