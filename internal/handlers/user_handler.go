package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskflow/internal/services"
)

type UserHandler struct {
	service services.UserService
	logger  *slog.Logger
}

func NewUserHandler(service services.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{service: service, logger: logger}
}

// GET /users
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.service.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "user][list", err, "")
		return
	}
	c.JSON(http.StatusOK, users)
}
