package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskflow/internal/middleware"
	"taskflow/internal/models"
	"taskflow/internal/services"
)

type AuthHandler struct {
	users  services.UserService
	auth   services.AuthService
	logger *slog.Logger
}

func NewAuthHandler(users services.UserService, auth services.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{users: users, auth: auth, logger: logger}
}

// POST /auth/login (form-urlencoded username, password)
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.logger.Info("[auth][login][deny]", "username", req.Username, "error", err)
		respondError(c, h.logger, "auth][login", err, "")
		return
	}
	token, err := h.auth.IssueToken(user)
	if err != nil {
		respondError(c, h.logger, "auth][login", err, "")
		return
	}
	h.logger.Info("[auth][login][ok]", "user_id", user.ID)
	c.JSON(http.StatusOK, models.AuthToken{AccessToken: token, TokenType: "bearer"})
}

// POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	user, err := h.users.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, "auth][register", err, "")
		return
	}
	h.logger.Info("[auth][register][ok]", "user_id", user.ID, "username", user.Username)
	c.JSON(http.StatusCreated, user)
}

// GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		middleware.Unauthorized(c, "Not authenticated")
		return
	}
	c.JSON(http.StatusOK, user)
}
