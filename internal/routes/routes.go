package routes

import (
	"github.com/gin-gonic/gin"

	"taskflow/internal/handlers"
	"taskflow/internal/middleware"
	"taskflow/internal/services"
)

// Handlers groups everything SetupRoutes mounts.
type Handlers struct {
	Auth        *handlers.AuthHandler
	Users       *handlers.UserHandler
	Tasks       *handlers.TaskHandler
	Attachments *handlers.AttachmentHandler
	Health      gin.HandlerFunc
	// Metrics is optional.
	Metrics *middleware.Metrics
}

func SetupRoutes(r *gin.Engine, h Handlers, auth services.AuthService, users services.UserService) *gin.Engine {
	if h.Metrics != nil {
		r.Use(h.Metrics.Middleware())
		r.GET("/metrics", h.Metrics.Handler())
	}

	// ---- public
	r.GET("/health", h.Health)
	r.POST("/auth/login", h.Auth.Login)
	r.POST("/auth/register", h.Auth.Register)

	// ---- protected
	api := r.Group("")
	api.Use(middleware.AuthMiddleware(auth), middleware.RequireActiveUser(users))

	api.GET("/auth/me", h.Auth.Me)
	api.GET("/users", h.Users.ListUsers)

	tasks := api.Group("/tasks")
	{
		tasks.GET("", h.Tasks.List)
		tasks.POST("", h.Tasks.Create)
		tasks.GET("/:id", h.Tasks.Get)
		tasks.PATCH("/:id", h.Tasks.Update)
		tasks.DELETE("/:id", h.Tasks.Delete)

		tasks.GET("/:id/attachments", h.Attachments.List)
		tasks.POST("/:id/attachments", h.Attachments.Upload)
		tasks.DELETE("/:id/attachments/:attachment_id", h.Attachments.Delete)
		tasks.GET("/:id/attachments/:attachment_id/download", h.Attachments.Download)
		tasks.GET("/:id/attachments/:attachment_id/file", h.Attachments.File)
	}

	return r
}
