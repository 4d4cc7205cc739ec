package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"taskflow/internal/config"
	_ "taskflow/internal/docs"
	"taskflow/internal/handlers"
	"taskflow/internal/middleware"
	"taskflow/internal/repositories"
	"taskflow/internal/routes"
	"taskflow/internal/services"
	"taskflow/internal/utils"
)

const shutdownTimeout = 10 * time.Second

// Server is the dev API server. With no database URL configured it keeps
// everything in memory.
type Server struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *sql.DB
	router *gin.Engine
}

func NewServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{cfg: cfg, logger: logger}

	// === Repos ===
	var (
		userRepo       repositories.UserRepository
		taskRepo       repositories.TaskRepository
		attachmentRepo repositories.AttachmentRepository
	)
	if cfg.Database.DSN == "" {
		logger.Info("[server] using in-memory storage")
		userRepo = repositories.NewMemoryUserRepository()
		taskRepo = repositories.NewMemoryTaskRepository()
		attachmentRepo = repositories.NewMemoryAttachmentRepository()
	} else {
		db, err := sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}
		if err := repositories.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		s.db = db
		userRepo = repositories.NewUserRepository(db)
		taskRepo = repositories.NewTaskRepository(db)
		attachmentRepo = repositories.NewAttachmentRepository(db)
	}

	// === Services ===
	secret := cfg.Auth.JWTSecret
	if secret == "" {
		var err error
		if secret, err = utils.NewSecret(32); err != nil {
			s.Close()
			return nil, fmt.Errorf("generate jwt secret: %w", err)
		}
		logger.Warn("[server] no jwt secret configured, tokens will not survive a restart")
	}
	authService := services.NewAuthService(secret, cfg.Auth.TokenTTL)
	userService := services.NewUserService(userRepo, authService)
	attachmentService := services.NewAttachmentService(attachmentRepo, taskRepo, cfg.Files.RootDir, 0, logger)
	taskService := services.NewTaskService(taskRepo, userRepo, attachmentService, logger)

	// === Handlers ===
	var pinger handlers.Pinger
	if s.db != nil {
		pinger = s.db
	}
	h := routes.Handlers{
		Auth:        handlers.NewAuthHandler(userService, authService, logger),
		Users:       handlers.NewUserHandler(userService, logger),
		Tasks:       handlers.NewTaskHandler(taskService, logger),
		Attachments: handlers.NewAttachmentHandler(attachmentService, logger),
		Health:      handlers.Health(pinger),
		Metrics:     middleware.NewMetrics(),
	}

	// === Gin ===
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), corsMiddleware())
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	s.router = routes.SetupRoutes(router, h, authService, userService)
	return s, nil
}

// Handler exposes the router, for httptest.
func (s *Server) Handler() http.Handler { return s.router }

// Close releases the database, if any.
func (s *Server) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Run serves until an interrupt and returns the process exit code.
func (s *Server) Run(ctx context.Context) int {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	failed := make(chan error, 1)
	go func() {
		s.logger.Info("[server] listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			failed <- err
		}
	}()

	wait := gfshutdown.GracefulShutdown(ctx, shutdownTimeout, map[string]gfshutdown.Operation{
		"http": func(ctx context.Context) error {
			s.logger.Info("[server] shutting down")
			return srv.Shutdown(ctx)
		},
		"database": func(context.Context) error {
			return s.Close()
		},
	})

	select {
	case err := <-failed:
		s.logger.Error("[server] listen", "error", err)
		s.Close()
		return 1
	case code := <-wait:
		s.logger.Info("[server] exited", "code", code)
		return code
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Request-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
