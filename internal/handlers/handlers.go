package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chepyr/task-api/internal/auth"
	"github.com/chepyr/task-api/internal/db"
)

const requestTimeout = 5 * time.Second

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handler struct {
	UserRepo       db.UserRepositoryInterface
	TaskRepo       db.TaskRepositoryInterface
	Tokens         *auth.TokenCodec
	WSHub          *WSHub
	DB             Pinger
	Logger         *slog.Logger
	AllowedOrigins []string
}

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Router wires every endpoint and the global middleware chain.
func (h *Handler) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), h.AccessLog(), CORS())
	router.NoRoute(func(c *gin.Context) {
		sendError(c, "Not found", http.StatusNotFound)
	})

	api := router.Group("/api")
	api.GET("/healthz", h.Health)

	authRoutes := api.Group("/auth")
	authRoutes.POST("/register", h.Register)
	authRoutes.POST("/login", h.Login)
	authRoutes.GET("/me", h.AuthMiddleware(), h.Me)

	tasks := api.Group("/tasks", h.AuthMiddleware())
	tasks.GET("", h.ListTasks)
	tasks.POST("", h.CreateTask)
	tasks.GET("/:id", h.GetTask)
	tasks.PUT("/:id", h.UpdateTask)
	tasks.DELETE("/:id", h.DeleteTask)

	api.GET("/ws", tokenFromQuery(), h.AuthMiddleware(), h.HandleWebSocket)
	return router
}

func (h *Handler) Health(c *gin.Context) {
	if h.DB != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()
		if err := h.DB.PingContext(ctx); err != nil {
			h.log(c).Error("health check failed", slog.String("error", err.Error()))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// log returns the handler logger tagged with the request id.
func (h *Handler) log(c *gin.Context) *slog.Logger {
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(slog.String("request_id", c.GetString(requestIDKey)))
}

func sendError(c *gin.Context, message string, status int) {
	c.AbortWithStatusJSON(status, errorResponse{Error: message})
}

func sendMessage(c *gin.Context, message string, status int) {
	c.JSON(status, messageResponse{Message: message})
}
