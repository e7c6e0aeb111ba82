package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chepyr/task-api/internal/auth"
	"github.com/chepyr/task-api/internal/config"
	"github.com/chepyr/task-api/internal/db"
	"github.com/chepyr/task-api/internal/handlers"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := cfg.Logger(os.Stdout)
	slog.SetDefault(logger)
	gin.SetMode(gin.ReleaseMode)

	dbConn, err := initDB(cfg)
	if err != nil {
		logger.Error("failed to open database", slog.String("driver", cfg.DBDriver), slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dbConn.Close()

	handler := initHandlers(cfg, dbConn, logger)
	server := initServer(cfg, handler)
	if err := startServer(server, logger); err != nil {
		logger.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func initDB(cfg *config.Config) (*sql.DB, error) {
	dsn := cfg.DatabaseURL
	if cfg.DBDriver == db.DriverSQLite {
		var err error
		if dsn, err = db.SQLiteDSN(cfg.DBPath); err != nil {
			return nil, err
		}
	}

	dbConn, err := db.Connect(cfg.DBDriver, dsn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.Migrate(ctx, dbConn, cfg.DBDriver); err != nil {
		dbConn.Close()
		return nil, err
	}
	return dbConn, nil
}

func initHandlers(cfg *config.Config, dbConn *sql.DB, logger *slog.Logger) *handlers.Handler {
	return &handlers.Handler{
		UserRepo:       db.NewUserRepository(dbConn),
		TaskRepo:       db.NewTaskRepository(dbConn),
		Tokens:         auth.NewTokenCodec([]byte(cfg.JWTSecret), cfg.TokenTTL),
		WSHub:          handlers.NewWSHub(logger),
		DB:             dbConn,
		Logger:         logger,
		AllowedOrigins: cfg.AllowedOrigins,
	}
}

func initServer(cfg *config.Config, handler *handlers.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// startServer blocks until SIGINT or SIGTERM, then drains in-flight
// requests.
func startServer(server *http.Server, logger *slog.Logger) error {
	logger.Info("starting task API", slog.String("addr", server.Addr))

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down server", slog.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
