package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/avelichko/task-tracker/internal/auth"
	"github.com/avelichko/task-tracker/internal/config"
	"github.com/avelichko/task-tracker/internal/db"
	"github.com/avelichko/task-tracker/internal/handlers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}
	log := setupLogger(cfg.Env)

	dbConn, err := db.Connect("postgres", cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			log.Errorf("Error closing database connection: %v", err)
		}
	}()
	if err := db.Migrate(context.Background(), dbConn); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Info("established a connection with database")

	tokens, err := auth.NewTokenService(
		cfg.JWTSecret, cfg.JWTAlgorithm, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	if err != nil {
		log.Fatalf("Invalid token configuration: %v", err)
	}

	users := db.NewUserRepository(dbConn)
	handler := &handlers.Handler{
		Users:    users,
		Projects: db.NewProjectRepository(dbConn),
		Tasks:    db.NewTaskRepository(dbConn),
		Auth:     auth.NewService(users, tokens, cfg.BcryptCost),
		Tokens:   tokens,
		// allow bursts of 5 auth attempts per IP, refilling 2/s
		Limiter: handlers.NewRateLimiter(2, 5),
		Hub:     handlers.NewHub(),
		Log:     log,
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	startServer(server, log)
}

func setupLogger(env string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	switch env {
	case "local":
		log.SetLevel(logrus.DebugLevel)
	case "dev":
		log.SetLevel(logrus.InfoLevel)
	default:
		log.SetLevel(logrus.WarnLevel)
	}
	return log
}

func startServer(server *http.Server, log *logrus.Logger) {
	log.Infof("Starting server on %s", server.Addr)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
	log.Info("Server stopped")
}
