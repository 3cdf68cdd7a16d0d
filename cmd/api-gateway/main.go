package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/tutoring-payroll-api/internal/app"
	"github.com/noah-isme/tutoring-payroll-api/internal/handler"
	"github.com/noah-isme/tutoring-payroll-api/internal/router"
	"github.com/noah-isme/tutoring-payroll-api/pkg/config"
	"github.com/noah-isme/tutoring-payroll-api/pkg/logger"
)

// @title Tutoring Payroll API
// @version 1.0.0
// @description Teachers, tasks, work sessions and monthly salary reports
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := app.Build(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to initialise dependencies", zap.Error(err))
	}
	defer func() {
		if err := container.Close(); err != nil {
			logr.Warn("failed to close connections", zap.Error(err))
		}
	}()

	engine := router.New(router.Config{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableDocs:     cfg.Env != config.EnvProduction,
	}, router.Handlers{
		Auth:         handler.NewAuthHandler(container.Auth),
		Users:        handler.NewUserHandler(container.Users),
		Teachers:     handler.NewTeacherHandler(container.Teachers),
		Students:     handler.NewStudentHandler(container.Students),
		Tasks:        handler.NewTaskHandler(container.Tasks),
		WorkSessions: handler.NewWorkSessionHandler(container.WorkSessions),
		Salary:       handler.NewSalaryHandler(container.Salary),
		Reports:      handler.NewSalaryReportHandler(container.Reports),
		Dashboard:    handler.NewDashboardHandler(container.Dashboard),
		Metrics:      handler.NewMetricsHandler(container.Metrics, container.DB),
	}, router.Dependencies{
		Tokens:  container.Auth,
		Audit:   container.Repos.Users,
		Metrics: container.Metrics,
		Logger:  logr,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", server.Addr), zap.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Error("server forced to shutdown", zap.Error(err))
	}
}
