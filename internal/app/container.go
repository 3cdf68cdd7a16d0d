package app

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/tutoring-payroll-api/internal/payroll"
	"github.com/noah-isme/tutoring-payroll-api/internal/repository"
	"github.com/noah-isme/tutoring-payroll-api/internal/service"
	"github.com/noah-isme/tutoring-payroll-api/pkg/cache"
	"github.com/noah-isme/tutoring-payroll-api/pkg/config"
	"github.com/noah-isme/tutoring-payroll-api/pkg/database"
)

const authIssuer = "tutoring-payroll-api"

// Repositories groups the PostgreSQL repositories.
type Repositories struct {
	Users        *repository.UserRepository
	Teachers     *repository.TeacherRepository
	Students     *repository.StudentRepository
	Tasks        *repository.TaskRepository
	WorkSessions *repository.WorkSessionRepository
	Reports      *repository.SalaryReportRepository
}

// Container owns the connections and the services built on them.
type Container struct {
	DB      *sqlx.DB
	Redis   *redis.Client
	Logger  *zap.Logger
	Metrics *service.MetricsService
	Repos   Repositories

	Auth         *service.AuthService
	Users        *service.UserService
	Teachers     *service.TeacherService
	Students     *service.StudentService
	Tasks        *service.TaskService
	WorkSessions *service.WorkSessionService
	Salary       *service.SalaryService
	Reports      *service.SalaryReportService
	Dashboard    *service.DashboardService
}

// Build connects to PostgreSQL and, when enabled, Redis, then wires every
// service. An unreachable Redis only disables caching.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	c := &Container{DB: db, Logger: logger}
	if cfg.Metrics.Enabled {
		c.Metrics = service.NewMetricsService()
	}

	var cacheSvc *service.CacheService
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logger.Warn("redis unavailable, task cache disabled", zap.Error(err))
		} else {
			c.Redis = client
			cacheSvc = service.NewCacheService(repository.NewCacheRepository(client, logger), c.Metrics, cfg.Cache.TaskTTL, logger, true)
		}
	}

	c.Repos = Repositories{
		Users:        repository.NewUserRepository(db),
		Teachers:     repository.NewTeacherRepository(db),
		Students:     repository.NewStudentRepository(db),
		Tasks:        repository.NewTaskRepository(db),
		WorkSessions: repository.NewWorkSessionRepository(db),
		Reports:      repository.NewSalaryReportRepository(db),
	}
	c.wire(cfg, cacheSvc)
	return c, nil
}

func (c *Container) wire(cfg *config.Config, cacheSvc *service.CacheService) {
	validate := validator.New()
	repos := c.Repos
	logger := c.Logger

	c.Auth = service.NewAuthService(repos.Users, validate, logger.Named("auth"), service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             authIssuer,
	})
	c.Users = service.NewUserService(repos.Users, validate, logger.Named("users"))
	c.Teachers = service.NewTeacherService(repos.Teachers, repos.Users, validate, logger.Named("teachers"))
	c.Students = service.NewStudentService(repos.Students, validate, logger.Named("students"))
	c.Tasks = service.NewTaskService(repos.Tasks, cacheSvc, cfg.Payroll.DefaultTaskRate, cfg.Cache.TaskTTL, validate, logger.Named("tasks"))
	c.WorkSessions = service.NewWorkSessionService(repos.WorkSessions, repos.Teachers, repos.Tasks, validate, logger.Named("work_sessions"))

	calculator := payroll.NewCalculator(cfg.Payroll.Location, logger.Named("payroll"))
	c.Salary = service.NewSalaryService(repos.Teachers, repos.WorkSessions, calculator, c.Metrics, logger.Named("salary"))
	c.Reports = service.NewSalaryReportService(repos.Reports, repos.WorkSessions, repos.Teachers, c.Salary, repos.Users, c.Metrics, validate, logger.Named("salary_reports"))
	c.Dashboard = service.NewDashboardService(service.DashboardServiceParams{
		Teachers:       repos.Teachers,
		TeacherCounter: repos.Teachers,
		StudentCounter: repos.Students,
		ReportCounter:  repos.Reports,
		Tasks:          repos.Tasks,
		Sessions:       repos.WorkSessions,
		Salary:         c.Salary,
		Cache:          cacheSvc,
		Logger:         logger.Named("dashboard"),
	})
}

// Close releases the connections.
func (c *Container) Close() error {
	var firstErr error
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			firstErr = fmt.Errorf("close redis: %w", err)
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close postgres: %w", err)
		}
	}
	return firstErr
}
