package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/tutoring-payroll-api/internal/models"
	appErrors "github.com/noah-isme/tutoring-payroll-api/pkg/errors"
)

const taskCatalogueKey = "tasks:all"

type taskRepository interface {
	List(ctx context.Context) ([]models.Task, error)
	FindByID(ctx context.Context, id string) (*models.Task, error)
	Create(ctx context.Context, task *models.Task) error
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id string) error
	HasSessions(ctx context.Context, id string) (bool, error)
}

// TaskRequest holds the payload for creating or updating a task. A missing
// rate falls back to the configured default.
type TaskRequest struct {
	Name        string           `json:"name" validate:"required,max=100"`
	HourlyRate  *decimal.Decimal `json:"hourly_rate"`
	Description *string          `json:"description"`
}

// TaskService manages the billable task catalogue.
type TaskService struct {
	repo        taskRepository
	cache       *CacheService
	defaultRate decimal.Decimal
	ttl         time.Duration
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewTaskService constructs the task service. cache may be nil.
func NewTaskService(repo taskRepository, cache *CacheService, defaultRate decimal.Decimal, ttl time.Duration, validate *validator.Validate, logger *zap.Logger) *TaskService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskService{repo: repo, cache: cache, defaultRate: defaultRate, ttl: ttl, validator: validate, logger: logger}
}

// List returns the task catalogue ordered by name.
func (s *TaskService) List(ctx context.Context) ([]models.Task, error) {
	var cached []models.Task
	if s.cache.Get(ctx, taskCatalogueKey, &cached) {
		return cached, nil
	}

	tasks, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tasks")
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	s.cache.Set(ctx, taskCatalogueKey, tasks, s.ttl)
	return tasks, nil
}

// Get returns a task by id.
func (s *TaskService) Get(ctx context.Context, id string) (*models.Task, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task")
	}
	return task, nil
}

// Create adds a task to the catalogue.
func (s *TaskService) Create(ctx context.Context, req TaskRequest) (*models.Task, error) {
	rate, err := s.validate(req)
	if err != nil {
		return nil, err
	}
	task := &models.Task{
		Name:        strings.TrimSpace(req.Name),
		HourlyRate:  rate,
		Description: normalizeOptional(req.Description),
	}
	if err := s.repo.Create(ctx, task); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create task")
	}
	s.cache.Invalidate(ctx, taskCatalogueKey)
	return task, nil
}

// Update modifies a task. The new rate applies to every report computed
// afterwards, including reports for past months.
func (s *TaskService) Update(ctx context.Context, id string, req TaskRequest) (*models.Task, error) {
	rate, err := s.validate(req)
	if err != nil {
		return nil, err
	}
	task, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !task.HourlyRate.Equal(rate) {
		s.logger.Info("task rate changed",
			zap.String("task_id", id),
			zap.String("old_rate", task.HourlyRate.StringFixed(2)),
			zap.String("new_rate", rate.StringFixed(2)),
		)
	}
	task.Name = strings.TrimSpace(req.Name)
	task.HourlyRate = rate
	task.Description = normalizeOptional(req.Description)
	if err := s.repo.Update(ctx, task); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update task")
	}
	s.cache.Invalidate(ctx, taskCatalogueKey)
	return task, nil
}

// Delete removes a task that has no recorded work.
func (s *TaskService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	used, err := s.repo.HasSessions(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check task usage")
	}
	if used {
		return appErrors.Clone(appErrors.ErrConflict, "task has recorded work sessions")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete task")
	}
	s.cache.Invalidate(ctx, taskCatalogueKey)
	return nil
}

func (s *TaskService) validate(req TaskRequest) (decimal.Decimal, error) {
	if err := s.validator.Struct(req); err != nil {
		return decimal.Zero, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task payload")
	}
	if req.HourlyRate == nil {
		return s.defaultRate.Round(2), nil
	}
	if req.HourlyRate.IsNegative() {
		return decimal.Zero, appErrors.Clone(appErrors.ErrValidation, "hourly rate must not be negative")
	}
	return req.HourlyRate.Round(2), nil
}
