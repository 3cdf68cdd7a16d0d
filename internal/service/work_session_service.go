package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/tutoring-payroll-api/internal/models"
	"github.com/noah-isme/tutoring-payroll-api/internal/payroll"
	appErrors "github.com/noah-isme/tutoring-payroll-api/pkg/errors"
)

type workSessionRepository interface {
	Create(ctx context.Context, session *models.WorkSession) error
	FindByID(ctx context.Context, id string) (*models.WorkSession, error)
	FindOpenByTeacher(ctx context.Context, teacherID string) (*models.WorkSession, error)
	CloseClock(ctx context.Context, id string, clockOut time.Time, amount decimal.Decimal) error
	List(ctx context.Context, filter models.WorkSessionFilter) ([]models.WorkSession, int, error)
}

type teacherFinder interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	FindByUserID(ctx context.Context, userID string) (*models.Teacher, error)
}

type taskFinder interface {
	FindByID(ctx context.Context, id string) (*models.Task, error)
}

// maxManualHours is the largest value the manual_hours column holds.
var maxManualHours = decimal.RequireFromString("9999.99")

// ManualEntryRequest records self-reported hours.
type ManualEntryRequest struct {
	TeacherID  string           `json:"teacher_id" validate:"omitempty"`
	TaskID     string           `json:"task_id" validate:"required"`
	Hours      decimal.Decimal  `json:"hours"`
	HourlyRate *decimal.Decimal `json:"hourly_rate"`
}

// TimeRangeRequest records an explicit start and end time.
type TimeRangeRequest struct {
	TeacherID  string           `json:"teacher_id" validate:"omitempty"`
	TaskID     string           `json:"task_id" validate:"required"`
	StartTime  time.Time        `json:"start_time" validate:"required"`
	EndTime    time.Time        `json:"end_time" validate:"required"`
	HourlyRate *decimal.Decimal `json:"hourly_rate"`
}

// ClockInRequest opens a clock session.
type ClockInRequest struct {
	TeacherID  string           `json:"teacher_id" validate:"omitempty"`
	TaskID     string           `json:"task_id" validate:"required"`
	HourlyRate *decimal.Decimal `json:"hourly_rate"`
}

// WorkSessionService records teacher work.
type WorkSessionService struct {
	sessions  workSessionRepository
	teachers  teacherFinder
	tasks     taskFinder
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewWorkSessionService constructs the work session service.
func NewWorkSessionService(sessions workSessionRepository, teachers teacherFinder, tasks taskFinder, validate *validator.Validate, logger *zap.Logger) *WorkSessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkSessionService{
		sessions:  sessions,
		teachers:  teachers,
		tasks:     tasks,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// RecordManual stores a manual hours entry.
func (s *WorkSessionService) RecordManual(ctx context.Context, actor models.Actor, req ManualEntryRequest) (*models.WorkSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid work session payload")
	}
	if !req.Hours.IsPositive() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "hours must be greater than zero")
	}
	if !req.Hours.Equal(req.Hours.Round(2)) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "hours must have at most two decimal places")
	}
	if req.Hours.GreaterThan(maxManualHours) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "hours must not exceed 9999.99")
	}
	session := &models.WorkSession{
		EntryType:   models.EntryManual,
		ManualHours: decimal.NewNullDecimal(req.Hours),
	}
	return s.record(ctx, actor, req.TeacherID, req.TaskID, req.HourlyRate, session)
}

// RecordTimeRange stores an explicit time range entry.
func (s *WorkSessionService) RecordTimeRange(ctx context.Context, actor models.Actor, req TimeRangeRequest) (*models.WorkSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid work session payload")
	}
	if !req.EndTime.After(req.StartTime) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end time must be after start time")
	}
	start := req.StartTime.UTC()
	end := req.EndTime.UTC()
	session := &models.WorkSession{
		EntryType: models.EntryTimeRange,
		StartTime: &start,
		EndTime:   &end,
	}
	return s.record(ctx, actor, req.TeacherID, req.TaskID, req.HourlyRate, session)
}

// ClockIn opens a clock session. A teacher may only have one open session.
func (s *WorkSessionService) ClockIn(ctx context.Context, actor models.Actor, req ClockInRequest) (*models.WorkSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid work session payload")
	}
	teacher, err := resolveTeacher(ctx, s.teachers, actor, req.TeacherID)
	if err != nil {
		return nil, err
	}
	open, err := s.sessions.FindOpenByTeacher(ctx, teacher.ID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check open session")
	}
	if open != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "teacher already has an open clock session")
	}

	clockIn := s.now().UTC()
	session := &models.WorkSession{
		EntryType: models.EntryClock,
		ClockIn:   &clockIn,
	}
	return s.store(ctx, teacher, req.TaskID, req.HourlyRate, session)
}

// ClockOut closes an open clock session owned by the caller.
func (s *WorkSessionService) ClockOut(ctx context.Context, actor models.Actor, sessionID string) (*models.WorkSession, error) {
	session, err := s.Get(ctx, actor, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.Open() {
		return nil, appErrors.Clone(appErrors.ErrConflict, "work session is not an open clock session")
	}

	clockOut := s.now().UTC()
	session.ClockOut = &clockOut
	session.TotalAmount = payroll.SessionAmount(*session)
	if err := s.sessions.CloseClock(ctx, session.ID, clockOut, session.TotalAmount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "work session was already closed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clock out")
	}
	s.logger.Info("clocked out",
		zap.String("session_id", session.ID),
		zap.String("teacher_id", session.TeacherID),
		zap.String("amount", session.TotalAmount.StringFixed(2)),
	)
	return session, nil
}

// Get returns a session visible to the actor.
func (s *WorkSessionService) Get(ctx context.Context, actor models.Actor, id string) (*models.WorkSession, error) {
	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "work session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load work session")
	}
	if actor.Role == models.RoleTeacher {
		teacher, err := resolveTeacher(ctx, s.teachers, actor, "")
		if err != nil {
			return nil, err
		}
		if teacher.ID != session.TeacherID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "work session belongs to another teacher")
		}
	}
	return session, nil
}

// OpenSession returns the teacher's open clock session or nil.
func (s *WorkSessionService) OpenSession(ctx context.Context, teacherID string) (*models.WorkSession, error) {
	open, err := s.sessions.FindOpenByTeacher(ctx, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load open session")
	}
	return open, nil
}

// List returns recent sessions, newest first. Teachers only see their own.
func (s *WorkSessionService) List(ctx context.Context, actor models.Actor, filter models.WorkSessionFilter) ([]models.WorkSession, *models.Pagination, error) {
	if actor.Role == models.RoleTeacher {
		teacher, err := resolveTeacher(ctx, s.teachers, actor, filter.TeacherID)
		if err != nil {
			return nil, nil, err
		}
		filter.TeacherID = teacher.ID
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "end_date must not be before start_date")
	}
	sessions, total, err := s.sessions.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list work sessions")
	}
	return sessions, newPagination(filter.Page, filter.PageSize, total), nil
}

func (s *WorkSessionService) record(ctx context.Context, actor models.Actor, teacherID, taskID string, rate *decimal.Decimal, session *models.WorkSession) (*models.WorkSession, error) {
	teacher, err := resolveTeacher(ctx, s.teachers, actor, teacherID)
	if err != nil {
		return nil, err
	}
	return s.store(ctx, teacher, taskID, rate, session)
}

func (s *WorkSessionService) store(ctx context.Context, teacher *models.Teacher, taskID string, rate *decimal.Decimal, session *models.WorkSession) (*models.WorkSession, error) {
	if !teacher.Active {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "teacher is inactive")
	}
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task")
	}
	if rate != nil {
		if rate.IsNegative() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "hourly rate must not be negative")
		}
		session.HourlyRate = decimal.NewNullDecimal(rate.Round(2))
	}

	session.TeacherID = teacher.ID
	session.TaskID = task.ID
	session.Task = *task
	session.TotalAmount = payroll.SessionAmount(*session)

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record work session")
	}
	s.logger.Info("work session recorded",
		zap.String("session_id", session.ID),
		zap.String("teacher_id", teacher.ID),
		zap.String("entry_type", string(session.EntryType)),
	)
	return session, nil
}

// resolveTeacher returns the teacher an operation acts on. Teachers always act
// on themselves; other roles must name the teacher.
func resolveTeacher(ctx context.Context, teachers teacherFinder, actor models.Actor, teacherID string) (*models.Teacher, error) {
	if actor.Role == models.RoleTeacher {
		teacher, err := teachers.FindByUserID(ctx, actor.UserID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrForbidden, "account has no teacher profile")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
		}
		if teacherID != "" && teacherID != teacher.ID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "teachers may only access their own records")
		}
		return teacher, nil
	}
	if teacherID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher_id is required")
	}
	teacher, err := teachers.FindByID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}
