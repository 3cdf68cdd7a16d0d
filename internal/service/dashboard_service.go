package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/tutoring-payroll-api/internal/dto"
	"github.com/noah-isme/tutoring-payroll-api/internal/models"
	appErrors "github.com/noah-isme/tutoring-payroll-api/pkg/errors"
)

const adminDashboardKey = "dash:admin"

type activeCounter interface {
	CountActive(ctx context.Context) (int, error)
}

type taskCounter interface {
	Count(ctx context.Context) (int, error)
}

type recentSessionLister interface {
	List(ctx context.Context, filter models.WorkSessionFilter) ([]models.WorkSession, int, error)
	FindOpenByTeacher(ctx context.Context, teacherID string) (*models.WorkSession, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL    time.Duration
	RecentLimit int
}

// DashboardService composes the role specific landing pages.
type DashboardService struct {
	teachers       teacherFinder
	teacherCounter activeCounter
	studentCounter activeCounter
	reportCounter  activeCounter
	tasks          taskCounter
	sessions       recentSessionLister
	salary         *SalaryService
	cache          *CacheService
	logger         *zap.Logger
	now            func() time.Time
	cfg            DashboardServiceConfig
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Teachers       teacherFinder
	TeacherCounter activeCounter
	StudentCounter activeCounter
	ReportCounter  activeCounter
	Tasks          taskCounter
	Sessions       recentSessionLister
	Salary         *SalaryService
	Cache          *CacheService
	Logger         *zap.Logger
	Config         DashboardServiceConfig
}

// NewDashboardService constructs the dashboard service.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Minute
	}
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = 10
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		teachers:       params.Teachers,
		teacherCounter: params.TeacherCounter,
		studentCounter: params.StudentCounter,
		reportCounter:  params.ReportCounter,
		tasks:          params.Tasks,
		sessions:       params.Sessions,
		salary:         params.Salary,
		cache:          params.Cache,
		logger:         logger,
		now:            time.Now,
		cfg:            cfg,
	}
}

// Admin returns record counts and indicates whether they came from cache.
func (s *DashboardService) Admin(ctx context.Context) (*dto.AdminDashboardResponse, bool, error) {
	var cached dto.AdminDashboardResponse
	if s.cache.Get(ctx, adminDashboardKey, &cached) {
		return &cached, true, nil
	}

	summary := &dto.AdminDashboardResponse{GeneratedAt: s.now().UTC()}
	counts := []struct {
		name   string
		target *int
		count  func(context.Context) (int, error)
	}{
		{"teachers", &summary.ActiveTeachers, s.teacherCounter.CountActive},
		{"students", &summary.ActiveStudents, s.studentCounter.CountActive},
		{"tasks", &summary.Tasks, s.tasks.Count},
		{"salary_reports", &summary.SalaryReports, s.reportCounter.CountActive},
	}
	for _, c := range counts {
		value, err := c.count(ctx)
		if err != nil {
			return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count "+c.name)
		}
		*c.target = value
	}

	s.cache.Set(ctx, adminDashboardKey, summary, s.cfg.CacheTTL)
	return summary, false, nil
}

// Teacher returns the open session, the running salary of the current month
// and the latest sessions of the calling teacher. Salary figures are never
// served from cache.
func (s *DashboardService) Teacher(ctx context.Context, actor models.Actor) (*dto.TeacherDashboardResponse, error) {
	teacher, err := resolveTeacher(ctx, s.teachers, actor, "")
	if err != nil {
		return nil, err
	}

	year, month := s.salary.CurrentMonth(s.now())
	w, err := s.salary.Window(year, month)
	if err != nil {
		return nil, err
	}
	data, err := s.salary.Compute(ctx, teacher, w, "dashboard")
	if err != nil {
		return nil, err
	}

	resp := &dto.TeacherDashboardResponse{
		TeacherID:   teacher.ID,
		TeacherName: teacher.DisplayName(),
		CurrentMonth: dto.MonthSalarySummary{
			Period:       data.Period,
			TotalHours:   data.TotalHours,
			TotalSalary:  data.TotalSalary,
			SessionCount: len(data.SessionDetails),
			SkippedCount: len(data.Skipped),
		},
		RecentSessions: []models.WorkSession{},
	}

	open, err := s.sessions.FindOpenByTeacher(ctx, teacher.ID)
	switch {
	case err == nil:
		resp.OpenSession = open
	case !errors.Is(err, sql.ErrNoRows):
		s.logger.Warn("failed to load open session", zap.String("teacher_id", teacher.ID), zap.Error(err))
	}

	recent, _, err := s.sessions.List(ctx, models.WorkSessionFilter{TeacherID: teacher.ID, Page: 1, PageSize: s.cfg.RecentLimit})
	if err != nil {
		s.logger.Warn("failed to load recent sessions", zap.String("teacher_id", teacher.ID), zap.Error(err))
	} else if recent != nil {
		resp.RecentSessions = recent
	}
	return resp, nil
}
