package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/tutoring-payroll-api/internal/models"
	"github.com/noah-isme/tutoring-payroll-api/internal/payroll"
	appErrors "github.com/noah-isme/tutoring-payroll-api/pkg/errors"
)

type sessionRangeRepository interface {
	ListForTeacherInRange(ctx context.Context, teacherID string, start, end time.Time) ([]models.WorkSession, error)
}

// SalaryService computes monthly salaries from recorded work sessions.
type SalaryService struct {
	teachers   teacherFinder
	sessions   sessionRangeRepository
	calculator *payroll.Calculator
	metrics    *MetricsService
	logger     *zap.Logger
}

// NewSalaryService constructs the salary service.
func NewSalaryService(teachers teacherFinder, sessions sessionRangeRepository, calculator *payroll.Calculator, metrics *MetricsService, logger *zap.Logger) *SalaryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if calculator == nil {
		calculator = payroll.NewCalculator(time.UTC, logger)
	}
	return &SalaryService{teachers: teachers, sessions: sessions, calculator: calculator, metrics: metrics, logger: logger}
}

// Window returns the month window in the payroll time zone.
func (s *SalaryService) Window(year, month int) (payroll.Window, error) {
	return payroll.MonthWindow(year, month, s.calculator.Location())
}

// WindowFrom rebuilds a stored window with its bounds in the payroll time
// zone. The database hands timestamps back in UTC.
func (s *SalaryService) WindowFrom(start, end time.Time) payroll.Window {
	loc := s.calculator.Location()
	return payroll.Window{Start: start.In(loc), End: end.In(loc)}
}

// Calculate returns the salary of a teacher for a month. Teachers may only
// calculate their own salary.
func (s *SalaryService) Calculate(ctx context.Context, actor models.Actor, teacherID string, year, month int) (*models.ReportData, error) {
	teacher, err := resolveTeacher(ctx, s.teachers, actor, teacherID)
	if err != nil {
		return nil, err
	}
	w, err := s.Window(year, month)
	if err != nil {
		return nil, err
	}
	data, err := s.Compute(ctx, teacher, w, "api")
	if err != nil {
		return nil, err
	}
	return &data, nil
}

// CalculateByID computes a salary without caller checks. It backs the admin CLI.
func (s *SalaryService) CalculateByID(ctx context.Context, teacherID string, year, month int) (*models.ReportData, error) {
	return s.Calculate(ctx, models.Actor{Role: models.RoleSuperuser}, teacherID, year, month)
}

// Compute loads the teacher's sessions inside w and runs the calculator.
// source labels the calculation in metrics.
func (s *SalaryService) Compute(ctx context.Context, teacher *models.Teacher, w payroll.Window, source string) (models.ReportData, error) {
	started := time.Now()
	sessions, err := s.sessions.ListForTeacherInRange(ctx, teacher.ID, w.Start, w.End)
	s.metrics.ObserveDBQuery("work_sessions_in_range", time.Since(started))
	if err != nil {
		return models.ReportData{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load work sessions")
	}

	data := s.calculator.Compute(*teacher, w, sessions)

	skipped := make(map[string]int, len(data.Skipped))
	for _, sk := range data.Skipped {
		skipped[sk.Code]++
	}
	s.metrics.ObserveSalaryCalculation(source, time.Since(started), skipped)

	s.logger.Debug("salary computed",
		zap.String("teacher_id", teacher.ID),
		zap.String("period", data.Period),
		zap.Int("sessions", len(data.SessionDetails)),
		zap.Int("skipped", len(data.Skipped)),
		zap.String("total", data.TotalSalary.StringFixed(2)),
	)
	return data, nil
}

// CurrentMonth returns the year and month of now in the payroll time zone.
func (s *SalaryService) CurrentMonth(now time.Time) (int, int) {
	w := payroll.WindowFor(now, s.calculator.Location())
	return w.Year(), w.Month()
}
