package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/tutoring-payroll-api/internal/models"
	"github.com/noah-isme/tutoring-payroll-api/internal/payroll"
	appErrors "github.com/noah-isme/tutoring-payroll-api/pkg/errors"
	"github.com/noah-isme/tutoring-payroll-api/pkg/export"
)

type salaryReportRepository interface {
	Create(ctx context.Context, report *models.SalaryReport) error
	ReplaceForWindow(ctx context.Context, report *models.SalaryReport) (int64, error)
	FindLatestForWindow(ctx context.Context, teacherID string, start, end time.Time) (*models.SalaryReport, error)
	FindByID(ctx context.Context, id string) (*models.SalaryReport, error)
	List(ctx context.Context, filter models.SalaryReportFilter) ([]models.SalaryReport, int, error)
	SoftDelete(ctx context.Context, id string) error
	Purge(ctx context.Context, id string) error
}

type storedAmountRepository interface {
	SumStoredAmount(ctx context.Context, teacherID string, start, end time.Time) (decimal.Decimal, error)
}

type auditLogRepository interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type documentRenderer interface {
	Render(doc export.Document) ([]byte, error)
}

// Export formats.
const (
	ExportCSV = "csv"
	ExportPDF = "pdf"
)

// CreateSalaryReportRequest asks for the report of a teacher and month.
type CreateSalaryReportRequest struct {
	TeacherID string  `json:"teacher_id" validate:"required"`
	Year      int     `json:"year" validate:"required,min=1,max=9999"`
	Month     int     `json:"month" validate:"required,min=1,max=12"`
	Notes     *string `json:"notes" validate:"omitempty,max=500"`
}

// ExportedReport is a rendered report file.
type ExportedReport struct {
	Filename    string
	ContentType string
	Content     []byte
}

// SalaryReportService manages salary report markers. The figures returned
// with a report are always recomputed from the current work sessions.
type SalaryReportService struct {
	reports   salaryReportRepository
	stored    storedAmountRepository
	teachers  teacherFinder
	salary    *SalaryService
	audit     auditLogRepository
	metrics   *MetricsService
	csv       documentRenderer
	pdf       documentRenderer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSalaryReportService constructs the salary report service.
func NewSalaryReportService(
	reports salaryReportRepository,
	stored storedAmountRepository,
	teachers teacherFinder,
	salary *SalaryService,
	audit auditLogRepository,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *SalaryReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SalaryReportService{
		reports:   reports,
		stored:    stored,
		teachers:  teachers,
		salary:    salary,
		audit:     audit,
		metrics:   metrics,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		validator: validate,
		logger:    logger,
	}
}

// Create computes the report and stores a new marker for the window,
// replacing any visible marker for the same teacher and window.
func (s *SalaryReportService) Create(ctx context.Context, actor models.Actor, req CreateSalaryReportRequest) (*models.SalaryReportView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid salary report payload")
	}
	teacher, err := resolveTeacher(ctx, s.teachers, actor, req.TeacherID)
	if err != nil {
		return nil, err
	}
	w, err := s.salary.Window(req.Year, req.Month)
	if err != nil {
		return nil, err
	}
	data, err := s.salary.Compute(ctx, teacher, w, "report_create")
	if err != nil {
		return nil, err
	}

	report := newReportMarker(teacher, w, data, actor.UserID, normalizeOptional(req.Notes))
	replaced, err := s.reports.ReplaceForWindow(ctx, report)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store salary report")
	}

	s.metrics.RecordReportOperation("create")
	s.recordAudit(ctx, actor, models.AuditActionReportCreate, report.ID, map[string]interface{}{
		"teacher_id":   teacher.ID,
		"period":       data.Period,
		"total_hours":  report.TotalHours.String(),
		"total_amount": report.TotalAmount.StringFixed(2),
		"replaced":     replaced,
	})
	s.logger.Info("salary report created",
		zap.String("report_id", report.ID),
		zap.String("teacher_id", teacher.ID),
		zap.String("period", data.Period),
		zap.Int64("replaced", replaced),
	)
	return &models.SalaryReportView{Report: *report, Data: data}, nil
}

// CurrentMonth returns the year and month of now in the payroll time zone.
func (s *SalaryReportService) CurrentMonth(now time.Time) (int, int) {
	return s.salary.CurrentMonth(now)
}

// View returns the report for a teacher and month, creating the marker when
// none exists yet.
func (s *SalaryReportService) View(ctx context.Context, actor models.Actor, teacherID string, year, month int) (*models.SalaryReportView, error) {
	teacher, err := resolveTeacher(ctx, s.teachers, actor, teacherID)
	if err != nil {
		return nil, err
	}
	w, err := s.salary.Window(year, month)
	if err != nil {
		return nil, err
	}
	data, err := s.salary.Compute(ctx, teacher, w, "report_view")
	if err != nil {
		return nil, err
	}

	report, err := s.reports.FindLatestForWindow(ctx, teacher.ID, w.Start, w.End)
	switch {
	case err == nil:
		report.TeacherName = teacher.DisplayName()
	case errors.Is(err, sql.ErrNoRows):
		report = newReportMarker(teacher, w, data, actor.UserID, nil)
		if err := s.reports.Create(ctx, report); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store salary report")
		}
		s.metrics.RecordReportOperation("create")
		s.recordAudit(ctx, actor, models.AuditActionReportCreate, report.ID, map[string]interface{}{
			"teacher_id": teacher.ID,
			"period":     data.Period,
		})
	default:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load salary report")
	}

	s.metrics.RecordReportOperation("view")
	return &models.SalaryReportView{Report: *report, Data: data}, nil
}

// Get returns a stored report with freshly computed figures.
func (s *SalaryReportService) Get(ctx context.Context, actor models.Actor, id string) (*models.SalaryReportView, error) {
	report, teacher, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	data, err := s.salary.Compute(ctx, teacher, s.salary.WindowFrom(report.StartDate, report.EndDate), "report_view")
	if err != nil {
		return nil, err
	}
	s.metrics.RecordReportOperation("view")
	return &models.SalaryReportView{Report: *report, Data: data}, nil
}

// List returns visible reports, newest first. Teachers only see their own.
func (s *SalaryReportService) List(ctx context.Context, actor models.Actor, filter models.SalaryReportFilter) ([]models.SalaryReport, *models.Pagination, error) {
	if actor.Role == models.RoleTeacher {
		teacher, err := resolveTeacher(ctx, s.teachers, actor, filter.TeacherID)
		if err != nil {
			return nil, nil, err
		}
		filter.TeacherID = teacher.ID
	}
	reports, total, err := s.reports.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list salary reports")
	}
	return reports, newPagination(filter.Page, filter.PageSize, total), nil
}

// Delete hides a report, or removes it permanently when permanent is set.
func (s *SalaryReportService) Delete(ctx context.Context, actor models.Actor, id string, permanent bool) error {
	action := models.AuditActionReportDelete
	operation := "soft_delete"
	remove := s.reports.SoftDelete
	if permanent {
		action = models.AuditActionReportPurge
		operation = "purge"
		remove = s.reports.Purge
	}
	if err := remove(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "salary report not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete salary report")
	}
	s.metrics.RecordReportOperation(operation)
	s.recordAudit(ctx, actor, action, id, map[string]interface{}{"permanent": permanent})
	return nil
}

// Reconcile compares the snapshot stored with a report against a fresh
// computation and against the amounts stored on the sessions themselves.
func (s *SalaryReportService) Reconcile(ctx context.Context, actor models.Actor, id string) (*models.ReportReconciliation, error) {
	report, teacher, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	w := s.salary.WindowFrom(report.StartDate, report.EndDate)
	data, err := s.salary.Compute(ctx, teacher, w, "reconcile")
	if err != nil {
		return nil, err
	}
	lines, err := s.stored.SumStoredAmount(ctx, teacher.ID, w.Start, w.End)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum stored session amounts")
	}

	computedHours := data.TotalHours.Round(2)
	computedAmount := data.TotalSalary.Round(2)
	result := &models.ReportReconciliation{
		ReportID:           report.ID,
		Period:             data.Period,
		StoredHours:        report.TotalHours,
		StoredAmount:       report.TotalAmount,
		ComputedHours:      computedHours,
		ComputedAmount:     computedAmount,
		SessionLinesAmount: lines,
		Consistent:         report.TotalHours.Equal(computedHours) && report.TotalAmount.Equal(computedAmount),
	}
	if !result.Consistent {
		s.logger.Warn("salary report drifted from recorded work",
			zap.String("report_id", report.ID),
			zap.String("stored_amount", report.TotalAmount.StringFixed(2)),
			zap.String("computed_amount", computedAmount.StringFixed(2)),
		)
	}
	s.metrics.RecordReportOperation("reconcile")
	return result, nil
}

// Export renders a report as CSV or PDF.
func (s *SalaryReportService) Export(ctx context.Context, actor models.Actor, id, format string) (*ExportedReport, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	var (
		renderer    documentRenderer
		contentType string
	)
	switch format {
	case ExportCSV:
		renderer, contentType = s.csv, "text/csv"
	case ExportPDF:
		renderer, contentType = s.pdf, "application/pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	view, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	content, err := renderer.Render(reportDocument(view.Data))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render salary report")
	}
	s.metrics.RecordReportOperation("export_" + format)
	return &ExportedReport{
		Filename:    fmt.Sprintf("salary-%s-%s.%s", view.Data.TeacherID, view.Data.StartDate.Format("2006-01"), format),
		ContentType: contentType,
		Content:     content,
	}, nil
}

func (s *SalaryReportService) load(ctx context.Context, actor models.Actor, id string) (*models.SalaryReport, *models.Teacher, error) {
	report, err := s.reports.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "salary report not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load salary report")
	}
	teacher, err := resolveTeacher(ctx, s.teachers, actor, report.TeacherID)
	if err != nil {
		return nil, nil, err
	}
	return report, teacher, nil
}

func (s *SalaryReportService) recordAudit(ctx context.Context, actor models.Actor, action, reportID string, values map[string]interface{}) {
	if s.audit == nil {
		return
	}
	payload, _ := json.Marshal(values)
	entry := &models.AuditLog{
		Action:     action,
		Resource:   "salary_report",
		ResourceID: &reportID,
		NewValues:  payload,
	}
	if actor.UserID != "" {
		userID := actor.UserID
		entry.UserID = &userID
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
	}
}

func newReportMarker(teacher *models.Teacher, w payroll.Window, data models.ReportData, createdBy string, notes *string) *models.SalaryReport {
	return &models.SalaryReport{
		TeacherID:   teacher.ID,
		StartDate:   w.Start,
		EndDate:     w.End,
		TotalHours:  data.TotalHours.Round(2),
		TotalAmount: data.TotalSalary.Round(2),
		CreatedBy:   createdBy,
		Notes:       notes,
		TeacherName: teacher.DisplayName(),
	}
}

func reportDocument(data models.ReportData) export.Document {
	tasks := export.Table{
		Title:   "Task Summary",
		Headers: []string{"Task", "Sessions", "Hours", "Rate", "Total"},
		Align:   []string{"L", "R", "R", "R", "R"},
	}
	for _, summary := range data.TaskSummaries {
		tasks.Rows = append(tasks.Rows, []string{
			summary.TaskName,
			fmt.Sprintf("%d", summary.SessionCount),
			summary.Hours.StringFixed(2),
			summary.Rate.StringFixed(2),
			summary.Total.StringFixed(2),
		})
	}

	sessions := export.Table{
		Title:   "Sessions",
		Headers: []string{"Date", "Time", "Task", "Entry", "Hours", "Rate", "Total"},
		Align:   []string{"L", "L", "L", "L", "R", "R", "R"},
	}
	for _, detail := range data.SessionDetails {
		sessions.Rows = append(sessions.Rows, []string{
			detail.Date,
			detail.TimeRange,
			detail.TaskName,
			detail.EntryType,
			detail.Hours.StringFixed(2),
			detail.Rate.StringFixed(2),
			detail.Total.StringFixed(2),
		})
	}

	doc := export.Document{
		Title: "Salary Report",
		Fields: []export.Field{
			{Label: "Teacher", Value: data.TeacherName},
			{Label: "Period", Value: data.Period},
		},
		Tables: []export.Table{tasks, sessions},
		Footer: []export.Field{
			{Label: "Total Hours", Value: data.TotalHours.StringFixed(2)},
			{Label: "Total Salary", Value: data.TotalSalary.StringFixed(2)},
		},
	}
	if len(data.Skipped) > 0 {
		doc.Footer = append(doc.Footer, export.Field{Label: "Skipped Sessions", Value: fmt.Sprintf("%d", len(data.Skipped))})
	}
	return doc
}
