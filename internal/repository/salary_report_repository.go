package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tutoring-payroll-api/internal/models"
)

const salaryReportSelect = `SELECT sr.id, sr.teacher_id, sr.start_date, sr.end_date, sr.total_hours, sr.total_amount, sr.created_by, sr.notes, sr.is_deleted, sr.created_at, u.full_name AS teacher_name
FROM salary_reports sr JOIN teachers t ON t.id = sr.teacher_id JOIN users u ON u.id = t.user_id`

const insertSalaryReportQuery = `INSERT INTO salary_reports (id, teacher_id, start_date, end_date, total_hours, total_amount, created_by, notes, is_deleted, created_at)
	VALUES (:id, :teacher_id, :start_date, :end_date, :total_hours, :total_amount, :created_by, :notes, :is_deleted, :created_at)`

// SalaryReportRepository stores the markers of generated salary reports.
// Rows flagged is_deleted are hidden from every read.
type SalaryReportRepository struct {
	db *sqlx.DB
}

// NewSalaryReportRepository constructs a SalaryReportRepository.
func NewSalaryReportRepository(db *sqlx.DB) *SalaryReportRepository {
	return &SalaryReportRepository{db: db}
}

func prepareSalaryReport(report *models.SalaryReport) {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}
	report.IsDeleted = false
}

// Create inserts a report row without touching existing rows.
func (r *SalaryReportRepository) Create(ctx context.Context, report *models.SalaryReport) error {
	prepareSalaryReport(report)
	if _, err := r.db.NamedExecContext(ctx, insertSalaryReportQuery, report); err != nil {
		return fmt.Errorf("create salary report: %w", err)
	}
	return nil
}

// ReplaceForWindow removes the visible reports sharing the teacher and exact
// window of report, then inserts report, in a single transaction. It returns
// how many rows were replaced.
func (r *SalaryReportRepository) ReplaceForWindow(ctx context.Context, report *models.SalaryReport) (int64, error) {
	prepareSalaryReport(report)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin replace salary report tx: %w", err)
	}
	const deleteQuery = `DELETE FROM salary_reports WHERE teacher_id = $1 AND start_date = $2 AND end_date = $3 AND is_deleted = FALSE`
	res, err := tx.ExecContext(ctx, deleteQuery, report.TeacherID, report.StartDate, report.EndDate)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("delete existing salary reports: %w", err)
	}
	replaced, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("delete existing salary reports: %w", err)
	}
	if _, err := tx.NamedExecContext(ctx, insertSalaryReportQuery, report); err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("create salary report: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit replace salary report tx: %w", err)
	}
	return replaced, nil
}

// FindLatestForWindow returns the most recently created visible report for
// the teacher and exact window.
func (r *SalaryReportRepository) FindLatestForWindow(ctx context.Context, teacherID string, start, end time.Time) (*models.SalaryReport, error) {
	query := salaryReportSelect + " WHERE sr.teacher_id = $1 AND sr.start_date = $2 AND sr.end_date = $3 AND sr.is_deleted = FALSE ORDER BY sr.created_at DESC LIMIT 1"
	var report models.SalaryReport
	if err := r.db.GetContext(ctx, &report, query, teacherID, start, end); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find salary report for window: %w", err)
	}
	return &report, nil
}

// FindByID returns a visible report.
func (r *SalaryReportRepository) FindByID(ctx context.Context, id string) (*models.SalaryReport, error) {
	var report models.SalaryReport
	if err := r.db.GetContext(ctx, &report, salaryReportSelect+" WHERE sr.id = $1 AND sr.is_deleted = FALSE", id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find salary report: %w", err)
	}
	return &report, nil
}

// List returns visible reports, newest first, with total count.
func (r *SalaryReportRepository) List(ctx context.Context, filter models.SalaryReportFilter) ([]models.SalaryReport, int, error) {
	where := " WHERE sr.is_deleted = FALSE"
	var args []interface{}
	if filter.TeacherID != "" {
		where += fmt.Sprintf(" AND sr.teacher_id = $%d", len(args)+1)
		args = append(args, filter.TeacherID)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("%s%s ORDER BY sr.created_at DESC LIMIT %d OFFSET %d", salaryReportSelect, where, size, offset)
	var reports []models.SalaryReport
	if err := r.db.SelectContext(ctx, &reports, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list salary reports: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM salary_reports sr"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count salary reports: %w", err)
	}
	return reports, total, nil
}

// SoftDelete hides a report from reads. It returns sql.ErrNoRows when the
// report does not exist or is already hidden.
func (r *SalaryReportRepository) SoftDelete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE salary_reports SET is_deleted = TRUE WHERE id = $1 AND is_deleted = FALSE`, id)
	if err != nil {
		return fmt.Errorf("soft delete salary report: %w", err)
	}
	return expectAffected(res, "soft delete salary report")
}

// Purge permanently removes a report row, hidden or not.
func (r *SalaryReportRepository) Purge(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM salary_reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("purge salary report: %w", err)
	}
	return expectAffected(res, "purge salary report")
}

// CountActive returns the number of visible reports.
func (r *SalaryReportRepository) CountActive(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM salary_reports WHERE is_deleted = FALSE`); err != nil {
		return 0, fmt.Errorf("count salary reports: %w", err)
	}
	return total, nil
}

func expectAffected(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
