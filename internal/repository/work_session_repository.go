package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/tutoring-payroll-api/internal/models"
)

const workSessionSelect = `SELECT ws.id, ws.teacher_id, ws.task_id, ws.entry_type, ws.manual_hours, ws.clock_in, ws.clock_out, ws.start_time, ws.end_time, ws.hourly_rate, ws.total_amount, ws.created_at, ws.updated_at,
tk.id AS "task.id", tk.name AS "task.name", tk.hourly_rate AS "task.hourly_rate", tk.description AS "task.description", tk.created_at AS "task.created_at", tk.updated_at AS "task.updated_at"
FROM work_sessions ws JOIN tasks tk ON tk.id = ws.task_id`

// WorkSessionRepository persists recorded work sessions. Reads always join
// the live task row so rates are never stale.
type WorkSessionRepository struct {
	db *sqlx.DB
}

// NewWorkSessionRepository constructs a WorkSessionRepository.
func NewWorkSessionRepository(db *sqlx.DB) *WorkSessionRepository {
	return &WorkSessionRepository{db: db}
}

// Create inserts a work session.
func (r *WorkSessionRepository) Create(ctx context.Context, session *models.WorkSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	const query = `INSERT INTO work_sessions (id, teacher_id, task_id, entry_type, manual_hours, clock_in, clock_out, start_time, end_time, hourly_rate, total_amount, created_at, updated_at)
		VALUES (:id, :teacher_id, :task_id, :entry_type, :manual_hours, :clock_in, :clock_out, :start_time, :end_time, :hourly_rate, :total_amount, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create work session: %w", err)
	}
	return nil
}

// FindByID returns a work session with its task.
func (r *WorkSessionRepository) FindByID(ctx context.Context, id string) (*models.WorkSession, error) {
	var session models.WorkSession
	if err := r.db.GetContext(ctx, &session, workSessionSelect+" WHERE ws.id = $1", id); err != nil {
		return nil, err
	}
	return &session, nil
}

// FindOpenByTeacher returns the teacher's clock session that has not been
// clocked out yet.
func (r *WorkSessionRepository) FindOpenByTeacher(ctx context.Context, teacherID string) (*models.WorkSession, error) {
	query := workSessionSelect + " WHERE ws.teacher_id = $1 AND ws.entry_type = $2 AND ws.clock_out IS NULL ORDER BY ws.created_at DESC LIMIT 1"
	var session models.WorkSession
	if err := r.db.GetContext(ctx, &session, query, teacherID, models.EntryClock); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find open work session: %w", err)
	}
	return &session, nil
}

// CloseClock sets clock_out and the line amount on an open clock session.
// It returns sql.ErrNoRows when the session is no longer open.
func (r *WorkSessionRepository) CloseClock(ctx context.Context, id string, clockOut time.Time, amount decimal.Decimal) error {
	const query = `UPDATE work_sessions SET clock_out = $2, total_amount = $3, updated_at = $4 WHERE id = $1 AND clock_out IS NULL`
	res, err := r.db.ExecContext(ctx, query, id, clockOut, amount, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("close work session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("close work session: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListForTeacherInRange returns every session of a teacher created inside
// [start, end], oldest first.
func (r *WorkSessionRepository) ListForTeacherInRange(ctx context.Context, teacherID string, start, end time.Time) ([]models.WorkSession, error) {
	query := workSessionSelect + " WHERE ws.teacher_id = $1 AND ws.created_at >= $2 AND ws.created_at <= $3 ORDER BY ws.created_at ASC"
	var sessions []models.WorkSession
	if err := r.db.SelectContext(ctx, &sessions, query, teacherID, start, end); err != nil {
		return nil, fmt.Errorf("list work sessions in range: %w", err)
	}
	return sessions, nil
}

// List returns sessions matching the filter, newest first, with total count.
func (r *WorkSessionRepository) List(ctx context.Context, filter models.WorkSessionFilter) ([]models.WorkSession, int, error) {
	base := "FROM work_sessions ws JOIN tasks tk ON tk.id = ws.task_id WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("ws.teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.TaskID != "" {
		conditions = append(conditions, fmt.Sprintf("ws.task_id = $%d", len(args)+1))
		args = append(args, filter.TaskID)
	}
	if filter.StartDate != nil {
		conditions = append(conditions, fmt.Sprintf("ws.created_at >= $%d", len(args)+1))
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf("ws.created_at <= $%d", len(args)+1))
		args = append(args, *filter.EndDate)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
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

	query := fmt.Sprintf(`SELECT ws.id, ws.teacher_id, ws.task_id, ws.entry_type, ws.manual_hours, ws.clock_in, ws.clock_out, ws.start_time, ws.end_time, ws.hourly_rate, ws.total_amount, ws.created_at, ws.updated_at,
tk.id AS "task.id", tk.name AS "task.name", tk.hourly_rate AS "task.hourly_rate", tk.description AS "task.description", tk.created_at AS "task.created_at", tk.updated_at AS "task.updated_at"
%s ORDER BY ws.created_at DESC LIMIT %d OFFSET %d`, base, size, offset)
	var sessions []models.WorkSession
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list work sessions: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count work sessions: %w", err)
	}
	return sessions, total, nil
}

// SumStoredAmount adds up the total_amount persisted on the teacher's
// sessions inside [start, end].
func (r *WorkSessionRepository) SumStoredAmount(ctx context.Context, teacherID string, start, end time.Time) (decimal.Decimal, error) {
	const query = `SELECT COALESCE(SUM(total_amount), 0) FROM work_sessions WHERE teacher_id = $1 AND created_at >= $2 AND created_at <= $3`
	var total decimal.Decimal
	if err := r.db.GetContext(ctx, &total, query, teacherID, start, end); err != nil {
		return decimal.Zero, fmt.Errorf("sum work session amounts: %w", err)
	}
	return total, nil
}
