package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tutoring-payroll-api/internal/models"
)

const teacherSelect = `SELECT t.id, t.user_id, u.username, u.email, u.full_name, t.subjects, u.active, t.created_at, t.updated_at FROM teachers t JOIN users u ON u.id = t.user_id`

// TeacherRepository manages persistence for teachers. Identity fields live
// on the linked user account.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// List returns teachers matching filters along with total count.
func (r *TeacherRepository) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	base := "FROM teachers t JOIN users u ON u.id = t.user_id WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("u.active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		conditions = append(conditions, fmt.Sprintf("(LOWER(u.full_name) LIKE $%d OR LOWER(u.email) LIKE $%d OR LOWER(u.username) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, search)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	allowedSorts := map[string]string{
		"full_name":  "u.full_name",
		"username":   "u.username",
		"email":      "u.email",
		"created_at": "t.created_at",
		"updated_at": "t.updated_at",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "t.created_at"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
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

	query := fmt.Sprintf("SELECT t.id, t.user_id, u.username, u.email, u.full_name, t.subjects, u.active, t.created_at, t.updated_at %s ORDER BY %s %s LIMIT %d OFFSET %d", base, column, order, size, offset)
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list teachers: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count teachers: %w", err)
	}

	return teachers, total, nil
}

// FindByID fetches a teacher by ID.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, teacherSelect+" WHERE t.id = $1", id); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// FindByUserID fetches the teacher profile linked to a user account.
func (r *TeacherRepository) FindByUserID(ctx context.Context, userID string) (*models.Teacher, error) {
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, teacherSelect+" WHERE t.user_id = $1", userID); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// CreateWithUser inserts the user account and the teacher profile in one
// transaction.
func (r *TeacherRepository) CreateWithUser(ctx context.Context, user *models.User, teacher *models.Teacher) error {
	prepareUser(user)
	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	teacher.UserID = user.ID
	teacher.CreatedAt = user.CreatedAt
	teacher.UpdatedAt = user.UpdatedAt

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create teacher tx: %w", err)
	}
	if _, err := tx.NamedExecContext(ctx, insertUserQuery, user); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("create teacher user: %w", err)
	}
	const query = `INSERT INTO teachers (id, user_id, subjects, created_at, updated_at) VALUES (:id, :user_id, :subjects, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, teacher); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("create teacher: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create teacher tx: %w", err)
	}
	return nil
}

// Update modifies the teacher profile and the identity fields of its user.
func (r *TeacherRepository) Update(ctx context.Context, teacher *models.Teacher) error {
	teacher.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update teacher tx: %w", err)
	}
	const userQuery = `UPDATE users SET email = :email, full_name = :full_name, active = :active, updated_at = :updated_at WHERE id = :user_id`
	if _, err := tx.NamedExecContext(ctx, userQuery, teacher); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("update teacher user: %w", err)
	}
	const query = `UPDATE teachers SET subjects = :subjects, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, query, teacher); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("update teacher: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update teacher tx: %w", err)
	}
	return nil
}

// Deactivate disables the user account of a teacher. Recorded sessions and
// reports are kept.
func (r *TeacherRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE users SET active = FALSE, updated_at = $2 WHERE id = (SELECT user_id FROM teachers WHERE id = $1)`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate teacher: %w", err)
	}
	return nil
}

// CountActive returns the number of teachers with an active account.
func (r *TeacherRepository) CountActive(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM teachers t JOIN users u ON u.id = t.user_id WHERE u.active = TRUE`
	var total int
	if err := r.db.GetContext(ctx, &total, query); err != nil {
		return 0, fmt.Errorf("count teachers: %w", err)
	}
	return total, nil
}
