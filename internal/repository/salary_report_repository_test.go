package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutoring-payroll-api/internal/models"
)

var salaryReportRowColumns = []string{"id", "teacher_id", "start_date", "end_date", "total_hours", "total_amount", "created_by", "notes", "is_deleted", "created_at", "teacher_name"}

func marchBounds() (time.Time, time.Time) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0).Add(-time.Microsecond)
}

func TestSalaryReportRepositoryReplaceForWindow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSalaryReportRepository(db)

	start, end := marchBounds()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM salary_reports WHERE teacher_id = $1 AND start_date = $2 AND end_date = $3 AND is_deleted = FALSE")).
		WithArgs("t1", start, end).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO salary_reports").
		WithArgs(sqlmock.AnyArg(), "t1", start, end, sqlmock.AnyArg(), sqlmock.AnyArg(), "u-admin", nil, false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	report := &models.SalaryReport{TeacherID: "t1", StartDate: start, EndDate: end, TotalHours: decimal.NewFromInt(5), TotalAmount: decimal.NewFromInt(100), CreatedBy: "u-admin"}
	replaced, err := repo.ReplaceForWindow(context.Background(), report)
	require.NoError(t, err)
	assert.EqualValues(t, 1, replaced)
	assert.NotEmpty(t, report.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSalaryReportRepositoryReplaceRollsBackOnInsertFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSalaryReportRepository(db)

	start, end := marchBounds()
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM salary_reports").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO salary_reports").WillReturnError(errors.New("insert failed"))
	mock.ExpectRollback()

	_, err := repo.ReplaceForWindow(context.Background(), &models.SalaryReport{TeacherID: "t1", StartDate: start, EndDate: end})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSalaryReportRepositoryFindLatestForWindow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSalaryReportRepository(db)

	start, end := marchBounds()
	rows := sqlmock.NewRows(salaryReportRowColumns).
		AddRow("r2", "t1", start, end, "5", "100.00", "u-admin", nil, false, time.Now(), "Jane Doe")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE sr.teacher_id = $1 AND sr.start_date = $2 AND sr.end_date = $3 AND sr.is_deleted = FALSE ORDER BY sr.created_at DESC LIMIT 1")).
		WithArgs("t1", start, end).
		WillReturnRows(rows)

	report, err := repo.FindLatestForWindow(context.Background(), "t1", start, end)
	require.NoError(t, err)
	assert.Equal(t, "r2", report.ID)
	assert.Equal(t, "Jane Doe", report.TeacherName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSalaryReportRepositoryListNewestFirst(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSalaryReportRepository(db)

	start, end := marchBounds()
	rows := sqlmock.NewRows(salaryReportRowColumns).
		AddRow("r2", "t1", start, end, "5", "100.00", "u-admin", nil, false, time.Now(), "Jane Doe")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE sr.is_deleted = FALSE AND sr.teacher_id = $1 ORDER BY sr.created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs("t1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM salary_reports sr WHERE sr.is_deleted = FALSE AND sr.teacher_id = $1")).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	reports, total, err := repo.List(context.Background(), models.SalaryReportFilter{TeacherID: "t1"})
	require.NoError(t, err)
	assert.Len(t, reports, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSalaryReportRepositorySoftDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSalaryReportRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE salary_reports SET is_deleted = TRUE WHERE id = $1 AND is_deleted = FALSE")).
		WithArgs("r1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE salary_reports SET is_deleted = TRUE")).
		WithArgs("r1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.SoftDelete(context.Background(), "r1"))
	assert.ErrorIs(t, repo.SoftDelete(context.Background(), "r1"), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSalaryReportRepositoryPurge(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSalaryReportRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM salary_reports WHERE id = $1")).
		WithArgs("r1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Purge(context.Background(), "r1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
