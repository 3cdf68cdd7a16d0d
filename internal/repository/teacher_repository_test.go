package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutoring-payroll-api/internal/models"
)

var teacherRowColumns = []string{"id", "user_id", "username", "email", "full_name", "subjects", "active", "created_at", "updated_at"}

func TestTeacherRepositoryList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	rows := sqlmock.NewRows(teacherRowColumns).
		AddRow("t1", "u1", "jdoe", "a@example.com", "Teacher A", nil, true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM teachers t JOIN users u ON u.id = t.user_id WHERE 1=1 ORDER BY t.created_at DESC LIMIT 20 OFFSET 0")).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM teachers t JOIN users u ON u.id = t.user_id WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, total, err := repo.List(context.Background(), models.TeacherFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "jdoe", list[0].Username)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	active := true
	mock.ExpectQuery(regexp.QuoteMeta("WHERE 1=1 AND u.active = $1 AND (LOWER(u.full_name) LIKE $2 OR LOWER(u.email) LIKE $2 OR LOWER(u.username) LIKE $2) ORDER BY u.full_name ASC LIMIT 10 OFFSET 10")).
		WithArgs(true, "%ann%").
		WillReturnRows(sqlmock.NewRows(teacherRowColumns))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs(true, "%ann%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, _, err := repo.List(context.Background(), models.TeacherFilter{Active: &active, Search: "Ann", Page: 2, PageSize: 10, SortBy: "full_name", SortOrder: "asc"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryCreateWithUser(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO teachers").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	user := &models.User{Username: "jdoe", Email: "a@example.com", Role: models.RoleTeacher, Active: true}
	teacher := &models.Teacher{}
	require.NoError(t, repo.CreateWithUser(context.Background(), user, teacher))
	assert.Equal(t, user.ID, teacher.UserID)
	assert.NotEmpty(t, teacher.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryCreateWithUserRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO teachers").WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	err := repo.CreateWithUser(context.Background(), &models.User{Username: "jdoe"}, &models.Teacher{})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryDeactivate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET active = FALSE")).
		WithArgs("id-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Deactivate(context.Background(), "id-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryFindByUserID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE t.user_id = $1")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(teacherRowColumns).AddRow("t1", "u1", "jdoe", "a@example.com", "Teacher A", "Math", true, time.Now(), time.Now()))

	teacher, err := repo.FindByUserID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "t1", teacher.ID)
	require.NotNil(t, teacher.Subjects)
	assert.Equal(t, "Math", *teacher.Subjects)
}
