package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutoring-payroll-api/internal/models"
)

type fixedCounter struct {
	value int
	err   error
	calls int
}

func (f *fixedCounter) CountActive(context.Context) (int, error) {
	f.calls++
	return f.value, f.err
}

func (f *fixedCounter) Count(context.Context) (int, error) {
	f.calls++
	return f.value, f.err
}

func newDashboardFixture(cache *memoryCache) (*DashboardService, *fixedCounter, *mockWorkSessionRepo) {
	salary, _ := newTestSalaryService(nil)
	teachers := &fixedCounter{value: 4}
	sessions := &mockWorkSessionRepo{}
	var cacheSvc *CacheService
	if cache != nil {
		cacheSvc = NewCacheService(cache, nil, time.Minute, nil, true)
	}
	svc := NewDashboardService(DashboardServiceParams{
		Teachers:       salary.teachers,
		TeacherCounter: teachers,
		StudentCounter: &fixedCounter{value: 12},
		ReportCounter:  &fixedCounter{value: 3},
		Tasks:          &fixedCounter{value: 2},
		Sessions:       sessions,
		Salary:         salary,
		Cache:          cacheSvc,
	})
	svc.now = func() time.Time { return time.Date(2024, 3, 28, 12, 0, 0, 0, time.UTC) }
	return svc, teachers, sessions
}

func TestDashboardServiceAdminComposesAndCaches(t *testing.T) {
	svc, teachers, _ := newDashboardFixture(newMemoryCache())

	first, hit, err := svc.Admin(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 4, first.ActiveTeachers)
	assert.Equal(t, 12, first.ActiveStudents)
	assert.Equal(t, 2, first.Tasks)
	assert.Equal(t, 3, first.SalaryReports)

	second, hit, err := svc.Admin(context.Background())
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, first.ActiveStudents, second.ActiveStudents)
	assert.Equal(t, 1, teachers.calls)
}

func TestDashboardServiceAdminCountFailure(t *testing.T) {
	svc, teachers, _ := newDashboardFixture(nil)
	teachers.err = errors.New("db down")

	_, _, err := svc.Admin(context.Background())
	require.Error(t, err)
}

func TestDashboardServiceTeacher(t *testing.T) {
	svc, _, sessions := newDashboardFixture(nil)
	clockIn := time.Date(2024, 3, 28, 9, 0, 0, 0, time.UTC)
	require.NoError(t, sessions.Create(context.Background(), &models.WorkSession{
		ID:        "open-1",
		TeacherID: "teacher-1",
		TaskID:    "task-1",
		EntryType: models.EntryClock,
		ClockIn:   &clockIn,
		CreatedAt: clockIn,
	}))

	resp, err := svc.Teacher(context.Background(), models.Actor{UserID: "user-1", Role: models.RoleTeacher})
	require.NoError(t, err)
	assert.Equal(t, "teacher-1", resp.TeacherID)
	assert.Equal(t, "March 2024", resp.CurrentMonth.Period)
	assert.Equal(t, "100.00", resp.CurrentMonth.TotalSalary.StringFixed(2))
	assert.Equal(t, 1, resp.CurrentMonth.SkippedCount)
	require.NotNil(t, resp.OpenSession)
	assert.Equal(t, "open-1", resp.OpenSession.ID)
	assert.Len(t, resp.RecentSessions, 1)
}
