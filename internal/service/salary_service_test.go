package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutoring-payroll-api/internal/models"
	"github.com/noah-isme/tutoring-payroll-api/internal/payroll"
	appErrors "github.com/noah-isme/tutoring-payroll-api/pkg/errors"
)

type mockRangeRepo struct {
	sessions []models.WorkSession
	calls    int
	start    time.Time
	end      time.Time
}

func (m *mockRangeRepo) ListForTeacherInRange(ctx context.Context, teacherID string, start, end time.Time) ([]models.WorkSession, error) {
	m.calls++
	m.start, m.end = start, end
	var out []models.WorkSession
	for _, ws := range m.sessions {
		if ws.TeacherID == teacherID {
			out = append(out, ws)
		}
	}
	return out, nil
}

func marchSessions() []models.WorkSession {
	task := models.Task{ID: "task-1", Name: "Tutoring", HourlyRate: decimal.NewFromInt(20)}
	in := time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC)
	out := in.Add(2*time.Hour + 20*time.Minute)
	open := time.Date(2024, 3, 7, 9, 0, 0, 0, time.UTC)
	return []models.WorkSession{
		{
			ID: "ws-1", TeacherID: "teacher-1", TaskID: task.ID, Task: task,
			EntryType:   models.EntryManual,
			ManualHours: decimal.NewNullDecimal(decimal.NewFromInt(3)),
			CreatedAt:   time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC),
		},
		{
			ID: "ws-2", TeacherID: "teacher-1", TaskID: task.ID, Task: task,
			EntryType: models.EntryClock,
			ClockIn:   &in,
			ClockOut:  &out,
			CreatedAt: in,
		},
		{
			ID: "ws-3", TeacherID: "teacher-1", TaskID: task.ID, Task: task,
			EntryType: models.EntryClock,
			ClockIn:   &open,
			CreatedAt: open,
		},
	}
}

func newTestSalaryService(metrics *MetricsService) (*SalaryService, *mockRangeRepo) {
	teachers := &mockTeacherRepo{
		items: map[string]*models.Teacher{
			"teacher-1": {ID: "teacher-1", UserID: "user-1", FullName: "Ana", Active: true},
			"teacher-2": {ID: "teacher-2", UserID: "user-2", FullName: "Ben", Active: true},
		},
		byUser: map[string]string{"user-1": "teacher-1", "user-2": "teacher-2"},
	}
	repo := &mockRangeRepo{sessions: marchSessions()}
	return NewSalaryService(teachers, repo, payroll.NewCalculator(time.UTC, nil), metrics, nil), repo
}

func TestSalaryServiceCalculate(t *testing.T) {
	metrics := NewMetricsService()
	svc, repo := newTestSalaryService(metrics)

	data, err := svc.Calculate(context.Background(), models.Actor{UserID: "user-1", Role: models.RoleTeacher}, "", 2024, 3)
	require.NoError(t, err)

	assert.Equal(t, "March 2024", data.Period)
	assert.Equal(t, "100.00", data.TotalSalary.StringFixed(2))
	require.Len(t, data.Skipped, 1)
	assert.Equal(t, "ws-3", data.Skipped[0].SessionID)

	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), repo.start)
	assert.Equal(t, time.Date(2024, 3, 31, 23, 59, 59, 999999000, time.UTC), repo.end)

	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(1), snapshot.SalaryCalculations)
	assert.Equal(t, uint64(1), snapshot.SkippedSessions)
	assert.Equal(t, uint64(1), snapshot.DBQueryCount)
	assert.Equal(t, appErrors.ErrIncompleteSession.Code, data.Skipped[0].Code)
}

func TestSalaryServiceTeacherCannotSeeOthers(t *testing.T) {
	svc, repo := newTestSalaryService(nil)

	_, err := svc.Calculate(context.Background(), models.Actor{UserID: "user-2", Role: models.RoleTeacher}, "teacher-1", 2024, 3)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Zero(t, repo.calls)
}

func TestSalaryServiceInspectorAndUnknownTeacher(t *testing.T) {
	svc, _ := newTestSalaryService(nil)
	inspector := models.Actor{UserID: "insp", Role: models.RoleInspector}

	data, err := svc.Calculate(context.Background(), inspector, "teacher-2", 2024, 3)
	require.NoError(t, err)
	assert.True(t, data.TotalSalary.IsZero())
	assert.Empty(t, data.TaskSummaries)

	_, err = svc.Calculate(context.Background(), inspector, "missing", 2024, 3)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSalaryServiceRejectsInvalidMonth(t *testing.T) {
	svc, repo := newTestSalaryService(nil)

	_, err := svc.CalculateByID(context.Background(), "teacher-1", 2024, 13)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Zero(t, repo.calls)
}

func TestSalaryServiceCurrentMonth(t *testing.T) {
	svc, _ := newTestSalaryService(nil)

	year, month := svc.CurrentMonth(time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC))
	assert.Equal(t, 2024, year)
	assert.Equal(t, 12, month)
}
