package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutoring-payroll-api/internal/models"
	appErrors "github.com/noah-isme/tutoring-payroll-api/pkg/errors"
)

type mockWorkSessionRepo struct {
	items      map[string]*models.WorkSession
	created    []*models.WorkSession
	lastFilter models.WorkSessionFilter
	closeErr   error
}

func (m *mockWorkSessionRepo) Create(ctx context.Context, session *models.WorkSession) error {
	if m.items == nil {
		m.items = make(map[string]*models.WorkSession)
	}
	if session.ID == "" {
		session.ID = "ws-new"
	}
	cp := *session
	m.items[session.ID] = &cp
	m.created = append(m.created, &cp)
	return nil
}

func (m *mockWorkSessionRepo) FindByID(ctx context.Context, id string) (*models.WorkSession, error) {
	if session, ok := m.items[id]; ok {
		cp := *session
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockWorkSessionRepo) FindOpenByTeacher(ctx context.Context, teacherID string) (*models.WorkSession, error) {
	for _, session := range m.items {
		if session.TeacherID == teacherID && session.Open() {
			cp := *session
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockWorkSessionRepo) CloseClock(ctx context.Context, id string, clockOut time.Time, amount decimal.Decimal) error {
	if m.closeErr != nil {
		return m.closeErr
	}
	session, ok := m.items[id]
	if !ok || session.ClockOut != nil {
		return sql.ErrNoRows
	}
	session.ClockOut = &clockOut
	session.TotalAmount = amount
	return nil
}

func (m *mockWorkSessionRepo) List(ctx context.Context, filter models.WorkSessionFilter) ([]models.WorkSession, int, error) {
	m.lastFilter = filter
	var out []models.WorkSession
	for _, session := range m.items {
		if filter.TeacherID == "" || session.TeacherID == filter.TeacherID {
			out = append(out, *session)
		}
	}
	return out, len(out), nil
}

type workFixture struct {
	sessions *mockWorkSessionRepo
	teachers *mockTeacherRepo
	tasks    *mockTaskRepo
	svc      *WorkSessionService
}

var (
	teacherActor = models.Actor{UserID: "user-1", Role: models.RoleTeacher}
	adminActor   = models.Actor{UserID: "admin", Role: models.RoleSuperuser}
)

func newWorkFixture(now time.Time) *workFixture {
	f := &workFixture{
		sessions: &mockWorkSessionRepo{},
		teachers: &mockTeacherRepo{
			items: map[string]*models.Teacher{
				"teacher-1": {ID: "teacher-1", UserID: "user-1", FullName: "Ana", Active: true},
				"teacher-2": {ID: "teacher-2", UserID: "user-2", FullName: "Ben", Active: true},
			},
			byUser: map[string]string{"user-1": "teacher-1", "user-2": "teacher-2"},
		},
		tasks: &mockTaskRepo{items: map[string]*models.Task{
			"task-1": {ID: "task-1", Name: "Tutoring", HourlyRate: decimal.NewFromInt(20)},
		}},
	}
	f.svc = NewWorkSessionService(f.sessions, f.teachers, f.tasks, nil, nil)
	f.svc.now = func() time.Time { return now }
	return f
}

func TestRecordManualComputesAmount(t *testing.T) {
	f := newWorkFixture(time.Now())

	session, err := f.svc.RecordManual(context.Background(), teacherActor, ManualEntryRequest{
		TaskID: "task-1",
		Hours:  decimal.RequireFromString("1.25"),
	})
	require.NoError(t, err)
	assert.Equal(t, "teacher-1", session.TeacherID)
	assert.Equal(t, models.EntryManual, session.EntryType)
	assert.Equal(t, "25.00", session.TotalAmount.StringFixed(2))
}

func TestRecordManualRejectsZeroHours(t *testing.T) {
	f := newWorkFixture(time.Now())

	_, err := f.svc.RecordManual(context.Background(), teacherActor, ManualEntryRequest{TaskID: "task-1", Hours: decimal.Zero})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.sessions.created)
}

func TestRecordManualRejectsHoursTheColumnCannotHold(t *testing.T) {
	cases := map[string]string{
		"three decimals": "1.333",
		"too large":      "10000",
	}
	for name, hours := range cases {
		t.Run(name, func(t *testing.T) {
			f := newWorkFixture(time.Now())

			_, err := f.svc.RecordManual(context.Background(), teacherActor, ManualEntryRequest{TaskID: "task-1", Hours: decimal.RequireFromString(hours)})
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
			assert.Empty(t, f.sessions.created)
		})
	}
}

func TestRecordManualAcceptsLargestStorableHours(t *testing.T) {
	f := newWorkFixture(time.Now())

	session, err := f.svc.RecordManual(context.Background(), teacherActor, ManualEntryRequest{
		TaskID: "task-1",
		Hours:  decimal.RequireFromString("9999.99"),
	})
	require.NoError(t, err)
	assert.Equal(t, "199999.80", session.TotalAmount.StringFixed(2))
}

func TestRecordTimeRangeRoundsAndOverrides(t *testing.T) {
	f := newWorkFixture(time.Now())
	start := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	rate := decimal.NewFromInt(35)

	session, err := f.svc.RecordTimeRange(context.Background(), teacherActor, TimeRangeRequest{
		TaskID:     "task-1",
		StartTime:  start,
		EndTime:    start.Add(90 * time.Minute),
		HourlyRate: &rate,
	})
	require.NoError(t, err)
	assert.True(t, session.HourlyRate.Valid)
	assert.Equal(t, "70.00", session.TotalAmount.StringFixed(2))
}

func TestRecordTimeRangeRejectsInvertedRange(t *testing.T) {
	f := newWorkFixture(time.Now())
	start := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)

	_, err := f.svc.RecordTimeRange(context.Background(), teacherActor, TimeRangeRequest{
		TaskID:    "task-1",
		StartTime: start,
		EndTime:   start,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTeacherCannotRecordForAnotherTeacher(t *testing.T) {
	f := newWorkFixture(time.Now())

	_, err := f.svc.RecordManual(context.Background(), teacherActor, ManualEntryRequest{
		TeacherID: "teacher-2",
		TaskID:    "task-1",
		Hours:     decimal.NewFromInt(1),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestSuperuserMustNameTeacher(t *testing.T) {
	f := newWorkFixture(time.Now())

	_, err := f.svc.RecordManual(context.Background(), adminActor, ManualEntryRequest{TaskID: "task-1", Hours: decimal.NewFromInt(1)})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	session, err := f.svc.RecordManual(context.Background(), adminActor, ManualEntryRequest{TeacherID: "teacher-2", TaskID: "task-1", Hours: decimal.NewFromInt(1)})
	require.NoError(t, err)
	assert.Equal(t, "teacher-2", session.TeacherID)
}

func TestClockInConflictsWithOpenSession(t *testing.T) {
	f := newWorkFixture(time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC))

	session, err := f.svc.ClockIn(context.Background(), teacherActor, ClockInRequest{TaskID: "task-1"})
	require.NoError(t, err)
	assert.True(t, session.Open())
	assert.True(t, session.TotalAmount.IsZero())

	_, err = f.svc.ClockIn(context.Background(), teacherActor, ClockInRequest{TaskID: "task-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestClockOutStoresRoundedAmount(t *testing.T) {
	clockIn := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	f := newWorkFixture(clockIn)

	opened, err := f.svc.ClockIn(context.Background(), teacherActor, ClockInRequest{TaskID: "task-1"})
	require.NoError(t, err)

	f.svc.now = func() time.Time { return clockIn.Add(2*time.Hour + 20*time.Minute) }
	closed, err := f.svc.ClockOut(context.Background(), teacherActor, opened.ID)
	require.NoError(t, err)
	require.NotNil(t, closed.ClockOut)
	assert.Equal(t, "40.00", closed.TotalAmount.StringFixed(2))
	assert.Equal(t, "40.00", f.sessions.items[opened.ID].TotalAmount.StringFixed(2))

	_, err = f.svc.ClockOut(context.Background(), teacherActor, opened.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestClockOutOnlyByOwner(t *testing.T) {
	f := newWorkFixture(time.Now())
	opened, err := f.svc.ClockIn(context.Background(), teacherActor, ClockInRequest{TaskID: "task-1"})
	require.NoError(t, err)

	other := models.Actor{UserID: "user-2", Role: models.RoleTeacher}
	_, err = f.svc.ClockOut(context.Background(), other, opened.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestListScopesTeacherToOwnSessions(t *testing.T) {
	f := newWorkFixture(time.Now())

	_, _, err := f.svc.List(context.Background(), teacherActor, models.WorkSessionFilter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, "teacher-1", f.sessions.lastFilter.TeacherID)

	_, _, err = f.svc.List(context.Background(), models.Actor{UserID: "insp", Role: models.RoleInspector}, models.WorkSessionFilter{})
	require.NoError(t, err)
	assert.Equal(t, "", f.sessions.lastFilter.TeacherID)
}
