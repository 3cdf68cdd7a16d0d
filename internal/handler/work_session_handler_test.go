package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutoring-payroll-api/internal/models"
	"github.com/noah-isme/tutoring-payroll-api/internal/service"
	appErrors "github.com/noah-isme/tutoring-payroll-api/pkg/errors"
)

type fakeWorkSessionSrv struct {
	manual     service.ManualEntryRequest
	clockIn    service.ClockInRequest
	clockOutID string
	filter     models.WorkSessionFilter
	actor      models.Actor
	err        error
}

func (f *fakeWorkSessionSrv) RecordManual(_ context.Context, actor models.Actor, req service.ManualEntryRequest) (*models.WorkSession, error) {
	f.actor, f.manual = actor, req
	if f.err != nil {
		return nil, f.err
	}
	return &models.WorkSession{ID: "ws-1", EntryType: models.EntryManual, TotalAmount: decimal.NewFromInt(25)}, nil
}

func (f *fakeWorkSessionSrv) RecordTimeRange(_ context.Context, actor models.Actor, _ service.TimeRangeRequest) (*models.WorkSession, error) {
	f.actor = actor
	return &models.WorkSession{ID: "ws-2", EntryType: models.EntryTimeRange}, f.err
}

func (f *fakeWorkSessionSrv) ClockIn(_ context.Context, actor models.Actor, req service.ClockInRequest) (*models.WorkSession, error) {
	f.actor, f.clockIn = actor, req
	if f.err != nil {
		return nil, f.err
	}
	return &models.WorkSession{ID: "ws-3", EntryType: models.EntryClock}, nil
}

func (f *fakeWorkSessionSrv) ClockOut(_ context.Context, actor models.Actor, id string) (*models.WorkSession, error) {
	f.actor, f.clockOutID = actor, id
	if f.err != nil {
		return nil, f.err
	}
	return &models.WorkSession{ID: id, EntryType: models.EntryClock}, nil
}

func (f *fakeWorkSessionSrv) Get(_ context.Context, actor models.Actor, id string) (*models.WorkSession, error) {
	f.actor = actor
	return &models.WorkSession{ID: id}, f.err
}

func (f *fakeWorkSessionSrv) List(_ context.Context, actor models.Actor, filter models.WorkSessionFilter) ([]models.WorkSession, *models.Pagination, error) {
	f.actor, f.filter = actor, filter
	return []models.WorkSession{{ID: "ws-1"}}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, f.err
}

func TestWorkSessionHandlerManual(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeWorkSessionSrv{}
	handler := NewWorkSessionHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/work-sessions/manual", strings.NewReader(`{"task_id":"task-1","hours":"1.25"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	withActor(c, "user-1", models.RoleTeacher)

	handler.Manual(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "task-1", srv.manual.TaskID)
	assert.True(t, srv.manual.Hours.Equal(decimal.RequireFromString("1.25")))
	assert.Equal(t, models.RoleTeacher, srv.actor.Role)

	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "ws-1", envelope.Data["id"])
}

func TestWorkSessionHandlerManualRejectsBadJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewWorkSessionHandler(&fakeWorkSessionSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/work-sessions/manual", strings.NewReader(`{"hours":`))
	c.Request.Header.Set("Content-Type", "application/json")
	withActor(c, "user-1", models.RoleTeacher)

	handler.Manual(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWorkSessionHandlerClockInConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeWorkSessionSrv{err: appErrors.Clone(appErrors.ErrConflict, "an open clock session already exists")}
	handler := NewWorkSessionHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/work-sessions/clock-in", strings.NewReader(`{"task_id":"task-1"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	withActor(c, "user-1", models.RoleTeacher)

	handler.ClockIn(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "CONFLICT", envelope.Error["code"])
}

func TestWorkSessionHandlerClockOutUsesPathID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeWorkSessionSrv{}
	handler := NewWorkSessionHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/work-sessions/ws-9/clock-out", nil)
	c.Params = gin.Params{{Key: "id", Value: "ws-9"}}
	withActor(c, "user-1", models.RoleTeacher)

	handler.ClockOut(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ws-9", srv.clockOutID)
}

func TestWorkSessionHandlerListParsesFilters(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeWorkSessionSrv{}
	handler := NewWorkSessionHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/work-sessions?task_id=task-1&start_date=2024-03-01&end_date=2024-03-31&page=2&limit=5", nil)
	withActor(c, "admin", models.RoleSuperuser)

	handler.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "task-1", srv.filter.TaskID)
	require.NotNil(t, srv.filter.StartDate)
	require.NotNil(t, srv.filter.EndDate)
	assert.Equal(t, "2024-03-31", srv.filter.EndDate.Format(dateLayout))
	assert.Equal(t, 2, srv.filter.Page)
	assert.Equal(t, 5, srv.filter.PageSize)
}

func TestWorkSessionHandlerListRejectsBadDate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewWorkSessionHandler(&fakeWorkSessionSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/work-sessions?start_date=03/01/2024", nil)
	withActor(c, "admin", models.RoleSuperuser)

	handler.List(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
