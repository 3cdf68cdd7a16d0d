package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutoring-payroll-api/internal/models"
	"github.com/noah-isme/tutoring-payroll-api/internal/service"
	appErrors "github.com/noah-isme/tutoring-payroll-api/pkg/errors"
)

type fakeSalaryReportSrv struct {
	created   service.CreateSalaryReportRequest
	viewArgs  []interface{}
	deletedID string
	permanent bool
	format    string
	zone      *time.Location
	err       error
}

func (f *fakeSalaryReportSrv) CurrentMonth(now time.Time) (int, int) {
	return currentMonthIn(now, f.zone)
}

func (f *fakeSalaryReportSrv) Create(_ context.Context, _ models.Actor, req service.CreateSalaryReportRequest) (*models.SalaryReportView, error) {
	f.created = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.SalaryReportView{Report: models.SalaryReport{ID: "rep-1", TeacherID: req.TeacherID}}, nil
}

func (f *fakeSalaryReportSrv) View(_ context.Context, _ models.Actor, teacherID string, year, month int) (*models.SalaryReportView, error) {
	f.viewArgs = []interface{}{teacherID, year, month}
	return &models.SalaryReportView{Report: models.SalaryReport{ID: "rep-1"}}, f.err
}

func (f *fakeSalaryReportSrv) Get(_ context.Context, _ models.Actor, id string) (*models.SalaryReportView, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.SalaryReportView{Report: models.SalaryReport{ID: id}}, nil
}

func (f *fakeSalaryReportSrv) List(context.Context, models.Actor, models.SalaryReportFilter) ([]models.SalaryReport, *models.Pagination, error) {
	return []models.SalaryReport{{ID: "rep-2"}, {ID: "rep-1"}}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 2}, f.err
}

func (f *fakeSalaryReportSrv) Delete(_ context.Context, _ models.Actor, id string, permanent bool) error {
	f.deletedID, f.permanent = id, permanent
	return f.err
}

func (f *fakeSalaryReportSrv) Reconcile(_ context.Context, _ models.Actor, id string) (*models.ReportReconciliation, error) {
	return &models.ReportReconciliation{ReportID: id, StoredAmount: decimal.NewFromInt(100), ComputedAmount: decimal.NewFromInt(100), Consistent: true}, f.err
}

func (f *fakeSalaryReportSrv) Export(_ context.Context, _ models.Actor, _ string, format string) (*service.ExportedReport, error) {
	f.format = format
	if f.err != nil {
		return nil, f.err
	}
	return &service.ExportedReport{Filename: "salary-teacher-1-2024-03.csv", ContentType: "text/csv", Content: []byte("a,b\n")}, nil
}

func TestSalaryReportHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeSalaryReportSrv{}
	handler := NewSalaryReportHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/salary-reports", strings.NewReader(`{"teacher_id":"teacher-1","year":2024,"month":3}`))
	c.Request.Header.Set("Content-Type", "application/json")
	withActor(c, "admin", models.RoleSuperuser)

	handler.Create(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "teacher-1", srv.created.TeacherID)
	assert.Equal(t, 3, srv.created.Month)
}

func TestSalaryReportHandlerViewDefaultsToCurrentMonth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeSalaryReportSrv{}
	handler := NewSalaryReportHandler(srv)
	handler.now = func() time.Time { return time.Date(2024, time.July, 9, 0, 0, 0, 0, time.UTC) }

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/salary-reports/view?teacher_id=teacher-1", nil)
	withActor(c, "admin", models.RoleSuperuser)

	handler.View(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{"teacher-1", 2024, 7}, srv.viewArgs)
}

func TestSalaryReportHandlerViewDefaultsInPayrollZone(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeSalaryReportSrv{zone: time.FixedZone("WIB", 7*60*60)}
	handler := NewSalaryReportHandler(srv)
	handler.now = func() time.Time { return time.Date(2024, time.June, 30, 18, 30, 0, 0, time.UTC) }

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/salary-reports/view?teacher_id=teacher-1", nil)
	withActor(c, "admin", models.RoleSuperuser)

	handler.View(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{"teacher-1", 2024, 7}, srv.viewArgs)
}

func TestSalaryReportHandlerViewRejectsBadMonth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSalaryReportHandler(&fakeSalaryReportSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/salary-reports/view?month=march", nil)
	withActor(c, "admin", models.RoleSuperuser)

	handler.View(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSalaryReportHandlerDeletePermanent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeSalaryReportSrv{}
	handler := NewSalaryReportHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/salary-reports/rep-1?permanent=true", nil)
	c.Params = gin.Params{{Key: "id", Value: "rep-1"}}
	withActor(c, "admin", models.RoleSuperuser)

	handler.Delete(c)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "rep-1", srv.deletedID)
	assert.True(t, srv.permanent)
}

func TestSalaryReportHandlerDeleteNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeSalaryReportSrv{err: appErrors.Clone(appErrors.ErrNotFound, "salary report not found")}
	handler := NewSalaryReportHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/salary-reports/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	withActor(c, "admin", models.RoleSuperuser)

	handler.Delete(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, srv.permanent)
}

func TestSalaryReportHandlerReconcile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSalaryReportHandler(&fakeSalaryReportSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/salary-reports/rep-1/reconcile", nil)
	c.Params = gin.Params{{Key: "id", Value: "rep-1"}}
	withActor(c, "inspector", models.RoleInspector)

	handler.Reconcile(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, true, envelope.Data["consistent"])
	assert.Equal(t, "rep-1", envelope.Data["report_id"])
}

func TestSalaryReportHandlerExport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeSalaryReportSrv{}
	handler := NewSalaryReportHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/salary-reports/rep-1/export", nil)
	c.Params = gin.Params{{Key: "id", Value: "rep-1"}}
	withActor(c, "admin", models.RoleSuperuser)

	handler.Export(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "csv", srv.format)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "salary-teacher-1-2024-03.csv")
	assert.Equal(t, "a,b\n", rec.Body.String())
}
