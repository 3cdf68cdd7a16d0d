package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutoring-payroll-api/internal/models"
	appErrors "github.com/noah-isme/tutoring-payroll-api/pkg/errors"
)

type fakeSalaryCalculator struct {
	teacherID   string
	year, month int
	zone        *time.Location
	err         error
}

func (f *fakeSalaryCalculator) CurrentMonth(now time.Time) (int, int) {
	return currentMonthIn(now, f.zone)
}

func (f *fakeSalaryCalculator) Calculate(_ context.Context, _ models.Actor, teacherID string, year, month int) (*models.ReportData, error) {
	f.teacherID, f.year, f.month = teacherID, year, month
	if f.err != nil {
		return nil, f.err
	}
	return &models.ReportData{TeacherID: teacherID, Period: "March 2024", TotalSalary: decimal.NewFromInt(100)}, nil
}

func TestSalaryHandlerCalculate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	calc := &fakeSalaryCalculator{}
	handler := NewSalaryHandler(calc)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/salary?teacher_id=teacher-1&year=2024&month=3", nil)
	withActor(c, "admin", models.RoleSuperuser)

	handler.Calculate(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "teacher-1", calc.teacherID)
	assert.Equal(t, 2024, calc.year)
	assert.Equal(t, 3, calc.month)

	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "March 2024", envelope.Data["period"])
	assert.Equal(t, "100", envelope.Data["total_salary"])
}

func TestSalaryHandlerDefaultsMonth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	calc := &fakeSalaryCalculator{}
	handler := NewSalaryHandler(calc)
	handler.now = func() time.Time { return time.Date(2025, time.January, 31, 23, 0, 0, 0, time.UTC) }

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/salary", nil)
	withActor(c, "user-1", models.RoleTeacher)

	handler.Calculate(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2025, calc.year)
	assert.Equal(t, 1, calc.month)
}

func TestSalaryHandlerDefaultsMonthInPayrollZone(t *testing.T) {
	gin.SetMode(gin.TestMode)
	calc := &fakeSalaryCalculator{zone: time.FixedZone("WIB", 7*60*60)}
	handler := NewSalaryHandler(calc)
	handler.now = func() time.Time { return time.Date(2025, time.January, 31, 23, 0, 0, 0, time.UTC) }

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/salary", nil)
	withActor(c, "user-1", models.RoleTeacher)

	handler.Calculate(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2025, calc.year)
	assert.Equal(t, 2, calc.month)
}

func TestSalaryHandlerPropagatesForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSalaryHandler(&fakeSalaryCalculator{err: appErrors.Clone(appErrors.ErrForbidden, "teachers may only access their own records")})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/salary?teacher_id=teacher-2", nil)
	withActor(c, "user-1", models.RoleTeacher)

	handler.Calculate(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSalaryHandlerRequiresClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSalaryHandler(&fakeSalaryCalculator{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/salary", nil)

	handler.Calculate(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func currentMonthIn(now time.Time, zone *time.Location) (int, int) {
	if zone == nil {
		zone = time.UTC
	}
	local := now.In(zone)
	return local.Year(), int(local.Month())
}
