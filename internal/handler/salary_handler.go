package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutoring-payroll-api/internal/models"
	appErrors "github.com/noah-isme/tutoring-payroll-api/pkg/errors"
	"github.com/noah-isme/tutoring-payroll-api/pkg/response"
)

type salaryCalculator interface {
	Calculate(ctx context.Context, actor models.Actor, teacherID string, year, month int) (*models.ReportData, error)
	CurrentMonth(now time.Time) (int, int)
}

// SalaryHandler serves live salary computations.
type SalaryHandler struct {
	service salaryCalculator
	now     func() time.Time
}

// NewSalaryHandler constructs the handler.
func NewSalaryHandler(svc salaryCalculator) *SalaryHandler {
	return &SalaryHandler{service: svc, now: time.Now}
}

// Calculate godoc
// @Summary Compute monthly salary
// @Description Computes the salary of a teacher for a calendar month from the current work sessions. Nothing is stored.
// @Tags Salary
// @Produce json
// @Param teacher_id query string false "Teacher ID (ignored for teachers)"
// @Param year query int false "Year, defaults to the current year"
// @Param month query int false "Month 1-12, defaults to the current month"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /salary [get]
func (h *SalaryHandler) Calculate(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	year, month := h.service.CurrentMonth(h.now())
	year, month, err := monthQuery(c, year, month)
	if err != nil {
		response.Error(c, err)
		return
	}
	data, err := h.service.Calculate(c.Request.Context(), actor, strings.TrimSpace(c.Query("teacher_id")), year, month)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, data, nil)
}
