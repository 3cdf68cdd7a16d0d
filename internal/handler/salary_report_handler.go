package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutoring-payroll-api/internal/models"
	"github.com/noah-isme/tutoring-payroll-api/internal/service"
	appErrors "github.com/noah-isme/tutoring-payroll-api/pkg/errors"
	"github.com/noah-isme/tutoring-payroll-api/pkg/response"
)

type salaryReportService interface {
	Create(ctx context.Context, actor models.Actor, req service.CreateSalaryReportRequest) (*models.SalaryReportView, error)
	View(ctx context.Context, actor models.Actor, teacherID string, year, month int) (*models.SalaryReportView, error)
	Get(ctx context.Context, actor models.Actor, id string) (*models.SalaryReportView, error)
	List(ctx context.Context, actor models.Actor, filter models.SalaryReportFilter) ([]models.SalaryReport, *models.Pagination, error)
	Delete(ctx context.Context, actor models.Actor, id string, permanent bool) error
	Reconcile(ctx context.Context, actor models.Actor, id string) (*models.ReportReconciliation, error)
	Export(ctx context.Context, actor models.Actor, id, format string) (*service.ExportedReport, error)
	CurrentMonth(now time.Time) (int, int)
}

// SalaryReportHandler exposes salary report endpoints.
type SalaryReportHandler struct {
	service salaryReportService
	now     func() time.Time
}

// NewSalaryReportHandler constructs the handler.
func NewSalaryReportHandler(svc salaryReportService) *SalaryReportHandler {
	return &SalaryReportHandler{service: svc, now: time.Now}
}

// Create godoc
// @Summary Generate salary report
// @Description Computes the month and stores a report marker, replacing the existing one for the same window.
// @Tags Salary Reports
// @Accept json
// @Produce json
// @Param payload body service.CreateSalaryReportRequest true "Report request"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /salary-reports [post]
func (h *SalaryReportHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateSalaryReportRequest
	if !bindJSON(c, &req, "invalid salary report payload") {
		return
	}
	view, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, view)
}

// View godoc
// @Summary View monthly salary report
// @Description Returns the report for a teacher and month, creating the marker if it does not exist yet.
// @Tags Salary Reports
// @Produce json
// @Param teacher_id query string false "Teacher ID (ignored for teachers)"
// @Param year query int false "Year"
// @Param month query int false "Month 1-12"
// @Success 200 {object} response.Envelope
// @Router /salary-reports/view [get]
func (h *SalaryReportHandler) View(c *gin.Context) {
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
	view, err := h.service.View(c.Request.Context(), actor, strings.TrimSpace(c.Query("teacher_id")), year, month)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// List godoc
// @Summary List salary reports
// @Description Newest first. Teachers only see their own reports.
// @Tags Salary Reports
// @Produce json
// @Param teacher_id query string false "Teacher ID"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /salary-reports [get]
func (h *SalaryReportHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	filter := models.SalaryReportFilter{TeacherID: strings.TrimSpace(c.Query("teacher_id"))}
	filter.Page, filter.PageSize = pageParams(c)

	reports, pagination, err := h.service.List(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, pagination)
}

// Get godoc
// @Summary Get salary report
// @Tags Salary Reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /salary-reports/{id} [get]
func (h *SalaryReportHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	view, err := h.service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Delete godoc
// @Summary Delete salary report
// @Description Hides the report. With permanent=true the row is removed.
// @Tags Salary Reports
// @Param id path string true "Report ID"
// @Param permanent query bool false "Remove permanently"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /salary-reports/{id} [delete]
func (h *SalaryReportHandler) Delete(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	permanent := boolQuery(c, "permanent")
	if err := h.service.Delete(c.Request.Context(), actor, c.Param("id"), permanent != nil && *permanent); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Reconcile godoc
// @Summary Reconcile salary report
// @Description Compares the stored snapshot with a fresh computation and with the stored session amounts.
// @Tags Salary Reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Router /salary-reports/{id}/reconcile [get]
func (h *SalaryReportHandler) Reconcile(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	result, err := h.service.Reconcile(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Export godoc
// @Summary Export salary report
// @Tags Salary Reports
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Report ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /salary-reports/{id}/export [get]
func (h *SalaryReportHandler) Export(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	file, err := h.service.Export(c.Request.Context(), actor, c.Param("id"), c.DefaultQuery("format", service.ExportCSV))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Content)
}
