package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutoring-payroll-api/internal/models"
	"github.com/noah-isme/tutoring-payroll-api/internal/service"
	appErrors "github.com/noah-isme/tutoring-payroll-api/pkg/errors"
	"github.com/noah-isme/tutoring-payroll-api/pkg/response"
)

type workSessionService interface {
	RecordManual(ctx context.Context, actor models.Actor, req service.ManualEntryRequest) (*models.WorkSession, error)
	RecordTimeRange(ctx context.Context, actor models.Actor, req service.TimeRangeRequest) (*models.WorkSession, error)
	ClockIn(ctx context.Context, actor models.Actor, req service.ClockInRequest) (*models.WorkSession, error)
	ClockOut(ctx context.Context, actor models.Actor, sessionID string) (*models.WorkSession, error)
	Get(ctx context.Context, actor models.Actor, id string) (*models.WorkSession, error)
	List(ctx context.Context, actor models.Actor, filter models.WorkSessionFilter) ([]models.WorkSession, *models.Pagination, error)
}

// WorkSessionHandler records and lists teacher work.
type WorkSessionHandler struct {
	service workSessionService
}

// NewWorkSessionHandler constructs the handler.
func NewWorkSessionHandler(svc workSessionService) *WorkSessionHandler {
	return &WorkSessionHandler{service: svc}
}

// Manual godoc
// @Summary Record manual hours
// @Tags Work Sessions
// @Accept json
// @Produce json
// @Param payload body service.ManualEntryRequest true "Manual entry"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /work-sessions/manual [post]
func (h *WorkSessionHandler) Manual(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.ManualEntryRequest
	if !bindJSON(c, &req, "invalid manual entry payload") {
		return
	}
	session, err := h.service.RecordManual(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// TimeRange godoc
// @Summary Record a worked time range
// @Tags Work Sessions
// @Accept json
// @Produce json
// @Param payload body service.TimeRangeRequest true "Time range entry"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /work-sessions/range [post]
func (h *WorkSessionHandler) TimeRange(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.TimeRangeRequest
	if !bindJSON(c, &req, "invalid time range payload") {
		return
	}
	session, err := h.service.RecordTimeRange(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// ClockIn godoc
// @Summary Start a clock session
// @Tags Work Sessions
// @Accept json
// @Produce json
// @Param payload body service.ClockInRequest true "Clock in"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /work-sessions/clock-in [post]
func (h *WorkSessionHandler) ClockIn(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.ClockInRequest
	if !bindJSON(c, &req, "invalid clock in payload") {
		return
	}
	session, err := h.service.ClockIn(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// ClockOut godoc
// @Summary Close a clock session
// @Tags Work Sessions
// @Produce json
// @Param id path string true "Work session ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /work-sessions/{id}/clock-out [post]
func (h *WorkSessionHandler) ClockOut(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	session, err := h.service.ClockOut(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Get godoc
// @Summary Get work session
// @Tags Work Sessions
// @Produce json
// @Param id path string true "Work session ID"
// @Success 200 {object} response.Envelope
// @Router /work-sessions/{id} [get]
func (h *WorkSessionHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	session, err := h.service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// List godoc
// @Summary List work sessions
// @Description Teachers only see their own sessions.
// @Tags Work Sessions
// @Produce json
// @Param teacher_id query string false "Teacher ID"
// @Param task_id query string false "Task ID"
// @Param start_date query string false "From date (YYYY-MM-DD)"
// @Param end_date query string false "To date (YYYY-MM-DD)"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /work-sessions [get]
func (h *WorkSessionHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	start, err := dateQuery(c, "start_date")
	if err != nil {
		response.Error(c, err)
		return
	}
	end, err := dateQuery(c, "end_date")
	if err != nil {
		response.Error(c, err)
		return
	}
	filter := models.WorkSessionFilter{
		TeacherID: strings.TrimSpace(c.Query("teacher_id")),
		TaskID:    strings.TrimSpace(c.Query("task_id")),
		StartDate: start,
		EndDate:   end,
	}
	filter.Page, filter.PageSize = pageParams(c)

	sessions, pagination, err := h.service.List(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, pagination)
}
