package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutoring-payroll-api/internal/dto"
	"github.com/noah-isme/tutoring-payroll-api/internal/middleware"
	"github.com/noah-isme/tutoring-payroll-api/internal/models"
	appErrors "github.com/noah-isme/tutoring-payroll-api/pkg/errors"
	"github.com/noah-isme/tutoring-payroll-api/pkg/response"
)

type dashboardService interface {
	Admin(ctx context.Context) (*dto.AdminDashboardResponse, bool, error)
	Teacher(ctx context.Context, actor models.Actor) (*dto.TeacherDashboardResponse, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Get godoc
// @Summary Dashboard summary
// @Description Teachers get their open session, current month salary and recent sessions. Staff get record counts.
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Get(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	start := time.Now()
	var (
		summary  interface{}
		cacheHit bool
		err      error
	)
	if actor.Role == models.RoleTeacher {
		summary, err = h.service.Teacher(c.Request.Context(), actor)
	} else {
		summary, cacheHit, err = h.service.Admin(c.Request.Context())
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, summary, nil, meta)
}
