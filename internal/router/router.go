package router

import (
	"context"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/tutoring-payroll-api/api/swagger"
	"github.com/noah-isme/tutoring-payroll-api/internal/handler"
	"github.com/noah-isme/tutoring-payroll-api/internal/middleware"
	"github.com/noah-isme/tutoring-payroll-api/internal/models"
	"github.com/noah-isme/tutoring-payroll-api/internal/service"
	"github.com/noah-isme/tutoring-payroll-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/tutoring-payroll-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/tutoring-payroll-api/pkg/middleware/requestid"
)

// TokenValidator verifies bearer tokens.
type TokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

// AuditWriter persists audit log entries.
type AuditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// Config holds the routing options.
type Config struct {
	APIPrefix      string
	AllowedOrigins []string
	EnableDocs     bool
}

// Handlers groups the HTTP handlers mounted by New.
type Handlers struct {
	Auth         *handler.AuthHandler
	Users        *handler.UserHandler
	Teachers     *handler.TeacherHandler
	Students     *handler.StudentHandler
	Tasks        *handler.TaskHandler
	WorkSessions *handler.WorkSessionHandler
	Salary       *handler.SalaryHandler
	Reports      *handler.SalaryReportHandler
	Dashboard    *handler.DashboardHandler
	Metrics      *handler.MetricsHandler
}

// Dependencies are the cross-cutting collaborators of the router.
type Dependencies struct {
	Tokens  TokenValidator
	Audit   AuditWriter
	Metrics *service.MetricsService
	Logger  *zap.Logger
}

var (
	anyRole   = []models.UserRole{models.RoleInspector, models.RoleTeacher}
	staff     = []models.UserRole{models.RoleInspector}
	recorders = []models.UserRole{models.RoleTeacher}
)

// New builds the gin engine with every route and its access rule.
// Superusers pass every role check.
func New(cfg Config, h Handlers, deps Dependencies) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(corsmiddleware.New(cfg.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	if deps.Metrics != nil {
		r.GET("/metrics", h.Metrics.Prometheus)
	}
	if cfg.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)

	secured := api.Group("")
	secured.Use(middleware.JWT(deps.Tokens))

	secured.POST("/auth/logout", h.Auth.Logout)
	secured.POST("/auth/change-password", h.Auth.ChangePassword)
	secured.GET("/auth/me", h.Auth.Me)

	admin := middleware.RequireRoles(models.RoleSuperuser)
	read := middleware.RequireRoles(staff...)
	everyone := middleware.RequireRoles(anyRole...)
	record := middleware.RequireRoles(recorders...)
	audited := func(action, resource string) gin.HandlerFunc {
		return middleware.Audit(deps.Audit, deps.Logger, action, resource)
	}

	users := secured.Group("/users", admin)
	users.GET("", h.Users.List)
	users.GET("/:id", h.Users.Get)
	users.POST("", h.Users.Create)
	users.PUT("/:id", h.Users.Update)

	teachers := secured.Group("/teachers")
	teachers.GET("", read, h.Teachers.List)
	teachers.GET("/:id", read, h.Teachers.Get)
	teachers.POST("", admin, audited(models.AuditActionTeacherWrite, "teacher"), h.Teachers.Create)
	teachers.PUT("/:id", admin, audited(models.AuditActionTeacherWrite, "teacher"), h.Teachers.Update)
	teachers.DELETE("/:id", admin, audited(models.AuditActionTeacherWrite, "teacher"), h.Teachers.Delete)

	students := secured.Group("/students")
	students.GET("", read, h.Students.List)
	students.GET("/:id", read, h.Students.Get)
	students.POST("", admin, audited(models.AuditActionStudentWrite, "student"), h.Students.Create)
	students.PUT("/:id", admin, audited(models.AuditActionStudentWrite, "student"), h.Students.Update)
	students.DELETE("/:id", admin, audited(models.AuditActionStudentWrite, "student"), h.Students.Delete)

	tasks := secured.Group("/tasks")
	tasks.GET("", everyone, h.Tasks.List)
	tasks.GET("/:id", everyone, h.Tasks.Get)
	tasks.POST("", admin, audited(models.AuditActionTaskWrite, "task"), h.Tasks.Create)
	tasks.PUT("/:id", admin, audited(models.AuditActionTaskWrite, "task"), h.Tasks.Update)
	tasks.DELETE("/:id", admin, audited(models.AuditActionTaskWrite, "task"), h.Tasks.Delete)

	sessions := secured.Group("/work-sessions")
	sessions.GET("", everyone, h.WorkSessions.List)
	sessions.GET("/:id", everyone, h.WorkSessions.Get)
	sessions.POST("/manual", record, h.WorkSessions.Manual)
	sessions.POST("/range", record, h.WorkSessions.TimeRange)
	sessions.POST("/clock-in", record, h.WorkSessions.ClockIn)
	sessions.POST("/:id/clock-out", record, h.WorkSessions.ClockOut)

	secured.GET("/salary", everyone, h.Salary.Calculate)

	reports := secured.Group("/salary-reports")
	reports.GET("", everyone, h.Reports.List)
	reports.GET("/view", everyone, h.Reports.View)
	reports.GET("/:id", everyone, h.Reports.Get)
	reports.GET("/:id/export", everyone, h.Reports.Export)
	reports.GET("/:id/reconcile", read, h.Reports.Reconcile)
	reports.POST("", admin, h.Reports.Create)
	reports.DELETE("/:id", admin, h.Reports.Delete)

	secured.GET("/dashboard", everyone, h.Dashboard.Get)
	secured.GET("/metrics/summary", read, h.Metrics.Summary)

	return r
}
