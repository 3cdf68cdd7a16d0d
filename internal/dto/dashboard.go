package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/tutoring-payroll-api/internal/models"
)

// AdminDashboardResponse captures the superuser and inspector dashboard.
type AdminDashboardResponse struct {
	ActiveTeachers int       `json:"activeTeachers"`
	ActiveStudents int       `json:"activeStudents"`
	Tasks          int       `json:"tasks"`
	SalaryReports  int       `json:"salaryReports"`
	GeneratedAt    time.Time `json:"generatedAt"`
}

// TeacherDashboardResponse captures the teacher dashboard.
type TeacherDashboardResponse struct {
	TeacherID      string               `json:"teacherId"`
	TeacherName    string               `json:"teacherName"`
	OpenSession    *models.WorkSession  `json:"openSession,omitempty"`
	CurrentMonth   MonthSalarySummary   `json:"currentMonth"`
	RecentSessions []models.WorkSession `json:"recentSessions"`
}

// MonthSalarySummary is the running salary of the current month.
type MonthSalarySummary struct {
	Period       string          `json:"period"`
	TotalHours   decimal.Decimal `json:"totalHours"`
	TotalSalary  decimal.Decimal `json:"totalSalary"`
	SessionCount int             `json:"sessionCount"`
	SkippedCount int             `json:"skippedCount"`
}
