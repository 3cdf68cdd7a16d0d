package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalaryReport marks that a salary report was generated for a teacher and
// month window. TotalHours and TotalAmount are the snapshot taken at creation
// and are informational only; the figures shown are always recomputed.
type SalaryReport struct {
	ID          string          `db:"id" json:"id"`
	TeacherID   string          `db:"teacher_id" json:"teacher_id"`
	StartDate   time.Time       `db:"start_date" json:"start_date"`
	EndDate     time.Time       `db:"end_date" json:"end_date"`
	TotalHours  decimal.Decimal `db:"total_hours" json:"total_hours"`
	TotalAmount decimal.Decimal `db:"total_amount" json:"total_amount"`
	CreatedBy   string          `db:"created_by" json:"created_by"`
	Notes       *string         `db:"notes" json:"notes,omitempty"`
	IsDeleted   bool            `db:"is_deleted" json:"is_deleted"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`

	TeacherName string `db:"teacher_name" json:"teacher_name,omitempty"`
}

// SalaryReportFilter narrows the report listing.
type SalaryReportFilter struct {
	TeacherID string
	Page      int
	PageSize  int
}
