package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TaskSummary is the per-task rollup of a salary report. Total always uses
// the task's own rate.
type TaskSummary struct {
	TaskID       string          `json:"task_id"`
	TaskName     string          `json:"task_name"`
	Hours        decimal.Decimal `json:"hours"`
	Rate         decimal.Decimal `json:"rate"`
	Total        decimal.Decimal `json:"total"`
	SessionCount int             `json:"session_count"`
	Rounded      bool            `json:"rounded"`
}

// SessionDetail is one itemized line of a salary report.
type SessionDetail struct {
	SessionID string          `json:"session_id"`
	Date      string          `json:"date"`
	TimeRange string          `json:"time_range,omitempty"`
	TaskName  string          `json:"task_name"`
	Hours     decimal.Decimal `json:"hours"`
	Rate      decimal.Decimal `json:"rate"`
	Total     decimal.Decimal `json:"total"`
	EntryType string          `json:"entry_type"`
	Notes     string          `json:"notes"`
}

// SkippedSession records a session excluded from the totals.
type SkippedSession struct {
	SessionID string    `json:"session_id"`
	EntryType EntryType `json:"entry_type"`
	Code      string    `json:"code"`
	Reason    string    `json:"reason"`
}

// ReportData is the computed salary for one teacher and month.
type ReportData struct {
	TeacherID      string           `json:"teacher_id"`
	TeacherName    string           `json:"teacher_name"`
	Period         string           `json:"period"`
	StartDate      time.Time        `json:"start_date"`
	EndDate        time.Time        `json:"end_date"`
	TaskSummaries  []TaskSummary    `json:"task_summaries"`
	SessionDetails []SessionDetail  `json:"session_details"`
	TotalHours     decimal.Decimal  `json:"total_hours"`
	TotalSalary    decimal.Decimal  `json:"total_salary"`
	Skipped        []SkippedSession `json:"skipped,omitempty"`
}

// SalaryReportView pairs a stored report marker with freshly computed data.
type SalaryReportView struct {
	Report SalaryReport `json:"report"`
	Data   ReportData   `json:"data"`
}

// ReportReconciliation compares stored figures against a fresh computation.
type ReportReconciliation struct {
	ReportID           string          `json:"report_id"`
	Period             string          `json:"period"`
	StoredHours        decimal.Decimal `json:"stored_hours"`
	StoredAmount       decimal.Decimal `json:"stored_amount"`
	ComputedHours      decimal.Decimal `json:"computed_hours"`
	ComputedAmount     decimal.Decimal `json:"computed_amount"`
	SessionLinesAmount decimal.Decimal `json:"session_lines_amount"`
	Consistent         bool            `json:"consistent"`
}
