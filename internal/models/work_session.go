package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryType enumerates the ways a work session's duration is recorded.
type EntryType string

const (
	EntryManual    EntryType = "manual"
	EntryClock     EntryType = "clock"
	EntryTimeRange EntryType = "time_range"
)

// Display returns the human readable label of the entry type.
func (e EntryType) Display() string {
	switch e {
	case EntryManual:
		return "Manual Entry"
	case EntryClock:
		return "Clock In/Out"
	case EntryTimeRange:
		return "Time Range"
	default:
		return string(e)
	}
}

// Timed reports whether the entry is derived from start/stop timestamps.
func (e EntryType) Timed() bool {
	return e == EntryClock || e == EntryTimeRange
}

// WorkSession is one recorded unit of work. Only the fields matching
// EntryType are populated; a clock session without ClockOut is still open.
type WorkSession struct {
	ID          string              `db:"id" json:"id"`
	TeacherID   string              `db:"teacher_id" json:"teacher_id"`
	TaskID      string              `db:"task_id" json:"task_id"`
	EntryType   EntryType           `db:"entry_type" json:"entry_type"`
	ManualHours decimal.NullDecimal `db:"manual_hours" json:"manual_hours"`
	ClockIn     *time.Time          `db:"clock_in" json:"clock_in,omitempty"`
	ClockOut    *time.Time          `db:"clock_out" json:"clock_out,omitempty"`
	StartTime   *time.Time          `db:"start_time" json:"start_time,omitempty"`
	EndTime     *time.Time          `db:"end_time" json:"end_time,omitempty"`
	HourlyRate  decimal.NullDecimal `db:"hourly_rate" json:"hourly_rate"`
	TotalAmount decimal.Decimal     `db:"total_amount" json:"total_amount"`
	CreatedAt   time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time           `db:"updated_at" json:"updated_at"`

	// Joined from tasks; the rate is read live on every query.
	Task Task `db:"task" json:"task"`
}

// Open reports whether the session is a clock session still in progress.
func (w WorkSession) Open() bool {
	return w.EntryType == EntryClock && w.ClockOut == nil
}

// WorkSessionFilter narrows the recent sessions listing.
type WorkSessionFilter struct {
	TeacherID string
	TaskID    string
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	PageSize  int
}
