package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Task is a billable work category with its hourly rate.
type Task struct {
	ID          string          `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	HourlyRate  decimal.Decimal `db:"hourly_rate" json:"hourly_rate"`
	Description *string         `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}
