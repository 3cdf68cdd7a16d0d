package payroll

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/tutoring-payroll-api/internal/models"
)

// RoundHalfUp rounds to the nearest whole number, halves away from zero.
func RoundHalfUp(d decimal.Decimal) decimal.Decimal {
	return d.Round(0)
}

// RoundSessionHours applies the per-session rule: manual hours are kept at
// full precision, clock and time range hours become whole hours.
func RoundSessionHours(entry models.EntryType, hours decimal.Decimal) decimal.Decimal {
	if entry.Timed() {
		return RoundHalfUp(hours)
	}
	return hours
}

// RoundTaskHours applies the second pass on a task's summed hours. It only
// rounds when the task contains at least one clock or time range session.
func RoundTaskHours(sum decimal.Decimal, hasTimed bool) decimal.Decimal {
	if hasTimed {
		return RoundHalfUp(sum)
	}
	return sum
}
