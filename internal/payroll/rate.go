package payroll

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/tutoring-payroll-api/internal/models"
)

// SessionRate is the rate billed on an itemized session line.
func SessionRate(ws models.WorkSession, task models.Task) decimal.Decimal {
	if ws.HourlyRate.Valid {
		return ws.HourlyRate.Decimal
	}
	return task.HourlyRate
}

// TaskRate is the rate billed on a task subtotal. Session overrides do not
// apply here.
func TaskRate(task models.Task) decimal.Decimal {
	return task.HourlyRate
}

// SessionAmount is the line total stored with a session when it is written.
// Incomplete sessions are worth zero until they can be measured.
func SessionAmount(ws models.WorkSession) decimal.Decimal {
	raw, err := SessionHours(ws)
	if err != nil {
		return decimal.Zero
	}
	return RoundSessionHours(ws.EntryType, raw).Mul(SessionRate(ws, ws.Task))
}
