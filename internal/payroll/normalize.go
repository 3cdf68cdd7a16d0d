package payroll

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/tutoring-payroll-api/internal/models"
	appErrors "github.com/noah-isme/tutoring-payroll-api/pkg/errors"
)

var microsPerHour = decimal.NewFromInt(int64(time.Hour / time.Microsecond))

// SessionHours converts a work session into raw decimal hours. It fails with
// ErrIncompleteSession when the fields required by the entry type are missing
// and with ErrMalformedDuration when the duration cannot be a valid amount.
func SessionHours(ws models.WorkSession) (decimal.Decimal, error) {
	switch ws.EntryType {
	case models.EntryManual:
		if !ws.ManualHours.Valid {
			return decimal.Zero, fmt.Errorf("session %s: manual hours not set: %w", ws.ID, appErrors.ErrIncompleteSession)
		}
		if ws.ManualHours.Decimal.IsNegative() {
			return decimal.Zero, fmt.Errorf("session %s: negative manual hours: %w", ws.ID, appErrors.ErrMalformedDuration)
		}
		return ws.ManualHours.Decimal, nil
	case models.EntryClock:
		return spanHours(ws.ID, "clock", ws.ClockIn, ws.ClockOut)
	case models.EntryTimeRange:
		return spanHours(ws.ID, "time range", ws.StartTime, ws.EndTime)
	default:
		return decimal.Zero, fmt.Errorf("session %s: unknown entry type %q: %w", ws.ID, ws.EntryType, appErrors.ErrMalformedDuration)
	}
}

func spanHours(id, kind string, from, to *time.Time) (decimal.Decimal, error) {
	if from == nil || to == nil {
		return decimal.Zero, fmt.Errorf("session %s: %s bounds not set: %w", id, kind, appErrors.ErrIncompleteSession)
	}
	span := to.Sub(*from)
	if span < 0 {
		return decimal.Zero, fmt.Errorf("session %s: %s ends before it starts: %w", id, kind, appErrors.ErrMalformedDuration)
	}
	return decimal.NewFromInt(span.Microseconds()).Div(microsPerHour), nil
}
