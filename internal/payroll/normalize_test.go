package payroll

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutoring-payroll-api/internal/models"
	appErrors "github.com/noah-isme/tutoring-payroll-api/pkg/errors"
)

func at(hour, minute int) *time.Time {
	t := time.Date(2024, 3, 4, hour, minute, 0, 0, time.UTC)
	return &t
}

func TestSessionHours(t *testing.T) {
	tests := []struct {
		name    string
		session models.WorkSession
		want    string
		wantErr *appErrors.Error
	}{
		{
			name:    "manual verbatim",
			session: models.WorkSession{EntryType: models.EntryManual, ManualHours: decimal.NewNullDecimal(decimal.RequireFromString("2.75"))},
			want:    "2.75",
		},
		{
			name:    "manual missing hours",
			session: models.WorkSession{EntryType: models.EntryManual},
			wantErr: appErrors.ErrIncompleteSession,
		},
		{
			name:    "manual negative hours",
			session: models.WorkSession{EntryType: models.EntryManual, ManualHours: decimal.NewNullDecimal(decimal.NewFromInt(-1))},
			wantErr: appErrors.ErrMalformedDuration,
		},
		{
			name:    "clock span",
			session: models.WorkSession{EntryType: models.EntryClock, ClockIn: at(9, 0), ClockOut: at(11, 30)},
			want:    "2.5",
		},
		{
			name:    "open clock session",
			session: models.WorkSession{EntryType: models.EntryClock, ClockIn: at(9, 0)},
			wantErr: appErrors.ErrIncompleteSession,
		},
		{
			name:    "time range span",
			session: models.WorkSession{EntryType: models.EntryTimeRange, StartTime: at(13, 0), EndTime: at(14, 45)},
			want:    "1.75",
		},
		{
			name:    "time range missing end",
			session: models.WorkSession{EntryType: models.EntryTimeRange, StartTime: at(13, 0)},
			wantErr: appErrors.ErrIncompleteSession,
		},
		{
			name:    "reversed time range",
			session: models.WorkSession{EntryType: models.EntryTimeRange, StartTime: at(15, 0), EndTime: at(14, 0)},
			wantErr: appErrors.ErrMalformedDuration,
		},
		{
			name:    "unknown entry type",
			session: models.WorkSession{EntryType: "pomodoro"},
			wantErr: appErrors.ErrMalformedDuration,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := SessionHours(tc.session)
			if tc.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tc.wantErr))
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tc.want).Equal(got), "got %s", got)
		})
	}
}

func TestRoundHalfUp(t *testing.T) {
	cases := map[string]string{
		"2.5":  "3",
		"1.4":  "1",
		"1.5":  "2",
		"0.49": "0",
		"3.0":  "3",
	}
	for in, want := range cases {
		got := RoundHalfUp(decimal.RequireFromString(in))
		assert.True(t, decimal.RequireFromString(want).Equal(got), "%s rounded to %s", in, got)
	}
}

func TestRoundSessionHoursKeepsManualPrecision(t *testing.T) {
	hours := decimal.RequireFromString("2.5")

	assert.True(t, hours.Equal(RoundSessionHours(models.EntryManual, hours)))
	assert.True(t, decimal.NewFromInt(3).Equal(RoundSessionHours(models.EntryClock, hours)))
	assert.True(t, decimal.NewFromInt(3).Equal(RoundSessionHours(models.EntryTimeRange, hours)))
}

func TestRoundTaskHours(t *testing.T) {
	sum := decimal.RequireFromString("4.5")

	assert.True(t, sum.Equal(RoundTaskHours(sum, false)))
	assert.True(t, decimal.NewFromInt(5).Equal(RoundTaskHours(sum, true)))
}

func TestRates(t *testing.T) {
	task := models.Task{HourlyRate: decimal.NewFromInt(20)}
	plain := models.WorkSession{}
	override := models.WorkSession{HourlyRate: decimal.NewNullDecimal(decimal.NewFromInt(35))}

	assert.True(t, decimal.NewFromInt(20).Equal(SessionRate(plain, task)))
	assert.True(t, decimal.NewFromInt(35).Equal(SessionRate(override, task)))
	assert.True(t, decimal.NewFromInt(20).Equal(TaskRate(task)))
}

func TestSessionAmount(t *testing.T) {
	task := models.Task{HourlyRate: decimal.NewFromInt(20)}
	clock := models.WorkSession{EntryType: models.EntryClock, ClockIn: at(9, 0), ClockOut: at(11, 20), Task: task}
	open := models.WorkSession{EntryType: models.EntryClock, ClockIn: at(9, 0), Task: task}

	assert.True(t, decimal.NewFromInt(40).Equal(SessionAmount(clock)))
	assert.True(t, SessionAmount(open).IsZero())
}
