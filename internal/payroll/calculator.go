package payroll

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/tutoring-payroll-api/internal/models"
	appErrors "github.com/noah-isme/tutoring-payroll-api/pkg/errors"
)

const dateLayout = "2006-01-02"

// Calculator computes the salary of a teacher for a month window.
type Calculator struct {
	loc    *time.Location
	logger *zap.Logger
}

// NewCalculator builds a calculator that renders dates and times in loc.
func NewCalculator(loc *time.Location, logger *zap.Logger) *Calculator {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calculator{loc: loc, logger: logger}
}

// Location returns the zone used for windows and rendered dates.
func (c *Calculator) Location() *time.Location {
	return c.loc
}

type taskGroup struct {
	task  models.Task
	sum   decimal.Decimal
	count int
	timed bool
}

// Compute groups the sessions created inside w by task and returns the task
// subtotals, the itemized session lines and the grand totals. Sessions whose
// duration cannot be measured are reported in Skipped and contribute nothing.
// Compute is pure: the same inputs always produce the same output.
func (c *Calculator) Compute(teacher models.Teacher, w Window, sessions []models.WorkSession) models.ReportData {
	ordered := make([]models.WorkSession, 0, len(sessions))
	for _, ws := range sessions {
		if w.Contains(ws.CreatedAt) {
			ordered = append(ordered, ws)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	data := models.ReportData{
		TeacherID:      teacher.ID,
		TeacherName:    teacher.DisplayName(),
		Period:         w.Label(),
		StartDate:      w.Start,
		EndDate:        w.End,
		TaskSummaries:  []models.TaskSummary{},
		SessionDetails: []models.SessionDetail{},
		TotalHours:     decimal.Zero,
		TotalSalary:    decimal.Zero,
	}

	groups := make(map[string]*taskGroup)
	var order []string

	for _, ws := range ordered {
		group, ok := groups[ws.TaskID]
		if !ok {
			task := ws.Task
			if task.ID == "" {
				task.ID = ws.TaskID
			}
			group = &taskGroup{task: task, sum: decimal.Zero}
			groups[ws.TaskID] = group
			order = append(order, ws.TaskID)
		}

		raw, err := SessionHours(ws)
		if err != nil {
			c.logger.Warn("skipping work session",
				zap.String("session_id", ws.ID),
				zap.String("entry_type", string(ws.EntryType)),
				zap.Error(err),
			)
			data.Skipped = append(data.Skipped, models.SkippedSession{
				SessionID: ws.ID,
				EntryType: ws.EntryType,
				Code:      appErrors.FromError(err).Code,
				Reason:    err.Error(),
			})
			continue
		}

		hours := RoundSessionHours(ws.EntryType, raw)
		group.sum = group.sum.Add(hours)
		group.count++
		if ws.EntryType.Timed() {
			group.timed = true
		}

		rate := SessionRate(ws, group.task)
		c.logger.Debug("work session measured",
			zap.String("session_id", ws.ID),
			zap.String("task_id", ws.TaskID),
			zap.String("raw_hours", raw.String()),
			zap.String("hours", hours.String()),
			zap.String("rate", rate.String()),
		)

		data.SessionDetails = append(data.SessionDetails, models.SessionDetail{
			SessionID: ws.ID,
			Date:      ws.CreatedAt.In(c.loc).Format(dateLayout),
			TimeRange: c.timeRange(ws),
			TaskName:  group.task.Name,
			Hours:     hours,
			Rate:      rate,
			Total:     hours.Mul(rate),
			EntryType: ws.EntryType.Display(),
			Notes:     fmt.Sprintf("%s - %s (%sh)", group.task.Name, ws.EntryType.Display(), hours.StringFixed(2)),
		})
	}

	for _, id := range order {
		group := groups[id]
		hours := RoundTaskHours(group.sum, group.timed)
		rate := TaskRate(group.task)
		total := hours.Mul(rate)

		data.TaskSummaries = append(data.TaskSummaries, models.TaskSummary{
			TaskID:       group.task.ID,
			TaskName:     group.task.Name,
			Hours:        hours,
			Rate:         rate,
			Total:        total,
			SessionCount: group.count,
			Rounded:      group.timed,
		})
		data.TotalHours = data.TotalHours.Add(hours)
		data.TotalSalary = data.TotalSalary.Add(total)
	}

	// Lines are already in creation order, so a stable sort on the local
	// date keeps creation order within a day.
	sort.SliceStable(data.SessionDetails, func(i, j int) bool {
		return data.SessionDetails[i].Date < data.SessionDetails[j].Date
	})

	return data
}

func (c *Calculator) timeRange(ws models.WorkSession) string {
	var from, to *time.Time
	switch ws.EntryType {
	case models.EntryClock:
		from, to = ws.ClockIn, ws.ClockOut
	case models.EntryTimeRange:
		from, to = ws.StartTime, ws.EndTime
	default:
		return ""
	}
	if from == nil || to == nil {
		return ""
	}
	return from.In(c.loc).Format("15:04") + " - " + to.In(c.loc).Format("15:04")
}

// SessionLinesTotal sums the itemized line totals. It differs from
// TotalSalary whenever a session carries its own rate or task rounding moved
// the hours.
func SessionLinesTotal(data models.ReportData) decimal.Decimal {
	total := decimal.Zero
	for _, line := range data.SessionDetails {
		total = total.Add(line.Total)
	}
	return total
}
