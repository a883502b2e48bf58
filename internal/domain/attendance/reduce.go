package attendance

import (
	"strings"

	"github.com/shopspring/decimal"

	"hrpay/internal/domain/shift"
)

var half = decimal.RequireFromString("0.5")

// Reduce folds a pay period's daily records into aggregate hours and day counts.
// Unknown statuses are counted as present days.
func Reduce(records []Record) Summary {
	summary := Summary{
		PaidDays:      decimal.Zero,
		WorkHours:     decimal.Zero,
		OvertimeHours: decimal.Zero,
	}

	for _, record := range records {
		status := strings.ToUpper(strings.TrimSpace(record.Status))
		summary.TotalDays++
		switch status {
		case StatusAbsent:
			summary.AbsentDays++
			continue
		case StatusLeave:
			summary.LeaveDays++
			continue
		case StatusHalfDay:
			summary.HalfDays++
		case StatusHoliday:
			summary.HolidayDays++
		case StatusWeekend:
			summary.WeekendDays++
		default:
			summary.PresentDays++
		}

		actualIn, errIn := shift.ParseClock(record.ActualIn)
		actualOut, errOut := shift.ParseClock(record.ActualOut)
		if errIn != nil || errOut != nil {
			summary.UntimedRecords++
			continue
		}

		worked := shift.Span(actualIn, actualOut)
		hours := shift.HoursFromMinutes(worked)
		summary.WorkHours = summary.WorkHours.Add(hours)

		if status == StatusHoliday || status == StatusWeekend {
			summary.OvertimeHours = summary.OvertimeHours.Add(hours)
			continue
		}

		scheduledIn, errSchedIn := shift.ParseClock(record.ScheduledIn)
		scheduledOut, errSchedOut := shift.ParseClock(record.ScheduledOut)
		if errSchedIn != nil || errSchedOut != nil {
			continue
		}

		if extra := worked - shift.Span(scheduledIn, scheduledOut); extra > 0 {
			summary.OvertimeHours = summary.OvertimeHours.Add(shift.HoursFromMinutes(extra))
		}
		if late := clockDelta(scheduledIn, actualIn); late > 0 {
			summary.LateMinutes += late
		}
		if status == StatusHalfDay {
			continue
		}
		if early := clockDelta(actualOut, scheduledOut); early > 0 {
			summary.EarlyLeaveMinutes += early
		}
	}

	summary.PaidDays = summary.PaidDaysOver(summary.TotalDays)
	return summary
}

// PaidDaysOver counts paid days in a period of periodDays calendar days.
// Days without a record are paid; a period shorter than the recorded days
// is widened to them. The result is never negative.
func (s Summary) PaidDaysOver(periodDays int) decimal.Decimal {
	periodDays = max(periodDays, s.TotalDays)
	paid := decimal.NewFromInt(int64(periodDays - s.AbsentDays)).
		Sub(half.Mul(decimal.NewFromInt(int64(s.HalfDays))))
	if paid.IsNegative() {
		return decimal.Zero
	}
	return paid
}

// clockDelta returns to-from in minutes on the nearest wrap, so 22:00 -> 00:10 is +130.
func clockDelta(from, to int) int {
	delta := to - from
	if delta > shift.MinutesPerDay/2 {
		delta -= shift.MinutesPerDay
	}
	if delta < -shift.MinutesPerDay/2 {
		delta += shift.MinutesPerDay
	}
	return delta
}
