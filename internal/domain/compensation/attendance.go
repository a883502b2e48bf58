package compensation

import (
	"time"

	"github.com/shopspring/decimal"

	"hrpay/internal/domain/attendance"
)

type AttendancePolicy struct {
	StandardHoursPerDay decimal.Decimal
	WorkingDaysPerMonth decimal.Decimal
	OvertimeMultiplier  decimal.Decimal
}

func DefaultAttendancePolicy() AttendancePolicy {
	return AttendancePolicy{
		StandardHoursPerDay: decimal.NewFromInt(8),
		WorkingDaysPerMonth: decimal.NewFromInt(26),
		OvertimeMultiplier:  decimal.RequireFromString("1.5"),
	}
}

// ApplyAttendance adapts a month's line items to a pay period's attendance:
// fixed earnings and allowances are prorated by paid days over the period's
// calendar days, and overtime hours are paid as an OVERTIME earning on the
// full-month basic. Days with no record count as paid. Percentage items are
// left alone; they follow their prorated basis.
func ApplyAttendance(items []LineItem, summary attendance.Summary, periodDays int, policy AttendancePolicy, asOf time.Time) []LineItem {
	out := make([]LineItem, 0, len(items)+1)
	if summary.TotalDays == 0 {
		return append(out, items...)
	}

	periodDays = max(periodDays, summary.TotalDays)
	totalDays := decimal.NewFromInt(int64(periodDays))
	paidDays := summary.PaidDaysOver(periodDays)
	prorate := paidDays.LessThan(totalDays)
	basic := decimal.Zero
	for _, item := range items {
		if item.ActiveOn(asOf) && !item.IsPercentage && item.isEarning() && normalize(item.ComponentCode) == CodeBasic {
			basic = basic.Add(item.Amount)
		}
		if prorate && !item.IsPercentage && item.isEarning() {
			item.Amount = item.Amount.Mul(paidDays).Div(totalDays).Round(2)
		}
		out = append(out, item)
	}

	monthHours := policy.WorkingDaysPerMonth.Mul(policy.StandardHoursPerDay)
	if summary.OvertimeHours.IsPositive() && basic.IsPositive() && monthHours.IsPositive() {
		pay := summary.OvertimeHours.Mul(basic).Mul(policy.OvertimeMultiplier).Div(monthHours).Round(2)
		if pay.IsPositive() {
			out = append(out, LineItem{
				ComponentCode: CodeOvertime,
				ComponentType: TypeEarning,
				Amount:        pay,
				EffectiveDate: dateOnly(asOf),
				Status:        StatusActive,
			})
		}
	}
	return out
}
