package attendance

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusPresent = "PRESENT"
	StatusAbsent  = "ABSENT"
	StatusHalfDay = "HALF_DAY"
	StatusLeave   = "LEAVE"
	StatusHoliday = "HOLIDAY"
	StatusWeekend = "WEEKEND"
)

var Statuses = []string{StatusPresent, StatusAbsent, StatusHalfDay, StatusLeave, StatusHoliday, StatusWeekend}

// Record is one employee-day. Times are HH:MM and empty when not captured.
type Record struct {
	Date         time.Time `json:"date"`
	Status       string    `json:"status"`
	ScheduledIn  string    `json:"scheduledIn,omitempty"`
	ScheduledOut string    `json:"scheduledOut,omitempty"`
	ActualIn     string    `json:"actualIn,omitempty"`
	ActualOut    string    `json:"actualOut,omitempty"`
}

type Summary struct {
	TotalDays         int             `json:"totalDays"`
	PresentDays       int             `json:"presentDays"`
	HalfDays          int             `json:"halfDays"`
	AbsentDays        int             `json:"absentDays"`
	LeaveDays         int             `json:"leaveDays"`
	HolidayDays       int             `json:"holidayDays"`
	WeekendDays       int             `json:"weekendDays"`
	PaidDays          decimal.Decimal `json:"paidDays"`
	WorkHours         decimal.Decimal `json:"workHours"`
	OvertimeHours     decimal.Decimal `json:"overtimeHours"`
	LateMinutes       int             `json:"lateMinutes"`
	EarlyLeaveMinutes int             `json:"earlyLeaveMinutes"`
	UntimedRecords    int             `json:"untimedRecords"`
}
