package shift

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const MinutesPerDay = 24 * 60

var sixty = decimal.NewFromInt(60)

type Window struct {
	Start      string `json:"startTime"`
	End        string `json:"endTime"`
	BreakStart string `json:"breakStart,omitempty"`
	BreakEnd   string `json:"breakEnd,omitempty"`
}

type Result struct {
	ShiftHours decimal.Decimal `json:"shiftHours"`
	BreakHours decimal.Decimal `json:"breakHours"`
	NetHours   decimal.Decimal `json:"netHours"`
}

// ParseClock converts HH:MM (or HH:MM:SS, seconds ignored) to minutes since midnight.
func ParseClock(value string) (int, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, ErrInvalidTime
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return 0, ErrInvalidTime
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || len(parts[1]) != 2 || minutes < 0 || minutes > 59 {
		return 0, ErrInvalidTime
	}
	if len(parts) == 3 {
		seconds, err := strconv.Atoi(parts[2])
		if err != nil || seconds < 0 || seconds > 59 {
			return 0, ErrInvalidTime
		}
	}
	return hours*60 + minutes, nil
}

// Span returns the minutes from start to end, treating end < start as crossing midnight.
func Span(start, end int) int {
	if end < start {
		end += MinutesPerDay
	}
	return end - start
}

// HoursFromMinutes converts minutes to hours rounded to 2 decimals.
func HoursFromMinutes(minutes int) decimal.Decimal {
	return decimal.NewFromInt(int64(minutes)).Div(sixty).Round(2)
}

func (w Window) HasBreak() bool {
	return strings.TrimSpace(w.BreakStart) != "" || strings.TrimSpace(w.BreakEnd) != ""
}

// Hours computes shift, break and net hours for a window. A break is only
// accepted when both ends are set and it is not longer than the shift.
func Hours(w Window) (Result, error) {
	start, err := ParseClock(w.Start)
	if err != nil {
		return Result{}, err
	}
	end, err := ParseClock(w.End)
	if err != nil {
		return Result{}, err
	}
	shiftHours := HoursFromMinutes(Span(start, end))

	breakHours := decimal.Zero
	if w.HasBreak() {
		if strings.TrimSpace(w.BreakStart) == "" || strings.TrimSpace(w.BreakEnd) == "" {
			return Result{}, ErrIncompleteBreak
		}
		breakStart, err := ParseClock(w.BreakStart)
		if err != nil {
			return Result{}, err
		}
		breakEnd, err := ParseClock(w.BreakEnd)
		if err != nil {
			return Result{}, err
		}
		breakHours = HoursFromMinutes(Span(breakStart, breakEnd))
		if breakHours.GreaterThan(shiftHours) {
			return Result{}, ErrBreakExceedsShift
		}
	}

	return Result{
		ShiftHours: shiftHours,
		BreakHours: breakHours,
		NetHours:   shiftHours.Sub(breakHours),
	}, nil
}
