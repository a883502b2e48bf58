package attendancehandler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"hrpay/internal/domain/attendance"
	"hrpay/internal/domain/auth"
	"hrpay/internal/domain/shift"
	"hrpay/internal/transport/http/api"
	"hrpay/internal/transport/http/middleware"
	"hrpay/internal/transport/http/shared"
)

const maxRecords = 62

type Handler struct {
	Perms middleware.PermissionStore
}

func NewHandler(perms middleware.PermissionStore) *Handler {
	return &Handler{Perms: perms}
}

type RecordPayload struct {
	Date         string `json:"date"`
	Status       string `json:"status"`
	ScheduledIn  string `json:"scheduledIn"`
	ScheduledOut string `json:"scheduledOut"`
	ActualIn     string `json:"actualIn"`
	ActualOut    string `json:"actualOut"`
}

type summaryPayload struct {
	Records []RecordPayload `json:"records"`
}

type SummaryResponse struct {
	TotalDays         int     `json:"totalDays"`
	PresentDays       int     `json:"presentDays"`
	HalfDays          int     `json:"halfDays"`
	AbsentDays        int     `json:"absentDays"`
	LeaveDays         int     `json:"leaveDays"`
	HolidayDays       int     `json:"holidayDays"`
	WeekendDays       int     `json:"weekendDays"`
	PaidDays          float64 `json:"paidDays"`
	WorkHours         float64 `json:"workHours"`
	OvertimeHours     float64 `json:"overtimeHours"`
	LateMinutes       int     `json:"lateMinutes"`
	EarlyLeaveMinutes int     `json:"earlyLeaveMinutes"`
	UntimedRecords    int     `json:"untimedRecords"`
}

type HoursResponse struct {
	ShiftHours float64 `json:"shiftHours"`
	BreakHours float64 `json:"breakHours"`
	NetHours   float64 `json:"netHours"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermAttendanceRead, h.Perms))
		r.Post("/attendance/summary", h.handleSummary)
		r.Post("/shifts/hours", h.handleHours)
	})
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload summaryPayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}

	v := shared.NewValidator()
	records := ParseRecords(v, "records", payload.Records)
	if v.Reject(w, requestID) {
		return
	}
	api.Success(w, NewSummary(attendance.Reduce(records)), requestID)
}

func (h *Handler) handleHours(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var window shift.Window
	if !shared.DecodeJSON(w, r, &window, requestID) {
		return
	}

	v := shared.NewValidator()
	v.Clock("startTime", window.Start)
	v.Clock("endTime", window.End)
	v.OptionalClock("breakStart", window.BreakStart)
	v.OptionalClock("breakEnd", window.BreakEnd)
	if v.Reject(w, requestID) {
		return
	}

	res, err := shift.Hours(window)
	if err != nil {
		switch {
		case errors.Is(err, shift.ErrIncompleteBreak), errors.Is(err, shift.ErrBreakExceedsShift), errors.Is(err, shift.ErrInvalidTime):
			api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), requestID)
		default:
			api.Fail(w, http.StatusInternalServerError, "internal_error", "failed to compute hours", requestID)
		}
		return
	}
	api.Success(w, HoursResponse{
		ShiftHours: res.ShiftHours.InexactFloat64(),
		BreakHours: res.BreakHours.InexactFloat64(),
		NetHours:   res.NetHours.InexactFloat64(),
	}, requestID)
}

// ParseRecords validates attendance payloads. Clock fields are optional; a
// record without both actual times counts toward UntimedRecords.
func ParseRecords(v *shared.Validator, prefix string, payloads []RecordPayload) []attendance.Record {
	if len(payloads) > maxRecords {
		v.Add(prefix, fmt.Sprintf("at most %d records are allowed", maxRecords))
	}
	records := make([]attendance.Record, 0, len(payloads))
	for i, p := range payloads {
		at := func(name string) string { return fmt.Sprintf("%s[%d].%s", prefix, i, name) }
		date, _ := v.Date(at("date"), p.Date)
		v.Required(at("status"), p.Status, "is required")
		v.Enum(at("status"), p.Status, attendance.Statuses, "must be one of "+strings.Join(attendance.Statuses, ", "))
		v.OptionalClock(at("scheduledIn"), p.ScheduledIn)
		v.OptionalClock(at("scheduledOut"), p.ScheduledOut)
		v.OptionalClock(at("actualIn"), p.ActualIn)
		v.OptionalClock(at("actualOut"), p.ActualOut)
		records = append(records, attendance.Record{
			Date:         date,
			Status:       strings.ToUpper(strings.TrimSpace(p.Status)),
			ScheduledIn:  strings.TrimSpace(p.ScheduledIn),
			ScheduledOut: strings.TrimSpace(p.ScheduledOut),
			ActualIn:     strings.TrimSpace(p.ActualIn),
			ActualOut:    strings.TrimSpace(p.ActualOut),
		})
	}
	return records
}

func NewSummary(s attendance.Summary) SummaryResponse {
	return SummaryResponse{
		TotalDays:         s.TotalDays,
		PresentDays:       s.PresentDays,
		HalfDays:          s.HalfDays,
		AbsentDays:        s.AbsentDays,
		LeaveDays:         s.LeaveDays,
		HolidayDays:       s.HolidayDays,
		WeekendDays:       s.WeekendDays,
		PaidDays:          s.PaidDays.InexactFloat64(),
		WorkHours:         s.WorkHours.InexactFloat64(),
		OvertimeHours:     s.OvertimeHours.InexactFloat64(),
		LateMinutes:       s.LateMinutes,
		EarlyLeaveMinutes: s.EarlyLeaveMinutes,
		UntimedRecords:    s.UntimedRecords,
	}
}
