package payrun

import (
	"time"

	"github.com/shopspring/decimal"

	"hrpay/internal/domain/attendance"
	"hrpay/internal/domain/compensation"
)

// Job is one employee's input to a run.
type Job struct {
	Profile    compensation.Profile
	Items      []compensation.LineItem
	Attendance []attendance.Record
}

type EmployeeResult struct {
	EmployeeID string              `json:"employeeId"`
	Attendance *attendance.Summary `json:"attendance,omitempty"`
	Result     compensation.Result `json:"result"`
}

type Failure struct {
	EmployeeID string `json:"employeeId"`
	Code       string `json:"code"`
	Reason     string `json:"reason"`
}

type Totals struct {
	Gross              decimal.Decimal `json:"gross"`
	EmployeeDeductions decimal.Decimal `json:"employeeDeductions"`
	Net                decimal.Decimal `json:"net"`
	EmployerCost       decimal.Decimal `json:"employerCost"`
	MonthlyCTC         decimal.Decimal `json:"monthlyCTC"`
}

// Report is the outcome of a run. Results and Failures keep input order.
type Report struct {
	RunID     string           `json:"runId"`
	AsOf      time.Time        `json:"asOf"`
	Results   []EmployeeResult `json:"results"`
	Failures  []Failure        `json:"failures"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Reasons   map[string]int   `json:"reasons"`
	Totals    Totals           `json:"totals"`
}

func (r Report) Status() string {
	switch {
	case r.Failed == 0:
		return RunStatusCompleted
	case r.Succeeded == 0:
		return RunStatusFailed
	default:
		return RunStatusCompletedWithErrors
	}
}

type Period struct {
	Start time.Time `json:"periodStart"`
	End   time.Time `json:"periodEnd"`
}

// MonthOf is the calendar month containing t.
func MonthOf(t time.Time) Period {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Period{Start: start, End: start.AddDate(0, 1, -1)}
}

// Days counts calendar days in the period, both ends included.
func (p Period) Days() int {
	if p.Start.IsZero() || p.End.IsZero() || p.End.Before(p.Start) {
		return 0
	}
	return int(dateOnly(p.End).Sub(dateOnly(p.Start)).Hours()/24) + 1
}

type Run struct {
	ID          string     `json:"id"`
	Period      Period     `json:"period"`
	AsOf        time.Time  `json:"asOf"`
	Status      string     `json:"status"`
	RequestedBy string     `json:"requestedBy"`
	Succeeded   int        `json:"succeeded"`
	Failed      int        `json:"failed"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Failures    []Failure  `json:"failures,omitempty"`
}

type RegisterRow struct {
	EmployeeID         string
	CountryCode        string
	Gross              decimal.Decimal
	EmployeeDeductions decimal.Decimal
	Net                decimal.Decimal
	EmployerTotal      decimal.Decimal
	MonthlyCTC         decimal.Decimal
}

type Request struct {
	Period      Period
	EmployeeIDs []string
	RequestedBy string
	RequestID   string
	IP          string
}
