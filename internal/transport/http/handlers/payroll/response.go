package payrollhandler

import (
	"time"

	"hrpay/internal/domain/currency"
	"hrpay/internal/domain/payrun"
	attendancehandler "hrpay/internal/transport/http/handlers/attendance"
	compensationhandler "hrpay/internal/transport/http/handlers/compensation"
)

type EmployeeResponse struct {
	EmployeeID string                                `json:"employeeId"`
	Attendance *attendancehandler.SummaryResponse    `json:"attendance,omitempty"`
	Breakdown  compensationhandler.BreakdownResponse `json:"breakdown"`
}

type TotalsResponse struct {
	Gross              float64 `json:"gross"`
	EmployeeDeductions float64 `json:"employeeDeductions"`
	Net                float64 `json:"net"`
	EmployerCost       float64 `json:"employerCost"`
	MonthlyCTC         float64 `json:"monthlyCTC"`
}

type ReportResponse struct {
	RunID     string             `json:"runId"`
	Status    string             `json:"status"`
	AsOfDate  string             `json:"asOfDate"`
	Succeeded int                `json:"succeeded"`
	Failed    int                `json:"failed"`
	Reasons   map[string]int     `json:"reasons"`
	Results   []EmployeeResponse `json:"results"`
	Failures  []payrun.Failure   `json:"failures"`
	Totals    TotalsResponse     `json:"totals"`
}

type RunResponse struct {
	ID          string           `json:"id"`
	PeriodStart string           `json:"periodStart"`
	PeriodEnd   string           `json:"periodEnd"`
	AsOfDate    string           `json:"asOfDate"`
	Status      string           `json:"status"`
	RequestedBy string           `json:"requestedBy,omitempty"`
	Succeeded   int              `json:"succeeded"`
	Failed      int              `json:"failed"`
	CreatedAt   time.Time        `json:"createdAt"`
	CompletedAt *time.Time       `json:"completedAt,omitempty"`
	Failures    []payrun.Failure `json:"failures"`
}

// NewReport converts a run report. Totals mix currencies when the run spans
// countries, so they are left unformatted.
func NewReport(report payrun.Report, currencies currency.Config) ReportResponse {
	results := make([]EmployeeResponse, 0, len(report.Results))
	for _, res := range report.Results {
		out := EmployeeResponse{
			EmployeeID: res.EmployeeID,
			Breakdown:  compensationhandler.NewBreakdown(res.EmployeeID, res.Result, currencies.ForCountry(res.Result.CountryCode)),
		}
		if res.Attendance != nil {
			summary := attendancehandler.NewSummary(*res.Attendance)
			out.Attendance = &summary
		}
		results = append(results, out)
	}
	failures := report.Failures
	if failures == nil {
		failures = []payrun.Failure{}
	}
	reasons := report.Reasons
	if reasons == nil {
		reasons = map[string]int{}
	}
	return ReportResponse{
		RunID:     report.RunID,
		Status:    report.Status(),
		AsOfDate:  report.AsOf.Format("2006-01-02"),
		Succeeded: report.Succeeded,
		Failed:    report.Failed,
		Reasons:   reasons,
		Results:   results,
		Failures:  failures,
		Totals: TotalsResponse{
			Gross:              report.Totals.Gross.InexactFloat64(),
			EmployeeDeductions: report.Totals.EmployeeDeductions.InexactFloat64(),
			Net:                report.Totals.Net.InexactFloat64(),
			EmployerCost:       report.Totals.EmployerCost.InexactFloat64(),
			MonthlyCTC:         report.Totals.MonthlyCTC.InexactFloat64(),
		},
	}
}

func NewRun(run payrun.Run) RunResponse {
	failures := run.Failures
	if failures == nil {
		failures = []payrun.Failure{}
	}
	return RunResponse{
		ID:          run.ID,
		PeriodStart: run.Period.Start.Format("2006-01-02"),
		PeriodEnd:   run.Period.End.Format("2006-01-02"),
		AsOfDate:    run.AsOf.Format("2006-01-02"),
		Status:      run.Status,
		RequestedBy: run.RequestedBy,
		Succeeded:   run.Succeeded,
		Failed:      run.Failed,
		CreatedAt:   run.CreatedAt,
		CompletedAt: run.CompletedAt,
		Failures:    failures,
	}
}
