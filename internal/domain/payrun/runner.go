package payrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"hrpay/internal/domain/attendance"
	"hrpay/internal/domain/compensation"
)

// Runner computes many employees concurrently. Each employee is independent:
// a failure is recorded against that employee and the others continue.
type Runner struct {
	calc    *compensation.Calculator
	policy  compensation.AttendancePolicy
	workers int
}

func NewRunner(calc *compensation.Calculator, policy compensation.AttendancePolicy, workers int) *Runner {
	if workers <= 0 {
		workers = 1
	}
	return &Runner{calc: calc, policy: policy, workers: workers}
}

type outcome struct {
	result  *EmployeeResult
	failure *Failure
}

// Run computes jobs as of asOf. Attendance is prorated over the period's
// calendar days.
func (r *Runner) Run(ctx context.Context, period Period, asOf time.Time, jobs []Job) Report {
	outcomes := make([]outcome, len(jobs))
	periodDays := period.Days()

	var g errgroup.Group
	g.SetLimit(r.workers)
	for i, job := range jobs {
		i, job := i, job
		if ctx.Err() != nil {
			outcomes[i] = failed(job.Profile.EmployeeID, ctx.Err())
			continue
		}
		g.Go(func() error {
			outcomes[i] = r.runOne(ctx, periodDays, asOf, job)
			return nil
		})
	}
	_ = g.Wait()

	return assemble(asOf, outcomes)
}

func (r *Runner) runOne(ctx context.Context, periodDays int, asOf time.Time, job Job) (out outcome) {
	employeeID := job.Profile.EmployeeID
	defer func() {
		if rec := recover(); rec != nil {
			slog.Warn("payroll calculation panicked", "employeeId", employeeID, "panic", rec)
			out = outcome{failure: &Failure{EmployeeID: employeeID, Code: FailureInternal, Reason: fmt.Sprint(rec)}}
		}
	}()

	if err := ctx.Err(); err != nil {
		return failed(employeeID, err)
	}
	if err := compensation.ValidateItems(job.Items); err != nil {
		return failed(employeeID, err)
	}

	items := job.Items
	var summary *attendance.Summary
	if len(job.Attendance) > 0 {
		reduced := attendance.Reduce(job.Attendance)
		items = compensation.ApplyAttendance(items, reduced, periodDays, r.policy, asOf)
		reduced.PaidDays = reduced.PaidDaysOver(periodDays)
		summary = &reduced
	}

	res, err := r.calc.Calculate(job.Profile, items, asOf)
	if err != nil {
		return failed(employeeID, err)
	}
	if len(res.Warnings) > 0 {
		slog.Warn("payroll calculation warnings", "employeeId", employeeID, "warnings", res.Warnings)
	}
	return outcome{result: &EmployeeResult{EmployeeID: employeeID, Attendance: summary, Result: res}}
}

func failed(employeeID string, err error) outcome {
	return outcome{failure: &Failure{EmployeeID: employeeID, Code: FailureCode(err), Reason: err.Error()}}
}

// FailureCode maps a calculation error to the code stored with the run.
func FailureCode(err error) string {
	switch {
	case errors.Is(err, compensation.ErrUnsupportedCountry):
		return FailureUnsupportedCountry
	case errors.Is(err, compensation.ErrInvalidDateRange):
		return FailureInvalidDateRange
	case errors.Is(err, compensation.ErrInvalidLineItem):
		return FailureInvalidLineItem
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return FailureCancelled
	default:
		return FailureInternal
	}
}

func assemble(asOf time.Time, outcomes []outcome) Report {
	report := Report{
		AsOf:     asOf,
		Results:  []EmployeeResult{},
		Failures: []Failure{},
		Reasons:  map[string]int{},
		Totals: Totals{
			Gross:              decimal.Zero,
			EmployeeDeductions: decimal.Zero,
			Net:                decimal.Zero,
			EmployerCost:       decimal.Zero,
			MonthlyCTC:         decimal.Zero,
		},
	}
	for _, o := range outcomes {
		if o.failure != nil {
			report.Failures = append(report.Failures, *o.failure)
			report.Reasons[o.failure.Code]++
			continue
		}
		res := o.result.Result
		report.Results = append(report.Results, *o.result)
		report.Totals.Gross = report.Totals.Gross.Add(res.Earnings.Gross)
		report.Totals.EmployeeDeductions = report.Totals.EmployeeDeductions.Add(res.Deductions.Employee)
		report.Totals.Net = report.Totals.Net.Add(res.Deductions.Net)
		report.Totals.EmployerCost = report.Totals.EmployerCost.Add(res.EmployerCosts.Total)
		report.Totals.MonthlyCTC = report.Totals.MonthlyCTC.Add(res.Totals.MonthlyCTC)
	}
	report.Succeeded = len(report.Results)
	report.Failed = len(report.Failures)
	return report
}
