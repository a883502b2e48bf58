package payrun

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"hrpay/internal/domain/audit"
)

type Auditor interface {
	Record(ctx context.Context, evt audit.Event) error
}

type Metrics interface {
	RecordRun(succeeded, failed int, duration time.Duration)
}

type Service struct {
	store   StoreAPI
	runner  *Runner
	auditor Auditor
	metrics Metrics
}

// NewService wires a runner to its collaborators. store, auditor and
// metrics may be nil; store-backed operations then fail with
// ErrStoreUnavailable.
func NewService(store StoreAPI, runner *Runner, auditor Auditor, metrics Metrics) *Service {
	return &Service{store: store, runner: runner, auditor: auditor, metrics: metrics}
}

func (s *Service) HasStore() bool {
	return s.store != nil
}

// RunInline computes jobs supplied by the caller without persisting them.
// Attendance is prorated over the calendar month containing asOf.
func (s *Service) RunInline(ctx context.Context, asOf time.Time, jobs []Job) Report {
	start := time.Now()
	report := s.runner.Run(ctx, MonthOf(asOf), dateOnly(asOf), jobs)
	report.RunID = uuid.NewString()
	s.recordMetrics(report, time.Since(start))
	return report
}

// Prepare validates the period and creates the run header.
func (s *Service) Prepare(ctx context.Context, req Request) (Run, error) {
	if s.store == nil {
		return Run{}, ErrStoreUnavailable
	}
	period, err := normalizePeriod(req.Period)
	if err != nil {
		return Run{}, err
	}
	run := Run{
		Period:      period,
		AsOf:        period.End,
		Status:      RunStatusRunning,
		RequestedBy: req.RequestedBy,
		CreatedAt:   time.Now().UTC(),
	}
	id, err := s.store.CreateRun(ctx, run)
	if err != nil {
		return Run{}, err
	}
	run.ID = id
	s.audit(ctx, req, audit.ActionPayrollRunStarted, run.ID, map[string]any{
		"periodStart": period.Start.Format("2006-01-02"),
		"periodEnd":   period.End.Format("2006-01-02"),
		"employees":   len(req.EmployeeIDs),
	})
	return run, nil
}

// Execute loads the run's employees, computes them and persists the report.
// Per-employee failures are part of the report, not an error.
func (s *Service) Execute(ctx context.Context, run Run, req Request) (Report, error) {
	if s.store == nil {
		return Report{}, ErrStoreUnavailable
	}
	start := time.Now()
	jobs, err := s.store.ListJobs(ctx, run.Period, req.EmployeeIDs)
	if err != nil {
		s.fail(ctx, run.ID, req, err)
		return Report{}, fmt.Errorf("load payroll jobs: %w", err)
	}

	report := s.runner.Run(ctx, run.Period, run.AsOf, jobs)
	report.RunID = run.ID

	// Persist even when ctx was cancelled mid-run so the header is closed.
	saveCtx := context.WithoutCancel(ctx)
	if err := s.store.SaveReport(saveCtx, run.ID, report); err != nil {
		s.fail(saveCtx, run.ID, req, err)
		return Report{}, fmt.Errorf("save payroll run: %w", err)
	}
	s.recordMetrics(report, time.Since(start))
	s.audit(saveCtx, req, audit.ActionPayrollRunCompleted, run.ID, map[string]any{
		"status":    report.Status(),
		"succeeded": report.Succeeded,
		"failed":    report.Failed,
		"reasons":   report.Reasons,
	})
	return report, nil
}

func (s *Service) RunPeriod(ctx context.Context, req Request) (Report, error) {
	run, err := s.Prepare(ctx, req)
	if err != nil {
		return Report{}, err
	}
	return s.Execute(ctx, run, req)
}

// Abort closes a prepared run that will never execute.
func (s *Service) Abort(ctx context.Context, run Run, req Request, cause error) {
	if s.store == nil {
		return
	}
	s.fail(ctx, run.ID, req, cause)
}

func (s *Service) GetRun(ctx context.Context, runID string) (Run, error) {
	if s.store == nil {
		return Run{}, ErrStoreUnavailable
	}
	if _, err := uuid.Parse(runID); err != nil {
		return Run{}, ErrRunNotFound
	}
	return s.store.GetRun(ctx, runID)
}

// WriteRegister streams the run's register workbook to w.
func (s *Service) WriteRegister(ctx context.Context, runID string, w io.Writer) error {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	rows, err := s.store.RegisterRows(ctx, runID)
	if err != nil {
		return err
	}
	return WriteRegister(w, run, rows)
}

func (s *Service) fail(ctx context.Context, runID string, req Request, cause error) {
	ctx = context.WithoutCancel(ctx)
	if err := s.store.MarkRunFailed(ctx, runID); err != nil {
		slog.Warn("payroll run status update failed", "runId", runID, "err", err)
	}
	s.audit(ctx, req, audit.ActionPayrollRunFailed, runID, map[string]any{"error": cause.Error()})
}

func (s *Service) recordMetrics(report Report, duration time.Duration) {
	if s.metrics != nil {
		s.metrics.RecordRun(report.Succeeded, report.Failed, duration)
	}
}

func (s *Service) audit(ctx context.Context, req Request, action, runID string, after any) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Record(ctx, audit.Event{
		ActorID:    req.RequestedBy,
		Action:     action,
		EntityType: "payroll_run",
		EntityID:   runID,
		RequestID:  req.RequestID,
		IP:         req.IP,
		After:      after,
	}); err != nil {
		slog.Warn("audit record failed", "action", action, "runId", runID, "err", err)
	}
}

func normalizePeriod(p Period) (Period, error) {
	if p.Start.IsZero() || p.End.IsZero() {
		return Period{}, fmt.Errorf("%w: start and end are required", ErrInvalidPeriod)
	}
	out := Period{Start: dateOnly(p.Start), End: dateOnly(p.End)}
	if out.End.Before(out.Start) {
		return Period{}, fmt.Errorf("%w: end before start", ErrInvalidPeriod)
	}
	if days := out.Days(); days > maxRunDays {
		return Period{}, fmt.Errorf("%w: %d days exceeds %d", ErrInvalidPeriod, days, maxRunDays)
	}
	return out, nil
}
