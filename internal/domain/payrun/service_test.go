package payrun

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrpay/internal/domain/attendance"
	"hrpay/internal/domain/audit"
	"hrpay/internal/domain/compensation"
)

type fakeStore struct {
	jobs       []Job
	listErr    error
	runs       map[string]Run
	saved      map[string]Report
	failedRuns []string
	rows       []RegisterRow
	gotIDs     []string
}

func newFakeStore(jobs ...Job) *fakeStore {
	return &fakeStore{jobs: jobs, runs: map[string]Run{}, saved: map[string]Report{}}
}

func (f *fakeStore) ListJobs(_ context.Context, _ Period, employeeIDs []string) ([]Job, error) {
	f.gotIDs = employeeIDs
	return f.jobs, f.listErr
}

func (f *fakeStore) CreateRun(_ context.Context, run Run) (string, error) {
	id := uuid.NewString()
	run.ID = id
	f.runs[id] = run
	return id, nil
}

func (f *fakeStore) SaveReport(_ context.Context, runID string, report Report) error {
	f.saved[runID] = report
	run := f.runs[runID]
	run.Status = report.Status()
	run.Succeeded = report.Succeeded
	run.Failed = report.Failed
	run.Failures = report.Failures
	f.runs[runID] = run
	return nil
}

func (f *fakeStore) MarkRunFailed(_ context.Context, runID string) error {
	f.failedRuns = append(f.failedRuns, runID)
	return nil
}

func (f *fakeStore) GetRun(_ context.Context, runID string) (Run, error) {
	run, ok := f.runs[runID]
	if !ok {
		return Run{}, ErrRunNotFound
	}
	return run, nil
}

func (f *fakeStore) RegisterRows(context.Context, string) ([]RegisterRow, error) {
	return f.rows, nil
}

type fakeAuditor struct {
	mu      sync.Mutex
	actions []string
}

func (f *fakeAuditor) Record(_ context.Context, evt audit.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, evt.Action)
	return nil
}

type fakeMetrics struct {
	runs, succeeded, failed int
}

func (f *fakeMetrics) RecordRun(succeeded, failed int, _ time.Duration) {
	f.runs++
	f.succeeded += succeeded
	f.failed += failed
}

func april() Period {
	return Period{
		Start: time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, time.April, 30, 0, 0, 0, 0, time.UTC),
	}
}

func TestRunPeriodPersistsReport(t *testing.T) {
	unsupported := uaeJob("emp-2")
	unsupported.Profile.CountryCode = "SGP"
	store := newFakeStore(indiaJob("emp-1"), unsupported)
	auditor := &fakeAuditor{}
	metrics := &fakeMetrics{}
	svc := NewService(store, newRunner(2), auditor, metrics)

	report, err := svc.RunPeriod(context.Background(), Request{Period: april(), EmployeeIDs: []string{"emp-1", "emp-2"}, RequestedBy: "user-1"})
	require.NoError(t, err)

	require.Contains(t, store.saved, report.RunID)
	assert.Equal(t, asOf, report.AsOf)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, []string{"emp-1", "emp-2"}, store.gotIDs)
	assert.Equal(t, []string{audit.ActionPayrollRunStarted, audit.ActionPayrollRunCompleted}, auditor.actions)
	assert.Equal(t, fakeMetrics{runs: 1, succeeded: 1, failed: 1}, *metrics)

	run, err := svc.GetRun(context.Background(), report.RunID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusCompletedWithErrors, run.Status)
	assert.Equal(t, "user-1", run.RequestedBy)
	require.Len(t, run.Failures, 1)
	assert.Equal(t, FailureUnsupportedCountry, run.Failures[0].Code)
}

func TestStoredAndInlineRunsProrateOverCalendarDays(t *testing.T) {
	job := Job{
		Profile:    compensation.Profile{EmployeeID: "emp-1", CountryCode: "IND"},
		Items:      []compensation.LineItem{item("BASIC", compensation.TypeEarning, "30000")},
		Attendance: []attendance.Record{{Date: time.Date(2025, time.April, 14, 0, 0, 0, 0, time.UTC), Status: attendance.StatusAbsent}},
	}
	svc := NewService(newFakeStore(job), newRunner(1), nil, nil)

	stored, err := svc.RunPeriod(context.Background(), Request{Period: april()})
	require.NoError(t, err)
	require.Len(t, stored.Results, 1)
	assert.Equal(t, "29000", stored.Results[0].Result.Earnings.Components["BASIC"].String())

	inline := svc.RunInline(context.Background(), time.Date(2025, time.April, 20, 0, 0, 0, 0, time.UTC), []Job{job})
	require.Len(t, inline.Results, 1)
	assert.Equal(t, "29000", inline.Results[0].Result.Earnings.Components["BASIC"].String())
	assert.Equal(t, "29", inline.Results[0].Attendance.PaidDays.String())
}

func TestRunPeriodMarksRunFailedWhenLoadingFails(t *testing.T) {
	store := newFakeStore()
	store.listErr = errors.New("connection reset")
	auditor := &fakeAuditor{}
	svc := NewService(store, newRunner(2), auditor, nil)

	_, err := svc.RunPeriod(context.Background(), Request{Period: april()})
	require.Error(t, err)

	assert.Len(t, store.failedRuns, 1)
	assert.Equal(t, []string{audit.ActionPayrollRunStarted, audit.ActionPayrollRunFailed}, auditor.actions)
}

func TestPrepareRejectsInvalidPeriods(t *testing.T) {
	svc := NewService(newFakeStore(), newRunner(1), nil, nil)

	backwards := Period{Start: april().End, End: april().Start}
	_, err := svc.Prepare(context.Background(), Request{Period: backwards})
	assert.ErrorIs(t, err, ErrInvalidPeriod)

	tooLong := Period{Start: april().Start, End: april().Start.AddDate(0, 2, 0)}
	_, err = svc.Prepare(context.Background(), Request{Period: tooLong})
	assert.ErrorIs(t, err, ErrInvalidPeriod)

	_, err = svc.Prepare(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestServiceWithoutStore(t *testing.T) {
	metrics := &fakeMetrics{}
	svc := NewService(nil, newRunner(2), nil, metrics)
	assert.False(t, svc.HasStore())

	_, err := svc.RunPeriod(context.Background(), Request{Period: april()})
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	_, err = svc.GetRun(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	report := svc.RunInline(context.Background(), asOf.Add(15*time.Hour), []Job{indiaJob("emp-1")})
	_, parseErr := uuid.Parse(report.RunID)
	assert.NoError(t, parseErr)
	assert.Equal(t, asOf, report.AsOf)
	assert.Equal(t, 1, metrics.runs)
}

func TestGetRunRejectsMalformedID(t *testing.T) {
	svc := NewService(newFakeStore(), newRunner(1), nil, nil)
	_, err := svc.GetRun(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestWriteRegisterThroughService(t *testing.T) {
	store := newFakeStore(indiaJob("emp-1"))
	svc := NewService(store, newRunner(1), nil, nil)
	report, err := svc.RunPeriod(context.Background(), Request{Period: april()})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.WriteRegister(context.Background(), report.RunID, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("PK")), "xlsx is a zip archive")
}

func TestAbortMarksPreparedRunFailed(t *testing.T) {
	store := newFakeStore()
	auditor := &fakeAuditor{}
	svc := NewService(store, newRunner(1), auditor, nil)

	run, err := svc.Prepare(context.Background(), Request{Period: april()})
	require.NoError(t, err)
	svc.Abort(context.Background(), run, Request{}, errors.New("queue full"))

	assert.Equal(t, []string{run.ID}, store.failedRuns)
	assert.Equal(t, []string{audit.ActionPayrollRunStarted, audit.ActionPayrollRunFailed}, auditor.actions)
}
