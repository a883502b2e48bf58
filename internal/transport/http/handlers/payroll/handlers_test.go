package payrollhandler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrpay/internal/domain/auth"
	"hrpay/internal/domain/compensation"
	"hrpay/internal/domain/currency"
	"hrpay/internal/domain/payrun"
	"hrpay/internal/domain/statutory"
	"hrpay/internal/platform/jobs"
	"hrpay/internal/transport/http/middleware"
)

const testSecret = "test-secret"

type memoryStore struct {
	mu   sync.Mutex
	jobs []payrun.Job
	runs map[string]payrun.Run
	rows map[string][]payrun.RegisterRow
}

func newMemoryStore(jobs ...payrun.Job) *memoryStore {
	return &memoryStore{jobs: jobs, runs: map[string]payrun.Run{}, rows: map[string][]payrun.RegisterRow{}}
}

func (m *memoryStore) ListJobs(context.Context, payrun.Period, []string) ([]payrun.Job, error) {
	return m.jobs, nil
}

func (m *memoryStore) CreateRun(_ context.Context, run payrun.Run) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run.ID = uuid.NewString()
	m.runs[run.ID] = run
	return run.ID, nil
}

func (m *memoryStore) SaveReport(_ context.Context, runID string, report payrun.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run := m.runs[runID]
	run.Status = report.Status()
	run.Succeeded = report.Succeeded
	run.Failed = report.Failed
	run.Failures = report.Failures
	m.runs[runID] = run
	for _, res := range report.Results {
		m.rows[runID] = append(m.rows[runID], payrun.RegisterRow{
			EmployeeID:         res.EmployeeID,
			CountryCode:        res.Result.CountryCode,
			Gross:              res.Result.Earnings.Gross,
			EmployeeDeductions: res.Result.Deductions.Employee,
			Net:                res.Result.Deductions.Net,
			EmployerTotal:      res.Result.EmployerCosts.Total,
			MonthlyCTC:         res.Result.Totals.MonthlyCTC,
		})
	}
	return nil
}

func (m *memoryStore) MarkRunFailed(_ context.Context, runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run := m.runs[runID]
	run.Status = payrun.RunStatusFailed
	m.runs[runID] = run
	return nil
}

func (m *memoryStore) GetRun(_ context.Context, runID string) (payrun.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[runID]
	if !ok {
		return payrun.Run{}, payrun.ErrRunNotFound
	}
	return run, nil
}

func (m *memoryStore) RegisterRows(_ context.Context, runID string) ([]payrun.RegisterRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[runID], nil
}

func indiaJob(id string) payrun.Job {
	item := func(code, kind string, amount int64) compensation.LineItem {
		return compensation.LineItem{
			ComponentCode: code,
			ComponentType: kind,
			Amount:        decimal.NewFromInt(amount),
			EffectiveDate: time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC),
			Status:        compensation.StatusActive,
		}
	}
	return payrun.Job{
		Profile: compensation.Profile{EmployeeID: id, CountryCode: statutory.CountryIndia, EmployeeType: compensation.EmployeeTypeLocal},
		Items: []compensation.LineItem{
			item("BASIC", compensation.TypeEarning, 10000),
			item("DA", compensation.TypeAllowance, 2000),
			item("HRA", compensation.TypeAllowance, 3000),
		},
	}
}

func newHandler(store payrun.StoreAPI, jobService *jobs.Service) *Handler {
	calc := compensation.NewCalculator(statutory.DefaultRegistry(statutory.DefaultUAERules()))
	runner := payrun.NewRunner(calc, compensation.DefaultAttendancePolicy(), 4)
	h := NewHandler(payrun.NewService(store, runner, nil, nil), jobService, currency.DefaultConfig(), auth.StaticPermissions{}, 0)
	h.Now = func() time.Time { return time.Date(2025, time.April, 30, 9, 0, 0, 0, time.UTC) }
	return h
}

func newRouter(h *Handler) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Auth(testSecret))
	router.Route("/api/v1", h.RegisterRoutes)
	return router
}

func do(t *testing.T, router http.Handler, method, path, role, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if role != "" {
		tok, err := auth.GenerateToken(testSecret, auth.Claims{UserID: "user-7", RoleName: role}, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var env struct {
		Success bool `json:"success"`
		Data    T    `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	require.True(t, env.Success, rec.Body.String())
	return env.Data
}

const inlineBody = `{
  "asOfDate": "2025-04-30",
  "employees": [
    {
      "employeeData": {"employeeId": "E-1", "countryCode": "IND"},
      "compensationComponents": [
        {"componentCode": "BASIC", "componentType": "EARNING", "amount": 10000, "effectiveDate": "2024-04-01"},
        {"componentCode": "DA", "componentType": "ALLOWANCE", "amount": 2000, "effectiveDate": "2024-04-01"},
        {"componentCode": "HRA", "componentType": "ALLOWANCE", "amount": 3000, "effectiveDate": "2024-04-01"}
      ],
      "attendance": [
        {"date": "2025-04-01", "status": "PRESENT"},
        {"date": "2025-04-02", "status": "PRESENT"}
      ]
    },
    {
      "employeeData": {"employeeId": "E-2", "countryCode": "SGP"},
      "compensationComponents": [
        {"componentCode": "BASIC", "componentType": "EARNING", "amount": 5000, "effectiveDate": "2024-04-01"}
      ]
    }
  ]
}`

func TestInlineRunCollectsFailures(t *testing.T) {
	router := newRouter(newHandler(nil, nil))

	rec := do(t, router, http.MethodPost, "/api/v1/payroll/runs", auth.RolePayroll, inlineBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	report := decodeData[ReportResponse](t, rec)
	_, err := uuid.Parse(report.RunID)
	assert.NoError(t, err)
	assert.Equal(t, payrun.RunStatusCompletedWithErrors, report.Status)
	assert.Equal(t, "2025-04-30", report.AsOfDate)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, map[string]int{payrun.FailureUnsupportedCountry: 1}, report.Reasons)

	require.Len(t, report.Results, 1)
	result := report.Results[0]
	assert.Equal(t, "E-1", result.EmployeeID)
	assert.Equal(t, 17529.0, result.Breakdown.Totals.MonthlyCTC)
	assert.Equal(t, "₹13,447.00", result.Breakdown.Formatted["net"])
	require.NotNil(t, result.Attendance)
	assert.Equal(t, 2, result.Attendance.TotalDays)
	assert.Equal(t, 17529.0, report.Totals.MonthlyCTC)

	require.Len(t, report.Failures, 1)
	assert.Equal(t, "E-2", report.Failures[0].EmployeeID)
	assert.Equal(t, payrun.FailureUnsupportedCountry, report.Failures[0].Code)
}

func TestInlineRunValidation(t *testing.T) {
	router := newRouter(newHandler(nil, nil))
	body := `{"employees": [{"employeeData": {"countryCode": "IND"}, "compensationComponents": [{"componentCode": "BASIC", "componentType": "EARNING", "amount": -1, "effectiveDate": "2024-04-01"}]}]}`

	rec := do(t, router, http.MethodPost, "/api/v1/payroll/runs", auth.RolePayroll, body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"employees[0].compensationComponents[0].amount"`)

	rec = do(t, router, http.MethodPost, "/api/v1/payroll/runs?async=true", auth.RolePayroll, inlineBody)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"async"`)
}

func TestStoredRunWithoutStore(t *testing.T) {
	router := newRouter(newHandler(nil, nil))

	rec := do(t, router, http.MethodPost, "/api/v1/payroll/runs", auth.RolePayroll, `{"periodStart": "2025-04-01", "periodEnd": "2025-04-30"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/v1/payroll/runs/"+uuid.NewString(), auth.RoleHR, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStoredRunLifecycle(t *testing.T) {
	store := newMemoryStore(indiaJob("emp-1"), indiaJob("emp-2"))
	router := newRouter(newHandler(store, nil))

	rec := do(t, router, http.MethodPost, "/api/v1/payroll/runs", auth.RolePayroll, `{"periodStart": "2025-04-01", "periodEnd": "2025-04-30"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	report := decodeData[ReportResponse](t, rec)
	assert.Equal(t, payrun.RunStatusCompleted, report.Status)
	assert.Equal(t, "2025-04-30", report.AsOfDate)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 35058.0, report.Totals.MonthlyCTC)

	rec = do(t, router, http.MethodGet, "/api/v1/payroll/runs/"+report.RunID, auth.RoleHR, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	run := decodeData[RunResponse](t, rec)
	assert.Equal(t, payrun.RunStatusCompleted, run.Status)
	assert.Equal(t, "2025-04-01", run.PeriodStart)
	assert.Equal(t, "user-7", run.RequestedBy)
	assert.Empty(t, run.Failures)

	rec = do(t, router, http.MethodGet, "/api/v1/payroll/runs/"+report.RunID+"/register.xlsx", auth.RoleHR, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))
}

func TestStoredRunErrors(t *testing.T) {
	router := newRouter(newHandler(newMemoryStore(), nil))

	rec := do(t, router, http.MethodPost, "/api/v1/payroll/runs", auth.RolePayroll, `{"periodStart": "2025-04-01", "periodEnd": "2025-06-30"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/v1/payroll/runs", auth.RolePayroll, `{"periodStart": "2025-04-30", "periodEnd": "2025-04-01"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"periodEnd"`)

	rec = do(t, router, http.MethodGet, "/api/v1/payroll/runs/"+uuid.NewString(), auth.RoleHR, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/v1/payroll/runs/not-a-run", auth.RoleHR, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAsyncStoredRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	jobService := jobs.New(nil, time.Minute)
	jobService.Start(ctx)

	store := newMemoryStore(indiaJob("emp-1"))
	router := newRouter(newHandler(store, jobService))

	rec := do(t, router, http.MethodPost, "/api/v1/payroll/runs?async=true", auth.RolePayroll, `{"periodStart": "2025-04-01", "periodEnd": "2025-04-30"}`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	run := decodeData[RunResponse](t, rec)
	assert.Equal(t, payrun.RunStatusRunning, run.Status)

	require.Eventually(t, func() bool {
		got, err := store.GetRun(context.Background(), run.ID)
		return err == nil && got.Status == payrun.RunStatusCompleted
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	jobService.Wait()
}

func TestAsyncRunQueuedAtShutdownIsClosed(t *testing.T) {
	jobService := jobs.New(nil, time.Minute)
	store := newMemoryStore(indiaJob("emp-1"))
	router := newRouter(newHandler(store, jobService))

	rec := do(t, router, http.MethodPost, "/api/v1/payroll/runs?async=true", auth.RolePayroll, `{"periodStart": "2025-04-01", "periodEnd": "2025-04-30"}`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	run := decodeData[RunResponse](t, rec)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	jobService.Start(ctx)
	jobService.Wait()

	got, err := store.GetRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, payrun.RunStatusFailed, got.Status)
	require.Len(t, got.Failures, 1)
	assert.Equal(t, payrun.FailureCancelled, got.Failures[0].Code)

	rec = do(t, router, http.MethodPost, "/api/v1/payroll/runs?async=true", auth.RolePayroll, `{"periodStart": "2025-04-01", "periodEnd": "2025-04-30"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	for id, stored := range store.runs {
		assert.NotEqual(t, payrun.RunStatusRunning, stored.Status, id)
	}
}

func TestPayrollPermissions(t *testing.T) {
	router := newRouter(newHandler(newMemoryStore(), nil))

	rec := do(t, router, http.MethodPost, "/api/v1/payroll/runs", auth.RoleHR, inlineBody)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/v1/payroll/runs/"+uuid.NewString(), auth.RoleEmployee, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/v1/payroll/runs/"+uuid.NewString(), "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRunRateLimit(t *testing.T) {
	h := newHandler(nil, nil)
	h.RunLimit = 10
	router := newRouter(h)

	rec := do(t, router, http.MethodPost, "/api/v1/payroll/runs", auth.RolePayroll, inlineBody)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, router, http.MethodPost, "/api/v1/payroll/runs", auth.RolePayroll, inlineBody)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
