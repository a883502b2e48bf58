package payrollhandler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"hrpay/internal/domain/auth"
	"hrpay/internal/domain/currency"
	"hrpay/internal/domain/payrun"
	"hrpay/internal/platform/jobs"
	"hrpay/internal/transport/http/api"
	"hrpay/internal/transport/http/middleware"
	"hrpay/internal/transport/http/shared"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var errQueueFull = errors.New("job queue full")

type Handler struct {
	Service    *payrun.Service
	Jobs       *jobs.Service
	Currencies currency.Config
	Perms      middleware.PermissionStore
	// RunLimit is the base per-minute budget the run endpoint derives its
	// own limit from; zero disables it.
	RunLimit   int
	Now        func() time.Time
}

func NewHandler(service *payrun.Service, jobService *jobs.Service, currencies currency.Config, perms middleware.PermissionStore, runLimit int) *Handler {
	return &Handler{
		Service:    service,
		Jobs:       jobService,
		Currencies: currencies,
		Perms:      perms,
		RunLimit:   runLimit,
		Now:        time.Now,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payroll/runs", func(r chi.Router) {
		r.With(
			middleware.RequirePermission(auth.PermPayrollRun, h.Perms),
			h.runLimiter(),
		).Post("/", h.handleRun)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(auth.PermPayrollRead, h.Perms))
			r.Get("/{runID}", h.handleGet)
			r.Get("/{runID}/register.xlsx", h.handleRegister)
		})
	})
}

func (h *Handler) runLimiter() func(http.Handler) http.Handler {
	if h.RunLimit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return middleware.PayrollRunRateLimit(h.RunLimit, time.Minute)
}

func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload runPayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	async, err := parseAsync(r)
	if err != nil {
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "async", Reason: "must be a boolean"}})
		return
	}

	if payload.inline() {
		h.runInline(w, r, payload, async, requestID)
		return
	}
	h.runStored(w, r, payload, async, requestID)
}

func (h *Handler) runInline(w http.ResponseWriter, r *http.Request, payload runPayload, async bool, requestID string) {
	v := shared.NewValidator()
	if async {
		v.Add("async", "is only supported for stored runs")
	}
	asOf, jobList := parseInline(v, payload, h.Now().UTC())
	if v.Reject(w, requestID) {
		return
	}

	report := h.Service.RunInline(r.Context(), asOf, jobList)
	api.Success(w, NewReport(report, h.Currencies), requestID)
}

func (h *Handler) runStored(w http.ResponseWriter, r *http.Request, payload runPayload, async bool, requestID string) {
	if !h.Service.HasStore() {
		writeRunError(w, payrun.ErrStoreUnavailable, requestID)
		return
	}
	v := shared.NewValidator()
	period := parseStored(v, payload)
	if v.Reject(w, requestID) {
		return
	}

	req := payrun.Request{
		Period:      period,
		EmployeeIDs: payload.EmployeeIDs,
		RequestID:   requestID,
		IP:          middleware.ClientIP(r),
	}
	if user, ok := middleware.GetUser(r.Context()); ok {
		req.RequestedBy = user.UserID
	}

	run, err := h.Service.Prepare(r.Context(), req)
	if err != nil {
		writeRunError(w, err, requestID)
		return
	}

	if !async {
		report, err := h.Service.Execute(r.Context(), run, req)
		if err != nil {
			writeRunError(w, err, requestID)
			return
		}
		api.Success(w, NewReport(report, h.Currencies), requestID)
		return
	}

	execute := func(ctx context.Context) (any, error) {
		report, err := h.Service.Execute(ctx, run, req)
		if err != nil {
			return map[string]any{"runId": run.ID}, err
		}
		return map[string]any{
			"runId":     run.ID,
			"status":    report.Status(),
			"succeeded": report.Succeeded,
			"failed":    report.Failed,
		}, nil
	}
	if h.Jobs == nil || !h.Jobs.Enqueue(jobs.JobPayrollRun, run.ID, execute) {
		h.Service.Abort(r.Context(), run, req, errQueueFull)
		api.Fail(w, http.StatusServiceUnavailable, "queue_full", "payroll run queue is full", requestID)
		return
	}
	api.Accepted(w, NewRun(run), requestID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	run, err := h.Service.GetRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		writeRunError(w, err, requestID)
		return
	}
	api.Success(w, NewRun(run), requestID)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	runID := chi.URLParam(r, "runID")

	var buf bytes.Buffer
	if err := h.Service.WriteRegister(r.Context(), runID, &buf); err != nil {
		writeRunError(w, err, requestID)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "payroll-register-"+runID+".xlsx"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func parseAsync(r *http.Request) (bool, error) {
	raw := r.URL.Query().Get("async")
	if raw == "" {
		return false, nil
	}
	return strconv.ParseBool(raw)
}

func writeRunError(w http.ResponseWriter, err error, requestID string) {
	switch {
	case errors.Is(err, payrun.ErrInvalidPeriod):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), requestID)
	case errors.Is(err, payrun.ErrRunNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "payroll run not found", requestID)
	case errors.Is(err, payrun.ErrStoreUnavailable):
		api.Fail(w, http.StatusServiceUnavailable, "store_unavailable", "payroll store is not configured", requestID)
	default:
		slog.Warn("payroll run failed", "requestId", requestID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "payroll_error", "payroll run failed", requestID)
	}
}
