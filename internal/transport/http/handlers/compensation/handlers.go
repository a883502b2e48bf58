package compensationhandler

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"hrpay/internal/domain/auth"
	"hrpay/internal/domain/compensation"
	"hrpay/internal/domain/currency"
	"hrpay/internal/domain/payslip"
	"hrpay/internal/transport/http/api"
	"hrpay/internal/transport/http/middleware"
	"hrpay/internal/transport/http/shared"
)

type CalculationObserver interface {
	RecordCalculation(err error)
}

type Handler struct {
	Calc       *compensation.Calculator
	Currencies currency.Config
	Perms      middleware.PermissionStore
	Metrics    CalculationObserver
	Now        func() time.Time
}

func NewHandler(calc *compensation.Calculator, currencies currency.Config, perms middleware.PermissionStore, metrics CalculationObserver) *Handler {
	return &Handler{Calc: calc, Currencies: currencies, Perms: perms, Metrics: metrics, Now: time.Now}
}

type calculatePayload struct {
	EmployeeData           EmployeePayload    `json:"employeeData"`
	CompensationComponents []ComponentPayload `json:"compensationComponents"`
	AsOfDate               string             `json:"asOfDate"`
}

type payslipPayload struct {
	calculatePayload
	EmployeeName string `json:"employeeName"`
	PeriodLabel  string `json:"periodLabel"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/compensation", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermCompensationCalculate, h.Perms))
		r.Post("/calculate", h.handleCalculate)
		r.Post("/payslip", h.handlePayslip)
	})
}

func (h *Handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload calculatePayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}

	profile, res, ok := h.calculate(w, payload, requestID)
	if !ok {
		return
	}
	api.Success(w, NewBreakdown(profile.EmployeeID, res, h.Currencies.ForCountry(res.CountryCode)), requestID)
}

func (h *Handler) handlePayslip(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload payslipPayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}

	profile, res, ok := h.calculate(w, payload.calculatePayload, requestID)
	if !ok {
		return
	}

	var buf bytes.Buffer
	err := payslip.Render(&buf, payslip.Payslip{
		EmployeeID:   profile.EmployeeID,
		EmployeeName: strings.TrimSpace(payload.EmployeeName),
		PeriodLabel:  strings.TrimSpace(payload.PeriodLabel),
		Currency:     h.Currencies.ForCountry(res.CountryCode),
		Result:       res,
	})
	if err != nil {
		slog.Warn("payslip render failed", "requestId", requestID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "payslip_error", "failed to render payslip", requestID)
		return
	}

	name := "payslip"
	if profile.EmployeeID != "" {
		name += "-" + profile.EmployeeID
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+"-"+res.AsOf.Format("2006-01")+".pdf"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) calculate(w http.ResponseWriter, payload calculatePayload, requestID string) (compensation.Profile, compensation.Result, bool) {
	v := shared.NewValidator()
	profile, items := ParseEmployee(v, "", payload.EmployeeData, payload.CompensationComponents)
	asOf := h.Now().UTC()
	if strings.TrimSpace(payload.AsOfDate) != "" {
		asOf, _ = v.Date("asOfDate", payload.AsOfDate)
	}
	if v.Reject(w, requestID) {
		return compensation.Profile{}, compensation.Result{}, false
	}

	res, err := h.Calc.Calculate(profile, items, asOf)
	if h.Metrics != nil {
		h.Metrics.RecordCalculation(err)
	}
	if err != nil {
		WriteCalculationError(w, err, requestID)
		return compensation.Profile{}, compensation.Result{}, false
	}
	if len(res.Warnings) > 0 {
		slog.Warn("calculation warnings", "requestId", requestID, "employeeId", profile.EmployeeID, "warnings", res.Warnings)
	}
	return profile, res, true
}

// WriteCalculationError maps calculator errors to API responses.
func WriteCalculationError(w http.ResponseWriter, err error, requestID string) {
	var unsupported *compensation.UnsupportedCountryError
	switch {
	case errors.As(err, &unsupported):
		api.FailWithDetails(w, http.StatusUnprocessableEntity, "unsupported_country", err.Error(),
			map[string]any{"countryCode": unsupported.CountryCode}, requestID)
	case errors.Is(err, compensation.ErrInvalidDateRange), errors.Is(err, compensation.ErrInvalidLineItem):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), requestID)
	default:
		slog.Warn("calculation failed", "requestId", requestID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "calculation_error", "calculation failed", requestID)
	}
}
