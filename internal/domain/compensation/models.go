package compensation

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"hrpay/internal/domain/statutory"
)

type LineItem struct {
	ComponentCode      string          `json:"componentCode"`
	ComponentType      string          `json:"componentType"`
	IsPercentage       bool            `json:"isPercentage"`
	Amount             decimal.Decimal `json:"amount"`
	Percentage         decimal.Decimal `json:"percentage"`
	BasisComponentCode string          `json:"basisComponentCode,omitempty"`
	EffectiveDate      time.Time       `json:"effectiveDate"`
	EndDate            *time.Time      `json:"endDate,omitempty"`
	Status             string          `json:"status"`
}

// ActiveOn reports whether the item participates on asOf: status ACTIVE and
// asOf within [EffectiveDate, EndDate). Dates compare at day granularity.
func (li LineItem) ActiveOn(asOf time.Time) bool {
	if normalize(li.Status) != StatusActive {
		return false
	}
	day := dateOnly(asOf)
	if day.Before(dateOnly(li.EffectiveDate)) {
		return false
	}
	if li.EndDate != nil && !day.Before(dateOnly(*li.EndDate)) {
		return false
	}
	return true
}

// Basis returns the component a percentage item is computed against.
func (li LineItem) Basis() string {
	if code := normalize(li.BasisComponentCode); code != "" {
		return code
	}
	return CodeBasic
}

func (li LineItem) isEarning() bool {
	t := normalize(li.ComponentType)
	return t == TypeEarning || t == TypeAllowance
}

func (li LineItem) isDeduction() bool {
	return normalize(li.ComponentType) == TypeDeduction
}

type Profile struct {
	EmployeeID        string    `json:"employeeId,omitempty"`
	CountryCode       string    `json:"countryCode"`
	EmployeeType      string    `json:"employeeType"`
	JoiningDate       time.Time `json:"joiningDate"`
	AirTicketEligible int       `json:"airTicketEligible"`
	AirTicketSegment  string    `json:"airTicketSegment"`
}

type Warning struct {
	Code               string `json:"code"`
	ComponentCode      string `json:"componentCode"`
	BasisComponentCode string `json:"basisComponentCode,omitempty"`
	Message            string `json:"message"`
}

type Earnings struct {
	Gross      decimal.Decimal            `json:"gross"`
	Components map[string]decimal.Decimal `json:"components"`
}

type Deductions struct {
	Statutory  map[string]statutory.Contribution `json:"statutory"`
	Components map[string]decimal.Decimal        `json:"components"`
	Fixed      decimal.Decimal                   `json:"fixed"`
	Employee   decimal.Decimal                   `json:"employee"`
	Net        decimal.Decimal                   `json:"net"`
}

type EmployerCosts struct {
	Gratuity  decimal.Decimal `json:"gratuity"`
	AirTicket decimal.Decimal `json:"airTicket"`
	Total     decimal.Decimal `json:"total"`
}

type Totals struct {
	MonthlyCTC decimal.Decimal `json:"monthlyCTC"`
	AnnualCTC  decimal.Decimal `json:"annualCTC"`
}

// Result is the full breakdown of one calculation. Amounts marshal as
// decimal strings.
type Result struct {
	CountryCode   string        `json:"countryCode"`
	AsOf          time.Time     `json:"asOf"`
	Earnings      Earnings      `json:"earnings"`
	Deductions    Deductions    `json:"deductions"`
	EmployerCosts EmployerCosts `json:"employerCosts"`
	Totals        Totals        `json:"totals"`
	Warnings      []Warning     `json:"warnings,omitempty"`
}

func normalize(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
