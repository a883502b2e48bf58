package compensationhandler

import (
	"github.com/shopspring/decimal"

	"hrpay/internal/domain/compensation"
	"hrpay/internal/domain/currency"
)

type ContributionResponse struct {
	Employee float64 `json:"employee"`
	Employer float64 `json:"employer"`
}

type EarningsResponse struct {
	Gross      float64            `json:"gross"`
	Components map[string]float64 `json:"components"`
}

type DeductionsResponse struct {
	Statutory  map[string]ContributionResponse `json:"statutory"`
	Components map[string]float64              `json:"components"`
	Fixed      float64                         `json:"fixed"`
	Employee   float64                         `json:"employee"`
	Net        float64                         `json:"net"`
}

type EmployerCostsResponse struct {
	Gratuity  float64 `json:"gratuity"`
	AirTicket float64 `json:"airTicket"`
	Total     float64 `json:"total"`
}

type TotalsResponse struct {
	MonthlyCTC float64 `json:"monthlyCTC"`
	AnnualCTC  float64 `json:"annualCTC"`
}

type BreakdownResponse struct {
	EmployeeID    string                 `json:"employeeId,omitempty"`
	CountryCode   string                 `json:"countryCode"`
	AsOfDate      string                 `json:"asOfDate"`
	Currency      currency.Currency      `json:"currency"`
	Earnings      EarningsResponse       `json:"earnings"`
	Deductions    DeductionsResponse     `json:"deductions"`
	EmployerCosts EmployerCostsResponse  `json:"employerCosts"`
	Totals        TotalsResponse         `json:"totals"`
	Formatted     map[string]string      `json:"formatted"`
	Warnings      []compensation.Warning `json:"warnings"`
}

// NewBreakdown converts a calculation into its wire form. Currency only
// affects presentation fields.
func NewBreakdown(employeeID string, res compensation.Result, cur currency.Currency) BreakdownResponse {
	statutory := make(map[string]ContributionResponse, len(res.Deductions.Statutory))
	for name, c := range res.Deductions.Statutory {
		statutory[name] = ContributionResponse{Employee: c.Employee.InexactFloat64(), Employer: c.Employer.InexactFloat64()}
	}
	warnings := res.Warnings
	if warnings == nil {
		warnings = []compensation.Warning{}
	}
	return BreakdownResponse{
		EmployeeID:  employeeID,
		CountryCode: res.CountryCode,
		AsOfDate:    res.AsOf.Format("2006-01-02"),
		Currency:    cur,
		Earnings: EarningsResponse{
			Gross:      res.Earnings.Gross.InexactFloat64(),
			Components: floats(res.Earnings.Components),
		},
		Deductions: DeductionsResponse{
			Statutory:  statutory,
			Components: floats(res.Deductions.Components),
			Fixed:      res.Deductions.Fixed.InexactFloat64(),
			Employee:   res.Deductions.Employee.InexactFloat64(),
			Net:        res.Deductions.Net.InexactFloat64(),
		},
		EmployerCosts: EmployerCostsResponse{
			Gratuity:  res.EmployerCosts.Gratuity.InexactFloat64(),
			AirTicket: res.EmployerCosts.AirTicket.InexactFloat64(),
			Total:     res.EmployerCosts.Total.InexactFloat64(),
		},
		Totals: TotalsResponse{
			MonthlyCTC: res.Totals.MonthlyCTC.InexactFloat64(),
			AnnualCTC:  res.Totals.AnnualCTC.InexactFloat64(),
		},
		Formatted: map[string]string{
			"gross":              cur.Format(res.Earnings.Gross),
			"employeeDeductions": cur.Format(res.Deductions.Employee),
			"net":                cur.Format(res.Deductions.Net),
			"employerCost":       cur.Format(res.EmployerCosts.Total),
			"monthlyCTC":         cur.Format(res.Totals.MonthlyCTC),
			"annualCTC":          cur.Format(res.Totals.AnnualCTC),
		},
		Warnings: warnings,
	}
}

func floats(values map[string]decimal.Decimal) map[string]float64 {
	out := make(map[string]float64, len(values))
	for code, value := range values {
		out[code] = value.InexactFloat64()
	}
	return out
}
