package compensation

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"hrpay/internal/domain/statutory"
)

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// Calculator turns a profile and its compensation line items into a CTC and
// net pay breakdown. It holds no mutable state and is safe for concurrent use.
type Calculator struct {
	registry *statutory.Registry
}

func NewCalculator(registry *statutory.Registry) *Calculator {
	return &Calculator{registry: registry}
}

func (c *Calculator) Registry() *statutory.Registry {
	return c.registry
}

// Calculate filters items to those active on asOf, resolves percentages
// against their basis, sums earnings and deductions and applies the
// profile country's statutory rules. Several active rows for one code are
// summed. The only error is an unsupported country.
func (c *Calculator) Calculate(profile Profile, items []LineItem, asOf time.Time) (Result, error) {
	country := statutory.NormalizeCountry(profile.CountryCode)
	evaluator, ok := c.registry.Lookup(country)
	if !ok {
		return Result{}, &UnsupportedCountryError{CountryCode: country}
	}

	active := Active(items, asOf)

	fixedByCode := map[string]decimal.Decimal{}
	earnings := map[string]decimal.Decimal{}
	deductions := map[string]decimal.Decimal{}
	fixedGross := decimal.Zero
	for _, item := range active {
		if item.IsPercentage {
			continue
		}
		code := normalize(item.ComponentCode)
		fixedByCode[code] = fixedByCode[code].Add(item.Amount)
		switch {
		case item.isEarning():
			earnings[code] = earnings[code].Add(item.Amount)
			fixedGross = fixedGross.Add(item.Amount)
		case item.isDeduction():
			deductions[code] = deductions[code].Add(item.Amount)
		}
	}

	var warnings []Warning
	for _, item := range active {
		if !item.IsPercentage {
			continue
		}
		code := normalize(item.ComponentCode)
		amount := decimal.Zero
		basisCode := item.Basis()
		basis, found := fixedByCode[basisCode]
		if !found {
			warnings = append(warnings, Warning{
				Code:               WarningMissingBasis,
				ComponentCode:      code,
				BasisComponentCode: basisCode,
				Message:            fmt.Sprintf("basis component %s not active; %s resolved to 0", basisCode, code),
			})
		} else if !fixedGross.IsZero() {
			amount = basis.Mul(item.Percentage).Div(hundred).Round(2)
		}
		switch {
		case item.isEarning():
			earnings[code] = earnings[code].Add(amount)
		case item.isDeduction():
			deductions[code] = deductions[code].Add(amount)
		}
	}

	gross := sumValues(earnings)
	fixedDeductions := sumValues(deductions)

	stat := statutory.Zero()
	if !gross.IsZero() {
		stat = evaluator.Evaluate(statutory.Input{
			Basic:             earnings[CodeBasic],
			DA:                earnings[CodeDA],
			Gross:             gross,
			EmployeeType:      normalize(profile.EmployeeType),
			JoiningDate:       profile.JoiningDate,
			AsOf:              asOf,
			AirTicketEligible: profile.AirTicketEligible,
			AirTicketSegment:  profile.AirTicketSegment,
		})
	}

	employeeDeductions := fixedDeductions.Add(stat.EmployeeTotal)
	employerTotal := stat.EmployerCost()
	monthlyCTC := gross.Add(employerTotal)

	contributions := make(map[string]statutory.Contribution, len(stat.Contributions))
	for name, contribution := range stat.Contributions {
		contributions[name] = contribution
	}

	return Result{
		CountryCode: country,
		AsOf:        dateOnly(asOf),
		Earnings: Earnings{
			Gross:      gross,
			Components: earnings,
		},
		Deductions: Deductions{
			Statutory:  contributions,
			Components: deductions,
			Fixed:      fixedDeductions,
			Employee:   employeeDeductions,
			Net:        gross.Sub(employeeDeductions),
		},
		EmployerCosts: EmployerCosts{
			Gratuity:  stat.Gratuity,
			AirTicket: stat.AirTicket,
			Total:     employerTotal,
		},
		Totals: Totals{
			MonthlyCTC: monthlyCTC,
			AnnualCTC:  monthlyCTC.Mul(twelve),
		},
		Warnings: warnings,
	}, nil
}

// Active returns the items that participate in a calculation on asOf.
func Active(items []LineItem, asOf time.Time) []LineItem {
	out := make([]LineItem, 0, len(items))
	for _, item := range items {
		if item.ActiveOn(asOf) {
			out = append(out, item)
		}
	}
	return out
}

// ValidateItems rejects structurally invalid line items before a batch
// calculation. Request handlers run the same checks field by field.
func ValidateItems(items []LineItem) error {
	for _, item := range items {
		code := normalize(item.ComponentCode)
		if code == "" {
			return fmt.Errorf("%w: component code is required", ErrInvalidLineItem)
		}
		if !contains(ComponentTypes, normalize(item.ComponentType)) {
			return fmt.Errorf("%w: %s has unknown type %q", ErrInvalidLineItem, code, item.ComponentType)
		}
		if !contains(Statuses, normalize(item.Status)) {
			return fmt.Errorf("%w: %s has unknown status %q", ErrInvalidLineItem, code, item.Status)
		}
		if item.IsPercentage && (item.Percentage.IsNegative() || item.Percentage.GreaterThan(hundred)) {
			return fmt.Errorf("%w: %s percentage must be between 0 and 100", ErrInvalidLineItem, code)
		}
		if item.EndDate != nil && dateOnly(*item.EndDate).Before(dateOnly(item.EffectiveDate)) {
			return fmt.Errorf("%w: %s", ErrInvalidDateRange, code)
		}
	}
	return nil
}

func sumValues(values map[string]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, value := range values {
		total = total.Add(value)
	}
	return total
}

func contains(values []string, value string) bool {
	for _, candidate := range values {
		if candidate == value {
			return true
		}
	}
	return false
}
