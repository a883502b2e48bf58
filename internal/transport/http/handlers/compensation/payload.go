package compensationhandler

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"hrpay/internal/domain/compensation"
	"hrpay/internal/domain/statutory"
	"hrpay/internal/transport/http/shared"
)

const maxComponents = 200

var hundred = decimal.NewFromInt(100)

type EmployeePayload struct {
	EmployeeID        string `json:"employeeId"`
	CountryCode       string `json:"countryCode"`
	EmployeeType      string `json:"employeeType"`
	JoiningDate       string `json:"joiningDate"`
	AirTicketEligible int    `json:"airTicketEligible"`
	AirTicketSegment  string `json:"airTicketSegment"`
}

type ComponentPayload struct {
	ComponentCode      string          `json:"componentCode"`
	ComponentType      string          `json:"componentType"`
	IsPercentage       bool            `json:"isPercentage"`
	Amount             decimal.Decimal `json:"amount"`
	Percentage         decimal.Decimal `json:"percentage"`
	BasisComponentCode string          `json:"basisComponentCode"`
	EffectiveDate      string          `json:"effectiveDate"`
	EndDate            string          `json:"endDate"`
	Status             string          `json:"status"`
}

// ParseEmployee validates one employee's payload into domain values. Field
// names in issues carry prefix so batch payloads point at the right entry.
func ParseEmployee(v *shared.Validator, prefix string, employee EmployeePayload, components []ComponentPayload) (compensation.Profile, []compensation.LineItem) {
	field := func(name string) string { return prefix + name }

	v.Required(field("employeeData.countryCode"), employee.CountryCode, "is required")
	v.Enum(field("employeeData.employeeType"), employee.EmployeeType, compensation.EmployeeTypes, "must be LOCAL or EXPATRIATE")
	v.Enum(field("employeeData.airTicketSegment"), employee.AirTicketSegment, statutory.Segments, "must be ECONOMY, PREMIUM_ECONOMY, BUSINESS or FIRST")
	v.IntBetween(field("employeeData.airTicketEligible"), employee.AirTicketEligible, 0, statutory.MaxAirTickets)

	var joining time.Time
	if statutory.NormalizeCountry(employee.CountryCode) == statutory.CountryUAE {
		joining, _ = v.Date(field("employeeData.joiningDate"), employee.JoiningDate)
	} else {
		joining = v.OptionalDate(field("employeeData.joiningDate"), employee.JoiningDate)
	}

	profile := compensation.Profile{
		EmployeeID:        strings.TrimSpace(employee.EmployeeID),
		CountryCode:       statutory.NormalizeCountry(employee.CountryCode),
		EmployeeType:      upperOr(employee.EmployeeType, compensation.EmployeeTypeLocal),
		JoiningDate:       joining,
		AirTicketEligible: employee.AirTicketEligible,
		AirTicketSegment:  upperOr(employee.AirTicketSegment, statutory.SegmentEconomy),
	}

	if len(components) == 0 {
		v.Add(field("compensationComponents"), "at least one component is required")
	}
	if len(components) > maxComponents {
		v.Add(field("compensationComponents"), fmt.Sprintf("at most %d components are allowed", maxComponents))
	}

	items := make([]compensation.LineItem, 0, len(components))
	for i, c := range components {
		at := func(name string) string { return fmt.Sprintf("%scompensationComponents[%d].%s", prefix, i, name) }
		v.Required(at("componentCode"), c.ComponentCode, "is required")
		v.Required(at("componentType"), c.ComponentType, "is required")
		v.Enum(at("componentType"), c.ComponentType, compensation.ComponentTypes, "must be EARNING, ALLOWANCE or DEDUCTION")
		v.Enum(at("status"), c.Status, compensation.Statuses, "must be ACTIVE or INACTIVE")
		v.NonNegative(at("amount"), c.Amount)
		if c.IsPercentage {
			v.Between(at("percentage"), c.Percentage, decimal.Zero, hundred)
		}
		effective, _ := v.Date(at("effectiveDate"), c.EffectiveDate)
		item := compensation.LineItem{
			ComponentCode:      strings.ToUpper(strings.TrimSpace(c.ComponentCode)),
			ComponentType:      strings.ToUpper(strings.TrimSpace(c.ComponentType)),
			IsPercentage:       c.IsPercentage,
			Amount:             c.Amount,
			Percentage:         c.Percentage,
			BasisComponentCode: strings.ToUpper(strings.TrimSpace(c.BasisComponentCode)),
			EffectiveDate:      effective,
			Status:             upperOr(c.Status, compensation.StatusActive),
		}
		if end := v.OptionalDate(at("endDate"), c.EndDate); !end.IsZero() {
			v.DateOrder(at("effectiveDate"), effective, at("endDate"), end)
			item.EndDate = &end
		}
		items = append(items, item)
	}
	return profile, items
}

func upperOr(value, fallback string) string {
	if trimmed := strings.ToUpper(strings.TrimSpace(value)); trimmed != "" {
		return trimmed
	}
	return fallback
}
