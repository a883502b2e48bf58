package statutory

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	SegmentEconomy        = "ECONOMY"
	SegmentPremiumEconomy = "PREMIUM_ECONOMY"
	SegmentBusiness       = "BUSINESS"
	SegmentFirst          = "FIRST"

	MaxAirTickets = 4
)

var Segments = []string{SegmentEconomy, SegmentPremiumEconomy, SegmentBusiness, SegmentFirst}

var (
	monthsPerYear = decimal.NewFromInt(12)
	one           = decimal.NewFromInt(1)
)

// UAERules parameterizes end-of-service accrual and air ticket amortization.
// Gratuity accrues FirstYearsDays of basic per year of service until
// FirstYearsSpan completed years, then LaterDays per year.
type UAERules struct {
	DaysPerMonth        decimal.Decimal
	FirstYearsDays      decimal.Decimal
	LaterDays           decimal.Decimal
	FirstYearsSpan      int
	AirTicketAnnualFare decimal.Decimal
	SegmentWeights      map[string]decimal.Decimal
}

func DefaultUAERules() UAERules {
	return UAERules{
		DaysPerMonth:        decimal.NewFromInt(30),
		FirstYearsDays:      decimal.NewFromInt(21),
		LaterDays:           decimal.NewFromInt(30),
		FirstYearsSpan:      5,
		AirTicketAnnualFare: decimal.NewFromInt(2400),
		SegmentWeights: map[string]decimal.Decimal{
			SegmentEconomy:        decimal.NewFromInt(1),
			SegmentPremiumEconomy: decimal.RequireFromString("1.5"),
			SegmentBusiness:       decimal.RequireFromString("2.5"),
			SegmentFirst:          decimal.NewFromInt(4),
		},
	}
}

type UAE struct {
	Rules UAERules
}

func (u UAE) Evaluate(in Input) Result {
	result := Zero()
	result.Gratuity = u.MonthlyGratuity(in.Basic, in.JoiningDate, in.AsOf)
	result.AirTicket = u.MonthlyAirTicket(in.AirTicketEligible, in.AirTicketSegment)
	return result
}

// MonthlyGratuity is the end-of-service provision for one month of service.
func (u UAE) MonthlyGratuity(basic decimal.Decimal, joiningDate, asOf time.Time) decimal.Decimal {
	if !basic.IsPositive() || u.Rules.DaysPerMonth.IsZero() {
		return decimal.Zero
	}
	if !joiningDate.IsZero() && asOf.Before(joiningDate) {
		return decimal.Zero
	}
	accrualDays := u.Rules.FirstYearsDays
	if CompletedYears(joiningDate, asOf) >= u.Rules.FirstYearsSpan {
		accrualDays = u.Rules.LaterDays
	}
	return roundUnit(basic.Mul(accrualDays).Div(u.Rules.DaysPerMonth.Mul(monthsPerYear)))
}

// MonthlyAirTicket amortizes the annual ticket entitlement over twelve months.
func (u UAE) MonthlyAirTicket(eligible int, segment string) decimal.Decimal {
	if eligible <= 0 {
		return decimal.Zero
	}
	if eligible > MaxAirTickets {
		eligible = MaxAirTickets
	}
	weight, ok := u.Rules.SegmentWeights[strings.ToUpper(strings.TrimSpace(segment))]
	if !ok {
		weight = one
	}
	annual := u.Rules.AirTicketAnnualFare.Mul(weight).Mul(decimal.NewFromInt(int64(eligible)))
	return roundUnit(annual.Div(monthsPerYear))
}

// CompletedYears counts full anniversaries between joining and asOf.
func CompletedYears(joiningDate, asOf time.Time) int {
	if joiningDate.IsZero() || asOf.Before(joiningDate) {
		return 0
	}
	years := asOf.Year() - joiningDate.Year()
	anniversary := joiningDate.AddDate(years, 0, 0)
	if asOf.Before(anniversary) {
		years--
	}
	return years
}
