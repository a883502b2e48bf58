package statutory

import "github.com/shopspring/decimal"

const (
	ContributionEPF      = "EPF"
	ContributionEPS      = "EPS"
	ContributionESI      = "ESI"
	ContributionEDLI     = "EDLI"
	ContributionEPFAdmin = "EPF_ADMIN"
)

var (
	pfWageCap       = decimal.NewFromInt(15000)
	epfRate         = decimal.RequireFromString("0.12")
	epsRate         = decimal.RequireFromString("0.0833")
	epsCap          = decimal.NewFromInt(1250)
	esiGrossCeiling = decimal.NewFromInt(21000)
	esiEmployeeRate = decimal.RequireFromString("0.0075")
	esiEmployerRate = decimal.RequireFromString("0.0325")
	gratuityRate    = decimal.RequireFromString("0.0481")
	edliRate        = decimal.RequireFromString("0.005")
	edliCap         = decimal.NewFromInt(75)
	epfAdminRate    = decimal.RequireFromString("0.005")
	epfAdminCap     = decimal.NewFromInt(75)
)

type IndiaBreakdown struct {
	PFBase        decimal.Decimal
	EPFEmployee   decimal.Decimal
	EPSEmployer   decimal.Decimal
	EPFEmployer   decimal.Decimal
	ESIEligible   bool
	ESIEmployee   decimal.Decimal
	ESIEmployer   decimal.Decimal
	Gratuity      decimal.Decimal
	EDLI          decimal.Decimal
	EPFAdmin      decimal.Decimal
	EmployeeTotal decimal.Decimal
	EmployerTotal decimal.Decimal
}

// EvaluateIndia applies EPF/EPS/ESI/EDLI/gratuity rules. Every amount is
// rounded to a whole rupee before it enters a total.
func EvaluateIndia(basic, da, gross decimal.Decimal) IndiaBreakdown {
	pfBase := decimal.Min(basic.Add(da), pfWageCap)
	epfEmployee := roundUnit(pfBase.Mul(epfRate))
	epsEmployer := roundUnit(decimal.Min(pfBase.Mul(epsRate), epsCap))
	epfEmployer := roundUnit(decimal.Max(pfBase.Mul(epfRate).Sub(epsEmployer), decimal.Zero))

	esiEligible := gross.LessThanOrEqual(esiGrossCeiling)
	esiEmployee, esiEmployer := decimal.Zero, decimal.Zero
	if esiEligible {
		esiEmployee = roundUnit(gross.Mul(esiEmployeeRate))
		esiEmployer = roundUnit(gross.Mul(esiEmployerRate))
	}

	gratuity := roundUnit(basic.Mul(gratuityRate))
	edli := roundUnit(decimal.Min(pfBase.Mul(edliRate), edliCap))
	epfAdmin := roundUnit(decimal.Min(pfBase.Mul(epfAdminRate), epfAdminCap))

	return IndiaBreakdown{
		PFBase:        pfBase,
		EPFEmployee:   epfEmployee,
		EPSEmployer:   epsEmployer,
		EPFEmployer:   epfEmployer,
		ESIEligible:   esiEligible,
		ESIEmployee:   esiEmployee,
		ESIEmployer:   esiEmployer,
		Gratuity:      gratuity,
		EDLI:          edli,
		EPFAdmin:      epfAdmin,
		EmployeeTotal: epfEmployee.Add(esiEmployee),
		EmployerTotal: decimal.Sum(epfEmployer, epsEmployer, esiEmployer, gratuity, edli, epfAdmin),
	}
}

type India struct{}

func (India) Evaluate(in Input) Result {
	b := EvaluateIndia(in.Basic, in.DA, in.Gross)

	contributions := map[string]Contribution{
		ContributionEPF:      {Employee: b.EPFEmployee, Employer: b.EPFEmployer},
		ContributionEPS:      {Employee: decimal.Zero, Employer: b.EPSEmployer},
		ContributionEDLI:     {Employee: decimal.Zero, Employer: b.EDLI},
		ContributionEPFAdmin: {Employee: decimal.Zero, Employer: b.EPFAdmin},
	}
	if b.ESIEligible {
		contributions[ContributionESI] = Contribution{Employee: b.ESIEmployee, Employer: b.ESIEmployer}
	}

	return Result{
		Contributions: contributions,
		EmployeeTotal: b.EmployeeTotal,
		EmployerTotal: b.EmployerTotal.Sub(b.Gratuity),
		Gratuity:      b.Gratuity,
		AirTicket:     decimal.Zero,
	}
}
