package statutory

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	CountryIndia = "IND"
	CountryUAE   = "UAE"
)

// Input is what a country rule set sees of one employee's month.
type Input struct {
	Basic             decimal.Decimal
	DA                decimal.Decimal
	Gross             decimal.Decimal
	EmployeeType      string
	JoiningDate       time.Time
	AsOf              time.Time
	AirTicketEligible int
	AirTicketSegment  string
}

type Contribution struct {
	Employee decimal.Decimal `json:"employee"`
	Employer decimal.Decimal `json:"employer"`
}

// Result is a country's statutory outcome. EmployerTotal covers Contributions
// only; gratuity and air ticket accruals are reported separately.
type Result struct {
	Contributions map[string]Contribution
	EmployeeTotal decimal.Decimal
	EmployerTotal decimal.Decimal
	Gratuity      decimal.Decimal
	AirTicket     decimal.Decimal
}

func (r Result) EmployerCost() decimal.Decimal {
	return r.EmployerTotal.Add(r.Gratuity).Add(r.AirTicket)
}

func Zero() Result {
	return Result{
		Contributions: map[string]Contribution{},
		EmployeeTotal: decimal.Zero,
		EmployerTotal: decimal.Zero,
		Gratuity:      decimal.Zero,
		AirTicket:     decimal.Zero,
	}
}

type Evaluator interface {
	Evaluate(in Input) Result
}

// Registry maps country codes to rule sets. It is filled once at startup and
// only read afterwards, so lookups need no locking.
type Registry struct {
	evaluators map[string]Evaluator
}

func NewRegistry() *Registry {
	return &Registry{evaluators: map[string]Evaluator{}}
}

// DefaultRegistry carries the India and UAE rule sets.
func DefaultRegistry(uae UAERules) *Registry {
	registry := NewRegistry()
	registry.Register(CountryIndia, India{})
	registry.Register(CountryUAE, UAE{Rules: uae})
	return registry
}

func (r *Registry) Register(countryCode string, evaluator Evaluator) {
	r.evaluators[NormalizeCountry(countryCode)] = evaluator
}

func (r *Registry) Lookup(countryCode string) (Evaluator, bool) {
	evaluator, ok := r.evaluators[NormalizeCountry(countryCode)]
	return evaluator, ok
}

func (r *Registry) Countries() []string {
	out := make([]string, 0, len(r.evaluators))
	for code := range r.evaluators {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

func NormalizeCountry(countryCode string) string {
	return strings.ToUpper(strings.TrimSpace(countryCode))
}

// roundUnit rounds to the nearest whole currency unit, halves away from zero.
func roundUnit(value decimal.Decimal) decimal.Decimal {
	return value.Round(0)
}
