package currency

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	GroupingInternational = "international"
	GroupingIndian        = "indian"
)

type Currency struct {
	Code     string `json:"code"`
	Symbol   string `json:"symbol"`
	Grouping string `json:"-"`
	Decimals int32  `json:"-"`
}

// Config maps country codes to display currencies. It is built once and
// passed to the presentation layer; calculations never see it.
type Config struct {
	ByCountry map[string]Currency
	Fallback  Currency
}

func DefaultConfig() Config {
	return Config{
		ByCountry: map[string]Currency{
			"IND": {Code: "INR", Symbol: "₹", Grouping: GroupingIndian, Decimals: 2},
			"UAE": {Code: "AED", Symbol: "AED", Grouping: GroupingInternational, Decimals: 2},
		},
		Fallback: Currency{Code: "USD", Symbol: "$", Grouping: GroupingInternational, Decimals: 2},
	}
}

func (c Config) ForCountry(countryCode string) Currency {
	if cur, ok := c.ByCountry[strings.ToUpper(strings.TrimSpace(countryCode))]; ok {
		return cur
	}
	return c.Fallback
}

// Format renders an amount with the currency symbol and digit grouping,
// e.g. ₹12,34,567.50 or AED 1,234,567.50.
func (cur Currency) Format(amount decimal.Decimal) string {
	fixed := amount.StringFixed(cur.Decimals)
	negative := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	whole, fraction, _ := strings.Cut(fixed, ".")
	grouped := groupDigits(whole, cur.Grouping)
	if fraction != "" {
		grouped += "." + fraction
	}

	var b strings.Builder
	if negative {
		b.WriteString("-")
	}
	b.WriteString(cur.Symbol)
	if len([]rune(cur.Symbol)) > 1 {
		b.WriteString(" ")
	}
	b.WriteString(grouped)
	return b.String()
}

func groupDigits(digits, grouping string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	size := 3
	if grouping == GroupingIndian {
		size = 2
	}
	var groups []string
	for len(head) > size {
		groups = append([]string{head[len(head)-size:]}, groups...)
		head = head[:len(head)-size]
	}
	groups = append([]string{head}, groups...)
	return strings.Join(append(groups, tail), ",")
}
