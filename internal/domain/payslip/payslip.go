package payslip

import (
	"fmt"
	"io"
	"sort"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"hrpay/internal/domain/compensation"
	"hrpay/internal/domain/currency"
)

type Payslip struct {
	EmployeeID   string
	EmployeeName string
	PeriodLabel  string
	Currency     currency.Currency
	Result       compensation.Result
}

// Render writes a single-page A4 payslip. The core PDF fonts cannot draw
// every currency symbol, so amounts are prefixed with the currency code.
func Render(w io.Writer, slip Payslip) error {
	cur := slip.Currency
	cur.Symbol = cur.Code
	res := slip.Result

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Payslip "+slip.EmployeeID, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Payslip")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	header := []string{
		fmt.Sprintf("Employee: %s", displayName(slip)),
		fmt.Sprintf("Country: %s", res.CountryCode),
		fmt.Sprintf("As of: %s", res.AsOf.Format("2006-01-02")),
	}
	if slip.PeriodLabel != "" {
		header = append(header, "Period: "+slip.PeriodLabel)
	}
	for _, line := range header {
		pdf.Cell(0, 7, line)
		pdf.Ln(7)
	}
	pdf.Ln(4)

	section(pdf, "Earnings")
	for _, code := range sortedCodes(res.Earnings.Components) {
		row(pdf, code, cur.Format(res.Earnings.Components[code]))
	}
	totalRow(pdf, "Gross", cur.Format(res.Earnings.Gross))

	section(pdf, "Deductions")
	for _, name := range sortedContributions(res) {
		row(pdf, name, cur.Format(res.Deductions.Statutory[name].Employee))
	}
	for _, code := range sortedCodes(res.Deductions.Components) {
		row(pdf, code, cur.Format(res.Deductions.Components[code]))
	}
	totalRow(pdf, "Total deductions", cur.Format(res.Deductions.Employee))
	totalRow(pdf, "Net pay", cur.Format(res.Deductions.Net))

	section(pdf, "Employer contributions")
	for _, name := range sortedContributions(res) {
		if employer := res.Deductions.Statutory[name].Employer; employer.IsPositive() {
			row(pdf, name, cur.Format(employer))
		}
	}
	if res.EmployerCosts.Gratuity.IsPositive() {
		row(pdf, "Gratuity", cur.Format(res.EmployerCosts.Gratuity))
	}
	if res.EmployerCosts.AirTicket.IsPositive() {
		row(pdf, "Air ticket", cur.Format(res.EmployerCosts.AirTicket))
	}
	totalRow(pdf, "Employer cost", cur.Format(res.EmployerCosts.Total))
	totalRow(pdf, "Monthly CTC", cur.Format(res.Totals.MonthlyCTC))

	return pdf.Output(w)
}

func displayName(slip Payslip) string {
	if slip.EmployeeName == "" {
		return slip.EmployeeID
	}
	if slip.EmployeeID == "" {
		return slip.EmployeeName
	}
	return fmt.Sprintf("%s (%s)", slip.EmployeeName, slip.EmployeeID)
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, title, "B", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
}

func row(pdf *gofpdf.Fpdf, label, amount string) {
	pdf.CellFormat(120, 7, label, "", 0, "L", false, 0, "")
	pdf.CellFormat(60, 7, amount, "", 1, "R", false, 0, "")
}

func totalRow(pdf *gofpdf.Fpdf, label, amount string) {
	pdf.SetFont("Helvetica", "B", 11)
	row(pdf, label, amount)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Ln(2)
}

func sortedCodes(values map[string]decimal.Decimal) []string {
	codes := make([]string, 0, len(values))
	for code := range values {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func sortedContributions(res compensation.Result) []string {
	names := make([]string, 0, len(res.Deductions.Statutory))
	for name := range res.Deductions.Statutory {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
