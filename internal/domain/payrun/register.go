package payrun

import (
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	registerSheet = "Register"
	failuresSheet = "Failures"
)

var registerHeaders = []any{"Employee", "Country", "Gross", "Employee Deductions", "Net Pay", "Employer Cost", "Monthly CTC"}

// WriteRegister renders the run's details as an xlsx workbook: one row per
// employee plus a totals row, and a second sheet listing failures.
func WriteRegister(w io.Writer, run Run, rows []RegisterRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", registerSheet); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return err
	}

	if err := f.SetSheetRow(registerSheet, "A1", &[]any{"Run", run.ID, "Period", run.Period.Start.Format("2006-01-02") + " to " + run.Period.End.Format("2006-01-02"), "Status", run.Status}); err != nil {
		return err
	}
	if err := f.SetSheetRow(registerSheet, "A3", &registerHeaders); err != nil {
		return err
	}
	if err := f.SetCellStyle(registerSheet, "A3", "G3", bold); err != nil {
		return err
	}

	totals := make([]decimal.Decimal, 5)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+4)
		if err != nil {
			return err
		}
		amounts := []decimal.Decimal{row.Gross, row.EmployeeDeductions, row.Net, row.EmployerTotal, row.MonthlyCTC}
		values := []any{row.EmployeeID, row.CountryCode}
		for j, amount := range amounts {
			totals[j] = totals[j].Add(amount)
			values = append(values, amount.InexactFloat64())
		}
		if err := f.SetSheetRow(registerSheet, cell, &values); err != nil {
			return err
		}
	}

	totalRow := len(rows) + 4
	totalCell, _ := excelize.CoordinatesToCellName(1, totalRow)
	totalValues := []any{"TOTAL", ""}
	for _, total := range totals {
		totalValues = append(totalValues, total.InexactFloat64())
	}
	if err := f.SetSheetRow(registerSheet, totalCell, &totalValues); err != nil {
		return err
	}
	lastCell, _ := excelize.CoordinatesToCellName(7, totalRow)
	if err := f.SetCellStyle(registerSheet, "C4", lastCell, money); err != nil {
		return err
	}
	endTotal, _ := excelize.CoordinatesToCellName(2, totalRow)
	if err := f.SetCellStyle(registerSheet, totalCell, endTotal, bold); err != nil {
		return err
	}

	if _, err := f.NewSheet(failuresSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(failuresSheet, "A1", &[]any{"Employee", "Code", "Reason"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(failuresSheet, "A1", "C1", bold); err != nil {
		return err
	}
	for i, failure := range run.Failures {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(failuresSheet, cell, &[]any{failure.EmployeeID, failure.Code, failure.Reason}); err != nil {
			return err
		}
	}

	_, err = f.WriteTo(w)
	return err
}
