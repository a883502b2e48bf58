package payrollhandler

import (
	"fmt"
	"strings"
	"time"

	"hrpay/internal/domain/payrun"
	attendancehandler "hrpay/internal/transport/http/handlers/attendance"
	compensationhandler "hrpay/internal/transport/http/handlers/compensation"
	"hrpay/internal/transport/http/shared"
)

const (
	maxInlineEmployees = 500
	maxEmployeeIDs     = 5000
)

type employeePayload struct {
	EmployeeData           compensationhandler.EmployeePayload    `json:"employeeData"`
	CompensationComponents []compensationhandler.ComponentPayload `json:"compensationComponents"`
	Attendance             []attendancehandler.RecordPayload      `json:"attendance"`
}

// runPayload carries either inline employees or a stored period selection.
type runPayload struct {
	Employees   []employeePayload `json:"employees"`
	AsOfDate    string            `json:"asOfDate"`
	PeriodStart string            `json:"periodStart"`
	PeriodEnd   string            `json:"periodEnd"`
	EmployeeIDs []string          `json:"employeeIds"`
}

func (p runPayload) inline() bool {
	return len(p.Employees) > 0
}

func parseInline(v *shared.Validator, p runPayload, now time.Time) (time.Time, []payrun.Job) {
	if len(p.Employees) > maxInlineEmployees {
		v.Add("employees", fmt.Sprintf("at most %d employees are allowed", maxInlineEmployees))
	}
	if strings.TrimSpace(p.PeriodStart) != "" || strings.TrimSpace(p.PeriodEnd) != "" || len(p.EmployeeIDs) > 0 {
		v.Add("employees", "cannot be combined with periodStart, periodEnd or employeeIds")
	}

	asOf := now
	if strings.TrimSpace(p.AsOfDate) != "" {
		asOf, _ = v.Date("asOfDate", p.AsOfDate)
	}

	jobs := make([]payrun.Job, 0, len(p.Employees))
	for i, e := range p.Employees {
		prefix := fmt.Sprintf("employees[%d].", i)
		profile, items := compensationhandler.ParseEmployee(v, prefix, e.EmployeeData, e.CompensationComponents)
		if profile.EmployeeID == "" {
			profile.EmployeeID = fmt.Sprintf("#%d", i+1)
		}
		jobs = append(jobs, payrun.Job{
			Profile:    profile,
			Items:      items,
			Attendance: attendancehandler.ParseRecords(v, prefix+"attendance", e.Attendance),
		})
	}
	return asOf, jobs
}

func parseStored(v *shared.Validator, p runPayload) payrun.Period {
	start, _ := v.Date("periodStart", p.PeriodStart)
	end, _ := v.Date("periodEnd", p.PeriodEnd)
	v.DateOrder("periodStart", start, "periodEnd", end)
	if strings.TrimSpace(p.AsOfDate) != "" {
		v.Add("asOfDate", "is derived from periodEnd for stored runs")
	}
	if len(p.EmployeeIDs) > maxEmployeeIDs {
		v.Add("employeeIds", fmt.Sprintf("at most %d ids are allowed", maxEmployeeIDs))
	}
	for i, id := range p.EmployeeIDs {
		v.Required(fmt.Sprintf("employeeIds[%d]", i), id, "must not be empty")
	}
	return payrun.Period{Start: start, End: end}
}
