package payrun

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"hrpay/internal/domain/attendance"
	"hrpay/internal/domain/compensation"
)

type StoreAPI interface {
	ListJobs(ctx context.Context, period Period, employeeIDs []string) ([]Job, error)
	CreateRun(ctx context.Context, run Run) (string, error)
	SaveReport(ctx context.Context, runID string, report Report) error
	MarkRunFailed(ctx context.Context, runID string) error
	GetRun(ctx context.Context, runID string) (Run, error)
	RegisterRows(ctx context.Context, runID string) ([]RegisterRow, error)
}

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// ListJobs loads every active employee (or the given subset) with their
// compensation rows and the attendance recorded inside the period.
func (s *Store) ListJobs(ctx context.Context, period Period, employeeIDs []string) ([]Job, error) {
	query := `
    SELECT id::text, country_code, employee_type, joining_date, air_ticket_eligible, air_ticket_segment
    FROM employees
    WHERE status = 'ACTIVE'`
	args := []any{}
	if len(employeeIDs) > 0 {
		query += " AND id::text = ANY($1)"
		args = append(args, employeeIDs)
	}
	query += " ORDER BY employee_code"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []Job
	index := map[string]int{}
	for rows.Next() {
		var p compensation.Profile
		if err := rows.Scan(&p.EmployeeID, &p.CountryCode, &p.EmployeeType, &p.JoiningDate, &p.AirTicketEligible, &p.AirTicketSegment); err != nil {
			return nil, err
		}
		index[p.EmployeeID] = len(jobs)
		jobs = append(jobs, Job{Profile: p})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return jobs, nil
	}

	ids := make([]string, 0, len(jobs))
	for _, job := range jobs {
		ids = append(ids, job.Profile.EmployeeID)
	}
	if err := s.loadComponents(ctx, ids, jobs, index); err != nil {
		return nil, err
	}
	if err := s.loadAttendance(ctx, ids, period, jobs, index); err != nil {
		return nil, err
	}
	return jobs, nil
}

func (s *Store) loadComponents(ctx context.Context, ids []string, jobs []Job, index map[string]int) error {
	rows, err := s.DB.Query(ctx, `
    SELECT employee_id::text, component_code, component_type, is_percentage, amount::text, percentage::text,
           basis_component_code, effective_date, end_date, status
    FROM compensation_components
    WHERE employee_id::text = ANY($1)
    ORDER BY employee_id, effective_date, component_code
  `, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var employeeID, amount, percentage string
		var item compensation.LineItem
		if err := rows.Scan(&employeeID, &item.ComponentCode, &item.ComponentType, &item.IsPercentage, &amount, &percentage,
			&item.BasisComponentCode, &item.EffectiveDate, &item.EndDate, &item.Status); err != nil {
			return err
		}
		if item.Amount, err = decimal.NewFromString(amount); err != nil {
			return err
		}
		if item.Percentage, err = decimal.NewFromString(percentage); err != nil {
			return err
		}
		i := index[employeeID]
		jobs[i].Items = append(jobs[i].Items, item)
	}
	return rows.Err()
}

func (s *Store) loadAttendance(ctx context.Context, ids []string, period Period, jobs []Job, index map[string]int) error {
	rows, err := s.DB.Query(ctx, `
    SELECT employee_id::text, work_date, status, scheduled_in, scheduled_out, actual_in, actual_out
    FROM attendance_records
    WHERE employee_id::text = ANY($1) AND work_date BETWEEN $2 AND $3
    ORDER BY employee_id, work_date
  `, ids, period.Start, period.End)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var employeeID string
		var rec attendance.Record
		if err := rows.Scan(&employeeID, &rec.Date, &rec.Status, &rec.ScheduledIn, &rec.ScheduledOut, &rec.ActualIn, &rec.ActualOut); err != nil {
			return err
		}
		i := index[employeeID]
		jobs[i].Attendance = append(jobs[i].Attendance, rec)
	}
	return rows.Err()
}

func (s *Store) CreateRun(ctx context.Context, run Run) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO payroll_runs (period_start, period_end, as_of, status, requested_by)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING id::text
  `, run.Period.Start, run.Period.End, run.AsOf, RunStatusRunning, run.RequestedBy).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

// SaveReport writes every employee result and failure and closes the run
// header in one transaction.
func (s *Store) SaveReport(ctx context.Context, runID string, report Report) error {
	return pgx.BeginFunc(ctx, s.DB, func(tx pgx.Tx) error {
		for _, res := range report.Results {
			breakdown, err := json.Marshal(res)
			if err != nil {
				return err
			}
			warnings, err := json.Marshal(res.Result.Warnings)
			if err != nil {
				return err
			}
			r := res.Result
			if _, err := tx.Exec(ctx, `
        INSERT INTO payroll_run_details
          (run_id, employee_id, country_code, gross, employee_deductions, net, employer_total, monthly_ctc, breakdown_json, warnings_json)
        VALUES ($1,$2,$3,$4::numeric,$5::numeric,$6::numeric,$7::numeric,$8::numeric,$9,$10)
        ON CONFLICT (run_id, employee_id) DO UPDATE
        SET gross = EXCLUDED.gross, employee_deductions = EXCLUDED.employee_deductions, net = EXCLUDED.net,
            employer_total = EXCLUDED.employer_total, monthly_ctc = EXCLUDED.monthly_ctc,
            breakdown_json = EXCLUDED.breakdown_json, warnings_json = EXCLUDED.warnings_json
      `, runID, res.EmployeeID, r.CountryCode, r.Earnings.Gross.String(), r.Deductions.Employee.String(), r.Deductions.Net.String(),
				r.EmployerCosts.Total.String(), r.Totals.MonthlyCTC.String(), breakdown, warnings); err != nil {
				return err
			}
		}
		for _, failure := range report.Failures {
			if _, err := tx.Exec(ctx, `
        INSERT INTO payroll_run_failures (run_id, employee_id, code, reason)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (run_id, employee_id) DO UPDATE SET code = EXCLUDED.code, reason = EXCLUDED.reason
      `, runID, failure.EmployeeID, failure.Code, failure.Reason); err != nil {
				return err
			}
		}
		_, err := tx.Exec(ctx, `
      UPDATE payroll_runs
      SET status = $1, succeeded = $2, failed = $3, completed_at = now()
      WHERE id::text = $4
    `, report.Status(), report.Succeeded, report.Failed, runID)
		return err
	})
}

func (s *Store) MarkRunFailed(ctx context.Context, runID string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE payroll_runs SET status = $1, completed_at = now() WHERE id::text = $2
  `, RunStatusFailed, runID)
	return err
}

func (s *Store) GetRun(ctx context.Context, runID string) (Run, error) {
	var run Run
	err := s.DB.QueryRow(ctx, `
    SELECT id::text, period_start, period_end, as_of, status, requested_by, succeeded, failed, created_at, completed_at
    FROM payroll_runs
    WHERE id::text = $1
  `, runID).Scan(&run.ID, &run.Period.Start, &run.Period.End, &run.AsOf, &run.Status, &run.RequestedBy,
		&run.Succeeded, &run.Failed, &run.CreatedAt, &run.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Run{}, ErrRunNotFound
	}
	if err != nil {
		return Run{}, err
	}

	rows, err := s.DB.Query(ctx, `
    SELECT employee_id, code, reason
    FROM payroll_run_failures
    WHERE run_id::text = $1
    ORDER BY employee_id
  `, runID)
	if err != nil {
		return Run{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var f Failure
		if err := rows.Scan(&f.EmployeeID, &f.Code, &f.Reason); err != nil {
			return Run{}, err
		}
		run.Failures = append(run.Failures, f)
	}
	return run, rows.Err()
}

func (s *Store) RegisterRows(ctx context.Context, runID string) ([]RegisterRow, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT employee_id, country_code, gross::text, employee_deductions::text, net::text, employer_total::text, monthly_ctc::text
    FROM payroll_run_details
    WHERE run_id::text = $1
    ORDER BY employee_id
  `, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RegisterRow
	for rows.Next() {
		var row RegisterRow
		var amounts [5]string
		if err := rows.Scan(&row.EmployeeID, &row.CountryCode, &amounts[0], &amounts[1], &amounts[2], &amounts[3], &amounts[4]); err != nil {
			return nil, err
		}
		parsed, err := parseAmounts(amounts[:])
		if err != nil {
			return nil, err
		}
		row.Gross, row.EmployeeDeductions, row.Net, row.EmployerTotal, row.MonthlyCTC = parsed[0], parsed[1], parsed[2], parsed[3], parsed[4]
		out = append(out, row)
	}
	return out, rows.Err()
}

func parseAmounts(values []string) ([]decimal.Decimal, error) {
	out := make([]decimal.Decimal, len(values))
	for i, value := range values {
		parsed, err := decimal.NewFromString(value)
		if err != nil {
			return nil, err
		}
		out[i] = parsed
	}
	return out, nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
