package hr

import (
	"context"
	"database/sql"
	"encoding/json"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) CreateEmployee(ctx context.Context, e *Employee) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO employees (id, full_name, position, salary, hire_date, is_active)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		e.ID, e.FullName, e.Position, e.Salary, e.HireDate, e.IsActive)
	return err
}

const selectEmployeeSQL = `
	SELECT id, full_name, position, salary, hire_date, is_active, created_at, updated_at
	FROM employees`

func (r *postgresRepo) GetEmployeeByID(ctx context.Context, id string) (*Employee, error) {
	e := &Employee{}
	err := r.db.QueryRowContext(ctx, selectEmployeeSQL+" WHERE id = $1", id).
		Scan(&e.ID, &e.FullName, &e.Position, &e.Salary, &e.HireDate, &e.IsActive, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *postgresRepo) ListEmployees(ctx context.Context, activeOnly bool) ([]*Employee, error) {
	query := selectEmployeeSQL + " ORDER BY full_name"
	if activeOnly {
		query = selectEmployeeSQL + " WHERE is_active ORDER BY full_name"
	}

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []*Employee
	for rows.Next() {
		e := &Employee{}
		if err := rows.Scan(&e.ID, &e.FullName, &e.Position, &e.Salary, &e.HireDate,
			&e.IsActive, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	if employees == nil {
		employees = []*Employee{}
	}
	return employees, rows.Err()
}

func (r *postgresRepo) UpdateEmployee(ctx context.Context, e *Employee) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE employees SET position=$1, salary=$2, updated_at=NOW() WHERE id=$3`,
		e.Position, e.Salary, e.ID)
	return err
}

func (r *postgresRepo) SetEmployeeActive(ctx context.Context, id string, active bool) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE employees SET is_active=$1, updated_at=NOW() WHERE id=$2`, active, id)
	return err
}

func (r *postgresRepo) CreatePayrollRun(ctx context.Context, run *PayrollRun) error {
	entriesJSON, err := json.Marshal(run.Entries)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO payroll_runs (id, period, total_gross, total_net, entries, run_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		run.ID, run.Period, run.TotalGross, run.TotalNet, entriesJSON, run.RunAt)
	return err
}

const selectRunSQL = `
	SELECT id, period, total_gross, total_net, entries, run_at
	FROM payroll_runs`

func (r *postgresRepo) GetPayrollRunByPeriod(ctx context.Context, period string) (*PayrollRun, error) {
	return r.scanRun(r.db.QueryRowContext(ctx, selectRunSQL+" WHERE period = $1", period))
}

func (r *postgresRepo) ListPayrollRuns(ctx context.Context) ([]*PayrollRun, error) {
	rows, err := r.db.QueryContext(ctx, selectRunSQL+" ORDER BY period DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*PayrollRun
	for rows.Next() {
		run, err := r.scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if runs == nil {
		runs = []*PayrollRun{}
	}
	return runs, rows.Err()
}

type rowScanner interface{ Scan(dest ...interface{}) error }

func (r *postgresRepo) scanRun(row rowScanner) (*PayrollRun, error) {
	run := &PayrollRun{}
	var entriesJSON []byte
	err := row.Scan(&run.ID, &run.Period, &run.TotalGross, &run.TotalNet, &entriesJSON, &run.RunAt)
	if err != nil {
		return nil, err
	}
	if len(entriesJSON) > 0 {
		_ = json.Unmarshal(entriesJSON, &run.Entries)
	}
	if run.Entries == nil {
		run.Entries = []PayrollEntry{}
	}
	return run, nil
}
