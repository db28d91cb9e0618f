package hr

import "context"

// Repository defines data access for employees and payroll runs.
type Repository interface {
	CreateEmployee(ctx context.Context, e *Employee) error
	GetEmployeeByID(ctx context.Context, id string) (*Employee, error)
	ListEmployees(ctx context.Context, activeOnly bool) ([]*Employee, error)
	UpdateEmployee(ctx context.Context, e *Employee) error
	SetEmployeeActive(ctx context.Context, id string, active bool) error

	CreatePayrollRun(ctx context.Context, run *PayrollRun) error
	GetPayrollRunByPeriod(ctx context.Context, period string) (*PayrollRun, error)
	ListPayrollRuns(ctx context.Context) ([]*PayrollRun, error)
}
