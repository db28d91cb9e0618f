package hr

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service defines employee and payroll business logic.
type Service interface {
	CreateEmployee(ctx context.Context, req CreateEmployeeRequest) (*Employee, error)
	GetEmployee(ctx context.Context, id string) (*Employee, error)
	ListEmployees(ctx context.Context, activeOnly bool) ([]*Employee, error)
	UpdateEmployee(ctx context.Context, id string, req UpdateEmployeeRequest) (*Employee, error)
	DeactivateEmployee(ctx context.Context, id string) error

	RunPayroll(ctx context.Context, period string) (*PayrollRun, error)
	GetPayrollRun(ctx context.Context, period string) (*PayrollRun, error)
	ListPayrollRuns(ctx context.Context) ([]*PayrollRun, error)
}

type service struct {
	repo       Repository
	calculator PayrollCalculator
}

func NewService(repo Repository, calculator PayrollCalculator) Service {
	return &service{repo: repo, calculator: calculator}
}

func (s *service) CreateEmployee(ctx context.Context, req CreateEmployeeRequest) (*Employee, error) {
	if strings.TrimSpace(req.FullName) == "" {
		return nil, fmt.Errorf("full_name is required")
	}
	if strings.TrimSpace(req.Position) == "" {
		return nil, fmt.Errorf("position is required")
	}
	if req.Salary < 0 {
		return nil, fmt.Errorf("salary cannot be negative")
	}

	hireDate := time.Now()
	if req.HireDate != "" {
		t, err := time.Parse(time.RFC3339, req.HireDate)
		if err != nil {
			return nil, fmt.Errorf("invalid hire_date: %w", err)
		}
		hireDate = t
	}

	e := &Employee{
		ID:       uuid.New(),
		FullName: req.FullName,
		Position: req.Position,
		Salary:   req.Salary,
		HireDate: hireDate,
		IsActive: true,
	}
	if err := s.repo.CreateEmployee(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *service) GetEmployee(ctx context.Context, id string) (*Employee, error) {
	return s.repo.GetEmployeeByID(ctx, id)
}

func (s *service) ListEmployees(ctx context.Context, activeOnly bool) ([]*Employee, error) {
	return s.repo.ListEmployees(ctx, activeOnly)
}

func (s *service) UpdateEmployee(ctx context.Context, id string, req UpdateEmployeeRequest) (*Employee, error) {
	e, err := s.repo.GetEmployeeByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("employee not found: %w", err)
	}
	if req.Position != "" {
		e.Position = req.Position
	}
	if req.Salary != nil {
		if *req.Salary < 0 {
			return nil, fmt.Errorf("salary cannot be negative")
		}
		e.Salary = *req.Salary
	}
	if err := s.repo.UpdateEmployee(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *service) DeactivateEmployee(ctx context.Context, id string) error {
	if _, err := s.repo.GetEmployeeByID(ctx, id); err != nil {
		return fmt.Errorf("employee not found: %w", err)
	}
	return s.repo.SetEmployeeActive(ctx, id, false)
}

// RunPayroll calculates pay for all active employees and records the run.
// A period can only be run once.
func (s *service) RunPayroll(ctx context.Context, period string) (*PayrollRun, error) {
	if _, err := time.Parse("2006-01", period); err != nil {
		return nil, fmt.Errorf("invalid period, expected YYYY-MM: %w", err)
	}

	existing, err := s.repo.GetPayrollRunByPeriod(ctx, period)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("payroll for %s has already been run", period)
	}

	employees, err := s.repo.ListEmployees(ctx, true)
	if err != nil {
		return nil, err
	}
	if len(employees) == 0 {
		return nil, fmt.Errorf("no active employees to pay")
	}

	entries, err := s.calculator.Calculate(ctx, employees)
	if err != nil {
		return nil, fmt.Errorf("payroll calculation failed: %w", err)
	}

	run := &PayrollRun{
		ID:     uuid.New(),
		Period: period,
		RunAt:  time.Now(),
	}
	for _, entry := range entries {
		run.TotalGross += entry.GrossPay
		run.TotalNet += entry.NetPay
	}
	run.Entries = entries

	if err := s.repo.CreatePayrollRun(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

func (s *service) GetPayrollRun(ctx context.Context, period string) (*PayrollRun, error) {
	return s.repo.GetPayrollRunByPeriod(ctx, period)
}

func (s *service) ListPayrollRuns(ctx context.Context) ([]*PayrollRun, error) {
	return s.repo.ListPayrollRuns(ctx)
}
