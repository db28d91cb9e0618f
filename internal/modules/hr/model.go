package hr

import (
	"time"

	"github.com/google/uuid"
)

// Employee is a staff member on the company payroll.
type Employee struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"full_name"`
	Position  string    `json:"position"`
	Salary    float64   `json:"salary"`
	HireDate  time.Time `json:"hire_date"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PayrollEntry is one employee's line in a payroll run.
type PayrollEntry struct {
	EmployeeID uuid.UUID `json:"employee_id"`
	GrossPay   float64   `json:"gross_pay"`
	Deductions float64   `json:"deductions"`
	NetPay     float64   `json:"net_pay"`
}

// PayrollRun records the outcome of a payroll calculation.
type PayrollRun struct {
	ID         uuid.UUID      `json:"id"`
	Period     string         `json:"period"` // YYYY-MM
	TotalGross float64        `json:"total_gross"`
	TotalNet   float64        `json:"total_net"`
	Entries    []PayrollEntry `json:"entries"`
	RunAt      time.Time      `json:"run_at"`
}

// CreateEmployeeRequest is the payload for adding an employee.
type CreateEmployeeRequest struct {
	FullName string  `json:"full_name"`
	Position string  `json:"position"`
	Salary   float64 `json:"salary"`
	HireDate string  `json:"hire_date,omitempty"` // RFC 3339, defaults to now
}

// UpdateEmployeeRequest is the payload for updating an employee record.
type UpdateEmployeeRequest struct {
	Position string   `json:"position,omitempty"`
	Salary   *float64 `json:"salary,omitempty"`
}
