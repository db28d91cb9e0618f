package hr

import "context"

// PayrollCalculator turns a set of employees into payroll entries. The
// calculation rules (tax bands, statutory deductions) live behind this
// interface and are supplied at wiring time.
type PayrollCalculator interface {
	Calculate(ctx context.Context, employees []*Employee) ([]PayrollEntry, error)
}

// FlatCalculator pays each active employee their monthly salary with a fixed
// deduction rate. It stands in until a statutory calculator is plugged in.
type FlatCalculator struct {
	DeductionRate float64 // fraction of gross, e.g. 0.05
}

func (c FlatCalculator) Calculate(_ context.Context, employees []*Employee) ([]PayrollEntry, error) {
	entries := make([]PayrollEntry, 0, len(employees))
	for _, e := range employees {
		gross := e.Salary
		deductions := gross * c.DeductionRate
		entries = append(entries, PayrollEntry{
			EmployeeID: e.ID,
			GrossPay:   gross,
			Deductions: deductions,
			NetPay:     gross - deductions,
		})
	}
	return entries, nil
}
