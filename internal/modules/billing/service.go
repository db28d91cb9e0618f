package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Service defines invoicing business logic.
type Service interface {
	GenerateInvoice(ctx context.Context, customerID string, req GenerateInvoiceRequest) (*Invoice, error)
	IssueInvoice(ctx context.Context, id string) (*Invoice, error)
	GetInvoice(ctx context.Context, id string) (*Invoice, error)
	GetInvoiceByNumber(ctx context.Context, number string) (*Invoice, error)
	ListCustomerInvoices(ctx context.Context, customerID string) ([]*Invoice, error)
	MarkInvoicePaid(ctx context.Context, id string, req MarkPaidRequest) (*Invoice, error)
	VoidInvoice(ctx context.Context, id string) (*Invoice, error)
	SweepOverdue(ctx context.Context) (int64, error)
}

type service struct{ repo Repository }

func NewService(repo Repository) Service { return &service{repo: repo} }

func (s *service) GenerateInvoice(ctx context.Context, customerID string, req GenerateInvoiceRequest) (*Invoice, error) {
	parsedCustomer, err := uuid.Parse(customerID)
	if err != nil {
		return nil, fmt.Errorf("invalid customer_id: %w", err)
	}

	services, err := s.repo.ListBillableServices(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if len(services) == 0 {
		return nil, fmt.Errorf("customer has no active services to invoice")
	}

	now := time.Now()
	periodStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	periodEnd := periodStart.AddDate(0, 1, 0).Add(-time.Second)

	var total float64
	items := make([]LineItem, 0, len(services))
	for _, svc := range services {
		items = append(items, LineItem{
			ServiceID:   svc.ServiceID,
			Description: fmt.Sprintf("%s (%s)", svc.PlanName, now.Format("January 2006")),
			Quantity:    1,
			UnitPrice:   svc.MonthlyPrice,
			Amount:      svc.MonthlyPrice,
		})
		total += svc.MonthlyPrice
	}

	number, err := s.nextInvoiceNumber(ctx, now)
	if err != nil {
		return nil, err
	}

	status := InvOpen
	if req.Draft {
		status = InvDraft
	}

	inv := &Invoice{
		ID:            uuid.New(),
		CustomerID:    parsedCustomer,
		InvoiceNumber: number,
		Amount:        total,
		Currency:      "KES",
		Status:        status,
		PeriodStart:   periodStart,
		PeriodEnd:     periodEnd,
		DueDate:       now.AddDate(0, 0, 7),
		LineItems:     items,
	}

	if err := s.repo.CreateInvoice(ctx, inv); err != nil {
		return nil, err
	}
	return s.repo.GetInvoiceByID(ctx, inv.ID.String())
}

func (s *service) IssueInvoice(ctx context.Context, id string) (*Invoice, error) {
	inv, err := s.repo.GetInvoiceByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("invoice not found: %w", err)
	}
	if inv.Status != InvDraft {
		return nil, fmt.Errorf("only draft invoices can be issued (current status: %s)", inv.Status)
	}
	if err := s.repo.UpdateInvoiceStatus(ctx, id, InvOpen); err != nil {
		return nil, err
	}
	return s.repo.GetInvoiceByID(ctx, id)
}

func (s *service) GetInvoice(ctx context.Context, id string) (*Invoice, error) {
	return s.repo.GetInvoiceByID(ctx, id)
}

func (s *service) GetInvoiceByNumber(ctx context.Context, number string) (*Invoice, error) {
	return s.repo.GetInvoiceByNumber(ctx, number)
}

func (s *service) ListCustomerInvoices(ctx context.Context, customerID string) ([]*Invoice, error) {
	return s.repo.ListInvoicesByCustomer(ctx, customerID)
}

func (s *service) MarkInvoicePaid(ctx context.Context, id string, req MarkPaidRequest) (*Invoice, error) {
	inv, err := s.repo.GetInvoiceByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("invoice not found: %w", err)
	}
	switch inv.Status {
	case InvPaid:
		return nil, fmt.Errorf("invoice is already marked as paid")
	case InvVoid:
		return nil, fmt.Errorf("cannot mark a voided invoice as paid")
	case InvDraft:
		return nil, fmt.Errorf("cannot mark a draft invoice as paid")
	}
	if err := s.repo.MarkInvoicePaid(ctx, id, req.PaymentReference, req.Notes); err != nil {
		return nil, err
	}
	return s.repo.GetInvoiceByID(ctx, id)
}

func (s *service) VoidInvoice(ctx context.Context, id string) (*Invoice, error) {
	inv, err := s.repo.GetInvoiceByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("invoice not found: %w", err)
	}
	if inv.Status == InvPaid {
		return nil, fmt.Errorf("cannot void a paid invoice")
	}
	if inv.Status == InvVoid {
		return nil, fmt.Errorf("invoice is already voided")
	}
	if err := s.repo.UpdateInvoiceStatus(ctx, id, InvVoid); err != nil {
		return nil, err
	}
	return s.repo.GetInvoiceByID(ctx, id)
}

// SweepOverdue moves open invoices past their due date to OVERDUE.
func (s *service) SweepOverdue(ctx context.Context) (int64, error) {
	return s.repo.MarkOverdueInvoices(ctx, time.Now())
}

// nextInvoiceNumber builds INV-YYYYMM-NNNN, sequential within the month.
func (s *service) nextInvoiceNumber(ctx context.Context, t time.Time) (string, error) {
	prefix := "INV-" + t.Format("200601")
	seq, err := s.repo.NextInvoiceSequence(ctx, prefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%04d", prefix, seq), nil
}
