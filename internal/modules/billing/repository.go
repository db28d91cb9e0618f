package billing

import (
	"context"
	"time"
)

// Repository defines data access for customer invoices.
type Repository interface {
	CreateInvoice(ctx context.Context, inv *Invoice) error
	GetInvoiceByID(ctx context.Context, id string) (*Invoice, error)
	GetInvoiceByNumber(ctx context.Context, number string) (*Invoice, error)
	ListInvoicesByCustomer(ctx context.Context, customerID string) ([]*Invoice, error)
	UpdateInvoiceStatus(ctx context.Context, id string, status InvoiceStatus) error
	MarkInvoicePaid(ctx context.Context, id string, ref string, notes string) error
	MarkOverdueInvoices(ctx context.Context, asOf time.Time) (int64, error)
	NextInvoiceSequence(ctx context.Context, prefix string) (int, error)

	// Billable services lookup (needed for invoice generation)
	ListBillableServices(ctx context.Context, customerID string) ([]BillableService, error)
}
