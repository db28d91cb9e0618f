package billing

import (
	"time"

	"github.com/google/uuid"
)

// InvoiceStatus represents the lifecycle state of a customer invoice.
type InvoiceStatus string

const (
	InvDraft   InvoiceStatus = "DRAFT"
	InvOpen    InvoiceStatus = "OPEN"
	InvPaid    InvoiceStatus = "PAID"
	InvVoid    InvoiceStatus = "VOID"
	InvOverdue InvoiceStatus = "OVERDUE"
)

// LineItem represents a single billed service on an invoice.
type LineItem struct {
	ServiceID   uuid.UUID `json:"service_id"`
	Description string    `json:"description"`
	Quantity    int       `json:"quantity"`
	UnitPrice   float64   `json:"unit_price"`
	Amount      float64   `json:"amount"`
}

// Invoice represents a monthly customer invoice.
type Invoice struct {
	ID               uuid.UUID     `json:"id"`
	CustomerID       uuid.UUID     `json:"customer_id"`
	InvoiceNumber    string        `json:"invoice_number"`
	Amount           float64       `json:"amount"`
	Currency         string        `json:"currency"`
	Status           InvoiceStatus `json:"status"`
	PeriodStart      time.Time     `json:"period_start"`
	PeriodEnd        time.Time     `json:"period_end"`
	DueDate          time.Time     `json:"due_date"`
	PaidAt           *time.Time    `json:"paid_at,omitempty"`
	PaymentReference string        `json:"payment_reference,omitempty"`
	LineItems        []LineItem    `json:"line_items"`
	Notes            string        `json:"notes,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// BillableService is an active provisioned service eligible for invoicing.
type BillableService struct {
	ServiceID    uuid.UUID
	PlanName     string
	MonthlyPrice float64
}

// GenerateInvoiceRequest is the payload for generating a customer invoice.
type GenerateInvoiceRequest struct {
	Draft bool `json:"draft,omitempty"`
}

// MarkPaidRequest is the payload for marking an invoice as paid.
type MarkPaidRequest struct {
	PaymentReference string `json:"payment_reference"`
	Notes            string `json:"notes,omitempty"`
}
