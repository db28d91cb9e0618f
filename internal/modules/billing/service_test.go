package billing

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	invoices map[string]*Invoice
	billable map[string][]BillableService
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		invoices: map[string]*Invoice{},
		billable: map[string][]BillableService{},
	}
}

func (f *fakeRepo) CreateInvoice(_ context.Context, inv *Invoice) error {
	f.invoices[inv.ID.String()] = inv
	return nil
}

func (f *fakeRepo) GetInvoiceByID(_ context.Context, id string) (*Invoice, error) {
	inv, ok := f.invoices[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return inv, nil
}

func (f *fakeRepo) GetInvoiceByNumber(_ context.Context, number string) (*Invoice, error) {
	for _, inv := range f.invoices {
		if inv.InvoiceNumber == number {
			return inv, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeRepo) ListInvoicesByCustomer(_ context.Context, customerID string) ([]*Invoice, error) {
	var out []*Invoice
	for _, inv := range f.invoices {
		if inv.CustomerID.String() == customerID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpdateInvoiceStatus(_ context.Context, id string, status InvoiceStatus) error {
	f.invoices[id].Status = status
	return nil
}

func (f *fakeRepo) MarkInvoicePaid(_ context.Context, id string, ref string, notes string) error {
	inv := f.invoices[id]
	now := time.Now()
	inv.Status = InvPaid
	inv.PaidAt = &now
	inv.PaymentReference = ref
	if notes != "" {
		inv.Notes = notes
	}
	return nil
}

func (f *fakeRepo) MarkOverdueInvoices(_ context.Context, asOf time.Time) (int64, error) {
	var n int64
	for _, inv := range f.invoices {
		if inv.Status == InvOpen && inv.DueDate.Before(asOf) {
			inv.Status = InvOverdue
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) NextInvoiceSequence(_ context.Context, prefix string) (int, error) {
	count := 0
	for _, inv := range f.invoices {
		if strings.HasPrefix(inv.InvoiceNumber, prefix+"-") {
			count++
		}
	}
	return count + 1, nil
}

func (f *fakeRepo) ListBillableServices(_ context.Context, customerID string) ([]BillableService, error) {
	return f.billable[customerID], nil
}

func TestGenerateInvoice(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	customerID := uuid.New()

	repo.billable[customerID.String()] = []BillableService{
		{ServiceID: uuid.New(), PlanName: "Home 20", MonthlyPrice: 2500},
		{ServiceID: uuid.New(), PlanName: "Business 100", MonthlyPrice: 9500},
	}

	t.Run("one line item per active service, amounts summed", func(t *testing.T) {
		inv, err := svc.GenerateInvoice(t.Context(), customerID.String(), GenerateInvoiceRequest{})
		require.NoError(t, err)
		require.Len(t, inv.LineItems, 2)
		assert.Equal(t, 12000.0, inv.Amount)
		assert.Equal(t, InvOpen, inv.Status)
		assert.Equal(t, "KES", inv.Currency)
	})

	t.Run("period spans the current calendar month", func(t *testing.T) {
		inv, err := svc.GenerateInvoice(t.Context(), customerID.String(), GenerateInvoiceRequest{})
		require.NoError(t, err)
		now := time.Now()
		assert.Equal(t, 1, inv.PeriodStart.Day())
		assert.Equal(t, now.Month(), inv.PeriodStart.Month())
		assert.True(t, inv.PeriodEnd.After(inv.PeriodStart))
	})

	t.Run("no active services is an error", func(t *testing.T) {
		_, err := svc.GenerateInvoice(t.Context(), uuid.NewString(), GenerateInvoiceRequest{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no active services")
	})

	t.Run("draft flag holds the invoice back from open", func(t *testing.T) {
		inv, err := svc.GenerateInvoice(t.Context(), customerID.String(), GenerateInvoiceRequest{Draft: true})
		require.NoError(t, err)
		assert.Equal(t, InvDraft, inv.Status)
	})
}

func TestInvoiceNumbering(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	customerID := uuid.New()
	repo.billable[customerID.String()] = []BillableService{
		{ServiceID: uuid.New(), PlanName: "Home 20", MonthlyPrice: 2500},
	}

	prefix := "INV-" + time.Now().Format("200601")
	for i := 1; i <= 3; i++ {
		inv, err := svc.GenerateInvoice(t.Context(), customerID.String(), GenerateInvoiceRequest{})
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("%s-%04d", prefix, i), inv.InvoiceNumber)
	}
}

func TestInvoiceTransitions(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	customerID := uuid.New()
	repo.billable[customerID.String()] = []BillableService{
		{ServiceID: uuid.New(), PlanName: "Home 20", MonthlyPrice: 2500},
	}

	generate := func(t *testing.T, draft bool) *Invoice {
		t.Helper()
		inv, err := svc.GenerateInvoice(t.Context(), customerID.String(), GenerateInvoiceRequest{Draft: draft})
		require.NoError(t, err)
		return inv
	}

	t.Run("draft can be issued, open cannot", func(t *testing.T) {
		draft := generate(t, true)
		issued, err := svc.IssueInvoice(t.Context(), draft.ID.String())
		require.NoError(t, err)
		assert.Equal(t, InvOpen, issued.Status)

		_, err = svc.IssueInvoice(t.Context(), issued.ID.String())
		require.Error(t, err)
	})

	t.Run("open can be paid, paid cannot be paid again", func(t *testing.T) {
		inv := generate(t, false)
		paid, err := svc.MarkInvoicePaid(t.Context(), inv.ID.String(), MarkPaidRequest{PaymentReference: "PAY-X"})
		require.NoError(t, err)
		assert.Equal(t, InvPaid, paid.Status)
		assert.Equal(t, "PAY-X", paid.PaymentReference)
		require.NotNil(t, paid.PaidAt)

		_, err = svc.MarkInvoicePaid(t.Context(), inv.ID.String(), MarkPaidRequest{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already")
	})

	t.Run("paid cannot be voided", func(t *testing.T) {
		inv := generate(t, false)
		_, err := svc.MarkInvoicePaid(t.Context(), inv.ID.String(), MarkPaidRequest{PaymentReference: "PAY-Y"})
		require.NoError(t, err)

		_, err = svc.VoidInvoice(t.Context(), inv.ID.String())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "paid")
	})

	t.Run("voided cannot be paid", func(t *testing.T) {
		inv := generate(t, false)
		_, err := svc.VoidInvoice(t.Context(), inv.ID.String())
		require.NoError(t, err)

		_, err = svc.MarkInvoicePaid(t.Context(), inv.ID.String(), MarkPaidRequest{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "voided")
	})
}

func TestSweepOverdue(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	customerID := uuid.New()
	repo.billable[customerID.String()] = []BillableService{
		{ServiceID: uuid.New(), PlanName: "Home 20", MonthlyPrice: 2500},
	}

	inv, err := svc.GenerateInvoice(t.Context(), customerID.String(), GenerateInvoiceRequest{})
	require.NoError(t, err)
	repo.invoices[inv.ID.String()].DueDate = time.Now().AddDate(0, 0, -1)

	fresh, err := svc.GenerateInvoice(t.Context(), customerID.String(), GenerateInvoiceRequest{})
	require.NoError(t, err)

	n, err := svc.SweepOverdue(t.Context())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, InvOverdue, repo.invoices[inv.ID.String()].Status)
	assert.Equal(t, InvOpen, repo.invoices[fresh.ID.String()].Status)
}
