package billing

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) CreateInvoice(ctx context.Context, inv *Invoice) error {
	lineItemsJSON, err := json.Marshal(inv.LineItems)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO invoices
		  (id, customer_id, invoice_number, amount, currency, status,
		   period_start, period_end, due_date, line_items, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		inv.ID, inv.CustomerID, inv.InvoiceNumber, inv.Amount, inv.Currency, inv.Status,
		inv.PeriodStart, inv.PeriodEnd, inv.DueDate, lineItemsJSON, inv.Notes)
	return err
}

const selectInvoiceSQL = `
	SELECT id, customer_id, invoice_number, amount, currency, status,
	       period_start, period_end, due_date, paid_at, payment_reference,
	       line_items, notes, created_at, updated_at
	FROM invoices`

func (r *postgresRepo) GetInvoiceByID(ctx context.Context, id string) (*Invoice, error) {
	return r.scanInv(r.db.QueryRowContext(ctx, selectInvoiceSQL+" WHERE id = $1", id))
}

func (r *postgresRepo) GetInvoiceByNumber(ctx context.Context, number string) (*Invoice, error) {
	return r.scanInv(r.db.QueryRowContext(ctx, selectInvoiceSQL+" WHERE invoice_number = $1", number))
}

func (r *postgresRepo) ListInvoicesByCustomer(ctx context.Context, customerID string) ([]*Invoice, error) {
	rows, err := r.db.QueryContext(ctx,
		selectInvoiceSQL+" WHERE customer_id = $1 ORDER BY created_at DESC", customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invs []*Invoice
	for rows.Next() {
		inv, err := r.scanInv(rows)
		if err != nil {
			return nil, err
		}
		invs = append(invs, inv)
	}
	if invs == nil {
		invs = []*Invoice{}
	}
	return invs, rows.Err()
}

func (r *postgresRepo) UpdateInvoiceStatus(ctx context.Context, id string, status InvoiceStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE invoices SET status=$1, updated_at=NOW() WHERE id=$2`, status, id)
	return err
}

func (r *postgresRepo) MarkInvoicePaid(ctx context.Context, id string, ref string, notes string) error {
	now := time.Now()
	_, err := r.db.ExecContext(ctx, `
		UPDATE invoices
		SET status='PAID', paid_at=$1, payment_reference=$2,
		    notes=COALESCE(NULLIF($3,''), notes), updated_at=$4
		WHERE id=$5`,
		now, ref, notes, now, id)
	return err
}

func (r *postgresRepo) MarkOverdueInvoices(ctx context.Context, asOf time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE invoices SET status='OVERDUE', updated_at=NOW()
		WHERE status='OPEN' AND due_date < $1`, asOf)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *postgresRepo) NextInvoiceSequence(ctx context.Context, prefix string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM invoices WHERE invoice_number LIKE $1`, prefix+"-%").Scan(&count)
	if err != nil {
		return 0, err
	}
	return count + 1, nil
}

func (r *postgresRepo) ListBillableServices(ctx context.Context, customerID string) ([]BillableService, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT cs.id, sp.name, sp.monthly_price
		FROM customer_services cs
		JOIN service_plans sp ON sp.id = cs.plan_id
		WHERE cs.customer_id = $1 AND cs.status = 'ACTIVE'
		ORDER BY cs.installed_at`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var svcs []BillableService
	for rows.Next() {
		var s BillableService
		if err := rows.Scan(&s.ServiceID, &s.PlanName, &s.MonthlyPrice); err != nil {
			return nil, err
		}
		svcs = append(svcs, s)
	}
	return svcs, rows.Err()
}

// ── Scanner ───────────────────────────────────────────────────────────────────

type rowScanner interface{ Scan(dest ...interface{}) error }

func (r *postgresRepo) scanInv(row rowScanner) (*Invoice, error) {
	inv := &Invoice{}
	var paidAt sql.NullTime
	var payRef, notes sql.NullString
	var lineItemsJSON []byte
	err := row.Scan(&inv.ID, &inv.CustomerID, &inv.InvoiceNumber, &inv.Amount, &inv.Currency,
		&inv.Status, &inv.PeriodStart, &inv.PeriodEnd, &inv.DueDate, &paidAt, &payRef,
		&lineItemsJSON, &notes, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if paidAt.Valid {
		inv.PaidAt = &paidAt.Time
	}
	if payRef.Valid {
		inv.PaymentReference = payRef.String
	}
	if notes.Valid {
		inv.Notes = notes.String
	}
	if len(lineItemsJSON) > 0 {
		_ = json.Unmarshal(lineItemsJSON, &inv.LineItems)
	}
	if inv.LineItems == nil {
		inv.LineItems = []LineItem{}
	}
	return inv, nil
}
