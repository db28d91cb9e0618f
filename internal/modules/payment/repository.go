package payment

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// Repository defines data access for payments, refunds, gateway
// configuration and the mpesa transaction log.
type Repository interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error

	CreatePayment(ctx context.Context, p *Payment) error
	FinalizePayment(ctx context.Context, id string, status PaymentStatus, externalTxnID string, rawResponse []byte) error
	GetPayment(ctx context.Context, id string) (*Payment, error)
	GetPaymentByExternalTxn(ctx context.Context, gateway, txnID string) (*Payment, error)
	UpdatePaymentStatus(ctx context.Context, id string, status PaymentStatus) error
	ListPaymentsByCustomer(ctx context.Context, customerID string) ([]*Payment, error)
	ListPaymentsByGateway(ctx context.Context, gateway string, start, end time.Time) ([]*Payment, error)

	CreateRefund(ctx context.Context, ref *PaymentRefund) error
	ListRefunds(ctx context.Context, paymentID string) ([]*PaymentRefund, error)

	ListActiveGatewayConfigs(ctx context.Context) ([]GatewayConfig, error)

	CreateMpesaTransaction(ctx context.Context, tx *MpesaTransaction) error
	GetMpesaTransaction(ctx context.Context, checkoutRequestID string) (*MpesaTransaction, error)
	UpdateMpesaTransactionStatus(ctx context.Context, checkoutRequestID, status string) error
	ListMpesaTransactions(ctx context.Context, start, end time.Time) ([]*MpesaTransaction, error)
}

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

// ── Transactions ──────────────────────────────────────────────────────────────
// RunInTx injects the open transaction into the context so every
// repository call inside fn rides the same transaction. A panic or
// error rolls back; otherwise the transaction commits.

type txKey struct{}

func (r *postgresRepo) RunInTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			_ = tx.Rollback()
		}
	}()

	ctx = context.WithValue(ctx, txKey{}, tx)
	if err = fn(ctx); err != nil {
		return err
	}
	return tx.Commit()
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func (r *postgresRepo) conn(ctx context.Context) dbtx {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return r.db
}

// ── Payments ──────────────────────────────────────────────────────────────────

func (r *postgresRepo) CreatePayment(ctx context.Context, p *Payment) error {
	_, err := r.conn(ctx).ExecContext(ctx, `
		INSERT INTO payments
		  (id, customer_id, amount, processing_fee, net_amount, method, description,
		   status, reference, currency, gateway_used, metadata)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		p.ID, p.CustomerID, p.Amount, p.ProcessingFee, p.NetAmount,
		p.Method, nilIfEmpty(p.Description), p.Status, p.Reference,
		p.Currency, p.GatewayUsed, nilIfEmptyBytes(p.Metadata))
	return err
}

func (r *postgresRepo) FinalizePayment(ctx context.Context, id string, status PaymentStatus, externalTxnID string, rawResponse []byte) error {
	_, err := r.conn(ctx).ExecContext(ctx, `
		UPDATE payments
		SET status=$1, external_txn_id=COALESCE(NULLIF($2,''), external_txn_id),
		    gateway_response=$3, updated_at=$4
		WHERE id=$5`,
		status, externalTxnID, nilIfEmptyBytes(rawResponse), time.Now(), id)
	return err
}

func (r *postgresRepo) GetPayment(ctx context.Context, id string) (*Payment, error) {
	return r.scanPayment(r.conn(ctx).QueryRowContext(ctx, selectPaymentSQL+" WHERE id=$1", id))
}

func (r *postgresRepo) GetPaymentByExternalTxn(ctx context.Context, gateway, txnID string) (*Payment, error) {
	return r.scanPayment(r.conn(ctx).QueryRowContext(ctx,
		selectPaymentSQL+" WHERE gateway_used=$1 AND external_txn_id=$2", gateway, txnID))
}

func (r *postgresRepo) UpdatePaymentStatus(ctx context.Context, id string, status PaymentStatus) error {
	_, err := r.conn(ctx).ExecContext(ctx, `
		UPDATE payments SET status=$1, updated_at=$2 WHERE id=$3`,
		status, time.Now(), id)
	return err
}

func (r *postgresRepo) ListPaymentsByCustomer(ctx context.Context, customerID string) ([]*Payment, error) {
	rows, err := r.conn(ctx).QueryContext(ctx,
		selectPaymentSQL+" WHERE customer_id=$1 ORDER BY created_at DESC", customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanPayments(rows)
}

func (r *postgresRepo) ListPaymentsByGateway(ctx context.Context, gateway string, start, end time.Time) ([]*Payment, error) {
	rows, err := r.conn(ctx).QueryContext(ctx,
		selectPaymentSQL+" WHERE gateway_used=$1 AND created_at BETWEEN $2 AND $3 ORDER BY created_at", gateway, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanPayments(rows)
}

// ── Refunds ───────────────────────────────────────────────────────────────────

func (r *postgresRepo) CreateRefund(ctx context.Context, ref *PaymentRefund) error {
	_, err := r.conn(ctx).ExecContext(ctx, `
		INSERT INTO payment_refunds (id, payment_id, amount, reason, status, refund_ref)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		ref.ID, ref.PaymentID, ref.Amount, nilIfEmpty(ref.Reason), ref.Status, ref.RefundRef)
	return err
}

func (r *postgresRepo) ListRefunds(ctx context.Context, paymentID string) ([]*PaymentRefund, error) {
	rows, err := r.conn(ctx).QueryContext(ctx, `
		SELECT id, payment_id, amount, reason, status, refund_ref, created_at
		FROM payment_refunds WHERE payment_id=$1 ORDER BY created_at`, paymentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refunds []*PaymentRefund
	for rows.Next() {
		ref := &PaymentRefund{}
		var reason sql.NullString
		if err := rows.Scan(&ref.ID, &ref.PaymentID, &ref.Amount, &reason, &ref.Status, &ref.RefundRef, &ref.CreatedAt); err != nil {
			return nil, err
		}
		if reason.Valid {
			ref.Reason = reason.String
		}
		refunds = append(refunds, ref)
	}
	if refunds == nil {
		refunds = []*PaymentRefund{}
	}
	return refunds, rows.Err()
}

// ── Gateway configuration ─────────────────────────────────────────────────────

func (r *postgresRepo) ListActiveGatewayConfigs(ctx context.Context) ([]GatewayConfig, error) {
	rows, err := r.conn(ctx).QueryContext(ctx, `
		SELECT id, name, provider_type, is_active, credentials, percent_fee,
		       fixed_fee, currencies, webhook_url
		FROM payment_gateway_configs
		WHERE is_active = true
		ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []GatewayConfig
	for rows.Next() {
		var cfg GatewayConfig
		var creds, currencies []byte
		var percent, fixed sql.NullFloat64
		var webhook sql.NullString
		if err := rows.Scan(&cfg.ID, &cfg.Name, &cfg.Type, &cfg.IsActive,
			&creds, &percent, &fixed, &currencies, &webhook); err != nil {
			return nil, err
		}
		if percent.Valid {
			cfg.PercentFee = percent.Float64
		}
		if fixed.Valid {
			cfg.FixedFee = fixed.Float64
		}
		if webhook.Valid {
			cfg.WebhookURL = webhook.String
		}
		if len(creds) > 0 {
			_ = json.Unmarshal(creds, &cfg.Credentials)
		}
		if len(currencies) > 0 {
			_ = json.Unmarshal(currencies, &cfg.Currencies)
		}
		configs = append(configs, cfg)
	}
	return configs, rows.Err()
}

// ── M-Pesa transaction log ────────────────────────────────────────────────────

func (r *postgresRepo) CreateMpesaTransaction(ctx context.Context, tx *MpesaTransaction) error {
	_, err := r.conn(ctx).ExecContext(ctx, `
		INSERT INTO mpesa_transactions (id, payment_id, checkout_request_id, phone_number, amount, status)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		tx.ID, tx.PaymentID, tx.CheckoutRequestID, tx.PhoneNumber, tx.Amount, tx.Status)
	return err
}

func (r *postgresRepo) GetMpesaTransaction(ctx context.Context, checkoutRequestID string) (*MpesaTransaction, error) {
	tx := &MpesaTransaction{}
	err := r.conn(ctx).QueryRowContext(ctx, `
		SELECT id, payment_id, checkout_request_id, phone_number, amount, status, created_at
		FROM mpesa_transactions WHERE checkout_request_id=$1`, checkoutRequestID).
		Scan(&tx.ID, &tx.PaymentID, &tx.CheckoutRequestID, &tx.PhoneNumber, &tx.Amount, &tx.Status, &tx.CreatedAt)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func (r *postgresRepo) UpdateMpesaTransactionStatus(ctx context.Context, checkoutRequestID, status string) error {
	_, err := r.conn(ctx).ExecContext(ctx, `
		UPDATE mpesa_transactions SET status=$1 WHERE checkout_request_id=$2`,
		status, checkoutRequestID)
	return err
}

func (r *postgresRepo) ListMpesaTransactions(ctx context.Context, start, end time.Time) ([]*MpesaTransaction, error) {
	rows, err := r.conn(ctx).QueryContext(ctx, `
		SELECT id, payment_id, checkout_request_id, phone_number, amount, status, created_at
		FROM mpesa_transactions WHERE created_at BETWEEN $1 AND $2 ORDER BY created_at`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []*MpesaTransaction
	for rows.Next() {
		tx := &MpesaTransaction{}
		if err := rows.Scan(&tx.ID, &tx.PaymentID, &tx.CheckoutRequestID, &tx.PhoneNumber, &tx.Amount, &tx.Status, &tx.CreatedAt); err != nil {
			return nil, err
		}
		txns = append(txns, tx)
	}
	return txns, rows.Err()
}

// ── Scanner ───────────────────────────────────────────────────────────────────

const selectPaymentSQL = `
	SELECT id, customer_id, amount, processing_fee, net_amount, method, description,
	       status, reference, currency, gateway_used, external_txn_id,
	       gateway_response, metadata, created_at, updated_at
	FROM payments`

type rowScanner interface{ Scan(dest ...interface{}) error }

func (r *postgresRepo) scanPayment(row rowScanner) (*Payment, error) {
	p := &Payment{}
	var desc, extTxn sql.NullString
	var rawResp, metadata []byte

	err := row.Scan(
		&p.ID, &p.CustomerID, &p.Amount, &p.ProcessingFee, &p.NetAmount,
		&p.Method, &desc, &p.Status, &p.Reference, &p.Currency,
		&p.GatewayUsed, &extTxn, &rawResp, &metadata,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if desc.Valid {
		p.Description = desc.String
	}
	if extTxn.Valid {
		p.ExternalTxnID = extTxn.String
	}
	if len(rawResp) > 0 {
		p.GatewayResponse = rawResp
	}
	if len(metadata) > 0 {
		p.Metadata = metadata
	}
	return p, nil
}

func (r *postgresRepo) scanPayments(rows *sql.Rows) ([]*Payment, error) {
	var payments []*Payment
	for rows.Next() {
		p, err := r.scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	if payments == nil {
		payments = []*Payment{}
	}
	return payments, rows.Err()
}

func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nilIfEmptyBytes(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}
