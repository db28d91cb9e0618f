package payment

import (
	"context"
	"database/sql"
	"sync"
	"time"
)

// fakeRepo is an in-memory Repository. RunInTx tracks rollback
// semantics coarsely: on error, payments created inside the callback
// are discarded, mirroring the real transaction.
type fakeRepo struct {
	mu        sync.Mutex
	payments  map[string]*Payment
	refunds   []*PaymentRefund
	mpesaTxns map[string]*MpesaTransaction
	configs   []GatewayConfig

	createPaymentErr error
	finalizeErr      error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		payments:  map[string]*Payment{},
		mpesaTxns: map[string]*MpesaTransaction{},
	}
}

func (f *fakeRepo) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	before := make(map[string]*Payment, len(f.payments))
	for k, v := range f.payments {
		before[k] = v
	}
	if err := fn(ctx); err != nil {
		f.mu.Lock()
		f.payments = before
		f.mu.Unlock()
		return err
	}
	return nil
}

func (f *fakeRepo) CreatePayment(ctx context.Context, p *Payment) error {
	if f.createPaymentErr != nil {
		return f.createPaymentErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	f.payments[p.ID.String()] = &cp
	return nil
}

func (f *fakeRepo) FinalizePayment(ctx context.Context, id string, status PaymentStatus, externalTxnID string, rawResponse []byte) error {
	if f.finalizeErr != nil {
		return f.finalizeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[id]
	if !ok {
		return sql.ErrNoRows
	}
	p.Status = status
	if externalTxnID != "" {
		p.ExternalTxnID = externalTxnID
	}
	p.GatewayResponse = rawResponse
	p.UpdatedAt = time.Now()
	return nil
}

func (f *fakeRepo) GetPayment(ctx context.Context, id string) (*Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (f *fakeRepo) GetPaymentByExternalTxn(ctx context.Context, gateway, txnID string) (*Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.payments {
		if p.GatewayUsed == gateway && p.ExternalTxnID == txnID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeRepo) UpdatePaymentStatus(ctx context.Context, id string, status PaymentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[id]
	if !ok {
		return sql.ErrNoRows
	}
	p.Status = status
	return nil
}

func (f *fakeRepo) ListPaymentsByCustomer(ctx context.Context, customerID string) ([]*Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*Payment
	for _, p := range f.payments {
		if p.CustomerID.String() == customerID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListPaymentsByGateway(ctx context.Context, gateway string, start, end time.Time) ([]*Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*Payment
	for _, p := range f.payments {
		if p.GatewayUsed == gateway {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRepo) CreateRefund(ctx context.Context, ref *PaymentRefund) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *ref
	f.refunds = append(f.refunds, &cp)
	return nil
}

func (f *fakeRepo) ListRefunds(ctx context.Context, paymentID string) ([]*PaymentRefund, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*PaymentRefund
	for _, r := range f.refunds {
		if r.PaymentID.String() == paymentID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListActiveGatewayConfigs(ctx context.Context) ([]GatewayConfig, error) {
	return f.configs, nil
}

func (f *fakeRepo) CreateMpesaTransaction(ctx context.Context, tx *MpesaTransaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *tx
	f.mpesaTxns[tx.CheckoutRequestID] = &cp
	return nil
}

func (f *fakeRepo) GetMpesaTransaction(ctx context.Context, checkoutRequestID string) (*MpesaTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tx, ok := f.mpesaTxns[checkoutRequestID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *tx
	return &cp, nil
}

func (f *fakeRepo) UpdateMpesaTransactionStatus(ctx context.Context, checkoutRequestID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	tx, ok := f.mpesaTxns[checkoutRequestID]
	if !ok {
		return sql.ErrNoRows
	}
	tx.Status = status
	return nil
}

func (f *fakeRepo) ListMpesaTransactions(ctx context.Context, start, end time.Time) ([]*MpesaTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*MpesaTransaction
	for _, tx := range f.mpesaTxns {
		cp := *tx
		out = append(out, &cp)
	}
	return out, nil
}

// fakeConfigStore feeds LoadConfigs without a database.
type fakeConfigStore struct{ configs []GatewayConfig }

func (f *fakeConfigStore) ListActiveGatewayConfigs(ctx context.Context) ([]GatewayConfig, error) {
	return f.configs, nil
}

// stubGateway is a scriptable adapter.
type stubGateway struct {
	result       *GatewayResult
	processErr   error
	verifyResult bool
	refundResp   *PaymentResponse
	calls        int
}

func (g *stubGateway) ProcessPayment(ctx context.Context, req *GatewayRequest) (*GatewayResult, error) {
	g.calls++
	if g.processErr != nil {
		return nil, g.processErr
	}
	if g.result != nil {
		return g.result, nil
	}
	return &GatewayResult{
		Success:       true,
		TransactionID: "STUB-" + req.Reference,
		Message:       "ok",
		Raw:           map[string]interface{}{"stub": true},
	}, nil
}

func (g *stubGateway) VerifyPayment(ctx context.Context, transactionID string) (bool, error) {
	return g.verifyResult, nil
}

func (g *stubGateway) RefundPayment(ctx context.Context, transactionID string, amount float64) (*PaymentResponse, error) {
	if g.refundResp != nil {
		return g.refundResp, nil
	}
	return &PaymentResponse{Success: true, TransactionID: "STUB-REF-" + transactionID}, nil
}

// recordingLogger captures audit calls.
type recordingLogger struct {
	mu      sync.Mutex
	entries []string
}

func (l *recordingLogger) LogAdminActivity(ctx context.Context, message, actor string, metadata map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, message)
}
