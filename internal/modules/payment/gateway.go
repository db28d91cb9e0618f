package payment

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// Gateway is the provider-agnostic contract every payment adapter
// implements. Exactly one adapter call happens per ProcessPayment
// invocation on the orchestrator.
type Gateway interface {
	// ProcessPayment initiates a charge with the provider. Push-style
	// providers return a session/checkout id and complete later via
	// callback; hosted-checkout providers return a redirect URL.
	ProcessPayment(ctx context.Context, req *GatewayRequest) (*GatewayResult, error)
	// VerifyPayment reports whether the provider considers the
	// transaction settled.
	VerifyPayment(ctx context.Context, transactionID string) (bool, error)
	// RefundPayment requests a refund. Providers without programmatic
	// refunds return a failed response, not an error.
	RefundPayment(ctx context.Context, transactionID string, amount float64) (*PaymentResponse, error)
}

// Reconciler is implemented by adapters that can match provider-side
// settled transactions against local payments over a date range.
// Calling ReconcilePayments on a gateway that does not implement it is
// a configuration error and surfaces as a real error.
type Reconciler interface {
	Reconcile(ctx context.Context, start, end time.Time) (*ReconciliationReport, error)
}

// GatewayRequest is what the orchestrator hands an adapter: the caller
// request plus the freshly created payment id and reference.
type GatewayRequest struct {
	PaymentID   string
	Reference   string
	CustomerID  string
	Amount      float64
	Currency    string
	Description string
	PhoneNumber string
	CallbackURL string
	Metadata    map[string]interface{}
}

// GatewayResult is the adapter's verdict. Raw is persisted verbatim on
// the payment row for audit.
type GatewayResult struct {
	Success       bool
	TransactionID string
	CheckoutURL   string
	Message       string
	Error         string
	Raw           map[string]interface{}
}

// MpesaStore is the slice of the repository the mpesa adapter needs to
// keep its provider-side transaction log.
type MpesaStore interface {
	CreateMpesaTransaction(ctx context.Context, tx *MpesaTransaction) error
	GetMpesaTransaction(ctx context.Context, checkoutRequestID string) (*MpesaTransaction, error)
	ListMpesaTransactions(ctx context.Context, start, end time.Time) ([]*MpesaTransaction, error)
	ListPaymentsByGateway(ctx context.Context, gateway string, start, end time.Time) ([]*Payment, error)
}

// ── M-Pesa (Daraja STK push) ──────────────────────────────────────────────────
// Push-style: the adapter records a local pending transaction and
// returns a checkout request id. Completion arrives via the callback
// endpoint, not here.

type mpesaGateway struct {
	cfg   GatewayConfig
	store MpesaStore
}

func NewMpesaGateway(cfg GatewayConfig, store MpesaStore) Gateway {
	return &mpesaGateway{cfg: cfg, store: store}
}

func (g *mpesaGateway) ProcessPayment(ctx context.Context, req *GatewayRequest) (*GatewayResult, error) {
	if req.PhoneNumber == "" {
		return &GatewayResult{
			Success: false,
			Error:   "phone_number is required for M-Pesa",
			Raw:     map[string]interface{}{"error": "missing phone_number"},
		}, nil
	}

	// ── PRODUCTION INTEGRATION POINT ──────────────────────────────────────────
	// Replace this block with actual Daraja STK Push calls:
	//
	// 1. GET /oauth/v1/generate?grant_type=client_credentials for a bearer token
	//    (consumer key/secret from g.cfg.Credentials)
	// 2. POST /mpesa/stkpush/v1/processrequest
	//    Body: { BusinessShortCode, Password: base64(shortcode+passkey+timestamp),
	//            Timestamp, TransactionType: "CustomerPayBillOnline", Amount,
	//            PartyA: phone, PartyB: shortcode, PhoneNumber, CallBackURL,
	//            AccountReference: req.Reference, TransactionDesc }
	// 3. Store the CheckoutRequestID returned by Daraja
	// ──────────────────────────────────────────────────────────────────────────

	checkoutID := fmt.Sprintf("ws_CO_%s%05d", time.Now().Format("02012006150405"), rand.Intn(100000))

	paymentID, err := uuid.Parse(req.PaymentID)
	if err != nil {
		return nil, fmt.Errorf("invalid payment id: %w", err)
	}
	mt := &MpesaTransaction{
		ID:                uuid.New(),
		PaymentID:         paymentID,
		CheckoutRequestID: checkoutID,
		PhoneNumber:       req.PhoneNumber,
		Amount:            req.Amount,
		Status:            "PENDING",
	}
	if err := g.store.CreateMpesaTransaction(ctx, mt); err != nil {
		return nil, fmt.Errorf("record mpesa transaction: %w", err)
	}

	return &GatewayResult{
		Success:       true,
		TransactionID: checkoutID,
		Message:       fmt.Sprintf("STK push sent to %s. Awaiting PIN confirmation.", req.PhoneNumber),
		Raw: map[string]interface{}{
			"CheckoutRequestID": checkoutID,
			"ResponseCode":      "0",
			"CustomerMessage":   "Success. Request accepted for processing",
		},
	}, nil
}

func (g *mpesaGateway) VerifyPayment(ctx context.Context, transactionID string) (bool, error) {
	mt, err := g.store.GetMpesaTransaction(ctx, transactionID)
	if err != nil {
		return false, fmt.Errorf("mpesa transaction %s not found: %w", transactionID, err)
	}
	return mt.Status == "COMPLETED", nil
}

func (g *mpesaGateway) RefundPayment(ctx context.Context, transactionID string, amount float64) (*PaymentResponse, error) {
	// M-Pesa reversals go through the back office, not the API.
	return &PaymentResponse{
		Success: false,
		Error:   "M-Pesa refunds require manual processing",
	}, nil
}

// Reconcile matches the local STK log against payments recorded for
// this gateway in the window.
func (g *mpesaGateway) Reconcile(ctx context.Context, start, end time.Time) (*ReconciliationReport, error) {
	txns, err := g.store.ListMpesaTransactions(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("list mpesa transactions: %w", err)
	}
	payments, err := g.store.ListPaymentsByGateway(ctx, g.cfg.Name, start, end)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}

	byTxn := make(map[string]*Payment, len(payments))
	for _, p := range payments {
		byTxn[p.ExternalTxnID] = p
	}

	report := &ReconciliationReport{
		Gateway:       g.cfg.Name,
		PeriodStart:   start,
		PeriodEnd:     end,
		LocalCount:    len(payments),
		ProviderCount: len(txns),
	}
	for _, t := range txns {
		p, ok := byTxn[t.CheckoutRequestID]
		if !ok {
			report.MissingLocally = append(report.MissingLocally, t.CheckoutRequestID)
			continue
		}
		report.Matched++
		switch {
		case t.Status == "COMPLETED" && p.Status != StatusCompleted && p.Status != StatusRefunded:
			report.StatusMismatch = append(report.StatusMismatch, p.Reference)
		case t.Status == "PENDING" && p.Status == StatusProcessing:
			report.Unsettled = append(report.Unsettled, p.Reference)
		}
	}
	return report, nil
}

// ── Airtel Money ──────────────────────────────────────────────────────────────

type airtelGateway struct {
	cfg GatewayConfig
}

func NewAirtelGateway(cfg GatewayConfig) Gateway {
	return &airtelGateway{cfg: cfg}
}

func (g *airtelGateway) ProcessPayment(ctx context.Context, req *GatewayRequest) (*GatewayResult, error) {
	if req.PhoneNumber == "" {
		return &GatewayResult{
			Success: false,
			Error:   "phone_number is required for Airtel Money",
			Raw:     map[string]interface{}{"error": "missing phone_number"},
		}, nil
	}

	// ── PRODUCTION INTEGRATION POINT ──────────────────────────────────────────
	// 1. POST /auth/oauth2/token with a client_credentials grant
	// 2. POST /merchant/v2/payments/
	//    Headers: Authorization, X-Country, X-Currency
	//    Body: { reference, subscriber: { msisdn }, transaction: { amount, id } }
	// 3. Store transaction.id as the external reference
	// ──────────────────────────────────────────────────────────────────────────

	ref := fmt.Sprintf("ATL-%s-%04d", time.Now().Format("20060102150405"), rand.Intn(10000))
	return &GatewayResult{
		Success:       true,
		TransactionID: ref,
		Message:       fmt.Sprintf("Airtel Money request sent to %s. Awaiting PIN confirmation.", req.PhoneNumber),
		Raw: map[string]interface{}{
			"transaction": map[string]interface{}{"id": ref, "status": "DP"},
		},
	}, nil
}

func (g *airtelGateway) VerifyPayment(ctx context.Context, transactionID string) (bool, error) {
	// Placeholder until the Airtel status API (GET /standard/v1/payments/{id})
	// is wired; treats every transaction as settled.
	return true, nil
}

func (g *airtelGateway) RefundPayment(ctx context.Context, transactionID string, amount float64) (*PaymentResponse, error) {
	return &PaymentResponse{
		Success: false,
		Error:   "Airtel Money refunds require manual processing",
	}, nil
}

// ── Bank transfer ─────────────────────────────────────────────────────────────
// Not a real-time rail: ProcessPayment issues transfer instructions and
// the payment stays in PROCESSING until finance confirms receipt.

type bankTransferGateway struct {
	cfg GatewayConfig
}

func NewBankTransferGateway(cfg GatewayConfig) Gateway {
	return &bankTransferGateway{cfg: cfg}
}

func (g *bankTransferGateway) ProcessPayment(ctx context.Context, req *GatewayRequest) (*GatewayResult, error) {
	ref := fmt.Sprintf("BT-%s-%04d", time.Now().Format("20060102"), rand.Intn(10000))
	msg := fmt.Sprintf("Transfer %s %.2f to account %s quoting reference %s",
		req.Currency, req.Amount, g.cfg.Credentials["account_number"], ref)
	return &GatewayResult{
		Success:       true,
		TransactionID: ref,
		Message:       msg,
		Raw:           map[string]interface{}{"instruction_ref": ref},
	}, nil
}

func (g *bankTransferGateway) VerifyPayment(ctx context.Context, transactionID string) (bool, error) {
	// Settlement is confirmed manually by finance, never here.
	return false, nil
}

func (g *bankTransferGateway) RefundPayment(ctx context.Context, transactionID string, amount float64) (*PaymentResponse, error) {
	return &PaymentResponse{
		Success: false,
		Error:   "bank transfer refunds require manual processing",
	}, nil
}
