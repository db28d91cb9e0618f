package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
)

// adapterTimeout bounds every outbound provider call.
const adapterTimeout = 30 * time.Second

// ActivityLogger is the audit collaborator. Implementations are
// fire-and-forget; a logging failure never aborts payment flow.
type ActivityLogger interface {
	LogAdminActivity(ctx context.Context, message, actor string, metadata map[string]interface{})
}

// Service is the payment orchestrator: selection, persistence, adapter
// dispatch and audit. Business failures come back as PaymentResponse
// values with Success=false; only ReconcilePayments surfaces errors,
// because calling it on an unsupported gateway is a configuration bug.
type Service interface {
	ProcessPayment(ctx context.Context, req PaymentRequest) *PaymentResponse
	RefundPayment(ctx context.Context, paymentID string, req RefundRequest) *PaymentResponse
	ReconcilePayments(ctx context.Context, gatewayName string, start, end time.Time) (*ReconciliationReport, error)
	VerifyPayment(ctx context.Context, paymentID string) (*Payment, error)

	GetPayment(ctx context.Context, id string) (*Payment, error)
	ListCustomerPayments(ctx context.Context, customerID string) ([]*Payment, error)
	ListRefunds(ctx context.Context, paymentID string) ([]*PaymentRefund, error)

	ReloadGateways(ctx context.Context) error
	ListGateways() []GatewayConfig

	HandleProviderCallback(ctx context.Context, gatewayName, eventID, externalTxnID string, succeeded bool) error
}

type service struct {
	repo     Repository
	registry *Registry
	cache    *Cache
	activity ActivityLogger
}

func NewService(repo Repository, registry *Registry, cache *Cache, activity ActivityLogger) Service {
	return &service{repo: repo, registry: registry, cache: cache, activity: activity}
}

// ── ProcessPayment ────────────────────────────────────────────────────────────

func (s *service) ProcessPayment(ctx context.Context, req PaymentRequest) *PaymentResponse {
	if req.Amount <= 0 {
		return &PaymentResponse{Success: false, Error: "amount must be greater than 0"}
	}
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		return &PaymentResponse{Success: false, Error: "invalid customer_id"}
	}

	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = "KES"
	}
	method := PaymentMethod(strings.ToUpper(req.Method))

	// No gateway means no writes at all.
	cand, ok := s.registry.SelectGateway(method, currency, req.Amount)
	if !ok {
		return &PaymentResponse{
			Success: false,
			Error:   fmt.Sprintf("no suitable gateway for %s/%s", method, currency),
		}
	}

	fee := ProcessingFee(cand.Config, req.Amount)
	reference := req.Reference
	if reference == "" {
		reference = GenerateReference()
	}
	var metadata json.RawMessage
	if len(req.Metadata) > 0 {
		metadata, _ = json.Marshal(req.Metadata)
	}

	p := &Payment{
		ID:            uuid.New(),
		CustomerID:    customerID,
		Amount:        req.Amount,
		ProcessingFee: fee,
		NetAmount:     NetAmount(req.Amount, fee),
		Method:        method,
		Description:   req.Description,
		Status:        StatusPending,
		Reference:     reference,
		Currency:      currency,
		GatewayUsed:   cand.Name,
		Metadata:      metadata,
	}

	// Pending insert, the single adapter call, and the status update
	// ride one transaction: a crash mid-sequence rolls everything back
	// rather than stranding a pending row.
	var result *GatewayResult
	err = s.repo.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.CreatePayment(txCtx, p); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}

		result = s.callAdapter(txCtx, cand.Name, &GatewayRequest{
			PaymentID:   p.ID.String(),
			Reference:   reference,
			CustomerID:  req.CustomerID,
			Amount:      req.Amount,
			Currency:    currency,
			Description: req.Description,
			PhoneNumber: req.PhoneNumber,
			CallbackURL: req.CallbackURL,
			Metadata:    req.Metadata,
		})

		status := StatusProcessing
		if !result.Success {
			status = StatusFailed
		}
		raw, _ := json.Marshal(result.Raw)
		if err := s.repo.FinalizePayment(txCtx, p.ID.String(), status, result.TransactionID, raw); err != nil {
			return fmt.Errorf("finalize payment: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logActivity(ctx, fmt.Sprintf("payment attempt failed for customer %s: %v", req.CustomerID, err),
			map[string]interface{}{"customer_id": req.CustomerID, "gateway": cand.Name, "amount": req.Amount})
		return &PaymentResponse{Success: false, Error: err.Error(), GatewayUsed: cand.Name}
	}

	outcome := "failed"
	if result.Success {
		outcome = "initiated"
	}
	s.logActivity(ctx,
		fmt.Sprintf("payment %s %s: %s %.2f for customer %s via %s (fee %.2f)",
			reference, outcome, currency, req.Amount, req.CustomerID, cand.Name, fee),
		map[string]interface{}{
			"payment_id":  p.ID.String(),
			"customer_id": req.CustomerID,
			"gateway":     cand.Name,
			"amount":      req.Amount,
			"fee":         fee,
			"success":     result.Success,
		})

	return &PaymentResponse{
		Success:       result.Success,
		PaymentID:     p.ID.String(),
		TransactionID: result.TransactionID,
		CheckoutURL:   result.CheckoutURL,
		GatewayUsed:   cand.Name,
		Message:       result.Message,
		Error:         result.Error,
	}
}

// callAdapter dispatches the one adapter call per attempt, bounded by
// a deadline and the gateway's circuit breaker. Errors are folded into
// a failed result so the payment row still records the attempt.
func (s *service) callAdapter(ctx context.Context, gatewayName string, req *GatewayRequest) *GatewayResult {
	adapter, breaker, ok := s.registry.Adapter(gatewayName)
	if !ok {
		// The gateway was selected from this registry moments ago, so
		// only a concurrent reload that removed it lands here.
		return &GatewayResult{
			Success: false,
			Error:   "gateway " + gatewayName + " is no longer registered",
			Raw:     map[string]interface{}{"error": "gateway unregistered during processing"},
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, adapterTimeout)
	defer cancel()

	res, err := breaker.Execute(func() (interface{}, error) {
		return adapter.ProcessPayment(callCtx, req)
	})
	if err != nil {
		return &GatewayResult{
			Success: false,
			Error:   err.Error(),
			Raw:     map[string]interface{}{"error": err.Error()},
		}
	}
	return res.(*GatewayResult)
}

// ── Refunds ───────────────────────────────────────────────────────────────────

func (s *service) RefundPayment(ctx context.Context, paymentID string, req RefundRequest) *PaymentResponse {
	p, err := s.repo.GetPayment(ctx, paymentID)
	if err != nil {
		return &PaymentResponse{Success: false, Error: "payment not found"}
	}

	adapter, breaker, ok := s.registry.Adapter(p.GatewayUsed)
	if !ok {
		return &PaymentResponse{
			Success: false,
			Error:   fmt.Sprintf("gateway %s is not registered", p.GatewayUsed),
		}
	}

	amount := req.Amount
	if amount <= 0 {
		amount = p.Amount
	}
	// The running refunded total is not tracked here; callers are
	// responsible for not refunding more than remains.

	callCtx, cancel := context.WithTimeout(ctx, adapterTimeout)
	defer cancel()

	res, err := breaker.Execute(func() (interface{}, error) {
		return adapter.RefundPayment(callCtx, p.ExternalTxnID, amount)
	})
	if err != nil {
		return &PaymentResponse{Success: false, Error: err.Error(), GatewayUsed: p.GatewayUsed}
	}
	resp := res.(*PaymentResponse)
	resp.PaymentID = p.ID.String()
	resp.GatewayUsed = p.GatewayUsed
	if !resp.Success {
		return resp
	}

	refundRef := resp.TransactionID
	if refundRef == "" {
		refundRef = "REF-" + p.Reference
	}
	refund := &PaymentRefund{
		ID:        uuid.New(),
		PaymentID: p.ID,
		Amount:    amount,
		Reason:    req.Reason,
		Status:    "COMPLETED",
		RefundRef: refundRef,
	}
	if err := s.repo.CreateRefund(ctx, refund); err != nil {
		return &PaymentResponse{Success: false, Error: fmt.Sprintf("record refund: %v", err), GatewayUsed: p.GatewayUsed}
	}
	if amount >= p.Amount {
		_ = s.repo.UpdatePaymentStatus(ctx, p.ID.String(), StatusRefunded)
	}

	s.logActivity(ctx,
		fmt.Sprintf("refund %s of %s %.2f on payment %s via %s", refundRef, p.Currency, amount, p.Reference, p.GatewayUsed),
		map[string]interface{}{"payment_id": p.ID.String(), "amount": amount, "gateway": p.GatewayUsed})

	return resp
}

// ── Reconciliation ────────────────────────────────────────────────────────────

func (s *service) ReconcilePayments(ctx context.Context, gatewayName string, start, end time.Time) (*ReconciliationReport, error) {
	adapter, _, ok := s.registry.Adapter(gatewayName)
	if !ok {
		return nil, fmt.Errorf("gateway %s is not registered", gatewayName)
	}
	rec, ok := adapter.(Reconciler)
	if !ok {
		return nil, fmt.Errorf("gateway %s does not support reconciliation", gatewayName)
	}
	return rec.Reconcile(ctx, start, end)
}

// ── Verification ──────────────────────────────────────────────────────────────

func (s *service) VerifyPayment(ctx context.Context, paymentID string) (*Payment, error) {
	p, err := s.repo.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("payment not found: %w", err)
	}
	if p.Status != StatusProcessing || p.ExternalTxnID == "" {
		return p, nil
	}

	settled, cached := s.cache.GetVerified(ctx, p.ExternalTxnID)
	if !cached {
		adapter, breaker, ok := s.registry.Adapter(p.GatewayUsed)
		if !ok {
			return nil, fmt.Errorf("gateway %s is not registered", p.GatewayUsed)
		}
		callCtx, cancel := context.WithTimeout(ctx, adapterTimeout)
		defer cancel()
		res, err := breaker.Execute(func() (interface{}, error) {
			ok, err := adapter.VerifyPayment(callCtx, p.ExternalTxnID)
			return ok, err
		})
		if err != nil {
			return nil, fmt.Errorf("gateway verification failed: %w", err)
		}
		settled = res.(bool)
		s.cache.SetVerified(ctx, p.ExternalTxnID, settled)
	}

	if settled {
		if err := s.repo.UpdatePaymentStatus(ctx, p.ID.String(), StatusCompleted); err != nil {
			return nil, err
		}
	}
	return s.repo.GetPayment(ctx, paymentID)
}

// ── Lookups ───────────────────────────────────────────────────────────────────

func (s *service) GetPayment(ctx context.Context, id string) (*Payment, error) {
	p, err := s.repo.GetPayment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("payment not found: %w", err)
	}
	return p, nil
}

func (s *service) ListCustomerPayments(ctx context.Context, customerID string) ([]*Payment, error) {
	return s.repo.ListPaymentsByCustomer(ctx, customerID)
}

func (s *service) ListRefunds(ctx context.Context, paymentID string) ([]*PaymentRefund, error) {
	return s.repo.ListRefunds(ctx, paymentID)
}

// ── Gateway administration ────────────────────────────────────────────────────

func (s *service) ReloadGateways(ctx context.Context) error {
	return s.registry.LoadConfigs(ctx)
}

func (s *service) ListGateways() []GatewayConfig {
	return s.registry.Configs()
}

// ── Provider callbacks ────────────────────────────────────────────────────────

// HandleProviderCallback applies a provider push notification: the
// PROCESSING → COMPLETED/FAILED transition the orchestrator itself
// never makes synchronously. Re-deliveries are dropped via the replay
// guard.
func (s *service) HandleProviderCallback(ctx context.Context, gatewayName, eventID, externalTxnID string, succeeded bool) error {
	if !s.cache.MarkWebhookSeen(ctx, gatewayName, eventID) {
		return nil // duplicate delivery
	}

	p, err := s.repo.GetPaymentByExternalTxn(ctx, gatewayName, externalTxnID)
	if err != nil {
		return fmt.Errorf("no payment for %s transaction %s: %w", gatewayName, externalTxnID, err)
	}
	if p.Status != StatusProcessing {
		return nil // already terminal
	}

	status := StatusFailed
	if succeeded {
		status = StatusCompleted
	}
	if err := s.repo.UpdatePaymentStatus(ctx, p.ID.String(), status); err != nil {
		return err
	}

	if cfg, ok := s.registry.Config(gatewayName); ok && cfg.Type == TypeMpesa {
		mpesaStatus := "FAILED"
		if succeeded {
			mpesaStatus = "COMPLETED"
		}
		_ = s.repo.UpdateMpesaTransactionStatus(ctx, externalTxnID, mpesaStatus)
	}

	s.logActivity(ctx,
		fmt.Sprintf("payment %s moved to %s via %s callback", p.Reference, status, gatewayName),
		map[string]interface{}{"payment_id": p.ID.String(), "gateway": gatewayName, "status": string(status)})
	return nil
}

func (s *service) logActivity(ctx context.Context, message string, metadata map[string]interface{}) {
	if s.activity == nil {
		log.Printf("[payment] %s", message)
		return
	}
	s.activity.LogAdminActivity(ctx, message, "payment-service", metadata)
}
