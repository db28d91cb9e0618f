package payment

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

// stripeGateway is the hosted-checkout card adapter. ProcessPayment
// creates a Checkout Session and hands the caller a redirect URL; the
// charge itself completes on Stripe's page and lands back via webhook.
type stripeGateway struct {
	cfg    GatewayConfig
	client *client.API
	store  MpesaStore // payments lookup only, for reconciliation
}

func NewStripeGateway(cfg GatewayConfig, store MpesaStore) Gateway {
	sc := &client.API{}
	sc.Init(cfg.Credentials["secret_key"], nil)
	return &stripeGateway{cfg: cfg, client: sc, store: store}
}

func (g *stripeGateway) ProcessPayment(ctx context.Context, req *GatewayRequest) (*GatewayResult, error) {
	successURL := req.CallbackURL
	if successURL == "" {
		successURL = g.cfg.Credentials["return_url"]
	}
	description := req.Description
	if description == "" {
		description = "NetBill payment " + req.Reference
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(req.PaymentID),
		SuccessURL:        stripe.String(successURL),
		CancelURL:         stripe.String(successURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(strings.ToLower(req.Currency)),
				UnitAmount: stripe.Int64(minorUnits(req.Amount)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(description),
				},
			},
		}},
	}
	params.AddMetadata("payment_id", req.PaymentID)
	params.AddMetadata("reference", req.Reference)
	params.Context = ctx

	sess, err := g.client.CheckoutSessions.New(params)
	if err != nil {
		return &GatewayResult{
			Success: false,
			Error:   fmt.Sprintf("stripe checkout session: %v", err),
			Raw:     map[string]interface{}{"error": err.Error()},
		}, nil
	}

	return &GatewayResult{
		Success:       true,
		TransactionID: sess.ID,
		CheckoutURL:   sess.URL,
		Message:       "redirect customer to checkout_url to complete payment",
		Raw: map[string]interface{}{
			"session_id":     sess.ID,
			"payment_status": string(sess.PaymentStatus),
		},
	}, nil
}

func (g *stripeGateway) VerifyPayment(ctx context.Context, transactionID string) (bool, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	sess, err := g.client.CheckoutSessions.Get(transactionID, params)
	if err != nil {
		return false, fmt.Errorf("stripe session lookup: %w", err)
	}
	return sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid, nil
}

func (g *stripeGateway) RefundPayment(ctx context.Context, transactionID string, amount float64) (*PaymentResponse, error) {
	sessParams := &stripe.CheckoutSessionParams{}
	sessParams.Context = ctx
	sess, err := g.client.CheckoutSessions.Get(transactionID, sessParams)
	if err != nil {
		return &PaymentResponse{Success: false, Error: fmt.Sprintf("stripe session lookup: %v", err)}, nil
	}
	if sess.PaymentIntent == nil {
		return &PaymentResponse{Success: false, Error: "session has no payment intent to refund"}, nil
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(sess.PaymentIntent.ID),
	}
	if amount > 0 {
		params.Amount = stripe.Int64(minorUnits(amount))
	}
	params.Context = ctx

	ref, err := g.client.Refunds.New(params)
	if err != nil {
		return &PaymentResponse{Success: false, Error: fmt.Sprintf("stripe refund: %v", err)}, nil
	}
	return &PaymentResponse{
		Success:       true,
		TransactionID: ref.ID,
		Message:       fmt.Sprintf("refund %s %s", ref.ID, ref.Status),
	}, nil
}

// Reconcile lists checkout sessions created in the window and matches
// them against local payments by session id.
func (g *stripeGateway) Reconcile(ctx context.Context, start, end time.Time) (*ReconciliationReport, error) {
	payments, err := g.store.ListPaymentsByGateway(ctx, g.cfg.Name, start, end)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	byTxn := make(map[string]*Payment, len(payments))
	for _, p := range payments {
		byTxn[p.ExternalTxnID] = p
	}

	report := &ReconciliationReport{
		Gateway:     g.cfg.Name,
		PeriodStart: start,
		PeriodEnd:   end,
		LocalCount:  len(payments),
	}

	listParams := &stripe.CheckoutSessionListParams{
		CreatedRange: &stripe.RangeQueryParams{
			GreaterThanOrEqual: start.Unix(),
			LesserThanOrEqual:  end.Unix(),
		},
	}
	listParams.Context = ctx

	iter := g.client.CheckoutSessions.List(listParams)
	for iter.Next() {
		sess := iter.CheckoutSession()
		report.ProviderCount++
		p, ok := byTxn[sess.ID]
		if !ok {
			report.MissingLocally = append(report.MissingLocally, sess.ID)
			continue
		}
		report.Matched++
		paid := sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid
		switch {
		case paid && p.Status != StatusCompleted && p.Status != StatusRefunded:
			report.StatusMismatch = append(report.StatusMismatch, p.Reference)
		case !paid && p.Status == StatusProcessing:
			report.Unsettled = append(report.Unsettled, p.Reference)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("stripe session list: %w", err)
	}
	return report, nil
}

// minorUnits converts a major-unit amount to the integer minor units
// Stripe expects (cents for KES/USD).
func minorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
