package payment

import (
	"context"
	"fmt"
	"math"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
)

// midtransGateway is the wallet/card hosted-checkout adapter backed by
// Midtrans Snap. Like the Stripe adapter it returns a redirect URL and
// relies on the notification callback for completion.
type midtransGateway struct {
	cfg  GatewayConfig
	snap snap.Client
	core coreapi.Client
}

func NewMidtransGateway(cfg GatewayConfig) Gateway {
	env := midtrans.Sandbox
	if cfg.Credentials["environment"] == "production" {
		env = midtrans.Production
	}
	serverKey := cfg.Credentials["server_key"]

	var s snap.Client
	s.New(serverKey, env)
	var c coreapi.Client
	c.New(serverKey, env)

	return &midtransGateway{cfg: cfg, snap: s, core: c}
}

func (g *midtransGateway) ProcessPayment(ctx context.Context, req *GatewayRequest) (*GatewayResult, error) {
	param := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.Reference,
			GrossAmt: int64(math.Round(req.Amount)),
		},
	}
	if req.PhoneNumber != "" {
		param.CustomerDetail = &midtrans.CustomerDetails{Phone: req.PhoneNumber}
	}

	resp, mErr := g.snap.CreateTransaction(param)
	if mErr != nil {
		return &GatewayResult{
			Success: false,
			Error:   fmt.Sprintf("midtrans create transaction: %v", mErr.GetMessage()),
			Raw:     map[string]interface{}{"error": mErr.GetMessage()},
		}, nil
	}

	return &GatewayResult{
		Success:       true,
		TransactionID: req.Reference, // Midtrans keys everything by order id
		CheckoutURL:   resp.RedirectURL,
		Message:       "redirect customer to checkout_url to complete payment",
		Raw: map[string]interface{}{
			"token":        resp.Token,
			"redirect_url": resp.RedirectURL,
		},
	}, nil
}

func (g *midtransGateway) VerifyPayment(ctx context.Context, transactionID string) (bool, error) {
	status, mErr := g.core.CheckTransaction(transactionID)
	if mErr != nil {
		return false, fmt.Errorf("midtrans status check: %v", mErr.GetMessage())
	}
	return status.TransactionStatus == "settlement" || status.TransactionStatus == "capture", nil
}

func (g *midtransGateway) RefundPayment(ctx context.Context, transactionID string, amount float64) (*PaymentResponse, error) {
	req := &coreapi.RefundReq{Reason: "netbill refund"}
	if amount > 0 {
		req.Amount = int64(math.Round(amount))
	}
	resp, mErr := g.core.RefundTransaction(transactionID, req)
	if mErr != nil {
		return &PaymentResponse{Success: false, Error: fmt.Sprintf("midtrans refund: %v", mErr.GetMessage())}, nil
	}
	return &PaymentResponse{
		Success:       true,
		TransactionID: resp.OrderID,
		Message:       resp.StatusMessage,
	}, nil
}
