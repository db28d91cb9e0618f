package payment

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(repo *fakeRepo, reg *Registry) (Service, *recordingLogger) {
	logger := &recordingLogger{}
	return NewService(repo, reg, NewCache(nil), logger), logger
}

func TestProcessPayment_Success(t *testing.T) {
	repo := newFakeRepo()
	gw := &stubGateway{}
	reg := NewRegistry(nil, repo)
	reg.Register(mobileMoneyConfig("mpesa-main", 1, 0, "KES"), gw)
	svc, logger := newTestService(repo, reg)

	resp := svc.ProcessPayment(t.Context(), PaymentRequest{
		CustomerID:  uuid.NewString(),
		Amount:      1000,
		Currency:    "KES",
		Method:      "mobile_money",
		PhoneNumber: "254700000001",
	})

	require.True(t, resp.Success, "expected success, got error %q", resp.Error)
	assert.Equal(t, "mpesa-main", resp.GatewayUsed)
	assert.NotEmpty(t, resp.PaymentID)
	assert.NotEmpty(t, resp.TransactionID)

	p, err := repo.GetPayment(t.Context(), resp.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, p.Status, "a returned payment is never left PENDING")
	assert.Equal(t, 10.0, p.ProcessingFee)
	assert.Equal(t, 990.0, p.NetAmount)
	assert.Equal(t, "mpesa-main", p.GatewayUsed)
	assert.NotEmpty(t, p.GatewayResponse, "raw adapter response is kept for audit")
	assert.Equal(t, 1, gw.calls, "exactly one adapter call per attempt")
	assert.NotEmpty(t, logger.entries, "every attempt is audited")
}

func TestProcessPayment_NoGateway_WritesNothing(t *testing.T) {
	repo := newFakeRepo()
	reg := NewRegistry(nil, repo)
	reg.Register(mobileMoneyConfig("mpesa-main", 1, 0, "KES"), &stubGateway{})
	svc, _ := newTestService(repo, reg)

	resp := svc.ProcessPayment(t.Context(), PaymentRequest{
		CustomerID: uuid.NewString(),
		Amount:     50,
		Currency:   "KES",
		Method:     "bank_transfer",
	})

	require.False(t, resp.Success)
	assert.Contains(t, resp.Error, "no suitable gateway")
	assert.Empty(t, repo.payments, "no-match must not touch storage")
}

func TestProcessPayment_AdapterDecline_PersistsFailedRow(t *testing.T) {
	repo := newFakeRepo()
	gw := &stubGateway{result: &GatewayResult{
		Success: false,
		Error:   "insufficient funds",
		Raw:     map[string]interface{}{"code": "INSUFFICIENT_FUNDS"},
	}}
	reg := NewRegistry(nil, repo)
	reg.Register(mobileMoneyConfig("mpesa-main", 1, 0, "KES"), gw)
	svc, _ := newTestService(repo, reg)

	resp := svc.ProcessPayment(t.Context(), PaymentRequest{
		CustomerID:  uuid.NewString(),
		Amount:      200,
		Currency:    "KES",
		Method:      "mpesa",
		PhoneNumber: "254700000002",
	})

	require.False(t, resp.Success)
	assert.Equal(t, "insufficient funds", resp.Error)

	// The attempt is still on record.
	require.Len(t, repo.payments, 1)
	p, err := repo.GetPayment(t.Context(), resp.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, p.Status)
}

func TestProcessPayment_AdapterError_PersistsFailedRow(t *testing.T) {
	repo := newFakeRepo()
	gw := &stubGateway{processErr: errors.New("connection reset")}
	reg := NewRegistry(nil, repo)
	reg.Register(mobileMoneyConfig("mpesa-main", 1, 0, "KES"), gw)
	svc, _ := newTestService(repo, reg)

	resp := svc.ProcessPayment(t.Context(), PaymentRequest{
		CustomerID:  uuid.NewString(),
		Amount:      200,
		Currency:    "KES",
		Method:      "mpesa",
		PhoneNumber: "254700000002",
	})

	require.False(t, resp.Success)
	require.Len(t, repo.payments, 1)
	for _, p := range repo.payments {
		assert.Equal(t, StatusFailed, p.Status)
	}
}

func TestProcessPayment_StorageError_ReturnsFailureValue(t *testing.T) {
	repo := newFakeRepo()
	repo.createPaymentErr = errors.New("db down")
	reg := NewRegistry(nil, repo)
	reg.Register(mobileMoneyConfig("mpesa-main", 1, 0, "KES"), &stubGateway{})
	svc, logger := newTestService(repo, reg)

	resp := svc.ProcessPayment(t.Context(), PaymentRequest{
		CustomerID:  uuid.NewString(),
		Amount:      200,
		Currency:    "KES",
		Method:      "mpesa",
		PhoneNumber: "254700000002",
	})

	require.False(t, resp.Success)
	assert.Contains(t, resp.Error, "db down")
	assert.Empty(t, repo.payments, "rolled back insert leaves nothing behind")
	assert.NotEmpty(t, logger.entries, "failures are audited too")
}

func TestProcessPayment_ValidatesInput(t *testing.T) {
	repo := newFakeRepo()
	reg := NewRegistry(nil, repo)
	svc, _ := newTestService(repo, reg)

	resp := svc.ProcessPayment(t.Context(), PaymentRequest{CustomerID: uuid.NewString(), Amount: 0, Method: "mpesa"})
	assert.False(t, resp.Success)

	resp = svc.ProcessPayment(t.Context(), PaymentRequest{CustomerID: "not-a-uuid", Amount: 10, Method: "mpesa"})
	assert.False(t, resp.Success)
	assert.Empty(t, repo.payments)
}

func TestRefundPayment_Gating(t *testing.T) {
	t.Run("nonexistent payment fails and creates no refund rows", func(t *testing.T) {
		repo := newFakeRepo()
		reg := NewRegistry(nil, repo)
		svc, _ := newTestService(repo, reg)

		resp := svc.RefundPayment(t.Context(), uuid.NewString(), RefundRequest{})

		require.False(t, resp.Success)
		assert.Empty(t, repo.refunds)
	})

	t.Run("manual-processing adapter fails and creates no refund rows", func(t *testing.T) {
		repo := newFakeRepo()
		gw := &stubGateway{refundResp: &PaymentResponse{
			Success: false,
			Error:   "M-Pesa refunds require manual processing",
		}}
		reg := NewRegistry(nil, repo)
		reg.Register(mobileMoneyConfig("mpesa-main", 1, 0, "KES"), gw)
		svc, _ := newTestService(repo, reg)

		procResp := svc.ProcessPayment(t.Context(), PaymentRequest{
			CustomerID: uuid.NewString(), Amount: 300, Currency: "KES",
			Method: "mpesa", PhoneNumber: "254700000003",
		})
		require.True(t, procResp.Success)

		resp := svc.RefundPayment(t.Context(), procResp.PaymentID, RefundRequest{Reason: "duplicate"})

		require.False(t, resp.Success)
		assert.Contains(t, resp.Error, "manual processing")
		assert.Empty(t, repo.refunds)
	})

	t.Run("successful adapter refund creates exactly one refund row", func(t *testing.T) {
		repo := newFakeRepo()
		reg := NewRegistry(nil, repo)
		reg.Register(cardConfig("stripe-main", 2.9, 30, "KES"), &stubGateway{})
		svc, _ := newTestService(repo, reg)

		procResp := svc.ProcessPayment(t.Context(), PaymentRequest{
			CustomerID: uuid.NewString(), Amount: 300, Currency: "KES", Method: "card",
		})
		require.True(t, procResp.Success)

		resp := svc.RefundPayment(t.Context(), procResp.PaymentID, RefundRequest{Amount: 100, Reason: "partial"})

		require.True(t, resp.Success)
		require.Len(t, repo.refunds, 1)
		assert.Equal(t, 100.0, repo.refunds[0].Amount)
		assert.Equal(t, "partial", repo.refunds[0].Reason)

		// Partial refund leaves the payment status alone.
		p, err := repo.GetPayment(t.Context(), procResp.PaymentID)
		require.NoError(t, err)
		assert.Equal(t, StatusProcessing, p.Status)
	})

	t.Run("full refund flips the payment to REFUNDED", func(t *testing.T) {
		repo := newFakeRepo()
		reg := NewRegistry(nil, repo)
		reg.Register(cardConfig("stripe-main", 2.9, 30, "KES"), &stubGateway{})
		svc, _ := newTestService(repo, reg)

		procResp := svc.ProcessPayment(t.Context(), PaymentRequest{
			CustomerID: uuid.NewString(), Amount: 300, Currency: "KES", Method: "card",
		})
		require.True(t, procResp.Success)

		resp := svc.RefundPayment(t.Context(), procResp.PaymentID, RefundRequest{})
		require.True(t, resp.Success)

		p, err := repo.GetPayment(t.Context(), procResp.PaymentID)
		require.NoError(t, err)
		assert.Equal(t, StatusRefunded, p.Status)
	})
}

func TestReconcilePayments_Errors(t *testing.T) {
	repo := newFakeRepo()
	reg := NewRegistry(nil, repo)
	reg.Register(cardConfig("no-recon", 1, 0, "KES"), &stubGateway{}) // stub has no Reconcile
	svc, _ := newTestService(repo, reg)

	_, err := svc.ReconcilePayments(t.Context(), "missing", time.Now().AddDate(0, 0, -7), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")

	_, err = svc.ReconcilePayments(t.Context(), "no-recon", time.Now().AddDate(0, 0, -7), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not support reconciliation")
}

func TestHandleProviderCallback(t *testing.T) {
	repo := newFakeRepo()
	reg := NewRegistry(nil, repo)
	reg.Register(mobileMoneyConfig("mpesa-main", 1, 0, "KES"), &stubGateway{})
	svc, _ := newTestService(repo, reg)

	procResp := svc.ProcessPayment(t.Context(), PaymentRequest{
		CustomerID: uuid.NewString(), Amount: 400, Currency: "KES",
		Method: "mpesa", PhoneNumber: "254700000004",
	})
	require.True(t, procResp.Success)

	err := svc.HandleProviderCallback(t.Context(), "mpesa-main", "evt-1", procResp.TransactionID, true)
	require.NoError(t, err)

	p, err := repo.GetPayment(t.Context(), procResp.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, p.Status)

	// A second callback for a terminal payment is a no-op.
	err = svc.HandleProviderCallback(t.Context(), "mpesa-main", "evt-2", procResp.TransactionID, false)
	require.NoError(t, err)
	p, _ = repo.GetPayment(t.Context(), procResp.PaymentID)
	assert.Equal(t, StatusCompleted, p.Status)

	// Unknown transaction is an error the handler downgrades to an ack.
	err = svc.HandleProviderCallback(t.Context(), "mpesa-main", "evt-3", "unknown-txn", true)
	require.Error(t, err)
}

func TestMpesaGateway_RecordsProviderTransaction(t *testing.T) {
	repo := newFakeRepo()
	gw := NewMpesaGateway(mobileMoneyConfig("mpesa-main", 1, 0, "KES"), repo)

	res, err := gw.ProcessPayment(t.Context(), &GatewayRequest{
		PaymentID:   uuid.NewString(),
		Reference:   "PAY-TEST-1",
		Amount:      150,
		Currency:    "KES",
		PhoneNumber: "254700000005",
	})

	require.NoError(t, err)
	require.True(t, res.Success)
	require.Len(t, repo.mpesaTxns, 1)

	settled, err := gw.VerifyPayment(t.Context(), res.TransactionID)
	require.NoError(t, err)
	assert.False(t, settled, "pending STK push is not settled")

	require.NoError(t, repo.UpdateMpesaTransactionStatus(t.Context(), res.TransactionID, "COMPLETED"))
	settled, err = gw.VerifyPayment(t.Context(), res.TransactionID)
	require.NoError(t, err)
	assert.True(t, settled)

	refund, err := gw.RefundPayment(t.Context(), res.TransactionID, 150)
	require.NoError(t, err)
	assert.False(t, refund.Success, "mpesa refunds are manual")
}
