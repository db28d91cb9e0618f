package payment

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ProviderType identifies the kind of payment rail a gateway talks to.
// The set is closed: the registry only knows how to construct adapters
// for these types, and rows with any other type are skipped on load.
type ProviderType string

const (
	TypeMpesa        ProviderType = "MPESA"
	TypeAirtel       ProviderType = "AIRTEL_MONEY"
	TypeStripe       ProviderType = "STRIPE"
	TypeMidtrans     ProviderType = "MIDTRANS"
	TypeBankTransfer ProviderType = "BANK_TRANSFER"
)

// PaymentMethod is what the caller asks for; the selector maps it to
// provider types that can serve it.
type PaymentMethod string

const (
	MethodMobileMoney  PaymentMethod = "MOBILE_MONEY"
	MethodMpesa        PaymentMethod = "MPESA"
	MethodCard         PaymentMethod = "CARD"
	MethodWallet       PaymentMethod = "WALLET"
	MethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	MethodWireTransfer PaymentMethod = "WIRE_TRANSFER"
)

// PaymentStatus is the internal lifecycle of a payment attempt.
// PENDING is only ever visible inside ProcessPayment's transaction;
// a committed row is PROCESSING, FAILED, COMPLETED or REFUNDED.
type PaymentStatus string

const (
	StatusPending    PaymentStatus = "PENDING"
	StatusProcessing PaymentStatus = "PROCESSING"
	StatusCompleted  PaymentStatus = "COMPLETED"
	StatusFailed     PaymentStatus = "FAILED"
	StatusRefunded   PaymentStatus = "REFUNDED"
)

// GatewayConfig is one row of payment_gateway_configs, loaded into the
// registry while is_active is true.
type GatewayConfig struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	Type        ProviderType      `json:"type"`
	IsActive    bool              `json:"is_active"`
	Credentials map[string]string `json:"-"` // keys/endpoints, never serialised out
	PercentFee  float64           `json:"percent_fee"`
	FixedFee    float64           `json:"fixed_fee"`
	Currencies  []string          `json:"currencies"`
	WebhookURL  string            `json:"webhook_url,omitempty"`
}

// SupportsCurrency reports whether the config lists the currency code.
func (c GatewayConfig) SupportsCurrency(currency string) bool {
	for _, cur := range c.Currencies {
		if cur == currency {
			return true
		}
	}
	return false
}

// Payment is the persistent record of a processing attempt. Fee and net
// amount are fixed at creation time and never recomputed; gateway_used
// never changes even if the gateway is later deactivated.
type Payment struct {
	ID              uuid.UUID       `json:"id"`
	CustomerID      uuid.UUID       `json:"customer_id"`
	Amount          float64         `json:"amount"`
	ProcessingFee   float64         `json:"processing_fee"`
	NetAmount       float64         `json:"net_amount"`
	Method          PaymentMethod   `json:"method"`
	Description     string          `json:"description,omitempty"`
	Status          PaymentStatus   `json:"status"`
	Reference       string          `json:"reference"`
	Currency        string          `json:"currency"`
	GatewayUsed     string          `json:"gateway_used"`
	ExternalTxnID   string          `json:"external_txn_id,omitempty"`
	GatewayResponse json.RawMessage `json:"gateway_response,omitempty"`
	Metadata        json.RawMessage `json:"metadata,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// PaymentRefund is a child record of a Payment, created only when the
// adapter reports a successful refund.
type PaymentRefund struct {
	ID        uuid.UUID `json:"id"`
	PaymentID uuid.UUID `json:"payment_id"`
	Amount    float64   `json:"amount"`
	Reason    string    `json:"reason,omitempty"`
	Status    string    `json:"status"`
	RefundRef string    `json:"refund_ref"`
	CreatedAt time.Time `json:"created_at"`
}

// MpesaTransaction is the provider-side pending transaction log written
// by the mpesa adapter before the STK push resolves.
type MpesaTransaction struct {
	ID                uuid.UUID `json:"id"`
	PaymentID         uuid.UUID `json:"payment_id"`
	CheckoutRequestID string    `json:"checkout_request_id"`
	PhoneNumber       string    `json:"phone_number"`
	Amount            float64   `json:"amount"`
	Status            string    `json:"status"` // PENDING | COMPLETED | FAILED
	CreatedAt         time.Time `json:"created_at"`
}

// ── Request/Response DTOs ─────────────────────────────────────────────────────

// PaymentRequest is the caller-supplied value object. It is never
// persisted as-is; an unknown method/currency simply selects nothing.
type PaymentRequest struct {
	CustomerID  string                 `json:"customer_id"`
	Amount      float64                `json:"amount"`
	Currency    string                 `json:"currency,omitempty"` // defaults to KES
	Method      string                 `json:"method"`
	Description string                 `json:"description,omitempty"`
	Reference   string                 `json:"reference,omitempty"` // generated when absent
	PhoneNumber string                 `json:"phone_number,omitempty"`
	CallbackURL string                 `json:"callback_url,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// PaymentResponse is the uniform result for process and refund calls.
// Business failures are carried in Error with Success=false; callers
// must check Success rather than rely on an error return.
type PaymentResponse struct {
	Success       bool   `json:"success"`
	PaymentID     string `json:"payment_id,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
	CheckoutURL   string `json:"checkout_url,omitempty"`
	GatewayUsed   string `json:"gateway_used,omitempty"`
	Message       string `json:"message,omitempty"`
	Error         string `json:"error,omitempty"`
}

// RefundRequest is the payload for POST /{id}/refund. A zero amount
// means "full original amount".
type RefundRequest struct {
	Amount float64 `json:"amount,omitempty"`
	Reason string  `json:"reason,omitempty"`
}

// ReconciliationReport is the provider-agnostic shape adapters fill in
// when they support reconciliation over a date range.
type ReconciliationReport struct {
	Gateway        string    `json:"gateway"`
	PeriodStart    time.Time `json:"period_start"`
	PeriodEnd      time.Time `json:"period_end"`
	LocalCount     int       `json:"local_count"`
	ProviderCount  int       `json:"provider_count"`
	Matched        int       `json:"matched"`
	MissingLocally []string  `json:"missing_locally,omitempty"` // provider refs with no local payment
	Unsettled      []string  `json:"unsettled,omitempty"`       // local references the provider has not settled
	StatusMismatch []string  `json:"status_mismatch,omitempty"` // local references whose status disagrees
}
