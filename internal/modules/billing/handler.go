package billing

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Handler exposes invoicing HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/invoices", func(r chi.Router) {
		r.Post("/customer/{customer_id}/generate", h.generateInvoice)
		r.Get("/{id}", h.getInvoice)
		r.Get("/number/{number}", h.getInvoiceByNumber)
		r.Get("/customer/{customer_id}", h.listCustomerInvoices)
		r.Post("/{id}/issue", h.issueInvoice)
		r.Post("/{id}/pay", h.markPaid)
		r.Post("/{id}/void", h.voidInvoice)
		r.Post("/sweep-overdue", h.sweepOverdue)
	})
}

func (h *Handler) generateInvoice(w http.ResponseWriter, r *http.Request) {
	var req GenerateInvoiceRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
	}
	inv, err := h.service.GenerateInvoice(r.Context(), chi.URLParam(r, "customer_id"), req)
	if err != nil {
		code := http.StatusInternalServerError
		msg := err.Error()
		if strings.Contains(msg, "invalid") || strings.Contains(msg, "no active services") {
			code = http.StatusBadRequest
		}
		respond(w, code, map[string]string{"error": msg})
		return
	}
	respond(w, http.StatusCreated, inv)
}

func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := h.service.GetInvoice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, inv)
}

func (h *Handler) getInvoiceByNumber(w http.ResponseWriter, r *http.Request) {
	inv, err := h.service.GetInvoiceByNumber(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		respond(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, inv)
}

func (h *Handler) listCustomerInvoices(w http.ResponseWriter, r *http.Request) {
	invs, err := h.service.ListCustomerInvoices(r.Context(), chi.URLParam(r, "customer_id"))
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, invs)
}

func (h *Handler) issueInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := h.service.IssueInvoice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		code := http.StatusInternalServerError
		msg := err.Error()
		if strings.Contains(msg, "only draft") {
			code = http.StatusConflict
		} else if strings.Contains(msg, "not found") {
			code = http.StatusNotFound
		}
		respond(w, code, map[string]string{"error": msg})
		return
	}
	respond(w, http.StatusOK, inv)
}

func (h *Handler) markPaid(w http.ResponseWriter, r *http.Request) {
	var req MarkPaidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	inv, err := h.service.MarkInvoicePaid(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		code := http.StatusInternalServerError
		msg := err.Error()
		if strings.Contains(msg, "already") || strings.Contains(msg, "voided") || strings.Contains(msg, "draft") {
			code = http.StatusConflict
		} else if strings.Contains(msg, "not found") {
			code = http.StatusNotFound
		}
		respond(w, code, map[string]string{"error": msg})
		return
	}
	respond(w, http.StatusOK, inv)
}

func (h *Handler) voidInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := h.service.VoidInvoice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		code := http.StatusInternalServerError
		msg := err.Error()
		if strings.Contains(msg, "paid") || strings.Contains(msg, "already voided") {
			code = http.StatusConflict
		} else if strings.Contains(msg, "not found") {
			code = http.StatusNotFound
		}
		respond(w, code, map[string]string{"error": msg})
		return
	}
	respond(w, http.StatusOK, inv)
}

func (h *Handler) sweepOverdue(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.SweepOverdue(r.Context())
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, map[string]int64{"marked_overdue": n})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
