package hr

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Handler exposes HR HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/hr", func(r chi.Router) {
		r.Post("/employees", h.createEmployee)
		r.Get("/employees", h.listEmployees)
		r.Get("/employees/{id}", h.getEmployee)
		r.Put("/employees/{id}", h.updateEmployee)
		r.Post("/employees/{id}/deactivate", h.deactivateEmployee)

		r.Post("/payroll/{period}/run", h.runPayroll)
		r.Get("/payroll/{period}", h.getPayrollRun)
		r.Get("/payroll", h.listPayrollRuns)
	})
}

func (h *Handler) createEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	e, err := h.service.CreateEmployee(r.Context(), req)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusCreated, e)
}

func (h *Handler) getEmployee(w http.ResponseWriter, r *http.Request) {
	e, err := h.service.GetEmployee(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, e)
}

func (h *Handler) listEmployees(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	employees, err := h.service.ListEmployees(r.Context(), activeOnly)
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, employees)
}

func (h *Handler) updateEmployee(w http.ResponseWriter, r *http.Request) {
	var req UpdateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	e, err := h.service.UpdateEmployee(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		code := http.StatusBadRequest
		if strings.Contains(err.Error(), "not found") {
			code = http.StatusNotFound
		}
		respond(w, code, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, e)
}

func (h *Handler) deactivateEmployee(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeactivateEmployee(r.Context(), chi.URLParam(r, "id")); err != nil {
		code := http.StatusInternalServerError
		if strings.Contains(err.Error(), "not found") {
			code = http.StatusNotFound
		}
		respond(w, code, map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) runPayroll(w http.ResponseWriter, r *http.Request) {
	run, err := h.service.RunPayroll(r.Context(), chi.URLParam(r, "period"))
	if err != nil {
		code := http.StatusBadRequest
		msg := err.Error()
		if strings.Contains(msg, "already been run") {
			code = http.StatusConflict
		}
		respond(w, code, map[string]string{"error": msg})
		return
	}
	respond(w, http.StatusCreated, run)
}

func (h *Handler) getPayrollRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.service.GetPayrollRun(r.Context(), chi.URLParam(r, "period"))
	if err != nil {
		respond(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, run)
}

func (h *Handler) listPayrollRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.service.ListPayrollRuns(r.Context())
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, runs)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
