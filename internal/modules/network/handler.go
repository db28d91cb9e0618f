package network

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Handler exposes device and IP pool HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/network", func(r chi.Router) {
		r.Post("/devices", h.createDevice)
		r.Get("/devices", h.listDevices)
		r.Get("/devices/{id}", h.getDevice)
		r.Patch("/devices/{id}/status", h.updateDeviceStatus)

		r.Post("/subnets", h.importSubnet)
		r.Get("/ips", h.listIPs)
		r.Get("/ips/{id}", h.getIP)
		r.Post("/ips/{id}/assign", h.assignIP)
		r.Post("/ips/{id}/reserve", h.reserveIP)
		r.Post("/ips/{id}/release", h.releaseIP)
	})
}

func (h *Handler) createDevice(w http.ResponseWriter, r *http.Request) {
	var req CreateDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	d, err := h.service.CreateDevice(r.Context(), req)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusCreated, d)
}

func (h *Handler) listDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := h.service.ListDevices(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, devices)
}

func (h *Handler) getDevice(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.GetDevice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, d)
}

func (h *Handler) updateDeviceStatus(w http.ResponseWriter, r *http.Request) {
	type request struct {
		Status string `json:"status"`
	}
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	d, err := h.service.UpdateDeviceStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		code := http.StatusBadRequest
		if strings.Contains(err.Error(), "not found") {
			code = http.StatusNotFound
		}
		respond(w, code, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, d)
}

func (h *Handler) importSubnet(w http.ResponseWriter, r *http.Request) {
	type request struct {
		CIDR string `json:"cidr"`
	}
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	ips, err := h.service.ImportSubnet(r.Context(), req.CIDR)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusCreated, map[string]interface{}{"subnet": req.CIDR, "created": len(ips)})
}

func (h *Handler) listIPs(w http.ResponseWriter, r *http.Request) {
	ips, err := h.service.ListIPs(r.Context(), r.URL.Query().Get("subnet"), r.URL.Query().Get("status"))
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, ips)
}

func (h *Handler) getIP(w http.ResponseWriter, r *http.Request) {
	ip, err := h.service.GetIP(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, ip)
}

func (h *Handler) assignIP(w http.ResponseWriter, r *http.Request) {
	var req AssignIPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	ip, err := h.service.AssignIP(r.Context(), chi.URLParam(r, "id"), req.CustomerServiceID)
	if err != nil {
		code := http.StatusBadRequest
		msg := err.Error()
		if strings.Contains(msg, "not available") {
			code = http.StatusConflict
		} else if strings.Contains(msg, "not found") {
			code = http.StatusNotFound
		}
		respond(w, code, map[string]string{"error": msg})
		return
	}
	respond(w, http.StatusOK, ip)
}

func (h *Handler) reserveIP(w http.ResponseWriter, r *http.Request) {
	ip, err := h.service.ReserveIP(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		code := http.StatusBadRequest
		msg := err.Error()
		if strings.Contains(msg, "not available") {
			code = http.StatusConflict
		} else if strings.Contains(msg, "not found") {
			code = http.StatusNotFound
		}
		respond(w, code, map[string]string{"error": msg})
		return
	}
	respond(w, http.StatusOK, ip)
}

func (h *Handler) releaseIP(w http.ResponseWriter, r *http.Request) {
	ip, err := h.service.ReleaseIP(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, ip)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
