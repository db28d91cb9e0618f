package inventory

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Route("/api/v1/inventory", func(r chi.Router) {
		r.Post("/warehouses", h.createWarehouse)
		r.Get("/warehouses", h.listWarehouses)
		r.Get("/warehouses/{id}", h.getWarehouse)
		r.Get("/warehouses/{id}/items", h.listWarehouseItems)
		r.Post("/items", h.addItem)
		r.Get("/items/{id}", h.getItem)
		r.Get("/items/{id}/movements", h.listItemMovements)
		r.Post("/movements", h.recordMovement)
	})
}

func (h *Handler) createWarehouse(w http.ResponseWriter, r *http.Request) {
	type request struct {
		Name     string `json:"name"`
		Location string `json:"location"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	wh, err := h.service.CreateWarehouse(r.Context(), req.Name, req.Location)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(wh)
}

func (h *Handler) getWarehouse(w http.ResponseWriter, r *http.Request) {
	wh, err := h.service.GetWarehouse(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(wh)
}

func (h *Handler) listWarehouses(w http.ResponseWriter, r *http.Request) {
	whs, err := h.service.ListWarehouses(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(whs)
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	type request struct {
		WarehouseID string  `json:"warehouse_id"`
		Name        string  `json:"name"`
		SKU         string  `json:"sku"`
		Category    string  `json:"category"`
		UnitCost    float64 `json:"unit_cost"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	item, err := h.service.AddItem(r.Context(), req.WarehouseID, req.Name, req.SKU, req.Category, req.UnitCost)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(item)
}

func (h *Handler) getItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.GetItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(item)
}

func (h *Handler) listWarehouseItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListWarehouseItems(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(items)
}

func (h *Handler) recordMovement(w http.ResponseWriter, r *http.Request) {
	type request struct {
		Type       string `json:"type"`
		ItemID     string `json:"item_id"`
		DestItemID string `json:"dest_item_id,omitempty"`
		Quantity   int    `json:"quantity"`
		Reference  string `json:"reference,omitempty"`
		Notes      string `json:"notes,omitempty"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	itemID, err := uuid.Parse(req.ItemID)
	if err != nil {
		http.Error(w, "invalid item_id", http.StatusBadRequest)
		return
	}

	m := &StockMovement{
		Type:      MovementType(strings.ToUpper(req.Type)),
		ItemID:    itemID,
		Quantity:  req.Quantity,
		Reference: req.Reference,
		Notes:     req.Notes,
	}
	if req.DestItemID != "" {
		destID, err := uuid.Parse(req.DestItemID)
		if err != nil {
			http.Error(w, "invalid dest_item_id", http.StatusBadRequest)
			return
		}
		m.DestItemID = &destID
	}

	recorded, err := h.service.RecordMovement(r.Context(), m)
	if err != nil {
		status := http.StatusBadRequest
		if strings.Contains(err.Error(), "insufficient stock") {
			status = http.StatusConflict
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(recorded)
}

func (h *Handler) listItemMovements(w http.ResponseWriter, r *http.Request) {
	moves, err := h.service.ListItemMovements(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(moves)
}
