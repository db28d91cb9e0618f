package inventory

import (
	"time"

	"github.com/google/uuid"
)

// Warehouse represents a physical equipment storage location.
type Warehouse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Location  string    `json:"location,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StockItem is a tracked equipment line within a warehouse.
type StockItem struct {
	ID          uuid.UUID `json:"id"`
	WarehouseID uuid.UUID `json:"warehouse_id"`
	Name        string    `json:"name"`
	SKU         string    `json:"sku"`
	Category    string    `json:"category,omitempty"` // ROUTER, ONU, CABLE, ...
	Quantity    int       `json:"quantity"`
	UnitCost    float64   `json:"unit_cost"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MovementType classifies a stock movement.
type MovementType string

const (
	MovementIn       MovementType = "IN"
	MovementOut      MovementType = "OUT"
	MovementTransfer MovementType = "TRANSFER"
)

// StockMovement records a quantity change. For TRANSFER, DestItemID is the
// receiving stock item in the destination warehouse.
type StockMovement struct {
	ID         uuid.UUID    `json:"id"`
	Type       MovementType `json:"type"`
	ItemID     uuid.UUID    `json:"item_id"`
	DestItemID *uuid.UUID   `json:"dest_item_id,omitempty"`
	Quantity   int          `json:"quantity"`
	Reference  string       `json:"reference,omitempty"`
	Notes      string       `json:"notes,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}
