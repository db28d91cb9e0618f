package inventory

import "context"

// Repository defines warehouse and stock data storage.
type Repository interface {
	CreateWarehouse(ctx context.Context, w *Warehouse) error
	GetWarehouseByID(ctx context.Context, id string) (*Warehouse, error)
	ListWarehouses(ctx context.Context) ([]*Warehouse, error)

	CreateItem(ctx context.Context, item *StockItem) error
	GetItemByID(ctx context.Context, id string) (*StockItem, error)
	ListItemsByWarehouse(ctx context.Context, warehouseID string) ([]*StockItem, error)

	// ApplyMovement records the movement and adjusts item quantities in a
	// single transaction. OUT and TRANSFER fail when stock is insufficient.
	ApplyMovement(ctx context.Context, m *StockMovement) error
	ListMovementsByItem(ctx context.Context, itemID string) ([]*StockMovement, error)
}
