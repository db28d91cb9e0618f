package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Service defines warehouse stock business logic.
type Service interface {
	CreateWarehouse(ctx context.Context, name, location string) (*Warehouse, error)
	GetWarehouse(ctx context.Context, id string) (*Warehouse, error)
	ListWarehouses(ctx context.Context) ([]*Warehouse, error)

	AddItem(ctx context.Context, warehouseID, name, sku, category string, unitCost float64) (*StockItem, error)
	GetItem(ctx context.Context, id string) (*StockItem, error)
	ListWarehouseItems(ctx context.Context, warehouseID string) ([]*StockItem, error)

	RecordMovement(ctx context.Context, m *StockMovement) (*StockMovement, error)
	ListItemMovements(ctx context.Context, itemID string) ([]*StockMovement, error)
}

type service struct{ repo Repository }

func NewService(repo Repository) Service { return &service{repo: repo} }

func (s *service) CreateWarehouse(ctx context.Context, name, location string) (*Warehouse, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("name is required")
	}
	w := &Warehouse{ID: uuid.New(), Name: name, Location: location, IsActive: true}
	if err := s.repo.CreateWarehouse(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *service) GetWarehouse(ctx context.Context, id string) (*Warehouse, error) {
	return s.repo.GetWarehouseByID(ctx, id)
}

func (s *service) ListWarehouses(ctx context.Context) ([]*Warehouse, error) {
	return s.repo.ListWarehouses(ctx)
}

func (s *service) AddItem(ctx context.Context, warehouseID, name, sku, category string, unitCost float64) (*StockItem, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(sku) == "" {
		return nil, fmt.Errorf("name and sku are required")
	}
	parsed, err := uuid.Parse(warehouseID)
	if err != nil {
		return nil, fmt.Errorf("invalid warehouse_id: %w", err)
	}
	if _, err := s.repo.GetWarehouseByID(ctx, warehouseID); err != nil {
		return nil, fmt.Errorf("warehouse not found: %w", err)
	}

	item := &StockItem{
		ID:          uuid.New(),
		WarehouseID: parsed,
		Name:        name,
		SKU:         strings.ToUpper(sku),
		Category:    strings.ToUpper(category),
		UnitCost:    unitCost,
	}
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *service) GetItem(ctx context.Context, id string) (*StockItem, error) {
	return s.repo.GetItemByID(ctx, id)
}

func (s *service) ListWarehouseItems(ctx context.Context, warehouseID string) ([]*StockItem, error) {
	return s.repo.ListItemsByWarehouse(ctx, warehouseID)
}

func (s *service) RecordMovement(ctx context.Context, m *StockMovement) (*StockMovement, error) {
	if m.Quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive")
	}
	switch m.Type {
	case MovementIn, MovementOut:
		if m.DestItemID != nil {
			return nil, fmt.Errorf("dest_item_id is only valid for transfers")
		}
	case MovementTransfer:
		if m.DestItemID == nil {
			return nil, fmt.Errorf("dest_item_id is required for transfers")
		}
		if *m.DestItemID == m.ItemID {
			return nil, fmt.Errorf("cannot transfer an item to itself")
		}
	default:
		return nil, fmt.Errorf("unknown movement type: %s", m.Type)
	}

	m.ID = uuid.New()
	if err := s.repo.ApplyMovement(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *service) ListItemMovements(ctx context.Context, itemID string) ([]*StockMovement, error) {
	return s.repo.ListMovementsByItem(ctx, itemID)
}
