package inventory

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	warehouses map[string]*Warehouse
	items      map[string]*StockItem
	movements  []*StockMovement
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		warehouses: map[string]*Warehouse{},
		items:      map[string]*StockItem{},
	}
}

func (f *fakeRepo) CreateWarehouse(_ context.Context, w *Warehouse) error {
	f.warehouses[w.ID.String()] = w
	return nil
}

func (f *fakeRepo) GetWarehouseByID(_ context.Context, id string) (*Warehouse, error) {
	w, ok := f.warehouses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return w, nil
}

func (f *fakeRepo) ListWarehouses(_ context.Context) ([]*Warehouse, error) {
	var out []*Warehouse
	for _, w := range f.warehouses {
		out = append(out, w)
	}
	return out, nil
}

func (f *fakeRepo) CreateItem(_ context.Context, item *StockItem) error {
	f.items[item.ID.String()] = item
	return nil
}

func (f *fakeRepo) GetItemByID(_ context.Context, id string) (*StockItem, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return item, nil
}

func (f *fakeRepo) ListItemsByWarehouse(_ context.Context, warehouseID string) ([]*StockItem, error) {
	var out []*StockItem
	for _, item := range f.items {
		if item.WarehouseID.String() == warehouseID {
			out = append(out, item)
		}
	}
	return out, nil
}

// ApplyMovement mirrors the storage guarantee: either every quantity change
// lands or none does.
func (f *fakeRepo) ApplyMovement(_ context.Context, m *StockMovement) error {
	switch m.Type {
	case MovementIn:
		f.items[m.ItemID.String()].Quantity += m.Quantity
	case MovementOut:
		item := f.items[m.ItemID.String()]
		if item.Quantity < m.Quantity {
			return fmt.Errorf("insufficient stock for item %s", m.ItemID)
		}
		item.Quantity -= m.Quantity
	case MovementTransfer:
		src := f.items[m.ItemID.String()]
		if src.Quantity < m.Quantity {
			return fmt.Errorf("insufficient stock for item %s", m.ItemID)
		}
		src.Quantity -= m.Quantity
		f.items[m.DestItemID.String()].Quantity += m.Quantity
	}
	f.movements = append(f.movements, m)
	return nil
}

func (f *fakeRepo) ListMovementsByItem(_ context.Context, itemID string) ([]*StockMovement, error) {
	var out []*StockMovement
	for _, m := range f.movements {
		if m.ItemID.String() == itemID || (m.DestItemID != nil && m.DestItemID.String() == itemID) {
			out = append(out, m)
		}
	}
	return out, nil
}

func setup(t *testing.T) (Service, *fakeRepo, *StockItem, *StockItem) {
	t.Helper()
	repo := newFakeRepo()
	svc := NewService(repo)

	wh, err := svc.CreateWarehouse(t.Context(), "Nairobi Depot", "Industrial Area")
	require.NoError(t, err)
	branch, err := svc.CreateWarehouse(t.Context(), "Nakuru Branch", "")
	require.NoError(t, err)

	router, err := svc.AddItem(t.Context(), wh.ID.String(), "MikroTik hEX", "rtr-hex", "ROUTER", 5200)
	require.NoError(t, err)
	branchRouter, err := svc.AddItem(t.Context(), branch.ID.String(), "MikroTik hEX", "rtr-hex", "ROUTER", 5200)
	require.NoError(t, err)

	return svc, repo, router, branchRouter
}

func TestRecordMovement(t *testing.T) {
	svc, repo, router, branchRouter := setup(t)

	t.Run("IN raises the quantity", func(t *testing.T) {
		_, err := svc.RecordMovement(t.Context(), &StockMovement{
			Type: MovementIn, ItemID: router.ID, Quantity: 10, Reference: "PO-1001",
		})
		require.NoError(t, err)
		assert.Equal(t, 10, repo.items[router.ID.String()].Quantity)
	})

	t.Run("OUT below stock is rejected", func(t *testing.T) {
		_, err := svc.RecordMovement(t.Context(), &StockMovement{
			Type: MovementOut, ItemID: router.ID, Quantity: 11,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "insufficient stock")
		assert.Equal(t, 10, repo.items[router.ID.String()].Quantity)
	})

	t.Run("TRANSFER moves stock between warehouses", func(t *testing.T) {
		_, err := svc.RecordMovement(t.Context(), &StockMovement{
			Type: MovementTransfer, ItemID: router.ID, DestItemID: &branchRouter.ID, Quantity: 4,
		})
		require.NoError(t, err)
		assert.Equal(t, 6, repo.items[router.ID.String()].Quantity)
		assert.Equal(t, 4, repo.items[branchRouter.ID.String()].Quantity)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := svc.RecordMovement(t.Context(), &StockMovement{Type: MovementIn, ItemID: router.ID, Quantity: 0})
		require.Error(t, err)

		_, err = svc.RecordMovement(t.Context(), &StockMovement{Type: MovementTransfer, ItemID: router.ID, Quantity: 1})
		require.Error(t, err)

		_, err = svc.RecordMovement(t.Context(), &StockMovement{
			Type: MovementTransfer, ItemID: router.ID, DestItemID: &router.ID, Quantity: 1,
		})
		require.Error(t, err)

		_, err = svc.RecordMovement(t.Context(), &StockMovement{Type: "ADJUST", ItemID: router.ID, Quantity: 1})
		require.Error(t, err)

		dest := uuid.New()
		_, err = svc.RecordMovement(t.Context(), &StockMovement{
			Type: MovementIn, ItemID: router.ID, DestItemID: &dest, Quantity: 1,
		})
		require.Error(t, err)
	})
}
