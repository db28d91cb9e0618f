package inventory

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

// ── Warehouses ────────────────────────────────────────────────────────────────

func (r *postgresRepo) CreateWarehouse(ctx context.Context, w *Warehouse) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO warehouses (id, name, location, is_active)
		VALUES ($1,$2,$3,$4)`,
		w.ID, w.Name, w.Location, w.IsActive)
	return err
}

func (r *postgresRepo) GetWarehouseByID(ctx context.Context, id string) (*Warehouse, error) {
	w := &Warehouse{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(location, ''), is_active, created_at, updated_at
		FROM warehouses WHERE id = $1`, id).
		Scan(&w.ID, &w.Name, &w.Location, &w.IsActive, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (r *postgresRepo) ListWarehouses(ctx context.Context) ([]*Warehouse, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(location, ''), is_active, created_at, updated_at
		FROM warehouses ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var whs []*Warehouse
	for rows.Next() {
		w := &Warehouse{}
		if err := rows.Scan(&w.ID, &w.Name, &w.Location, &w.IsActive, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		whs = append(whs, w)
	}
	if whs == nil {
		whs = []*Warehouse{}
	}
	return whs, rows.Err()
}

// ── Stock items ───────────────────────────────────────────────────────────────

func (r *postgresRepo) CreateItem(ctx context.Context, item *StockItem) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO stock_items (id, warehouse_id, name, sku, category, quantity, unit_cost)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		item.ID, item.WarehouseID, item.Name, item.SKU, item.Category, item.Quantity, item.UnitCost)
	return err
}

const selectItemSQL = `
	SELECT id, warehouse_id, name, sku, COALESCE(category, ''), quantity, unit_cost, created_at, updated_at
	FROM stock_items`

func (r *postgresRepo) GetItemByID(ctx context.Context, id string) (*StockItem, error) {
	item := &StockItem{}
	err := r.db.QueryRowContext(ctx, selectItemSQL+" WHERE id = $1", id).
		Scan(&item.ID, &item.WarehouseID, &item.Name, &item.SKU, &item.Category,
			&item.Quantity, &item.UnitCost, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *postgresRepo) ListItemsByWarehouse(ctx context.Context, warehouseID string) ([]*StockItem, error) {
	rows, err := r.db.QueryContext(ctx, selectItemSQL+" WHERE warehouse_id = $1 ORDER BY name", warehouseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*StockItem
	for rows.Next() {
		item := &StockItem{}
		if err := rows.Scan(&item.ID, &item.WarehouseID, &item.Name, &item.SKU, &item.Category,
			&item.Quantity, &item.UnitCost, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if items == nil {
		items = []*StockItem{}
	}
	return items, rows.Err()
}

// ── Movements ─────────────────────────────────────────────────────────────────

func (r *postgresRepo) ApplyMovement(ctx context.Context, m *StockMovement) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	switch m.Type {
	case MovementIn:
		if err := addQuantity(ctx, tx, m.ItemID, m.Quantity); err != nil {
			return err
		}
	case MovementOut:
		if err := removeQuantity(ctx, tx, m.ItemID, m.Quantity); err != nil {
			return err
		}
	case MovementTransfer:
		if err := removeQuantity(ctx, tx, m.ItemID, m.Quantity); err != nil {
			return err
		}
		if err := addQuantity(ctx, tx, *m.DestItemID, m.Quantity); err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO stock_movements (id, type, item_id, dest_item_id, quantity, reference, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		m.ID, m.Type, m.ItemID, m.DestItemID, m.Quantity, m.Reference, m.Notes)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func addQuantity(ctx context.Context, tx *sql.Tx, itemID uuid.UUID, qty int) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE stock_items SET quantity = quantity + $1, updated_at=NOW() WHERE id = $2`, qty, itemID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("stock item %s not found", itemID)
	}
	return nil
}

func removeQuantity(ctx context.Context, tx *sql.Tx, itemID uuid.UUID, qty int) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE stock_items SET quantity = quantity - $1, updated_at=NOW()
		WHERE id = $2 AND quantity >= $1`, qty, itemID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("insufficient stock for item %s", itemID)
	}
	return nil
}

func (r *postgresRepo) ListMovementsByItem(ctx context.Context, itemID string) ([]*StockMovement, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, type, item_id, dest_item_id, quantity, COALESCE(reference, ''), COALESCE(notes, ''), created_at
		FROM stock_movements
		WHERE item_id = $1 OR dest_item_id = $1
		ORDER BY created_at DESC`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var moves []*StockMovement
	for rows.Next() {
		m := &StockMovement{}
		var dest uuid.NullUUID
		if err := rows.Scan(&m.ID, &m.Type, &m.ItemID, &dest, &m.Quantity, &m.Reference, &m.Notes, &m.CreatedAt); err != nil {
			return nil, err
		}
		if dest.Valid {
			m.DestItemID = &dest.UUID
		}
		moves = append(moves, m)
	}
	if moves == nil {
		moves = []*StockMovement{}
	}
	return moves, rows.Err()
}
