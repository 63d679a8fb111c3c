package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"backoffice-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// ListWarehouses retrieves all active warehouses
func (s *Store) ListWarehouses(ctx context.Context) ([]models.Warehouse, error) {
	warehouses := []models.Warehouse{}
	err := s.db.SelectContext(ctx, &warehouses,
		"SELECT * FROM warehouses WHERE is_active = TRUE ORDER BY name")
	return warehouses, err
}

// GetWarehouseByID retrieves a warehouse by ID
func (s *Store) GetWarehouseByID(ctx context.Context, id int64) (*models.Warehouse, error) {
	var w models.Warehouse
	err := s.db.GetContext(ctx, &w, "SELECT * FROM warehouses WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: warehouse %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// EnsureWarehouse creates a warehouse by code if it does not exist yet.
// Used by the seed step at startup.
func (s *Store) EnsureWarehouse(ctx context.Context, w *models.Warehouse) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO warehouses (code, name, description, is_default_intake, is_shipping_location)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (code) DO NOTHING`,
		w.Code, w.Name, w.Description, w.IsDefaultIntake, w.IsShippingLocation)
	return err
}

// WarehouseStockRow is a product's stock position at one warehouse.
type WarehouseStockRow struct {
	ProductID   int64  `db:"product_id" json:"id"`
	ProductCode string `db:"product_code" json:"product_code"`
	Name        string `db:"name" json:"name"`
	Quantity    int    `db:"quantity" json:"quantity"`
	TotalStock  int    `db:"total_stock" json:"total_stock"`
}

// ListWarehouseStock retrieves all products with stock at a warehouse
func (s *Store) ListWarehouseStock(ctx context.Context, warehouseID int64) ([]WarehouseStockRow, error) {
	rows := []WarehouseStockRow{}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT ps.product_id, p.product_code, p.name, ps.quantity,
		       p.stock_quantity AS total_stock
		FROM product_stocks ps
		JOIN products p ON p.id = ps.product_id
		WHERE ps.warehouse_id = $1 AND ps.quantity > 0
		ORDER BY p.name`, warehouseID)
	return rows, err
}

// ProductWarehouseRow is one warehouse's slice of a product's stock.
type ProductWarehouseRow struct {
	WarehouseID   int64  `db:"warehouse_id" json:"warehouse_id"`
	WarehouseCode string `db:"warehouse_code" json:"warehouse_code"`
	WarehouseName string `db:"warehouse_name" json:"warehouse_name"`
	Quantity      int    `db:"quantity" json:"quantity"`
}

// ListProductStockByWarehouse retrieves a product's stock breakdown across warehouses
func (s *Store) ListProductStockByWarehouse(ctx context.Context, productID int64) ([]ProductWarehouseRow, error) {
	rows := []ProductWarehouseRow{}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT ps.warehouse_id, w.code AS warehouse_code, w.name AS warehouse_name, ps.quantity
		FROM product_stocks ps
		JOIN warehouses w ON w.id = ps.warehouse_id
		WHERE ps.product_id = $1
		ORDER BY w.name`, productID)
	return rows, err
}

// TransferStockTx atomically moves quantity units of a product from one
// warehouse to another and appends the immutable transfer audit record.
// Product.stock_quantity is untouched: internal movement does not change
// the warehouse-independent total.
func (s *Store) TransferStockTx(ctx context.Context, transfer *models.StockTransfer) error {
	if transfer.Quantity < 1 {
		return validationf("quantity must be at least 1")
	}
	if transfer.FromWarehouseID == transfer.ToWarehouseID {
		return validationf("cannot transfer to the same warehouse")
	}

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		var exists bool
		if err := tx.GetContext(ctx, &exists,
			"SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)", transfer.ProductID); err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: product %d", ErrNotFound, transfer.ProductID)
		}

		var fromName string
		if err := tx.GetContext(ctx, &fromName,
			"SELECT name FROM warehouses WHERE id = $1", transfer.FromWarehouseID); err != nil {
			if err == sql.ErrNoRows {
				return fmt.Errorf("%w: warehouse %d", ErrNotFound, transfer.FromWarehouseID)
			}
			return err
		}
		if err := tx.GetContext(ctx, &exists,
			"SELECT EXISTS(SELECT 1 FROM warehouses WHERE id = $1)", transfer.ToWarehouseID); err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: warehouse %d", ErrNotFound, transfer.ToWarehouseID)
		}

		var available int
		err := tx.GetContext(ctx, &available, `
			SELECT quantity FROM product_stocks
			WHERE product_id = $1 AND warehouse_id = $2 FOR UPDATE`,
			transfer.ProductID, transfer.FromWarehouseID)
		if err == sql.ErrNoRows {
			available = 0
		} else if err != nil {
			return err
		}

		if available < transfer.Quantity {
			return validationf("insufficient stock at %s. Available: %d", fromName, available)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE product_stocks SET quantity = quantity - $1, updated_at = NOW()
			WHERE product_id = $2 AND warehouse_id = $3`,
			transfer.Quantity, transfer.ProductID, transfer.FromWarehouseID); err != nil {
			return err
		}

		if err := upsertWarehouseStockTx(ctx, tx, transfer.ProductID, transfer.ToWarehouseID, transfer.Quantity); err != nil {
			return err
		}

		return tx.GetContext(ctx, transfer, `
			INSERT INTO stock_transfers (product_id, from_warehouse_id, to_warehouse_id, quantity, notes, created_by_user_id)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, transfer_date`,
			transfer.ProductID, transfer.FromWarehouseID, transfer.ToWarehouseID,
			transfer.Quantity, transfer.Notes, transfer.CreatedByUserID)
	})
}

// TransferFilter narrows transfer history listings.
type TransferFilter struct {
	ProductID       *int64
	FromWarehouseID *int64
	ToWarehouseID   *int64
	StartDate       *time.Time
	EndDate         *time.Time
}

// TransferRow is a transfer joined with product and warehouse names.
type TransferRow struct {
	models.StockTransfer
	ProductName       string `db:"product_name" json:"product_name"`
	ProductCode       string `db:"product_code" json:"product_code"`
	FromWarehouseName string `db:"from_warehouse_name" json:"from_warehouse_name"`
	ToWarehouseName   string `db:"to_warehouse_name" json:"to_warehouse_name"`
	CreatedBy         string `db:"created_by" json:"created_by"`
}

// ListTransfers retrieves transfer history matching the filter
func (s *Store) ListTransfers(ctx context.Context, filter TransferFilter) ([]TransferRow, error) {
	conds := []string{"1=1"}
	var args []interface{}

	add := func(cond string, v interface{}) {
		args = append(args, v)
		conds = append(conds, strings.Replace(cond, "?", fmt.Sprintf("$%d", len(args)), 1))
	}

	if filter.ProductID != nil {
		add("t.product_id = ?", *filter.ProductID)
	}
	if filter.FromWarehouseID != nil {
		add("t.from_warehouse_id = ?", *filter.FromWarehouseID)
	}
	if filter.ToWarehouseID != nil {
		add("t.to_warehouse_id = ?", *filter.ToWarehouseID)
	}
	if filter.StartDate != nil {
		add("t.transfer_date >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		add("t.transfer_date <= ?", *filter.EndDate)
	}

	query := `
		SELECT t.*, p.name AS product_name, p.product_code,
		       wf.name AS from_warehouse_name, wt.name AS to_warehouse_name,
		       u.full_name AS created_by
		FROM stock_transfers t
		JOIN products p ON p.id = t.product_id
		JOIN warehouses wf ON wf.id = t.from_warehouse_id
		JOIN warehouses wt ON wt.id = t.to_warehouse_id
		JOIN users u ON u.id = t.created_by_user_id
		WHERE ` + strings.Join(conds, " AND ") + `
		ORDER BY t.transfer_date DESC`

	rows := []TransferRow{}
	err := s.db.SelectContext(ctx, &rows, query, args...)
	return rows, err
}

// defaultIntakeWarehouseTx returns the warehouse flagged default-intake, or
// the first warehouse if none is flagged, or 0 when no warehouses exist.
func defaultIntakeWarehouseTx(ctx context.Context, tx *sqlx.Tx) (int64, error) {
	var id int64
	err := tx.GetContext(ctx, &id,
		"SELECT id FROM warehouses WHERE is_default_intake = TRUE ORDER BY id LIMIT 1")
	if err == sql.ErrNoRows {
		err = tx.GetContext(ctx, &id, "SELECT id FROM warehouses ORDER BY id LIMIT 1")
		if err == sql.ErrNoRows {
			return 0, nil
		}
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

// upsertWarehouseStockTx increments the (product, warehouse) stock row,
// creating it lazily on first touch. Rows are never deleted.
func upsertWarehouseStockTx(ctx context.Context, tx *sqlx.Tx, productID, warehouseID int64, quantity int) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO product_stocks (product_id, warehouse_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_id, warehouse_id)
		DO UPDATE SET quantity = product_stocks.quantity + EXCLUDED.quantity, updated_at = NOW()`,
		productID, warehouseID, quantity)
	return err
}

// adjustWarehouseStockTx applies a signed delta to the (product, warehouse)
// row, clamping at zero. Negative deltas on a missing row are dropped: the
// warehouse mirror is best-effort while the product total stays exact.
func adjustWarehouseStockTx(ctx context.Context, tx *sqlx.Tx, productID, warehouseID int64, delta int) error {
	if delta == 0 {
		return nil
	}
	if delta > 0 {
		return upsertWarehouseStockTx(ctx, tx, productID, warehouseID, delta)
	}
	_, err := tx.ExecContext(ctx, `
		UPDATE product_stocks
		SET quantity = GREATEST(quantity + $1, 0), updated_at = NOW()
		WHERE product_id = $2 AND warehouse_id = $3`,
		delta, productID, warehouseID)
	return err
}
