package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"backoffice-service/internal/ledger"
	"backoffice-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// IntakeItemInput is one line of an intake create request.
type IntakeItemInput struct {
	ProductID            int64
	Quantity             int
	PurchasePricePerUnit *float64
}

// CreateIntakeInput carries a validated intake create request into the store.
type CreateIntakeInput struct {
	IntakeDate          time.Time
	SupplierName        string
	Notes               *string
	WarehouseID         *int64
	UpdatePurchasePrice bool
	Items               []IntakeItemInput
	CreatedByUserID     int64
}

/// UpdateIntakeInput is the partial-mutation form of an intake update:
// delete listed items, patch existing ones, append new ones.
type UpdateIntakeInput struct {
	SupplierName        *string
	Notes               *string
	IntakeDate          *time.Time
	DeletedItemIDs      []int64
	ItemPatches         []ledger.ItemPatch
	NewItems            []ledger.NewItem
	UpdatePurchasePrice bool
}

// CreateIntakeTx records a stock intake and applies its quantities to the
// product totals and the intake warehouse's stock rows, derives the status
// and creates the linked expense when the intake arrives fully priced.
// Everything happens in one transaction.
func (s *Store) CreateIntakeTx(ctx context.Context, in CreateIntakeInput) (*models.StockIntake, error) {
	if strings.TrimSpace(in.SupplierName) == "" {
		return nil, validationf("supplier name is required")
	}
	if len(in.Items) == 0 {
		return nil, validationf("at least one item is required")
	}
	for _, it := range in.Items {
		if it.Quantity < 1 {
			return nil, validationf("invalid quantity %d", it.Quantity)
		}
		if it.PurchasePricePerUnit != nil && *it.PurchasePricePerUnit < 0 {
			return nil, validationf("invalid purchase price for product %d", it.ProductID)
		}
	}

	intake := &models.StockIntake{
		IntakeDate:      in.IntakeDate,
		SupplierName:    in.SupplierName,
		Notes:           in.Notes,
		CreatedByUserID: in.CreatedByUserID,
	}

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		warehouseID, err := resolveIntakeWarehouseTx(ctx, tx, in.WarehouseID)
		if err != nil {
			return err
		}
		intake.WarehouseID = warehouseID

		// Locked for existence and to serialize concurrent stock moves.
		if _, err := lockProductsTx(ctx, tx, itemProductIDs(in.Items)); err != nil {
			return err
		}

		lineItems := make([]ledger.LineItem, 0, len(in.Items))
		for _, it := range in.Items {
			lineItems = append(lineItems, ledger.LineItem{
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
				Price:     ledger.NormalizePrice(it.PurchasePricePerUnit),
			})
		}
		intake.Status = ledger.DeriveStatus(lineItems)

		if err := tx.GetContext(ctx, intake, `
			INSERT INTO stock_intakes (intake_date, supplier_name, notes, status, warehouse_id, created_by_user_id)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at`,
			intake.IntakeDate, intake.SupplierName, intake.Notes, intake.Status,
			intake.WarehouseID, intake.CreatedByUserID); err != nil {
			return err
		}

		for _, it := range lineItems {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO stock_intake_items (stock_intake_id, product_id, quantity, purchase_price_per_unit)
				VALUES ($1, $2, $3, $4)`,
				intake.ID, it.ProductID, it.Quantity, it.Price); err != nil {
				return err
			}

			if err := applyProductDeltaTx(ctx, tx, it.ProductID, it.Quantity); err != nil {
				return err
			}
			if err := adjustWarehouseStockTx(ctx, tx, it.ProductID, warehouseID, it.Quantity); err != nil {
				return err
			}

			if in.UpdatePurchasePrice && it.Price != nil {
				if _, err := tx.ExecContext(ctx,
					"UPDATE products SET purchase_price = $1, updated_at = NOW() WHERE id = $2",
					*it.Price, it.ProductID); err != nil {
					return err
				}
			}
		}

		if intake.Status == models.StatusCompleted {
			return createIntakeExpenseTx(ctx, tx, intake, ledger.TotalCost(lineItems))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return intake, nil
}

// UpdateIntakeTx applies a partial mutation to an intake: item deletes,
// quantity/price patches and appended items. Product totals and the intake
// warehouse's rows move by the net delta, the status is re-derived and the
// linked expense follows the pending/completed transition.
func (s *Store) UpdateIntakeTx(ctx context.Context, intakeID int64, in UpdateIntakeInput) (*models.StockIntake, error) {
	var intake models.StockIntake

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &intake,
			"SELECT * FROM stock_intakes WHERE id = $1 FOR UPDATE", intakeID)
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: stock intake %d", ErrNotFound, intakeID)
		}
		if err != nil {
			return err
		}

		if in.SupplierName != nil {
			intake.SupplierName = *in.SupplierName
		}
		if in.Notes != nil {
			intake.Notes = in.Notes
		}
		if in.IntakeDate != nil {
			intake.IntakeDate = *in.IntakeDate
		}

		var items []models.StockIntakeItem
		if err := tx.SelectContext(ctx, &items,
			"SELECT * FROM stock_intake_items WHERE stock_intake_id = $1 ORDER BY id", intakeID); err != nil {
			return err
		}

		existing := make([]ledger.LineItem, 0, len(items))
		for _, it := range items {
			existing = append(existing, ledger.LineItem{
				ID:        it.ID,
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
				Price:     it.PurchasePricePerUnit,
			})
		}

		cs, err := ledger.ApplyItemChanges(existing, in.DeletedItemIDs, in.ItemPatches, in.NewItems)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrValidation, err)
		}

		if len(cs.Added) > 0 {
			ids := make([]int64, 0, len(cs.Added))
			for _, it := range cs.Added {
				ids = append(ids, it.ProductID)
			}
			if _, err := lockProductsTx(ctx, tx, ids); err != nil {
				return err
			}
		}

		for _, it := range cs.Deleted {
			if _, err := tx.ExecContext(ctx,
				"DELETE FROM stock_intake_items WHERE id = $1", it.ID); err != nil {
				return err
			}
		}
		for _, it := range cs.Updated {
			if _, err := tx.ExecContext(ctx, `
				UPDATE stock_intake_items SET quantity = $1, purchase_price_per_unit = $2
				WHERE id = $3`, it.Quantity, it.Price, it.ID); err != nil {
				return err
			}
		}
		for _, it := range cs.Added {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO stock_intake_items (stock_intake_id, product_id, quantity, purchase_price_per_unit)
				VALUES ($1, $2, $3, $4)`, intakeID, it.ProductID, it.Quantity, it.Price); err != nil {
				return err
			}
		}

		// Quantity deltas hit both the product total and the intake
		// warehouse's row, keeping the reversal symmetric.
		for productID, delta := range cs.QuantityDelta {
			if err := applyProductDeltaTx(ctx, tx, productID, delta); err != nil {
				return err
			}
			if err := adjustWarehouseStockTx(ctx, tx, productID, intake.WarehouseID, delta); err != nil {
				return err
			}
		}

		finalItems := cs.Final()
		oldStatus := intake.Status
		intake.Status = ledger.DeriveStatus(finalItems)

		if _, err := tx.ExecContext(ctx, `
			UPDATE stock_intakes SET intake_date = $1, supplier_name = $2, notes = $3, status = $4
			WHERE id = $5`,
			intake.IntakeDate, intake.SupplierName, intake.Notes, intake.Status, intakeID); err != nil {
			return err
		}

		if in.UpdatePurchasePrice || (oldStatus == models.StatusPending && intake.Status == models.StatusCompleted) {
			for _, it := range finalItems {
				if it.Price == nil {
					continue
				}
				if _, err := tx.ExecContext(ctx,
					"UPDATE products SET purchase_price = $1, updated_at = NOW() WHERE id = $2",
					*it.Price, it.ProductID); err != nil {
					return err
				}
			}
		}

		totalCost := ledger.TotalCost(finalItems)
		switch {
		case intake.Status == models.StatusCompleted:
			return upsertIntakeExpenseTx(ctx, tx, &intake, totalCost)
		case oldStatus == models.StatusCompleted && intake.Status == models.StatusPending:
			_, err := tx.ExecContext(ctx, "DELETE FROM expenses WHERE stock_intake_id = $1", intakeID)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &intake, nil
}

// DeleteIntakeTx removes an intake, reversing every item's quantity from the
// product totals (clamped at zero) and the intake warehouse's rows, and
// deleting the linked expense. The cascade removes the items.
func (s *Store) DeleteIntakeTx(ctx context.Context, intakeID int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		var intake models.StockIntake
		err := tx.GetContext(ctx, &intake,
			"SELECT * FROM stock_intakes WHERE id = $1 FOR UPDATE", intakeID)
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: stock intake %d", ErrNotFound, intakeID)
		}
		if err != nil {
			return err
		}

		var items []models.StockIntakeItem
		if err := tx.SelectContext(ctx, &items,
			"SELECT * FROM stock_intake_items WHERE stock_intake_id = $1", intakeID); err != nil {
			return err
		}

		for _, it := range items {
			if err := applyProductDeltaTx(ctx, tx, it.ProductID, -it.Quantity); err != nil {
				return err
			}
			if err := adjustWarehouseStockTx(ctx, tx, it.ProductID, intake.WarehouseID, -it.Quantity); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx,
			"DELETE FROM expenses WHERE stock_intake_id = $1", intakeID); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, "DELETE FROM stock_intakes WHERE id = $1", intakeID)
		return err
	})
}

// IntakeFilter narrows intake listings.
type IntakeFilter struct {
	Supplier  string
	Status    string
	StartDate *time.Time
	EndDate   *time.Time
}

// IntakeRow is an intake joined with its creator and item aggregates.
type IntakeRow struct {
	models.StockIntake
	CreatedBy     string  `db:"created_by" json:"created_by"`
	TotalItems    int     `db:"total_items" json:"total_items"`
	TotalQuantity int     `db:"total_quantity" json:"total_quantity"`
	TotalCost     float64 `db:"total_cost" json:"total_cost"`
}

// ListIntakes retrieves intake records matching the filter, most recent first
func (s *Store) ListIntakes(ctx context.Context, filter IntakeFilter) ([]IntakeRow, error) {
	conds := []string{"1=1"}
	var args []interface{}

	add := func(cond string, v interface{}) {
		args = append(args, v)
		conds = append(conds, strings.Replace(cond, "?", fmt.Sprintf("$%d", len(args)), 1))
	}

	if filter.Supplier != "" {
		add("i.supplier_name ILIKE ?", "%"+filter.Supplier+"%")
	}
	if filter.Status != "" {
		add("i.status = ?", filter.Status)
	}
	if filter.StartDate != nil {
		add("i.intake_date >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		add("i.intake_date <= ?", *filter.EndDate)
	}

	query := `
		SELECT i.*, u.full_name AS created_by,
		       COUNT(it.id) AS total_items,
		       COALESCE(SUM(it.quantity), 0) AS total_quantity,
		       COALESCE(SUM(it.quantity * COALESCE(it.purchase_price_per_unit, 0)), 0) AS total_cost
		FROM stock_intakes i
		JOIN users u ON u.id = i.created_by_user_id
		LEFT JOIN stock_intake_items it ON it.stock_intake_id = i.id
		WHERE ` + strings.Join(conds, " AND ") + `
		GROUP BY i.id, u.full_name
		ORDER BY i.intake_date DESC`

	rows := []IntakeRow{}
	err := s.db.SelectContext(ctx, &rows, query, args...)
	return rows, err
}

// IntakeItemRow is an intake item joined with product identity.
type IntakeItemRow struct {
	models.StockIntakeItem
	ProductName string `db:"product_name" json:"product_name"`
	ProductCode string `db:"product_code" json:"product_code"`
}

// TotalCostValue returns quantity times price, or 0 while unpriced.
func (r *IntakeItemRow) TotalCostValue() float64 {
	if r.PurchasePricePerUnit == nil {
		return 0
	}
	return float64(r.Quantity) * *r.PurchasePricePerUnit
}

// GetIntakeDetail retrieves an intake with its items
func (s *Store) GetIntakeDetail(ctx context.Context, intakeID int64) (*IntakeRow, []IntakeItemRow, error) {
	var row IntakeRow
	err := s.db.GetContext(ctx, &row, `
		SELECT i.*, u.full_name AS created_by,
		       COUNT(it.id) AS total_items,
		       COALESCE(SUM(it.quantity), 0) AS total_quantity,
		       COALESCE(SUM(it.quantity * COALESCE(it.purchase_price_per_unit, 0)), 0) AS total_cost
		FROM stock_intakes i
		JOIN users u ON u.id = i.created_by_user_id
		LEFT JOIN stock_intake_items it ON it.stock_intake_id = i.id
		WHERE i.id = $1
		GROUP BY i.id, u.full_name`, intakeID)
	if err == sql.ErrNoRows {
		return nil, nil, fmt.Errorf("%w: stock intake %d", ErrNotFound, intakeID)
	}
	if err != nil {
		return nil, nil, err
	}

	items := []IntakeItemRow{}
	err = s.db.SelectContext(ctx, &items, `
		SELECT it.*, p.name AS product_name, p.product_code
		FROM stock_intake_items it
		JOIN products p ON p.id = it.product_id
		WHERE it.stock_intake_id = $1
		ORDER BY it.id`, intakeID)
	if err != nil {
		return nil, nil, err
	}
	return &row, items, nil
}

// resolveIntakeWarehouseTx returns the requested warehouse after checking it
// exists, or falls back to the default intake warehouse.
func resolveIntakeWarehouseTx(ctx context.Context, tx *sqlx.Tx, warehouseID *int64) (int64, error) {
	if warehouseID != nil {
		var exists bool
		if err := tx.GetContext(ctx, &exists,
			"SELECT EXISTS(SELECT 1 FROM warehouses WHERE id = $1)", *warehouseID); err != nil {
			return 0, err
		}
		if !exists {
			return 0, validationf("invalid warehouse")
		}
		return *warehouseID, nil
	}

	id, err := defaultIntakeWarehouseTx(ctx, tx)
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, validationf("no warehouse configured")
	}
	return id, nil
}

// lockProductsTx locks the referenced product rows for the duration of the
// transaction and fails if any ID is unknown.
func lockProductsTx(ctx context.Context, tx *sqlx.Tx, ids []int64) (map[int64]models.Product, error) {
	if len(ids) == 0 {
		return map[int64]models.Product{}, nil
	}

	query, args, err := sqlx.In("SELECT * FROM products WHERE id IN (?) FOR UPDATE", ids)
	if err != nil {
		return nil, err
	}
	query = tx.Rebind(query)

	var products []models.Product
	if err := tx.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, err
	}

	byID := make(map[int64]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, fmt.Errorf("%w: product %d", ErrNotFound, id)
		}
	}
	return byID, nil
}

// applyProductDeltaTx moves Product.stock_quantity by delta, clamping
// reversals at zero per the lenient policy.
func applyProductDeltaTx(ctx context.Context, tx *sqlx.Tx, productID int64, delta int) error {
	if delta == 0 {
		return nil
	}
	res, err := tx.ExecContext(ctx, `
		UPDATE products
		SET stock_quantity = GREATEST(stock_quantity + $1, 0), updated_at = NOW()
		WHERE id = $2`, delta, productID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: product %d", ErrNotFound, productID)
	}
	return nil
}

func createIntakeExpenseTx(ctx context.Context, tx *sqlx.Tx, intake *models.StockIntake, amount float64) error {
	desc := fmt.Sprintf("Stock purchase from %s", intake.SupplierName)
	_, err := tx.ExecContext(ctx, `
		INSERT INTO expenses (date, category, amount, description, stock_intake_id, created_by_user_id)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		intake.IntakeDate, models.ExpenseCategoryStockPurchase, amount, desc,
		intake.ID, intake.CreatedByUserID)
	return err
}

// upsertIntakeExpenseTx keeps exactly one expense per completed intake,
// creating it on the pending->completed transition and refreshing it when a
// completed intake is edited.
func upsertIntakeExpenseTx(ctx context.Context, tx *sqlx.Tx, intake *models.StockIntake, amount float64) error {
	var expenseID int64
	err := tx.GetContext(ctx, &expenseID,
		"SELECT id FROM expenses WHERE stock_intake_id = $1", intake.ID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return createIntakeExpenseTx(ctx, tx, intake, amount)
	}

	desc := fmt.Sprintf("Stock purchase from %s", intake.SupplierName)
	_, err = tx.ExecContext(ctx,
		"UPDATE expenses SET date = $1, amount = $2, description = $3 WHERE id = $4",
		intake.IntakeDate, amount, desc, expenseID)
	return err
}

func itemProductIDs(items []IntakeItemInput) []int64 {
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	return ids
}
