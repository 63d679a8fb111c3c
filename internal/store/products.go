package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"backoffice-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// ProductFilter narrows product listings.
type ProductFilter struct {
	Category    string
	StockStatus string // in_stock, low_stock, out_of_stock
	Search      string
	IsActive    bool
	MinLength   *float64
	MaxLength   *float64
	MinWidth    *float64
	MaxWidth    *float64
}

// GetProductByID retrieves a product by ID
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT * FROM products WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: product %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProductByCode retrieves a product by its unique product code
func (s *Store) GetProductByCode(ctx context.Context, code string) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT * FROM products WHERE product_code = $1", code)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: product %s", ErrNotFound, code)
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProductsByIDs retrieves multiple products by IDs
func (s *Store) GetProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}

	query, args, err := sqlx.In("SELECT * FROM products WHERE id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var products []models.Product
	err = s.db.SelectContext(ctx, &products, query, args...)
	return products, err
}

// ListProducts retrieves products matching the filter
func (s *Store) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	var conds []string
	var args []interface{}

	add := func(cond string, vals ...interface{}) {
		for _, v := range vals {
			args = append(args, v)
			cond = strings.Replace(cond, "?", fmt.Sprintf("$%d", len(args)), 1)
		}
		conds = append(conds, cond)
	}

	add("is_active = ?", filter.IsActive)

	if filter.Category != "" {
		add("category = ?", filter.Category)
	}
	switch filter.StockStatus {
	case "low_stock":
		conds = append(conds, "stock_quantity <= low_stock_threshold")
	case "out_of_stock":
		conds = append(conds, "stock_quantity = 0")
	case "in_stock":
		conds = append(conds, "stock_quantity > 0")
	}
	if filter.Search != "" {
		term := "%" + filter.Search + "%"
		add("(name ILIKE ? OR product_code ILIKE ? OR year ILIKE ?)", term, term, term)
	}
	if filter.MinLength != nil {
		add("length_mm >= ?", *filter.MinLength)
	}
	if filter.MaxLength != nil {
		add("length_mm <= ?", *filter.MaxLength)
	}
	if filter.MinWidth != nil {
		add("width_mm >= ?", *filter.MinWidth)
	}
	if filter.MaxWidth != nil {
		add("width_mm <= ?", *filter.MaxWidth)
	}

	query := "SELECT * FROM products WHERE " + strings.Join(conds, " AND ") + " ORDER BY name"

	products := []models.Product{}
	err := s.db.SelectContext(ctx, &products, query, args...)
	return products, err
}

// ListLowStockProducts retrieves active products at or below their threshold
func (s *Store) ListLowStockProducts(ctx context.Context) ([]models.Product, error) {
	products := []models.Product{}
	err := s.db.SelectContext(ctx, &products,
		"SELECT * FROM products WHERE stock_quantity <= low_stock_threshold AND is_active = TRUE ORDER BY name")
	return products, err
}

// CreateProduct inserts a new product
func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (product_code, name, category, tags, description,
			length_mm, width_mm, thickness_mm, year, stock_quantity,
			low_stock_threshold, purchase_price, selling_price, image_url, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at`

	err := s.db.GetContext(ctx, p, query,
		p.ProductCode, p.Name, p.Category, p.Tags, p.Description,
		p.LengthMM, p.WidthMM, p.ThicknessMM, p.Year, p.StockQuantity,
		p.LowStockThreshold, p.PurchasePrice, p.SellingPrice, p.ImageURL, p.IsActive)
	if err != nil && strings.Contains(err.Error(), "products_product_code_key") {
		return validationf("product code '%s' already exists", p.ProductCode)
	}
	return err
}

// UpdateProduct persists all mutable product fields
func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products SET
			name = $1, category = $2, tags = $3, description = $4,
			length_mm = $5, width_mm = $6, thickness_mm = $7, year = $8,
			stock_quantity = $9, low_stock_threshold = $10,
			purchase_price = $11, selling_price = $12, image_url = $13,
			is_active = $14, updated_at = NOW()
		WHERE id = $15`,
		p.Name, p.Category, p.Tags, p.Description,
		p.LengthMM, p.WidthMM, p.ThicknessMM, p.Year,
		p.StockQuantity, p.LowStockThreshold,
		p.PurchasePrice, p.SellingPrice, p.ImageURL,
		p.IsActive, p.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: product %d", ErrNotFound, p.ID)
	}
	return nil
}

// ProductHasSaleHistory reports whether any sale item references the product
func (s *Store) ProductHasSaleHistory(ctx context.Context, productID int64) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM sale_items WHERE product_id = $1)", productID)
	return exists, err
}

// DeleteProduct removes a product row. Callers must check sale history first;
// products with history are deactivated instead.
func (s *Store) DeleteProduct(ctx context.Context, productID int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", productID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: product %d", ErrNotFound, productID)
	}
	return nil
}

// DeactivateProduct soft-deletes a product
func (s *Store) DeactivateProduct(ctx context.Context, productID int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE products SET is_active = FALSE, updated_at = NOW() WHERE id = $1", productID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: product %d", ErrNotFound, productID)
	}
	return nil
}

// AdjustStockTx applies a manual stock correction to the product total and
// mirrors it on the default intake warehouse row, inside one transaction.
// The adjustment is rejected rather than clamped if it would go negative.
func (s *Store) AdjustStockTx(ctx context.Context, productID int64, adjustment int) (oldQty, newQty int, err error) {
	err = s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &oldQty,
			"SELECT stock_quantity FROM products WHERE id = $1 FOR UPDATE", productID); err != nil {
			if err == sql.ErrNoRows {
				return fmt.Errorf("%w: product %d", ErrNotFound, productID)
			}
			return err
		}

		newQty = oldQty + adjustment
		if newQty < 0 {
			return validationf("stock quantity cannot be negative")
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE products SET stock_quantity = $1, updated_at = NOW() WHERE id = $2",
			newQty, productID); err != nil {
			return err
		}

		warehouseID, err := defaultIntakeWarehouseTx(ctx, tx)
		if err != nil {
			return err
		}
		if warehouseID != 0 {
			return adjustWarehouseStockTx(ctx, tx, productID, warehouseID, adjustment)
		}
		return nil
	})
	return oldQty, newQty, err
}
