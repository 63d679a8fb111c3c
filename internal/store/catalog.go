package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"backoffice-service/internal/models"
)

// VariantRow is a car variant joined with its linked product, when one exists.
type VariantRow struct {
	models.CarVariant
	ProductCode   *string  `db:"product_code" json:"product_code,omitempty"`
	ProductName   *string  `db:"product_name" json:"product_name,omitempty"`
	Description   *string  `db:"description" json:"description,omitempty"`
	StockQuantity *int     `db:"stock_quantity" json:"stock_quantity,omitempty"`
	PurchasePrice *float64 `db:"purchase_price" json:"purchase_price,omitempty"`
	SellingPrice  *float64 `db:"selling_price" json:"selling_price,omitempty"`
	ImageURL      *string  `db:"image_url" json:"image_url,omitempty"`
}

const variantSelect = `
	SELECT v.*, p.product_code, p.name AS product_name, p.description,
	       p.stock_quantity, p.purchase_price, p.selling_price, p.image_url
	FROM car_variants v
	LEFT JOIN products p ON p.id = v.product_id`

// ListVariants retrieves catalog entries ordered by car then variant name,
// optionally filtered by a search term over both.
func (s *Store) ListVariants(ctx context.Context, search string) ([]VariantRow, error) {
	query := variantSelect
	var args []interface{}
	if search != "" {
		query += " WHERE v.car_name ILIKE $1 OR v.name ILIKE $1"
		args = append(args, "%"+search+"%")
	}
	query += " ORDER BY v.car_name, v.name"

	rows := []VariantRow{}
	err := s.db.SelectContext(ctx, &rows, query, args...)
	return rows, err
}

// GetVariantByID retrieves one catalog entry with its linked product
func (s *Store) GetVariantByID(ctx context.Context, id int64) (*VariantRow, error) {
	var row VariantRow
	err := s.db.GetContext(ctx, &row, variantSelect+" WHERE v.id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: car variant %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// CreateVariant inserts a catalog entry. A product link, when given, must
// point at an existing product.
func (s *Store) CreateVariant(ctx context.Context, v *models.CarVariant) error {
	if strings.TrimSpace(v.Name) == "" {
		return validationf("variant name is required")
	}
	if err := s.checkVariantProduct(ctx, v.ProductID); err != nil {
		return err
	}
	return s.db.GetContext(ctx, v, `
		INSERT INTO car_variants (car_name, name, sunroof_type, sunroof_length_in,
			sunroof_width_in, clip_positions, product_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		v.CarName, v.Name, v.SunroofType, v.SunroofLengthIn,
		v.SunroofWidthIn, v.ClipPositions, v.ProductID)
}

// UpdateVariant replaces a catalog entry's fields
func (s *Store) UpdateVariant(ctx context.Context, v *models.CarVariant) error {
	if strings.TrimSpace(v.Name) == "" {
		return validationf("variant name is required")
	}
	if err := s.checkVariantProduct(ctx, v.ProductID); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE car_variants
		SET car_name = $1, name = $2, sunroof_type = $3, sunroof_length_in = $4,
		    sunroof_width_in = $5, clip_positions = $6, product_id = $7
		WHERE id = $8`,
		v.CarName, v.Name, v.SunroofType, v.SunroofLengthIn,
		v.SunroofWidthIn, v.ClipPositions, v.ProductID, v.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: car variant %d", ErrNotFound, v.ID)
	}
	return nil
}

// DeleteVariant removes a catalog entry. The linked product is kept: it may
// carry stock and sale history of its own.
func (s *Store) DeleteVariant(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM car_variants WHERE id = $1", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: car variant %d", ErrNotFound, id)
	}
	return nil
}

func (s *Store) checkVariantProduct(ctx context.Context, productID *int64) error {
	if productID == nil {
		return nil
	}
	var exists bool
	if err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)", *productID); err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: product %d", ErrNotFound, *productID)
	}
	return nil
}
