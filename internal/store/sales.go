package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"backoffice-service/internal/ledger"
	"backoffice-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// SaleItemInput is one line of a sale create request.
type SaleItemInput struct {
	ProductID int64
	Quantity  int
	UnitPrice *float64
}

// CreateSaleInput carries a validated sale create request into the store.
type CreateSaleInput struct {
	CustomerID      *int64
	CustomerName    string
	CustomerPhone   *string
	CustomerCompany *string
	SaleDate        time.Time
	DiscountAmount  float64
	AmountPaid      float64
	PaymentMethod   *string
	Notes           *string
	Items           []SaleItemInput
	CreatedByUserID int64
}

// UpdateSaleInput is the partial-mutation form of a sale update.
type UpdateSaleInput struct {
	CustomerName    *string
	CustomerPhone   *string
	CustomerCompany *string
	SaleDate        *time.Time
	DiscountAmount  *float64
	PaymentMethod   *string
	Notes           *string
	DeletedItemIDs  []int64
	ItemPatches     []ledger.ItemPatch
	NewItems        []ledger.NewItem
}

// CreateSaleTx creates an invoice: checks stock sufficiency for every item,
// decrements the product totals, assigns the next invoice number for the
// sale year, derives the sale and payment statuses and records an initial
// payment when one is given. Insufficient stock on any line fails the whole
// sale with no quantity moved.
func (s *Store) CreateSaleTx(ctx context.Context, in CreateSaleInput) (*models.Sale, error) {
	if strings.TrimSpace(in.CustomerName) == "" {
		return nil, validationf("customer name is required")
	}
	if len(in.Items) == 0 {
		return nil, validationf("at least one item is required")
	}
	if in.DiscountAmount < 0 {
		return nil, validationf("discount cannot be negative")
	}
	if in.AmountPaid < 0 {
		return nil, validationf("amount paid cannot be negative")
	}
	for _, it := range in.Items {
		if it.Quantity < 1 {
			return nil, validationf("invalid quantity %d", it.Quantity)
		}
		if it.UnitPrice != nil && *it.UnitPrice < 0 {
			return nil, validationf("invalid price for product %d", it.ProductID)
		}
	}

	sale := &models.Sale{
		CustomerID:      in.CustomerID,
		CustomerName:    in.CustomerName,
		CustomerPhone:   in.CustomerPhone,
		CustomerCompany: in.CustomerCompany,
		SaleDate:        in.SaleDate,
		DiscountAmount:  in.DiscountAmount,
		AmountPaid:      in.AmountPaid,
		PaymentMethod:   in.PaymentMethod,
		Notes:           in.Notes,
		CreatedByUserID: in.CreatedByUserID,
	}

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if sale.CustomerID != nil {
			var exists bool
			if err := tx.GetContext(ctx, &exists,
				"SELECT EXISTS(SELECT 1 FROM customers WHERE id = $1)", *sale.CustomerID); err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("%w: customer %d", ErrNotFound, *sale.CustomerID)
			}
		}

		ids := make([]int64, 0, len(in.Items))
		for _, it := range in.Items {
			ids = append(ids, it.ProductID)
		}
		products, err := lockProductsTx(ctx, tx, ids)
		if err != nil {
			return err
		}

		need := make(map[int64]int, len(in.Items))
		for _, it := range in.Items {
			need[it.ProductID] += it.Quantity
		}
		for productID, qty := range need {
			p := products[productID]
			if p.StockQuantity < qty {
				return validationf("insufficient stock for %s. Available: %d, requested: %d",
					p.Name, p.StockQuantity, qty)
			}
		}

		lineItems := make([]ledger.LineItem, 0, len(in.Items))
		for _, it := range in.Items {
			lineItems = append(lineItems, ledger.LineItem{
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
				Price:     ledger.NormalizePrice(it.UnitPrice),
			})
		}

		sale.Status = ledger.DeriveStatus(lineItems)
		sale.TotalAmount = ledger.SaleTotal(lineItems, sale.DiscountAmount)
		if sale.TotalAmount < 0 {
			return validationf("discount exceeds sale total")
		}
		if !ledger.WithinPaymentBound(0, sale.AmountPaid, sale.TotalAmount) {
			return validationf("amount paid exceeds sale total")
		}
		sale.PaymentStatus = ledger.DerivePaymentStatus(sale.AmountPaid, sale.TotalAmount)

		seq, err := nextInvoiceSeqTx(ctx, tx, sale.SaleDate.Year())
		if err != nil {
			return err
		}
		sale.InvoiceNumber = ledger.InvoiceNumber(sale.SaleDate.Year(), seq)

		if err := tx.GetContext(ctx, sale, `
			INSERT INTO sales (invoice_number, customer_id, customer_name, customer_phone,
				customer_company, sale_date, status, payment_status, payment_method,
				total_amount, discount_amount, amount_paid, notes, created_by_user_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			RETURNING id`,
			sale.InvoiceNumber, sale.CustomerID, sale.CustomerName, sale.CustomerPhone,
			sale.CustomerCompany, sale.SaleDate, sale.Status, sale.PaymentStatus,
			sale.PaymentMethod, sale.TotalAmount, sale.DiscountAmount, sale.AmountPaid,
			sale.Notes, sale.CreatedByUserID); err != nil {
			return err
		}

		for _, it := range lineItems {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO sale_items (sale_id, product_id, quantity, unit_price)
				VALUES ($1, $2, $3, $4)`,
				sale.ID, it.ProductID, it.Quantity, it.Price); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `
				UPDATE products SET stock_quantity = stock_quantity - $1, updated_at = NOW()
				WHERE id = $2`, it.Quantity, it.ProductID); err != nil {
				return err
			}
		}

		if sale.AmountPaid > 0 {
			method := "cash"
			if sale.PaymentMethod != nil {
				method = *sale.PaymentMethod
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO payments (sale_id, amount, payment_date, payment_method, created_by_user_id)
				VALUES ($1, $2, $3, $4, $5)`,
				sale.ID, sale.AmountPaid, sale.SaleDate, method, sale.CreatedByUserID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

// UpdateSaleTx applies a partial mutation to a sale. Quantity increases
// re-check stock sufficiency for the delta and decrement the product totals;
// decreases and deletions restore them. The total, sale status and payment
// status are re-derived from the surviving items.
func (s *Store) UpdateSaleTx(ctx context.Context, saleID int64, in UpdateSaleInput) (*models.Sale, error) {
	var sale models.Sale

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &sale,
			"SELECT * FROM sales WHERE id = $1 FOR UPDATE", saleID)
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: sale %d", ErrNotFound, saleID)
		}
		if err != nil {
			return err
		}

		if in.CustomerName != nil {
			if strings.TrimSpace(*in.CustomerName) == "" {
				return validationf("customer name is required")
			}
			sale.CustomerName = *in.CustomerName
		}
		if in.CustomerPhone != nil {
			sale.CustomerPhone = in.CustomerPhone
		}
		if in.CustomerCompany != nil {
			sale.CustomerCompany = in.CustomerCompany
		}
		if in.SaleDate != nil {
			sale.SaleDate = *in.SaleDate
		}
		if in.DiscountAmount != nil {
			if *in.DiscountAmount < 0 {
				return validationf("discount cannot be negative")
			}
			sale.DiscountAmount = *in.DiscountAmount
		}
		if in.PaymentMethod != nil {
			sale.PaymentMethod = in.PaymentMethod
		}
		if in.Notes != nil {
			sale.Notes = in.Notes
		}

		var items []models.SaleItem
		if err := tx.SelectContext(ctx, &items,
			"SELECT * FROM sale_items WHERE sale_id = $1 ORDER BY id", saleID); err != nil {
			return err
		}

		existing := make([]ledger.LineItem, 0, len(items))
		for _, it := range items {
			existing = append(existing, ledger.LineItem{
				ID:        it.ID,
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
				Price:     it.UnitPrice,
			})
		}

		cs, err := ledger.ApplyItemChanges(existing, in.DeletedItemIDs, in.ItemPatches, in.NewItems)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrValidation, err)
		}

		touched := make([]int64, 0, len(cs.QuantityDelta))
		for productID := range cs.QuantityDelta {
			touched = append(touched, productID)
		}
		products, err := lockProductsTx(ctx, tx, touched)
		if err != nil {
			return err
		}

		// A positive delta means more units sold, so stock must cover it.
		for productID, delta := range cs.QuantityDelta {
			if delta <= 0 {
				continue
			}
			p := products[productID]
			if p.StockQuantity < delta {
				return validationf("insufficient stock for %s. Available: %d, requested: %d",
					p.Name, p.StockQuantity, delta)
			}
		}

		for _, it := range cs.Deleted {
			if _, err := tx.ExecContext(ctx,
				"DELETE FROM sale_items WHERE id = $1", it.ID); err != nil {
				return err
			}
		}
		for _, it := range cs.Updated {
			if _, err := tx.ExecContext(ctx,
				"UPDATE sale_items SET quantity = $1, unit_price = $2 WHERE id = $3",
				it.Quantity, it.Price, it.ID); err != nil {
				return err
			}
		}
		for _, it := range cs.Added {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO sale_items (sale_id, product_id, quantity, unit_price)
				VALUES ($1, $2, $3, $4)`, saleID, it.ProductID, it.Quantity, it.Price); err != nil {
				return err
			}
		}

		for productID, delta := range cs.QuantityDelta {
			if err := applyProductDeltaTx(ctx, tx, productID, -delta); err != nil {
				return err
			}
		}

		finalItems := cs.Final()
		sale.Status = ledger.DeriveStatus(finalItems)
		sale.TotalAmount = ledger.SaleTotal(finalItems, sale.DiscountAmount)
		if sale.TotalAmount < 0 {
			return validationf("discount exceeds sale total")
		}
		if sale.AmountPaid > sale.TotalAmount+ledger.PaymentEpsilon {
			return validationf("recorded payments exceed the new sale total")
		}
		sale.PaymentStatus = ledger.DerivePaymentStatus(sale.AmountPaid, sale.TotalAmount)

		_, err = tx.ExecContext(ctx, `
			UPDATE sales SET customer_name = $1, customer_phone = $2, customer_company = $3,
				sale_date = $4, status = $5, payment_status = $6, payment_method = $7,
				total_amount = $8, discount_amount = $9, notes = $10
			WHERE id = $11`,
			sale.CustomerName, sale.CustomerPhone, sale.CustomerCompany,
			sale.SaleDate, sale.Status, sale.PaymentStatus, sale.PaymentMethod,
			sale.TotalAmount, sale.DiscountAmount, sale.Notes, saleID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// DeleteSaleTx removes a sale, restoring every item's quantity to the product
// totals. The cascade removes the items and payments.
func (s *Store) DeleteSaleTx(ctx context.Context, saleID int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		var exists bool
		if err := tx.GetContext(ctx, &exists,
			"SELECT EXISTS(SELECT 1 FROM sales WHERE id = $1)", saleID); err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: sale %d", ErrNotFound, saleID)
		}

		var items []models.SaleItem
		if err := tx.SelectContext(ctx, &items,
			"SELECT * FROM sale_items WHERE sale_id = $1", saleID); err != nil {
			return err
		}
		for _, it := range items {
			if err := applyProductDeltaTx(ctx, tx, it.ProductID, it.Quantity); err != nil {
				return err
			}
		}

		_, err := tx.ExecContext(ctx, "DELETE FROM sales WHERE id = $1", saleID)
		return err
	})
}

// AddPaymentTx records a payment against a sale, bumping the paid amount and
// re-deriving the payment status. Overpayment beyond the float tolerance is
// rejected.
func (s *Store) AddPaymentTx(ctx context.Context, payment *models.Payment) (*models.Sale, error) {
	if payment.Amount <= 0 {
		return nil, validationf("payment amount must be positive")
	}

	var sale models.Sale
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &sale,
			"SELECT * FROM sales WHERE id = $1 FOR UPDATE", payment.SaleID)
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: sale %d", ErrNotFound, payment.SaleID)
		}
		if err != nil {
			return err
		}

		if !ledger.WithinPaymentBound(sale.AmountPaid, payment.Amount, sale.TotalAmount) {
			return validationf("payment exceeds balance due. Balance: %.2f", sale.BalanceDue())
		}

		if payment.PaymentMethod == "" {
			payment.PaymentMethod = "cash"
		}
		if err := tx.GetContext(ctx, payment, `
			INSERT INTO payments (sale_id, amount, payment_date, payment_method, notes, created_by_user_id)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			payment.SaleID, payment.Amount, payment.PaymentDate, payment.PaymentMethod,
			payment.Notes, payment.CreatedByUserID); err != nil {
			return err
		}

		sale.AmountPaid += payment.Amount
		sale.PaymentStatus = ledger.DerivePaymentStatus(sale.AmountPaid, sale.TotalAmount)

		_, err = tx.ExecContext(ctx,
			"UPDATE sales SET amount_paid = $1, payment_status = $2 WHERE id = $3",
			sale.AmountPaid, sale.PaymentStatus, sale.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// UpdatePaymentInput is a direct edit of a sale's payment fields. Each nil
// field is left untouched.
type UpdatePaymentInput struct {
	PaymentStatus *string
	AmountPaid    *float64
	PaymentMethod *string
}

// UpdatePaymentTx directly edits a sale's payment state. An explicit amount
// is bound-checked against the total and re-derives the status, overriding
// any status given in the same request. Marking a sale paid without an
// amount settles the paid amount to the total so the derived status stays
// consistent on later edits.
func (s *Store) UpdatePaymentTx(ctx context.Context, saleID int64, in UpdatePaymentInput) (*models.Sale, error) {
	if in.PaymentStatus != nil {
		switch *in.PaymentStatus {
		case models.PaymentStatusUnpaid, models.PaymentStatusPartial, models.PaymentStatusPaid:
		default:
			return nil, validationf("invalid payment status '%s'", *in.PaymentStatus)
		}
	}
	if in.AmountPaid != nil && *in.AmountPaid < 0 {
		return nil, validationf("amount paid cannot be negative")
	}

	var sale models.Sale
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &sale,
			"SELECT * FROM sales WHERE id = $1 FOR UPDATE", saleID)
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: sale %d", ErrNotFound, saleID)
		}
		if err != nil {
			return err
		}

		if in.PaymentStatus != nil {
			sale.PaymentStatus = *in.PaymentStatus
			if *in.PaymentStatus == models.PaymentStatusPaid && in.AmountPaid == nil {
				sale.AmountPaid = sale.TotalAmount
			}
		}
		if in.AmountPaid != nil {
			if *in.AmountPaid > sale.TotalAmount+ledger.PaymentEpsilon {
				return validationf("amount paid cannot exceed total amount")
			}
			sale.AmountPaid = *in.AmountPaid
			sale.PaymentStatus = ledger.DerivePaymentStatus(sale.AmountPaid, sale.TotalAmount)
		}
		if in.PaymentMethod != nil {
			sale.PaymentMethod = in.PaymentMethod
		}

		_, err = tx.ExecContext(ctx,
			"UPDATE sales SET payment_status = $1, amount_paid = $2, payment_method = $3 WHERE id = $4",
			sale.PaymentStatus, sale.AmountPaid, sale.PaymentMethod, saleID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// SaleFilter narrows sale listings.
type SaleFilter struct {
	Search        string // matches invoice number or customer name
	Status        string
	PaymentStatus string
	CustomerID    *int64
	StartDate     *time.Time
	EndDate       *time.Time
}

// SaleRow is a sale joined with its creator and item aggregates.
type SaleRow struct {
	models.Sale
	CreatedBy     string `db:"created_by" json:"created_by"`
	TotalItems    int    `db:"total_items" json:"total_items"`
	TotalQuantity int    `db:"total_quantity" json:"total_quantity"`
}

// ListSales retrieves sales matching the filter, most recent first
func (s *Store) ListSales(ctx context.Context, filter SaleFilter) ([]SaleRow, error) {
	conds := []string{"1=1"}
	var args []interface{}

	add := func(cond string, vals ...interface{}) {
		for _, v := range vals {
			args = append(args, v)
			cond = strings.Replace(cond, "?", fmt.Sprintf("$%d", len(args)), 1)
		}
		conds = append(conds, cond)
	}

	if filter.Search != "" {
		term := "%" + filter.Search + "%"
		add("(s.invoice_number ILIKE ? OR s.customer_name ILIKE ?)", term, term)
	}
	if filter.Status != "" {
		add("s.status = ?", filter.Status)
	}
	if filter.PaymentStatus != "" {
		add("s.payment_status = ?", filter.PaymentStatus)
	}
	if filter.CustomerID != nil {
		add("s.customer_id = ?", *filter.CustomerID)
	}
	if filter.StartDate != nil {
		add("s.sale_date >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		add("s.sale_date <= ?", *filter.EndDate)
	}

	query := `
		SELECT s.*, u.full_name AS created_by,
		       COUNT(it.id) AS total_items,
		       COALESCE(SUM(it.quantity), 0) AS total_quantity
		FROM sales s
		JOIN users u ON u.id = s.created_by_user_id
		LEFT JOIN sale_items it ON it.sale_id = s.id
		WHERE ` + strings.Join(conds, " AND ") + `
		GROUP BY s.id, u.full_name
		ORDER BY s.sale_date DESC`

	rows := []SaleRow{}
	err := s.db.SelectContext(ctx, &rows, query, args...)
	return rows, err
}

// SaleItemRow is a sale item joined with product identity.
type SaleItemRow struct {
	models.SaleItem
	ProductName string `db:"product_name" json:"product_name"`
	ProductCode string `db:"product_code" json:"product_code"`
}

// GetSaleDetail retrieves a sale with its items and payment history
func (s *Store) GetSaleDetail(ctx context.Context, saleID int64) (*SaleRow, []SaleItemRow, []models.Payment, error) {
	var row SaleRow
	err := s.db.GetContext(ctx, &row, `
		SELECT s.*, u.full_name AS created_by,
		       COUNT(it.id) AS total_items,
		       COALESCE(SUM(it.quantity), 0) AS total_quantity
		FROM sales s
		JOIN users u ON u.id = s.created_by_user_id
		LEFT JOIN sale_items it ON it.sale_id = s.id
		WHERE s.id = $1
		GROUP BY s.id, u.full_name`, saleID)
	if err == sql.ErrNoRows {
		return nil, nil, nil, fmt.Errorf("%w: sale %d", ErrNotFound, saleID)
	}
	if err != nil {
		return nil, nil, nil, err
	}

	items := []SaleItemRow{}
	if err := s.db.SelectContext(ctx, &items, `
		SELECT it.*, p.name AS product_name, p.product_code
		FROM sale_items it
		JOIN products p ON p.id = it.product_id
		WHERE it.sale_id = $1
		ORDER BY it.id`, saleID); err != nil {
		return nil, nil, nil, err
	}

	payments := []models.Payment{}
	if err := s.db.SelectContext(ctx, &payments,
		"SELECT * FROM payments WHERE sale_id = $1 ORDER BY payment_date", saleID); err != nil {
		return nil, nil, nil, err
	}
	return &row, items, payments, nil
}

// ListPayments retrieves a sale's payment history
func (s *Store) ListPayments(ctx context.Context, saleID int64) ([]models.Payment, error) {
	var exists bool
	if err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM sales WHERE id = $1)", saleID); err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: sale %d", ErrNotFound, saleID)
	}

	payments := []models.Payment{}
	err := s.db.SelectContext(ctx, &payments,
		"SELECT * FROM payments WHERE sale_id = $1 ORDER BY payment_date", saleID)
	return payments, err
}

// nextInvoiceSeqTx returns 1 + the highest sequence used in the given year.
// The unique constraint on invoice_number backstops concurrent creates.
func nextInvoiceSeqTx(ctx context.Context, tx *sqlx.Tx, year int) (int, error) {
	var maxSeq int
	err := tx.GetContext(ctx, &maxSeq, `
		SELECT COALESCE(MAX(split_part(invoice_number, '-', 3)::int), 0)
		FROM sales
		WHERE invoice_number LIKE $1`, fmt.Sprintf("INV-%d-%%", year))
	if err != nil {
		return 0, err
	}
	return maxSeq + 1, nil
}
