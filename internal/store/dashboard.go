package store

import (
	"context"
	"time"
)

// DashboardSummary is the headline view of the business for a day.
type DashboardSummary struct {
	TodaySalesCount   int     `db:"today_sales_count" json:"today_sales_count"`
	TodayRevenue      float64 `db:"today_revenue" json:"today_revenue"`
	PendingSales      int     `db:"pending_sales" json:"pending_sales"`
	UnpaidBalance     float64 `db:"unpaid_balance" json:"unpaid_balance"`
	LowStockCount     int     `db:"low_stock_count" json:"low_stock_count"`
	PendingIntakes    int     `db:"pending_intakes" json:"pending_intakes"`
	MonthRevenue      float64 `db:"month_revenue" json:"month_revenue"`
	MonthExpenses     float64 `db:"month_expenses" json:"month_expenses"`
	TotalStockOnHand  int     `db:"total_stock_on_hand" json:"total_stock_on_hand"`
	InventoryValue    float64 `db:"inventory_value" json:"inventory_value"`
	ActiveProducts    int     `db:"active_products" json:"active_products"`
	OutOfStockCount   int     `db:"out_of_stock_count" json:"out_of_stock_count"`
}

// GetDashboardSummary aggregates the dashboard counters as of now.
// InventoryValue prices stock at purchase price and is stripped for users
// without financial visibility.
func (s *Store) GetDashboardSummary(ctx context.Context, now time.Time) (*DashboardSummary, error) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	var out DashboardSummary

	err := s.db.GetContext(ctx, &out, `
		SELECT
			(SELECT COUNT(*) FROM sales WHERE sale_date >= $1) AS today_sales_count,
			(SELECT COALESCE(SUM(total_amount), 0) FROM sales WHERE sale_date >= $1) AS today_revenue,
			(SELECT COUNT(*) FROM sales WHERE status = 'pending') AS pending_sales,
			(SELECT COALESCE(SUM(total_amount - amount_paid), 0) FROM sales
				WHERE payment_status IN ('unpaid', 'partial')) AS unpaid_balance,
			(SELECT COUNT(*) FROM products
				WHERE is_active = TRUE AND stock_quantity <= low_stock_threshold) AS low_stock_count,
			(SELECT COUNT(*) FROM stock_intakes WHERE status = 'pending') AS pending_intakes,
			(SELECT COALESCE(SUM(total_amount), 0) FROM sales WHERE sale_date >= $2) AS month_revenue,
			(SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE date >= $2) AS month_expenses,
			(SELECT COALESCE(SUM(stock_quantity), 0) FROM products WHERE is_active = TRUE) AS total_stock_on_hand,
			(SELECT COALESCE(SUM(stock_quantity * COALESCE(purchase_price, 0)), 0)
				FROM products WHERE is_active = TRUE) AS inventory_value,
			(SELECT COUNT(*) FROM products WHERE is_active = TRUE) AS active_products,
			(SELECT COUNT(*) FROM products
				WHERE is_active = TRUE AND stock_quantity = 0) AS out_of_stock_count`,
		dayStart, monthStart)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// MonthlyFinancialRow is one month's revenue, expenses and derived profit.
type MonthlyFinancialRow struct {
	Month    string  `db:"month" json:"month"`
	Revenue  float64 `db:"revenue" json:"revenue"`
	Expenses float64 `db:"expenses" json:"expenses"`
	Profit   float64 `db:"profit" json:"profit"`
}

// GetMonthlyFinancials aggregates revenue against expenses per month over the
// trailing N months
func (s *Store) GetMonthlyFinancials(ctx context.Context, months int) ([]MonthlyFinancialRow, error) {
	if months <= 0 || months > 36 {
		months = 12
	}
	rows := []MonthlyFinancialRow{}
	err := s.db.SelectContext(ctx, &rows, `
		WITH r AS (
			SELECT to_char(date_trunc('month', sale_date), 'YYYY-MM') AS month,
			       SUM(total_amount) AS revenue
			FROM sales
			WHERE sale_date >= date_trunc('month', NOW()) - ($1 - 1) * INTERVAL '1 month'
			GROUP BY 1
		), e AS (
			SELECT to_char(date_trunc('month', date), 'YYYY-MM') AS month,
			       SUM(amount) AS expenses
			FROM expenses
			WHERE date >= date_trunc('month', NOW()) - ($1 - 1) * INTERVAL '1 month'
			GROUP BY 1
		)
		SELECT COALESCE(r.month, e.month) AS month,
		       COALESCE(r.revenue, 0) AS revenue,
		       COALESCE(e.expenses, 0) AS expenses,
		       COALESCE(r.revenue, 0) - COALESCE(e.expenses, 0) AS profit
		FROM r FULL OUTER JOIN e ON r.month = e.month
		ORDER BY month`, months)
	return rows, err
}

// TopProductRow is a product's sold-quantity ranking entry.
type TopProductRow struct {
	ProductID   int64   `db:"product_id" json:"product_id"`
	ProductName string  `db:"product_name" json:"product_name"`
	ProductCode string  `db:"product_code" json:"product_code"`
	QuantitySold int    `db:"quantity_sold" json:"quantity_sold"`
	Revenue     float64 `db:"revenue" json:"revenue"`
}

// GetTopProducts ranks products by quantity sold over a period
func (s *Store) GetTopProducts(ctx context.Context, start, end time.Time, limit int) ([]TopProductRow, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	rows := []TopProductRow{}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT it.product_id, p.name AS product_name, p.product_code,
		       SUM(it.quantity) AS quantity_sold,
		       COALESCE(SUM(it.quantity * COALESCE(it.unit_price, 0)), 0) AS revenue
		FROM sale_items it
		JOIN sales s ON s.id = it.sale_id
		JOIN products p ON p.id = it.product_id
		WHERE s.sale_date >= $1 AND s.sale_date <= $2
		GROUP BY it.product_id, p.name, p.product_code
		ORDER BY quantity_sold DESC
		LIMIT $3`, start, end, limit)
	return rows, err
}
