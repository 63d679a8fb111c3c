package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"backoffice-service/internal/models"
)

// ListCustomers retrieves customers, optionally filtered by a search term
// matching name, phone or company
func (s *Store) ListCustomers(ctx context.Context, search string) ([]models.Customer, error) {
	customers := []models.Customer{}
	if search == "" {
		err := s.db.SelectContext(ctx, &customers,
			"SELECT * FROM customers ORDER BY name")
		return customers, err
	}

	term := "%" + search + "%"
	err := s.db.SelectContext(ctx, &customers, `
		SELECT * FROM customers
		WHERE name ILIKE $1 OR phone ILIKE $1 OR company ILIKE $1
		ORDER BY name`, term)
	return customers, err
}

// GetCustomerByID retrieves a customer by ID
func (s *Store) GetCustomerByID(ctx context.Context, id int64) (*models.Customer, error) {
	var c models.Customer
	err := s.db.GetContext(ctx, &c, "SELECT * FROM customers WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: customer %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCustomer inserts a new customer
func (s *Store) CreateCustomer(ctx context.Context, c *models.Customer) error {
	if strings.TrimSpace(c.Name) == "" {
		return validationf("customer name is required")
	}
	return s.db.GetContext(ctx, c, `
		INSERT INTO customers (name, phone, company, city, address)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		c.Name, c.Phone, c.Company, c.City, c.Address)
}

// UpdateCustomer persists all mutable customer fields
func (s *Store) UpdateCustomer(ctx context.Context, c *models.Customer) error {
	if strings.TrimSpace(c.Name) == "" {
		return validationf("customer name is required")
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE customers SET name = $1, phone = $2, company = $3, city = $4, address = $5
		WHERE id = $6`,
		c.Name, c.Phone, c.Company, c.City, c.Address, c.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: customer %d", ErrNotFound, c.ID)
	}
	return nil
}

// DeleteCustomer removes a customer. Customers referenced by sales cannot be
// deleted; their sale history must stay attributable.
func (s *Store) DeleteCustomer(ctx context.Context, id int64) error {
	var hasSales bool
	if err := s.db.GetContext(ctx, &hasSales,
		"SELECT EXISTS(SELECT 1 FROM sales WHERE customer_id = $1)", id); err != nil {
		return err
	}
	if hasSales {
		return validationf("customer has sale history and cannot be deleted")
	}

	res, err := s.db.ExecContext(ctx, "DELETE FROM customers WHERE id = $1", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: customer %d", ErrNotFound, id)
	}
	return nil
}

// CustomerSummaryRow is a customer's aggregate purchase history.
type CustomerSummaryRow struct {
	TotalSales   int     `db:"total_sales" json:"total_sales"`
	TotalSpent   float64 `db:"total_spent" json:"total_spent"`
	TotalBalance float64 `db:"total_balance" json:"total_balance"`
}

// GetCustomerSummary retrieves a customer's purchase aggregates
func (s *Store) GetCustomerSummary(ctx context.Context, customerID int64) (*CustomerSummaryRow, error) {
	var row CustomerSummaryRow
	err := s.db.GetContext(ctx, &row, `
		SELECT COUNT(*) AS total_sales,
		       COALESCE(SUM(total_amount), 0) AS total_spent,
		       COALESCE(SUM(total_amount - amount_paid), 0) AS total_balance
		FROM sales WHERE customer_id = $1`, customerID)
	return &row, err
}
