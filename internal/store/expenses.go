package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"backoffice-service/internal/models"
)

// ExpenseFilter narrows expense listings.
type ExpenseFilter struct {
	Category  string
	StartDate *time.Time
	EndDate   *time.Time
}

// ListExpenses retrieves expenses matching the filter, most recent first
func (s *Store) ListExpenses(ctx context.Context, filter ExpenseFilter) ([]models.Expense, error) {
	conds := []string{"1=1"}
	var args []interface{}

	add := func(cond string, v interface{}) {
		args = append(args, v)
		conds = append(conds, strings.Replace(cond, "?", fmt.Sprintf("$%d", len(args)), 1))
	}

	if filter.Category != "" {
		add("category = ?", filter.Category)
	}
	if filter.StartDate != nil {
		add("date >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		add("date <= ?", *filter.EndDate)
	}

	query := "SELECT * FROM expenses WHERE " + strings.Join(conds, " AND ") +
		" ORDER BY date DESC, id DESC"

	expenses := []models.Expense{}
	err := s.db.SelectContext(ctx, &expenses, query, args...)
	return expenses, err
}

// GetExpenseByID retrieves an expense by ID
func (s *Store) GetExpenseByID(ctx context.Context, id int64) (*models.Expense, error) {
	var e models.Expense
	err := s.db.GetContext(ctx, &e, "SELECT * FROM expenses WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: expense %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// CreateExpense inserts a manual expense
func (s *Store) CreateExpense(ctx context.Context, e *models.Expense) error {
	if e.Amount <= 0 {
		return validationf("expense amount must be positive")
	}
	if strings.TrimSpace(e.Category) == "" {
		return validationf("expense category is required")
	}
	return s.db.GetContext(ctx, e, `
		INSERT INTO expenses (date, category, amount, description, created_by_user_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		e.Date, e.Category, e.Amount, e.Description, e.CreatedByUserID)
}

// UpdateExpense persists all mutable expense fields. Intake-linked expenses
// are owned by the intake lifecycle and rejected here.
func (s *Store) UpdateExpense(ctx context.Context, e *models.Expense) error {
	if e.Amount <= 0 {
		return validationf("expense amount must be positive")
	}

	current, err := s.GetExpenseByID(ctx, e.ID)
	if err != nil {
		return err
	}
	if current.StockIntakeID != nil {
		return validationf("expense is managed by stock intake %d", *current.StockIntakeID)
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE expenses SET date = $1, category = $2, amount = $3, description = $4
		WHERE id = $5`,
		e.Date, e.Category, e.Amount, e.Description, e.ID)
	return err
}

// DeleteExpense removes a manual expense. Intake-linked expenses are rejected.
func (s *Store) DeleteExpense(ctx context.Context, id int64) error {
	current, err := s.GetExpenseByID(ctx, id)
	if err != nil {
		return err
	}
	if current.StockIntakeID != nil {
		return validationf("expense is managed by stock intake %d", *current.StockIntakeID)
	}

	_, err = s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = $1", id)
	return err
}

// ExpenseCategoryRow is a per-category expense aggregate.
type ExpenseCategoryRow struct {
	Category string  `db:"category" json:"category"`
	Total    float64 `db:"total" json:"total"`
	Count    int     `db:"count" json:"count"`
}

// SummarizeExpensesByCategory aggregates expenses per category over a period
func (s *Store) SummarizeExpensesByCategory(ctx context.Context, start, end time.Time) ([]ExpenseCategoryRow, error) {
	rows := []ExpenseCategoryRow{}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT category, COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count
		FROM expenses
		WHERE date >= $1 AND date <= $2
		GROUP BY category
		ORDER BY total DESC`, start, end)
	return rows, err
}
