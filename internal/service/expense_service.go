package service

import (
	"context"
	"fmt"
	"time"

	"backoffice-service/internal/auth"
	"backoffice-service/internal/models"
	"backoffice-service/internal/redisclient"
	"backoffice-service/internal/store"
	"backoffice-service/internal/util"

	"go.uber.org/zap"
)

// ExpenseService handles manual expense business logic. Expenses generated by
// completed stock intakes are owned by the intake lifecycle and only readable
// here.
type ExpenseService struct {
	store  *store.Store
	redis  *redisclient.Client
	logger *zap.Logger
}

// NewExpenseService creates a new expense service
func NewExpenseService(st *store.Store, redis *redisclient.Client) *ExpenseService {
	return &ExpenseService{store: st, redis: redis, logger: util.GetLogger()}
}

// ExpenseRequest represents an expense create or update
type ExpenseRequest struct {
	Date        string  `json:"date" binding:"required"`
	Category    string  `json:"category" binding:"required"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Description *string `json:"description"`
}

// ListExpenses retrieves expenses matching the filter
func (s *ExpenseService) ListExpenses(ctx context.Context, filter store.ExpenseFilter) ([]models.Expense, error) {
	return s.store.ListExpenses(ctx, filter)
}

// CreateExpense records a manual expense
func (s *ExpenseService) CreateExpense(ctx context.Context, actor auth.Actor, req *ExpenseRequest) (*models.Expense, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date", store.ErrValidation)
	}

	expense := &models.Expense{
		Date:            date,
		Category:        req.Category,
		Amount:          req.Amount,
		Description:     req.Description,
		CreatedByUserID: actor.UserID,
	}
	if err := s.store.CreateExpense(ctx, expense); err != nil {
		return nil, err
	}

	s.logger.Info("Expense created",
		zap.Int64("expense_id", expense.ID),
		zap.String("category", expense.Category),
		zap.Float64("amount", expense.Amount))

	s.invalidateSummaries(ctx)
	return expense, nil
}

// UpdateExpense updates a manual expense
func (s *ExpenseService) UpdateExpense(ctx context.Context, id int64, req *ExpenseRequest) (*models.Expense, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date", store.ErrValidation)
	}

	expense := &models.Expense{
		ID:          id,
		Date:        date,
		Category:    req.Category,
		Amount:      req.Amount,
		Description: req.Description,
	}
	if err := s.store.UpdateExpense(ctx, expense); err != nil {
		return nil, err
	}

	s.logger.Info("Expense updated", zap.Int64("expense_id", id))
	s.invalidateSummaries(ctx)
	return expense, nil
}

// DeleteExpense removes a manual expense
func (s *ExpenseService) DeleteExpense(ctx context.Context, id int64) error {
	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Expense deleted", zap.Int64("expense_id", id))
	s.invalidateSummaries(ctx)
	return nil
}

// SummarizeByCategory aggregates expenses per category over a period
func (s *ExpenseService) SummarizeByCategory(ctx context.Context, start, end time.Time) ([]store.ExpenseCategoryRow, error) {
	return s.store.SummarizeExpensesByCategory(ctx, start, end)
}

func (s *ExpenseService) invalidateSummaries(ctx context.Context) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Invalidate(ctx, redisclient.KeyDashboard, redisclient.KeyFinancial); err != nil {
		s.logger.Warn("Failed to invalidate summary cache", zap.Error(err))
	}
}
