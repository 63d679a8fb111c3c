package service

import (
	"context"

	"backoffice-service/internal/models"
	"backoffice-service/internal/store"
	"backoffice-service/internal/util"

	"go.uber.org/zap"
)

// CustomerService handles customer record business logic
type CustomerService struct {
	store  *store.Store
	logger *zap.Logger
}

// NewCustomerService creates a new customer service
func NewCustomerService(st *store.Store) *CustomerService {
	return &CustomerService{store: st, logger: util.GetLogger()}
}

// CustomerRequest represents a customer create or update
type CustomerRequest struct {
	Name    string  `json:"name" binding:"required"`
	Phone   *string `json:"phone"`
	Company *string `json:"company"`
	City    *string `json:"city"`
	Address *string `json:"address"`
}

// ListCustomers retrieves customers, optionally searched
func (s *CustomerService) ListCustomers(ctx context.Context, search string) ([]models.Customer, error) {
	return s.store.ListCustomers(ctx, search)
}

// GetCustomer retrieves a customer with purchase aggregates and sale history
func (s *CustomerService) GetCustomer(ctx context.Context, id int64) (*models.Customer, *store.CustomerSummaryRow, []store.SaleRow, error) {
	customer, err := s.store.GetCustomerByID(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}
	summary, err := s.store.GetCustomerSummary(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}
	sales, err := s.store.ListSales(ctx, store.SaleFilter{CustomerID: &id})
	if err != nil {
		return nil, nil, nil, err
	}
	return customer, summary, sales, nil
}

// CreateCustomer creates a customer record
func (s *CustomerService) CreateCustomer(ctx context.Context, req *CustomerRequest) (*models.Customer, error) {
	customer := &models.Customer{
		Name:    req.Name,
		Phone:   req.Phone,
		Company: req.Company,
		City:    req.City,
		Address: req.Address,
	}
	if err := s.store.CreateCustomer(ctx, customer); err != nil {
		return nil, err
	}
	s.logger.Info("Customer created", zap.Int64("customer_id", customer.ID))
	return customer, nil
}

// UpdateCustomer updates a customer record
func (s *CustomerService) UpdateCustomer(ctx context.Context, id int64, req *CustomerRequest) (*models.Customer, error) {
	customer := &models.Customer{
		ID:      id,
		Name:    req.Name,
		Phone:   req.Phone,
		Company: req.Company,
		City:    req.City,
		Address: req.Address,
	}
	if err := s.store.UpdateCustomer(ctx, customer); err != nil {
		return nil, err
	}
	s.logger.Info("Customer updated", zap.Int64("customer_id", id))
	return customer, nil
}

// DeleteCustomer removes a customer without sale history
func (s *CustomerService) DeleteCustomer(ctx context.Context, id int64) error {
	if err := s.store.DeleteCustomer(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Customer deleted", zap.Int64("customer_id", id))
	return nil
}
