package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backoffice-service/internal/auth"
	"backoffice-service/internal/broker"
	"backoffice-service/internal/ledger"
	"backoffice-service/internal/models"
	"backoffice-service/internal/redisclient"
	"backoffice-service/internal/store"
	"backoffice-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SaleService handles invoice business logic
type SaleService struct {
	store          *store.Store
	redis          *redisclient.Client
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewSaleService creates a new sale service
func NewSaleService(st *store.Store, redis *redisclient.Client, eventPublisher *broker.EventPublisher) *SaleService {
	return &SaleService{
		store:          st,
		redis:          redis,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// SaleItemRequest is one line of a sale create request
type SaleItemRequest struct {
	ProductID int64    `json:"product_id" binding:"required"`
	Quantity  int      `json:"quantity" binding:"required,min=1"`
	UnitPrice *float64 `json:"unit_price"`
}

// CreateSaleRequest represents a request to create an invoice
type CreateSaleRequest struct {
	CustomerID      *int64            `json:"customer_id"`
	CustomerName    string            `json:"customer_name" binding:"required"`
	CustomerPhone   *string           `json:"customer_phone"`
	CustomerCompany *string           `json:"customer_company"`
	SaleDate        *string           `json:"sale_date"`
	DiscountAmount  float64           `json:"discount_amount"`
	AmountPaid      float64           `json:"amount_paid"`
	PaymentMethod   *string           `json:"payment_method"`
	Notes           *string           `json:"notes"`
	Items           []SaleItemRequest `json:"items" binding:"required,min=1"`
}

// SaleItemPatch mutates one existing sale item
type SaleItemPatch struct {
	ID        int64    `json:"id" binding:"required"`
	Quantity  *int     `json:"quantity"`
	UnitPrice *float64 `json:"unit_price"`
	PriceSet  bool     `json:"-"`
}

// UnmarshalJSON records whether the price key was present so that an explicit
// null clears the price while an absent key leaves it untouched.
func (p *SaleItemPatch) UnmarshalJSON(data []byte) error {
	type alias SaleItemPatch
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	_, a.PriceSet = keys["unit_price"]
	*p = SaleItemPatch(a)
	return nil
}

// UpdateSaleRequest represents a partial update of an invoice
type UpdateSaleRequest struct {
	CustomerName    *string           `json:"customer_name"`
	CustomerPhone   *string           `json:"customer_phone"`
	CustomerCompany *string           `json:"customer_company"`
	SaleDate        *string           `json:"sale_date"`
	DiscountAmount  *float64          `json:"discount_amount"`
	PaymentMethod   *string           `json:"payment_method"`
	Notes           *string           `json:"notes"`
	DeletedItemIDs  []int64           `json:"deleted_item_ids"`
	Items           []SaleItemPatch   `json:"items"`
	NewItems        []SaleItemRequest `json:"new_items"`
}

// AddPaymentRequest represents a payment against an invoice
type AddPaymentRequest struct {
	Amount        float64 `json:"amount" binding:"required,gt=0"`
	PaymentDate   *string `json:"payment_date"`
	PaymentMethod string  `json:"payment_method"`
	Notes         *string `json:"notes"`
}

// UpdatePaymentRequest directly edits a sale's payment fields. Absent fields
// are left untouched; an explicit amount re-derives the status.
type UpdatePaymentRequest struct {
	PaymentStatus *string  `json:"payment_status"`
	AmountPaid    *float64 `json:"amount_paid"`
	PaymentMethod *string  `json:"payment_method"`
}

// CreateSale creates an invoice and publishes the lifecycle event
func (s *SaleService) CreateSale(ctx context.Context, actor auth.Actor, req *CreateSaleRequest) (*models.Sale, error) {
	ctx, span := util.StartSpan(ctx, "SaleService.CreateSale")
	defer span.End()

	saleDate := time.Now()
	if req.SaleDate != nil {
		d, err := parseDate(*req.SaleDate)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid sale_date", store.ErrValidation)
		}
		saleDate = d
	}

	in := store.CreateSaleInput{
		CustomerID:      req.CustomerID,
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerCompany: req.CustomerCompany,
		SaleDate:        saleDate,
		DiscountAmount:  req.DiscountAmount,
		AmountPaid:      req.AmountPaid,
		PaymentMethod:   req.PaymentMethod,
		Notes:           req.Notes,
		CreatedByUserID: actor.UserID,
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, store.SaleItemInput{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}

	start := time.Now()
	sale, err := s.store.CreateSaleTx(ctx, in)
	if err != nil {
		if errors.Is(err, store.ErrValidation) {
			util.SalesRejectedTotal.WithLabelValues("validation").Inc()
		}
		return nil, err
	}
	util.StockMutationLatency.WithLabelValues("sale_create").Observe(time.Since(start).Seconds())

	util.SalesCreatedTotal.Inc()
	s.logger.Info("Sale created",
		zap.Int64("sale_id", sale.ID),
		zap.String("invoice", sale.InvoiceNumber),
		zap.String("status", sale.Status),
		zap.Float64("total", sale.TotalAmount))

	s.invalidateSummaries(ctx)
	s.publishSaleEvent(ctx, actor, models.EventTypeSaleCreated, sale, req.Items)

	return sale, nil
}

// UpdateSale applies a partial mutation and publishes the lifecycle event
func (s *SaleService) UpdateSale(ctx context.Context, actor auth.Actor, saleID int64, req *UpdateSaleRequest) (*models.Sale, error) {
	ctx, span := util.StartSpan(ctx, "SaleService.UpdateSale")
	defer span.End()

	in := store.UpdateSaleInput{
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerCompany: req.CustomerCompany,
		DiscountAmount:  req.DiscountAmount,
		PaymentMethod:   req.PaymentMethod,
		Notes:           req.Notes,
		DeletedItemIDs:  req.DeletedItemIDs,
	}
	if req.SaleDate != nil {
		d, err := parseDate(*req.SaleDate)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid sale_date", store.ErrValidation)
		}
		in.SaleDate = &d
	}
	for _, p := range req.Items {
		in.ItemPatches = append(in.ItemPatches, ledger.ItemPatch{
			ID:       p.ID,
			Quantity: p.Quantity,
			Price:    p.UnitPrice,
			PriceSet: p.PriceSet,
		})
	}
	for _, n := range req.NewItems {
		in.NewItems = append(in.NewItems, ledger.NewItem{
			ProductID: n.ProductID,
			Quantity:  n.Quantity,
			Price:     n.UnitPrice,
		})
	}

	start := time.Now()
	sale, err := s.store.UpdateSaleTx(ctx, saleID, in)
	if err != nil {
		if errors.Is(err, store.ErrValidation) {
			util.SalesRejectedTotal.WithLabelValues("validation").Inc()
		}
		return nil, err
	}
	util.StockMutationLatency.WithLabelValues("sale_update").Observe(time.Since(start).Seconds())

	s.logger.Info("Sale updated",
		zap.Int64("sale_id", sale.ID),
		zap.String("status", sale.Status))

	s.invalidateSummaries(ctx)
	s.publishSaleEvent(ctx, actor, models.EventTypeSaleUpdated, sale, nil)

	return sale, nil
}

// DeleteSale removes an invoice, restoring its stock
func (s *SaleService) DeleteSale(ctx context.Context, actor auth.Actor, saleID int64) error {
	ctx, span := util.StartSpan(ctx, "SaleService.DeleteSale")
	defer span.End()

	detail, _, _, err := s.store.GetSaleDetail(ctx, saleID)
	if err != nil {
		return err
	}

	start := time.Now()
	if err := s.store.DeleteSaleTx(ctx, saleID); err != nil {
		return err
	}
	util.StockMutationLatency.WithLabelValues("sale_delete").Observe(time.Since(start).Seconds())

	s.logger.Info("Sale deleted",
		zap.Int64("sale_id", saleID),
		zap.String("invoice", detail.InvoiceNumber))

	s.invalidateSummaries(ctx)
	s.publishSaleEvent(ctx, actor, models.EventTypeSaleDeleted, &detail.Sale, nil)

	return nil
}

// AddPayment records a payment against an invoice
func (s *SaleService) AddPayment(ctx context.Context, actor auth.Actor, saleID int64, req *AddPaymentRequest) (*models.Sale, error) {
	ctx, span := util.StartSpan(ctx, "SaleService.AddPayment")
	defer span.End()

	paymentDate := time.Now()
	if req.PaymentDate != nil {
		d, err := parseDate(*req.PaymentDate)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid payment_date", store.ErrValidation)
		}
		paymentDate = d
	}

	payment := &models.Payment{
		SaleID:          saleID,
		Amount:          req.Amount,
		PaymentDate:     paymentDate,
		PaymentMethod:   req.PaymentMethod,
		Notes:           req.Notes,
		CreatedByUserID: actor.UserID,
	}

	sale, err := s.store.AddPaymentTx(ctx, payment)
	if err != nil {
		return nil, err
	}

	util.PaymentsRecordedTotal.Inc()
	s.logger.Info("Payment recorded",
		zap.Int64("sale_id", saleID),
		zap.Float64("amount", req.Amount),
		zap.String("payment_status", sale.PaymentStatus))

	s.invalidateSummaries(ctx)

	event := &models.PaymentEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypePaymentAdded,
			Timestamp: time.Now(),
			UserID:    actor.UserID,
			UserName:  actor.FullName,
		},
		SaleID:        sale.ID,
		InvoiceNumber: sale.InvoiceNumber,
		Amount:        req.Amount,
		PaymentStatus: sale.PaymentStatus,
	}
	if err := s.eventPublisher.PublishPaymentEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish payment event", zap.Error(err))
	}

	return sale, nil
}

// UpdatePayment directly edits a sale's payment status, paid amount or method
func (s *SaleService) UpdatePayment(ctx context.Context, saleID int64, req *UpdatePaymentRequest) (*models.Sale, error) {
	sale, err := s.store.UpdatePaymentTx(ctx, saleID, store.UpdatePaymentInput{
		PaymentStatus: req.PaymentStatus,
		AmountPaid:    req.AmountPaid,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payment info updated",
		zap.Int64("sale_id", saleID),
		zap.String("payment_status", sale.PaymentStatus),
		zap.Float64("amount_paid", sale.AmountPaid))

	s.invalidateSummaries(ctx)
	return sale, nil
}

// ListSales retrieves sales matching the filter
func (s *SaleService) ListSales(ctx context.Context, filter store.SaleFilter) ([]store.SaleRow, error) {
	return s.store.ListSales(ctx, filter)
}

// GetSale retrieves a sale with its items and payments
func (s *SaleService) GetSale(ctx context.Context, saleID int64) (*store.SaleRow, []store.SaleItemRow, []models.Payment, error) {
	return s.store.GetSaleDetail(ctx, saleID)
}

// ListPayments retrieves a sale's payment history
func (s *SaleService) ListPayments(ctx context.Context, saleID int64) ([]models.Payment, error) {
	return s.store.ListPayments(ctx, saleID)
}

func (s *SaleService) publishSaleEvent(ctx context.Context, actor auth.Actor, eventType string, sale *models.Sale, items []SaleItemRequest) {
	event := &models.SaleEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: eventType,
			Timestamp: time.Now(),
			UserID:    actor.UserID,
			UserName:  actor.FullName,
		},
		SaleID:        sale.ID,
		InvoiceNumber: sale.InvoiceNumber,
		CustomerName:  sale.CustomerName,
		Status:        sale.Status,
	}
	for _, it := range items {
		event.Movements = append(event.Movements, models.StockMovementData{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
		})
	}

	if err := s.eventPublisher.PublishSaleEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish sale event",
			zap.String("event_type", eventType),
			zap.Error(err))
	}
}

func (s *SaleService) invalidateSummaries(ctx context.Context) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Invalidate(ctx,
		redisclient.KeyDashboard, redisclient.KeyLowStock, redisclient.KeyFinancial); err != nil {
		s.logger.Warn("Failed to invalidate summary cache", zap.Error(err))
	}
}
