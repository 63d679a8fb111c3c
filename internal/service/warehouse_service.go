package service

import (
	"context"
	"errors"
	"time"

	"backoffice-service/internal/auth"
	"backoffice-service/internal/broker"
	"backoffice-service/internal/models"
	"backoffice-service/internal/redisclient"
	"backoffice-service/internal/store"
	"backoffice-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WarehouseService handles warehouse and transfer business logic
type WarehouseService struct {
	store          *store.Store
	redis          *redisclient.Client
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewWarehouseService creates a new warehouse service
func NewWarehouseService(st *store.Store, redis *redisclient.Client, eventPublisher *broker.EventPublisher) *WarehouseService {
	return &WarehouseService{
		store:          st,
		redis:          redis,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// TransferRequest represents a request to move stock between warehouses
type TransferRequest struct {
	ProductID       int64   `json:"product_id" binding:"required"`
	FromWarehouseID int64   `json:"from_warehouse_id" binding:"required"`
	ToWarehouseID   int64   `json:"to_warehouse_id" binding:"required"`
	Quantity        int     `json:"quantity" binding:"required,min=1"`
	Notes           *string `json:"notes"`
}

// Transfer moves stock between two warehouses and publishes the event
func (s *WarehouseService) Transfer(ctx context.Context, actor auth.Actor, req *TransferRequest) (*models.StockTransfer, error) {
	ctx, span := util.StartSpan(ctx, "WarehouseService.Transfer")
	defer span.End()

	transfer := &models.StockTransfer{
		ProductID:       req.ProductID,
		FromWarehouseID: req.FromWarehouseID,
		ToWarehouseID:   req.ToWarehouseID,
		Quantity:        req.Quantity,
		Notes:           req.Notes,
		CreatedByUserID: actor.UserID,
	}

	start := time.Now()
	if err := s.store.TransferStockTx(ctx, transfer); err != nil {
		if errors.Is(err, store.ErrValidation) {
			util.TransfersFailedTotal.WithLabelValues("validation").Inc()
		}
		return nil, err
	}
	util.StockMutationLatency.WithLabelValues("transfer").Observe(time.Since(start).Seconds())

	util.TransfersTotal.Inc()
	s.logger.Info("Stock transferred",
		zap.Int64("transfer_id", transfer.ID),
		zap.Int64("product_id", transfer.ProductID),
		zap.Int64("from", transfer.FromWarehouseID),
		zap.Int64("to", transfer.ToWarehouseID),
		zap.Int("quantity", transfer.Quantity))

	fromWH, _ := s.store.GetWarehouseByID(ctx, transfer.FromWarehouseID)
	toWH, _ := s.store.GetWarehouseByID(ctx, transfer.ToWarehouseID)

	event := &models.TransferEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeStockTransferred,
			Timestamp: time.Now(),
			UserID:    actor.UserID,
			UserName:  actor.FullName,
		},
		TransferID: transfer.ID,
		ProductID:  transfer.ProductID,
		Quantity:   transfer.Quantity,
	}
	if fromWH != nil {
		event.FromWarehouse = fromWH.Name
	}
	if toWH != nil {
		event.ToWarehouse = toWH.Name
	}

	if err := s.eventPublisher.PublishTransferEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish transfer event", zap.Error(err))
	}

	return transfer, nil
}

// ListWarehouses retrieves all active warehouses
func (s *WarehouseService) ListWarehouses(ctx context.Context) ([]models.Warehouse, error) {
	return s.store.ListWarehouses(ctx)
}

// GetWarehouseStock retrieves a warehouse with its stock positions
func (s *WarehouseService) GetWarehouseStock(ctx context.Context, warehouseID int64) (*models.Warehouse, []store.WarehouseStockRow, error) {
	warehouse, err := s.store.GetWarehouseByID(ctx, warehouseID)
	if err != nil {
		return nil, nil, err
	}
	rows, err := s.store.ListWarehouseStock(ctx, warehouseID)
	if err != nil {
		return nil, nil, err
	}
	return warehouse, rows, nil
}

// ListTransfers retrieves transfer history matching the filter
func (s *WarehouseService) ListTransfers(ctx context.Context, filter store.TransferFilter) ([]store.TransferRow, error) {
	return s.store.ListTransfers(ctx, filter)
}
