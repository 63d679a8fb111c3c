package service

import (
	"context"
	"encoding/json"
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

// IntakeService handles stock intake business logic
type IntakeService struct {
	store          *store.Store
	redis          *redisclient.Client
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewIntakeService creates a new intake service
func NewIntakeService(st *store.Store, redis *redisclient.Client, eventPublisher *broker.EventPublisher) *IntakeService {
	return &IntakeService{
		store:          st,
		redis:          redis,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// IntakeItemRequest is one line of an intake create request
type IntakeItemRequest struct {
	ProductID            int64    `json:"product_id" binding:"required"`
	Quantity             int      `json:"quantity" binding:"required,min=1"`
	PurchasePricePerUnit *float64 `json:"purchase_price_per_unit"`
}

// CreateIntakeRequest represents a request to record a stock intake
type CreateIntakeRequest struct {
	IntakeDate          string              `json:"intake_date" binding:"required"`
	SupplierName        string              `json:"supplier_name" binding:"required"`
	Notes               *string             `json:"notes"`
	WarehouseID         *int64              `json:"warehouse_id"`
	UpdatePurchasePrice bool                `json:"update_purchase_price"`
	Items               []IntakeItemRequest `json:"items" binding:"required,min=1"`
}

// IntakeItemPatch mutates one existing intake item
type IntakeItemPatch struct {
	ID                   int64    `json:"id" binding:"required"`
	Quantity             *int     `json:"quantity"`
	PurchasePricePerUnit *float64 `json:"purchase_price_per_unit"`
	PriceSet             bool     `json:"-"`
}

// UnmarshalJSON records whether the price key was present so that an explicit
// null clears the price while an absent key leaves it untouched.
func (p *IntakeItemPatch) UnmarshalJSON(data []byte) error {
	type alias IntakeItemPatch
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	_, a.PriceSet = keys["purchase_price_per_unit"]
	*p = IntakeItemPatch(a)
	return nil
}

// UpdateIntakeRequest represents a partial update of a stock intake
type UpdateIntakeRequest struct {
	SupplierName        *string             `json:"supplier_name"`
	Notes               *string             `json:"notes"`
	IntakeDate          *string             `json:"intake_date"`
	DeletedItemIDs      []int64             `json:"deleted_item_ids"`
	Items               []IntakeItemPatch   `json:"items"`
	NewItems            []IntakeItemRequest `json:"new_items"`
	UpdatePurchasePrice bool                `json:"update_purchase_price"`
}

// CreateIntake records a stock intake and publishes the lifecycle event
func (s *IntakeService) CreateIntake(ctx context.Context, actor auth.Actor, req *CreateIntakeRequest) (*models.StockIntake, error) {
	ctx, span := util.StartSpan(ctx, "IntakeService.CreateIntake")
	defer span.End()

	intakeDate, err := parseDate(req.IntakeDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid intake_date", store.ErrValidation)
	}

	in := store.CreateIntakeInput{
		IntakeDate:          intakeDate,
		SupplierName:        req.SupplierName,
		Notes:               req.Notes,
		WarehouseID:         req.WarehouseID,
		UpdatePurchasePrice: req.UpdatePurchasePrice,
		CreatedByUserID:     actor.UserID,
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, store.IntakeItemInput{
			ProductID:            it.ProductID,
			Quantity:             it.Quantity,
			PurchasePricePerUnit: it.PurchasePricePerUnit,
		})
	}

	start := time.Now()
	intake, err := s.store.CreateIntakeTx(ctx, in)
	if err != nil {
		return nil, err
	}
	util.StockMutationLatency.WithLabelValues("intake_create").Observe(time.Since(start).Seconds())

	util.IntakesCreatedTotal.Inc()
	if intake.Status == models.StatusCompleted {
		util.IntakesCompletedTotal.Inc()
	}
	s.logger.Info("Stock intake created",
		zap.Int64("intake_id", intake.ID),
		zap.String("supplier", intake.SupplierName),
		zap.String("status", intake.Status))

	s.invalidateSummaries(ctx)
	s.publishIntakeEvent(ctx, actor, models.EventTypeIntakeCreated, intake, req.Items)

	return intake, nil
}

// UpdateIntake applies a partial mutation and publishes the lifecycle event
func (s *IntakeService) UpdateIntake(ctx context.Context, actor auth.Actor, intakeID int64, req *UpdateIntakeRequest) (*models.StockIntake, error) {
	ctx, span := util.StartSpan(ctx, "IntakeService.UpdateIntake")
	defer span.End()

	in := store.UpdateIntakeInput{
		SupplierName:        req.SupplierName,
		Notes:               req.Notes,
		DeletedItemIDs:      req.DeletedItemIDs,
		UpdatePurchasePrice: req.UpdatePurchasePrice,
	}
	if req.IntakeDate != nil {
		d, err := parseDate(*req.IntakeDate)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid intake_date", store.ErrValidation)
		}
		in.IntakeDate = &d
	}
	for _, p := range req.Items {
		in.ItemPatches = append(in.ItemPatches, ledger.ItemPatch{
			ID:       p.ID,
			Quantity: p.Quantity,
			Price:    p.PurchasePricePerUnit,
			PriceSet: p.PriceSet,
		})
	}
	for _, n := range req.NewItems {
		in.NewItems = append(in.NewItems, ledger.NewItem{
			ProductID: n.ProductID,
			Quantity:  n.Quantity,
			Price:     n.PurchasePricePerUnit,
		})
	}

	start := time.Now()
	intake, err := s.store.UpdateIntakeTx(ctx, intakeID, in)
	if err != nil {
		return nil, err
	}
	util.StockMutationLatency.WithLabelValues("intake_update").Observe(time.Since(start).Seconds())

	s.logger.Info("Stock intake updated",
		zap.Int64("intake_id", intake.ID),
		zap.String("status", intake.Status))

	s.invalidateSummaries(ctx)
	s.publishIntakeEvent(ctx, actor, models.EventTypeIntakeUpdated, intake, nil)

	return intake, nil
}

// DeleteIntake removes an intake, reversing its stock effect
func (s *IntakeService) DeleteIntake(ctx context.Context, actor auth.Actor, intakeID int64) error {
	ctx, span := util.StartSpan(ctx, "IntakeService.DeleteIntake")
	defer span.End()

	detail, _, err := s.store.GetIntakeDetail(ctx, intakeID)
	if err != nil {
		return err
	}

	start := time.Now()
	if err := s.store.DeleteIntakeTx(ctx, intakeID); err != nil {
		return err
	}
	util.StockMutationLatency.WithLabelValues("intake_delete").Observe(time.Since(start).Seconds())

	s.logger.Info("Stock intake deleted", zap.Int64("intake_id", intakeID))

	s.invalidateSummaries(ctx)
	s.publishIntakeEvent(ctx, actor, models.EventTypeIntakeDeleted, &detail.StockIntake, nil)

	return nil
}

// ListIntakes retrieves intakes matching the filter
func (s *IntakeService) ListIntakes(ctx context.Context, filter store.IntakeFilter) ([]store.IntakeRow, error) {
	return s.store.ListIntakes(ctx, filter)
}

// GetIntake retrieves an intake with its items
func (s *IntakeService) GetIntake(ctx context.Context, intakeID int64) (*store.IntakeRow, []store.IntakeItemRow, error) {
	return s.store.GetIntakeDetail(ctx, intakeID)
}

func (s *IntakeService) publishIntakeEvent(ctx context.Context, actor auth.Actor, eventType string, intake *models.StockIntake, items []IntakeItemRequest) {
	event := &models.IntakeEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: eventType,
			Timestamp: time.Now(),
			UserID:    actor.UserID,
			UserName:  actor.FullName,
		},
		IntakeID:     intake.ID,
		SupplierName: intake.SupplierName,
		Status:       intake.Status,
	}
	for _, it := range items {
		event.Movements = append(event.Movements, models.StockMovementData{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
		})
	}

	if err := s.eventPublisher.PublishIntakeEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish intake event",
			zap.String("event_type", eventType),
			zap.Error(err))
	}
}

func (s *IntakeService) invalidateSummaries(ctx context.Context) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Invalidate(ctx,
		redisclient.KeyDashboard, redisclient.KeyLowStock, redisclient.KeyFinancial); err != nil {
		s.logger.Warn("Failed to invalidate summary cache", zap.Error(err))
	}
}

// parseDate accepts a bare date or a full RFC 3339 timestamp.
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
