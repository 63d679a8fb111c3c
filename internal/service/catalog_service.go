package service

import (
	"context"
	"time"

	"backoffice-service/internal/auth"
	"backoffice-service/internal/broker"
	"backoffice-service/internal/models"
	"backoffice-service/internal/store"
	"backoffice-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CatalogService handles the car variant catalog
type CatalogService struct {
	store          *store.Store
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(st *store.Store, eventPublisher *broker.EventPublisher) *CatalogService {
	return &CatalogService{
		store:          st,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// VariantRequest represents a car variant create or update
type VariantRequest struct {
	CarName         *string  `json:"car_name"`
	VariantName     string   `json:"variant_name" binding:"required"`
	SunroofType     *string  `json:"sunroof_type"`
	SunroofLengthIn *float64 `json:"sunroof_length_in"`
	SunroofWidthIn  *float64 `json:"sunroof_width_in"`
	ClipPositions   []string `json:"clip_positions"`
	ProductID       *int64   `json:"product_id"`
}

func (r *VariantRequest) toModel(id int64) *models.CarVariant {
	sunroofType := "N/A"
	if r.SunroofType != nil && *r.SunroofType != "" {
		sunroofType = *r.SunroofType
	}
	return &models.CarVariant{
		ID:              id,
		CarName:         r.CarName,
		Name:            r.VariantName,
		SunroofType:     sunroofType,
		SunroofLengthIn: r.SunroofLengthIn,
		SunroofWidthIn:  r.SunroofWidthIn,
		ClipPositions:   encodeTags(r.ClipPositions),
		ProductID:       r.ProductID,
	}
}

// ListVariants retrieves catalog entries, optionally searched
func (s *CatalogService) ListVariants(ctx context.Context, search string) ([]store.VariantRow, error) {
	return s.store.ListVariants(ctx, search)
}

// GetVariant retrieves one catalog entry with its linked product
func (s *CatalogService) GetVariant(ctx context.Context, id int64) (*store.VariantRow, error) {
	return s.store.GetVariantByID(ctx, id)
}

// CreateVariant creates a catalog entry and publishes the lifecycle event
func (s *CatalogService) CreateVariant(ctx context.Context, actor auth.Actor, req *VariantRequest) (*models.CarVariant, error) {
	variant := req.toModel(0)
	if err := s.store.CreateVariant(ctx, variant); err != nil {
		return nil, err
	}

	s.logger.Info("Car variant created",
		zap.Int64("variant_id", variant.ID),
		zap.String("variant_name", variant.Name))
	s.publishCatalogEvent(ctx, actor, models.EventTypeVariantCreated, variant)

	return variant, nil
}

// UpdateVariant replaces a catalog entry and publishes the lifecycle event
func (s *CatalogService) UpdateVariant(ctx context.Context, actor auth.Actor, id int64, req *VariantRequest) (*models.CarVariant, error) {
	variant := req.toModel(id)
	if err := s.store.UpdateVariant(ctx, variant); err != nil {
		return nil, err
	}

	s.logger.Info("Car variant updated", zap.Int64("variant_id", id))
	s.publishCatalogEvent(ctx, actor, models.EventTypeVariantUpdated, variant)

	return variant, nil
}

// DeleteVariant removes a catalog entry, keeping any linked product
func (s *CatalogService) DeleteVariant(ctx context.Context, actor auth.Actor, id int64) error {
	row, err := s.store.GetVariantByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteVariant(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Car variant deleted", zap.Int64("variant_id", id))
	s.publishCatalogEvent(ctx, actor, models.EventTypeVariantDeleted, &row.CarVariant)

	return nil
}

func (s *CatalogService) publishCatalogEvent(ctx context.Context, actor auth.Actor, eventType string, v *models.CarVariant) {
	carName := ""
	if v.CarName != nil {
		carName = *v.CarName
	}
	event := &models.CatalogEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: eventType,
			Timestamp: time.Now(),
			UserID:    actor.UserID,
			UserName:  actor.FullName,
		},
		VariantID:   v.ID,
		CarName:     carName,
		VariantName: v.Name,
	}
	if err := s.eventPublisher.PublishCatalogEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish catalog event",
			zap.String("event_type", eventType),
			zap.Error(err))
	}
}
