package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"backoffice-service/internal/models"
	"backoffice-service/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishIntakeEvent publishes an intake lifecycle event
func (ep *EventPublisher) PublishIntakeEvent(ctx context.Context, event *models.IntakeEvent) error {
	key := fmt.Sprintf("intake-%d", event.IntakeID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishSaleEvent publishes a sale lifecycle event
func (ep *EventPublisher) PublishSaleEvent(ctx context.Context, event *models.SaleEvent) error {
	key := fmt.Sprintf("sale-%d", event.SaleID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishPaymentEvent publishes a payment-recorded event
func (ep *EventPublisher) PublishPaymentEvent(ctx context.Context, event *models.PaymentEvent) error {
	key := fmt.Sprintf("sale-%d", event.SaleID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishTransferEvent publishes a warehouse transfer event
func (ep *EventPublisher) PublishTransferEvent(ctx context.Context, event *models.TransferEvent) error {
	key := fmt.Sprintf("transfer-%d", event.TransferID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishCatalogEvent publishes a car variant catalog event
func (ep *EventPublisher) PublishCatalogEvent(ctx context.Context, event *models.CatalogEvent) error {
	key := fmt.Sprintf("variant-%d", event.VariantID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// EventHandler routes incoming events to registered callbacks
type EventHandler struct {
	onIntake   func(context.Context, *models.IntakeEvent) error
	onSale     func(context.Context, *models.SaleEvent) error
	onPayment  func(context.Context, *models.PaymentEvent) error
	onTransfer func(context.Context, *models.TransferEvent) error
	onCatalog  func(context.Context, *models.CatalogEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnIntake registers a handler for intake events
func (eh *EventHandler) OnIntake(handler func(context.Context, *models.IntakeEvent) error) {
	eh.onIntake = handler
}

// OnSale registers a handler for sale events
func (eh *EventHandler) OnSale(handler func(context.Context, *models.SaleEvent) error) {
	eh.onSale = handler
}

// OnPayment registers a handler for payment events
func (eh *EventHandler) OnPayment(handler func(context.Context, *models.PaymentEvent) error) {
	eh.onPayment = handler
}

// OnTransfer registers a handler for transfer events
func (eh *EventHandler) OnTransfer(handler func(context.Context, *models.TransferEvent) error) {
	eh.onTransfer = handler
}

// OnCatalog registers a handler for catalog events
func (eh *EventHandler) OnCatalog(handler func(context.Context, *models.CatalogEvent) error) {
	eh.onCatalog = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	util.GetLogger().Debug("Handling stock event",
		zap.String("event_type", baseEvent.EventType),
		zap.String("event_id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeIntakeCreated, models.EventTypeIntakeUpdated, models.EventTypeIntakeDeleted:
		if eh.onIntake != nil {
			var event models.IntakeEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal intake event: %w", err)
			}
			return eh.onIntake(ctx, &event)
		}

	case models.EventTypeSaleCreated, models.EventTypeSaleUpdated, models.EventTypeSaleDeleted:
		if eh.onSale != nil {
			var event models.SaleEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal sale event: %w", err)
			}
			return eh.onSale(ctx, &event)
		}

	case models.EventTypePaymentAdded:
		if eh.onPayment != nil {
			var event models.PaymentEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal payment event: %w", err)
			}
			return eh.onPayment(ctx, &event)
		}

	case models.EventTypeStockTransferred:
		if eh.onTransfer != nil {
			var event models.TransferEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal transfer event: %w", err)
			}
			return eh.onTransfer(ctx, &event)
		}

	case models.EventTypeVariantCreated, models.EventTypeVariantUpdated, models.EventTypeVariantDeleted:
		if eh.onCatalog != nil {
			var event models.CatalogEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal catalog event: %w", err)
			}
			return eh.onCatalog(ctx, &event)
		}

	default:
		util.GetLogger().Warn("Unhandled event type",
			zap.String("event_type", baseEvent.EventType))
	}

	return nil
}
