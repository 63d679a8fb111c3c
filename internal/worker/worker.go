package worker

import (
	"context"
	"fmt"
	"strings"

	"backoffice-service/internal/broker"
	"backoffice-service/internal/models"
	"backoffice-service/internal/store"
	"backoffice-service/internal/util"
)

// TimelineWorker consumes stock events and writes activity feed entries.
// The feed is eventually consistent; losing the worker stalls the feed but
// never the ledger itself.
type TimelineWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	store        *store.Store
}

// NewTimelineWorker creates a new timeline worker
func NewTimelineWorker(consumer *broker.Consumer, st *store.Store) *TimelineWorker {
	w := &TimelineWorker{
		consumer:     consumer,
		eventHandler: broker.NewEventHandler(),
		store:        st,
	}

	w.eventHandler.OnIntake(w.handleIntake)
	w.eventHandler.OnSale(w.handleSale)
	w.eventHandler.OnPayment(w.handlePayment)
	w.eventHandler.OnTransfer(w.handleTransfer)
	w.eventHandler.OnCatalog(w.handleCatalog)

	return w
}

// Start starts the worker
func (w *TimelineWorker) Start(ctx context.Context) error {
	util.GetLogger().Info("Starting timeline worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *TimelineWorker) Stop() error {
	util.GetLogger().Info("Stopping timeline worker")
	return w.consumer.Close()
}

func (w *TimelineWorker) handleIntake(ctx context.Context, event *models.IntakeEvent) error {
	var desc string
	switch event.EventType {
	case models.EventTypeIntakeCreated:
		desc = fmt.Sprintf("%s recorded a stock intake from %s (%d products, status %s)",
			event.UserName, event.SupplierName, len(event.Movements), event.Status)
	case models.EventTypeIntakeUpdated:
		desc = fmt.Sprintf("%s updated stock intake #%d from %s (status %s)",
			event.UserName, event.IntakeID, event.SupplierName, event.Status)
	case models.EventTypeIntakeDeleted:
		desc = fmt.Sprintf("%s deleted stock intake #%d from %s",
			event.UserName, event.IntakeID, event.SupplierName)
	}
	return w.insert(ctx, event.BaseEvent, desc)
}

func (w *TimelineWorker) handleSale(ctx context.Context, event *models.SaleEvent) error {
	var desc string
	switch event.EventType {
	case models.EventTypeSaleCreated:
		desc = fmt.Sprintf("%s created invoice %s for %s",
			event.UserName, event.InvoiceNumber, event.CustomerName)
	case models.EventTypeSaleUpdated:
		desc = fmt.Sprintf("%s updated invoice %s for %s (status %s)",
			event.UserName, event.InvoiceNumber, event.CustomerName, event.Status)
	case models.EventTypeSaleDeleted:
		desc = fmt.Sprintf("%s deleted invoice %s for %s",
			event.UserName, event.InvoiceNumber, event.CustomerName)
	}
	return w.insert(ctx, event.BaseEvent, desc)
}

func (w *TimelineWorker) handlePayment(ctx context.Context, event *models.PaymentEvent) error {
	desc := fmt.Sprintf("%s recorded a payment of %.2f on invoice %s (%s)",
		event.UserName, event.Amount, event.InvoiceNumber, event.PaymentStatus)
	return w.insert(ctx, event.BaseEvent, desc)
}

func (w *TimelineWorker) handleTransfer(ctx context.Context, event *models.TransferEvent) error {
	desc := fmt.Sprintf("%s transferred %d units of product #%d from %s to %s",
		event.UserName, event.Quantity, event.ProductID, event.FromWarehouse, event.ToWarehouse)
	return w.insert(ctx, event.BaseEvent, desc)
}

func (w *TimelineWorker) handleCatalog(ctx context.Context, event *models.CatalogEvent) error {
	var desc string
	switch event.EventType {
	case models.EventTypeVariantCreated:
		desc = fmt.Sprintf("%s added sunroof '%s' for '%s' to the catalog",
			event.UserName, event.VariantName, event.CarName)
	case models.EventTypeVariantUpdated:
		desc = fmt.Sprintf("%s updated catalog entry '%s' for '%s'",
			event.UserName, event.VariantName, event.CarName)
	case models.EventTypeVariantDeleted:
		desc = fmt.Sprintf("%s removed sunroof '%s' for '%s' from the catalog",
			event.UserName, event.VariantName, event.CarName)
	}
	return w.insert(ctx, event.BaseEvent, desc)
}

func (w *TimelineWorker) insert(ctx context.Context, base models.BaseEvent, desc string) error {
	if strings.TrimSpace(desc) == "" {
		return nil
	}
	entry := &models.TimelineEvent{
		EventType:   base.EventType,
		Description: desc,
		Timestamp:   base.Timestamp,
	}
	if base.UserID != 0 {
		entry.UserID = &base.UserID
	}
	if err := w.store.InsertTimelineEvent(ctx, entry); err != nil {
		return fmt.Errorf("failed to insert timeline event: %w", err)
	}
	return nil
}
