package models

import "time"

// Event types
const (
	EventTypeIntakeCreated    = "INTAKE_CREATED"
	EventTypeIntakeUpdated    = "INTAKE_UPDATED"
	EventTypeIntakeDeleted    = "INTAKE_DELETED"
	EventTypeSaleCreated      = "SALE_CREATED"
	EventTypeSaleUpdated      = "SALE_UPDATED"
	EventTypeSaleDeleted      = "SALE_DELETED"
	EventTypePaymentAdded     = "PAYMENT_ADDED"
	EventTypeStockTransferred = "STOCK_TRANSFERRED"
	EventTypeVariantCreated   = "VARIANT_CREATED"
	EventTypeVariantUpdated   = "VARIANT_UPDATED"
	EventTypeVariantDeleted   = "VARIANT_DELETED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	UserID    int64     `json:"user_id"`
	UserName  string    `json:"user_name"`
}

// StockMovementData describes a quantity change for one product.
type StockMovementData struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// IntakeEvent is published for intake create/update/delete.
type IntakeEvent struct {
	BaseEvent
	IntakeID     int64               `json:"intake_id"`
	SupplierName string              `json:"supplier_name"`
	Status       string              `json:"status"`
	Movements    []StockMovementData `json:"movements,omitempty"`
}

// SaleEvent is published for sale create/update/delete.
type SaleEvent struct {
	BaseEvent
	SaleID        int64               `json:"sale_id"`
	InvoiceNumber string              `json:"invoice_number"`
	CustomerName  string              `json:"customer_name"`
	Status        string              `json:"status"`
	Movements     []StockMovementData `json:"movements,omitempty"`
}

// PaymentEvent is published when a payment is recorded against a sale.
type PaymentEvent struct {
	BaseEvent
	SaleID        int64   `json:"sale_id"`
	InvoiceNumber string  `json:"invoice_number"`
	Amount        float64 `json:"amount"`
	PaymentStatus string  `json:"payment_status"`
}

// CatalogEvent is published for car variant catalog changes.
type CatalogEvent struct {
	BaseEvent
	VariantID   int64  `json:"variant_id"`
	CarName     string `json:"car_name"`
	VariantName string `json:"variant_name"`
}

// TransferEvent is published when stock moves between warehouses.
type TransferEvent struct {
	BaseEvent
	TransferID    int64  `json:"transfer_id"`
	ProductID     int64  `json:"product_id"`
	FromWarehouse string `json:"from_warehouse"`
	ToWarehouse   string `json:"to_warehouse"`
	Quantity      int    `json:"quantity"`
}
