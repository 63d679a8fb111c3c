package models

import "time"

// Product represents an auto-glass product in the catalog.
// StockQuantity is the authoritative total across all warehouses.
type Product struct {
	ID                int64      `db:"id" json:"id"`
	ProductCode       string     `db:"product_code" json:"product_code"`
	Name              string     `db:"name" json:"name"`
	Category          *string    `db:"category" json:"category"`
	Tags              string     `db:"tags" json:"-"`
	Description       *string    `db:"description" json:"description,omitempty"`
	LengthMM          *float64   `db:"length_mm" json:"length_mm,omitempty"`
	WidthMM           *float64   `db:"width_mm" json:"width_mm,omitempty"`
	ThicknessMM       *float64   `db:"thickness_mm" json:"thickness_mm,omitempty"`
	Year              *string    `db:"year" json:"year,omitempty"`
	StockQuantity     int        `db:"stock_quantity" json:"stock_quantity"`
	LowStockThreshold int        `db:"low_stock_threshold" json:"low_stock_threshold"`
	PurchasePrice     *float64   `db:"purchase_price" json:"purchase_price,omitempty"`
	SellingPrice      *float64   `db:"selling_price" json:"selling_price,omitempty"`
	ImageURL          *string    `db:"image_url" json:"image_url,omitempty"`
	IsActive          bool       `db:"is_active" json:"is_active"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// IsLowStock reports whether the product is at or below its alert threshold.
func (p *Product) IsLowStock() bool {
	return p.StockQuantity <= p.LowStockThreshold
}

// ProfitMargin returns selling price minus purchase price, if both are set.
func (p *Product) ProfitMargin() *float64 {
	if p.PurchasePrice == nil || p.SellingPrice == nil {
		return nil
	}
	m := *p.SellingPrice - *p.PurchasePrice
	return &m
}

// ProfitPercentage returns the margin as a percentage of purchase price.
func (p *Product) ProfitPercentage() *float64 {
	if p.PurchasePrice == nil || p.SellingPrice == nil || *p.PurchasePrice <= 0 {
		return nil
	}
	pct := (*p.SellingPrice - *p.PurchasePrice) / *p.PurchasePrice * 100
	return &pct
}

// Product categories
const (
	CategorySunroof      = "sunroof"
	CategoryWindshield   = "windshield"
	CategoryDoorGlass    = "door_glass"
	CategoryRearGlass    = "rear_glass"
	CategoryQuarterGlass = "quarter_glass"
)

// ValidCategory reports whether the given category is one of the known values.
func ValidCategory(c string) bool {
	switch c {
	case CategorySunroof, CategoryWindshield, CategoryDoorGlass, CategoryRearGlass, CategoryQuarterGlass:
		return true
	}
	return false
}

// CarVariant is a car catalog entry describing which sunroof glass fits a
// given car model. ProductID optionally links the variant to the stocked
// product; the product outlives the variant.
type CarVariant struct {
	ID              int64     `db:"id" json:"id"`
	CarName         *string   `db:"car_name" json:"car_name,omitempty"`
	Name            string    `db:"name" json:"variant_name"`
	SunroofType     string    `db:"sunroof_type" json:"sunroof_type"`
	SunroofLengthIn *float64  `db:"sunroof_length_in" json:"sunroof_length_in,omitempty"`
	SunroofWidthIn  *float64  `db:"sunroof_width_in" json:"sunroof_width_in,omitempty"`
	ClipPositions   string    `db:"clip_positions" json:"-"`
	ProductID       *int64    `db:"product_id" json:"product_id,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// Warehouse represents a physical stock location.
type Warehouse struct {
	ID                 int64     `db:"id" json:"id"`
	Code               string    `db:"code" json:"code"`
	Name               string    `db:"name" json:"name"`
	Description        *string   `db:"description" json:"description,omitempty"`
	IsDefaultIntake    bool      `db:"is_default_intake" json:"is_default_intake"`
	IsShippingLocation bool      `db:"is_shipping_location" json:"is_shipping_location"`
	IsActive           bool      `db:"is_active" json:"is_active"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}

// ProductStock is the per-warehouse stock row for a product. Rows are created
// lazily on first intake or transfer and never deleted.
type ProductStock struct {
	ID          int64     `db:"id" json:"id"`
	ProductID   int64     `db:"product_id" json:"product_id"`
	WarehouseID int64     `db:"warehouse_id" json:"warehouse_id"`
	Quantity    int       `db:"quantity" json:"quantity"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// StockTransfer is an immutable audit record of a quantity moved between
// two warehouses. Transfers are never updated or deleted.
type StockTransfer struct {
	ID              int64     `db:"id" json:"id"`
	ProductID       int64     `db:"product_id" json:"product_id"`
	FromWarehouseID int64     `db:"from_warehouse_id" json:"from_warehouse_id"`
	ToWarehouseID   int64     `db:"to_warehouse_id" json:"to_warehouse_id"`
	Quantity        int       `db:"quantity" json:"quantity"`
	Notes           *string   `db:"notes" json:"notes,omitempty"`
	CreatedByUserID int64     `db:"created_by_user_id" json:"created_by_user_id"`
	TransferDate    time.Time `db:"transfer_date" json:"transfer_date"`
}

// StockIntake is a stock purchase record. Status is derived from item prices
// and is never settable by a client.
type StockIntake struct {
	ID              int64     `db:"id" json:"id"`
	IntakeDate      time.Time `db:"intake_date" json:"intake_date"`
	SupplierName    string    `db:"supplier_name" json:"supplier_name"`
	Notes           *string   `db:"notes" json:"notes,omitempty"`
	Status          string    `db:"status" json:"status"`
	WarehouseID     int64     `db:"warehouse_id" json:"warehouse_id"`
	CreatedByUserID int64     `db:"created_by_user_id" json:"created_by_user_id"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// StockIntakeItem is a line item of a stock intake. PurchasePricePerUnit may
// be nil while the price is still being negotiated.
type StockIntakeItem struct {
	ID                   int64    `db:"id" json:"id"`
	StockIntakeID        int64    `db:"stock_intake_id" json:"stock_intake_id"`
	ProductID            int64    `db:"product_id" json:"product_id"`
	Quantity             int      `db:"quantity" json:"quantity"`
	PurchasePricePerUnit *float64 `db:"purchase_price_per_unit" json:"purchase_price_per_unit"`
}

// Customer represents a client record.
type Customer struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	Company   *string   `db:"company" json:"company,omitempty"`
	City      *string   `db:"city" json:"city,omitempty"`
	Address   *string   `db:"address" json:"address,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Sale is an invoice. Customer fields are snapshots taken at sale time;
// CustomerID optionally links back to the customer record.
type Sale struct {
	ID              int64     `db:"id" json:"id"`
	InvoiceNumber   string    `db:"invoice_number" json:"invoice_number"`
	CustomerID      *int64    `db:"customer_id" json:"customer_id,omitempty"`
	CustomerName    string    `db:"customer_name" json:"customer_name"`
	CustomerPhone   *string   `db:"customer_phone" json:"customer_phone,omitempty"`
	CustomerCompany *string   `db:"customer_company" json:"customer_company,omitempty"`
	SaleDate        time.Time `db:"sale_date" json:"sale_date"`
	Status          string    `db:"status" json:"status"`
	PaymentStatus   string    `db:"payment_status" json:"payment_status"`
	PaymentMethod   *string   `db:"payment_method" json:"payment_method,omitempty"`
	TotalAmount     float64   `db:"total_amount" json:"total_amount"`
	DiscountAmount  float64   `db:"discount_amount" json:"discount_amount"`
	AmountPaid      float64   `db:"amount_paid" json:"amount_paid"`
	Notes           *string   `db:"notes" json:"notes,omitempty"`
	CreatedByUserID int64     `db:"created_by_user_id" json:"created_by_user_id"`
}

// BalanceDue returns the remaining unpaid balance.
func (s *Sale) BalanceDue() float64 {
	return s.TotalAmount - s.AmountPaid
}

// SaleItem is a line item of a sale. UnitPrice may be nil for pending sales.
type SaleItem struct {
	ID        int64    `db:"id" json:"id"`
	SaleID    int64    `db:"sale_id" json:"sale_id"`
	ProductID int64    `db:"product_id" json:"product_id"`
	Quantity  int      `db:"quantity" json:"quantity"`
	UnitPrice *float64 `db:"unit_price" json:"unit_price"`
}

// LineTotal returns quantity times unit price, or 0 while unpriced.
func (i *SaleItem) LineTotal() float64 {
	if i.UnitPrice == nil {
		return 0
	}
	return float64(i.Quantity) * *i.UnitPrice
}

// Payment is a single payment against a sale.
type Payment struct {
	ID              int64     `db:"id" json:"id"`
	SaleID          int64     `db:"sale_id" json:"sale_id"`
	Amount          float64   `db:"amount" json:"amount"`
	PaymentDate     time.Time `db:"payment_date" json:"payment_date"`
	PaymentMethod   string    `db:"payment_method" json:"payment_method"`
	Notes           *string   `db:"notes" json:"notes,omitempty"`
	CreatedByUserID int64     `db:"created_by_user_id" json:"created_by_user_id"`
}

// Expense is a business cost record. StockIntakeID links the expense that a
// completed intake generated; at most one expense exists per intake.
type Expense struct {
	ID              int64     `db:"id" json:"id"`
	Date            time.Time `db:"date" json:"date"`
	Category        string    `db:"category" json:"category"`
	Amount          float64   `db:"amount" json:"amount"`
	Description     *string   `db:"description" json:"description,omitempty"`
	StockIntakeID   *int64    `db:"stock_intake_id" json:"stock_intake_id,omitempty"`
	CreatedByUserID int64     `db:"created_by_user_id" json:"created_by_user_id"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// ExpenseCategoryStockPurchase is the category of expenses auto-created from
// completed stock intakes.
const ExpenseCategoryStockPurchase = "stock_purchase"

// User is an application account. CanViewFinancials gates purchase prices,
// margins and revenue summaries in API responses.
type User struct {
	ID                int64     `db:"id" json:"id"`
	Username          string    `db:"username" json:"username"`
	PasswordHash      string    `db:"password_hash" json:"-"`
	FullName          string    `db:"full_name" json:"full_name"`
	CanViewFinancials bool      `db:"can_view_financials" json:"can_view_financials"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

// TimelineEvent is an activity feed entry written by the timeline worker.
type TimelineEvent struct {
	ID          int64     `db:"id" json:"id"`
	EventType   string    `db:"event_type" json:"event_type"`
	Description string    `db:"description" json:"description"`
	Timestamp   time.Time `db:"timestamp" json:"timestamp"`
	UserID      *int64    `db:"user_id" json:"user_id,omitempty"`
}

// Workflow statuses shared by intakes and sales
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

// Payment statuses
const (
	PaymentStatusUnpaid  = "unpaid"
	PaymentStatusPartial = "partial"
	PaymentStatusPaid    = "paid"
)
