// Package reports renders inventory and sales exports as xlsx workbooks.
package reports

import (
	"context"
	"fmt"
	"io"

	"backoffice-service/internal/store"

	"github.com/xuri/excelize/v2"
)

const sheet = "Sheet1"

// Exporter renders export workbooks from store data.
type Exporter struct {
	store *store.Store
}

func NewExporter(st *store.Store) *Exporter {
	return &Exporter{store: st}
}

// WriteInventory writes the product catalog to w as an xlsx workbook.
// Purchase price, inventory value and margin columns are included only when
// includeFinancials is set.
func (e *Exporter) WriteInventory(ctx context.Context, w io.Writer, includeFinancials bool) error {
	products, err := e.store.ListProducts(ctx, store.ProductFilter{IsActive: true})
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	headers := []string{"Code", "Name", "Category", "Year", "Stock", "Low Stock Threshold", "Selling Price"}
	if includeFinancials {
		headers = append(headers, "Purchase Price", "Inventory Value", "Margin %")
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for row, p := range products {
		values := []interface{}{
			p.ProductCode,
			p.Name,
			deref(p.Category),
			deref(p.Year),
			p.StockQuantity,
			p.LowStockThreshold,
			derefFloat(p.SellingPrice),
		}
		if includeFinancials {
			var value float64
			if p.PurchasePrice != nil {
				value = float64(p.StockQuantity) * *p.PurchasePrice
			}
			values = append(values, derefFloat(p.PurchasePrice), value, derefFloat(p.ProfitPercentage()))
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	return f.Write(w)
}

// WriteSales writes sales matching the filter to w as an xlsx workbook.
func (e *Exporter) WriteSales(ctx context.Context, w io.Writer, filter store.SaleFilter) error {
	sales, err := e.store.ListSales(ctx, filter)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	headers := []string{"Invoice", "Date", "Customer", "Company", "Status", "Payment Status",
		"Total", "Discount", "Paid", "Balance Due", "Items"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for row, s := range sales {
		values := []interface{}{
			s.InvoiceNumber,
			s.SaleDate.Format("2006-01-02"),
			s.CustomerName,
			deref(s.CustomerCompany),
			s.Status,
			s.PaymentStatus,
			s.TotalAmount,
			s.DiscountAmount,
			s.AmountPaid,
			s.BalanceDue(),
			s.TotalQuantity,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	return f.Write(w)
}

// InventoryFilename returns the attachment name for an inventory export.
func InventoryFilename(date string) string {
	return fmt.Sprintf("inventory_%s.xlsx", date)
}

// SalesFilename returns the attachment name for a sales export.
func SalesFilename(date string) string {
	return fmt.Sprintf("sales_%s.xlsx", date)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefFloat(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
