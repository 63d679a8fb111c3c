// Package ledger holds the pure stock-ledger reconciliation rules shared by
// stock intakes, sales and warehouse transfers: status derivation from line
// item prices, payment status derivation, total computation, invoice
// numbering and item change-set application. Everything here is free of I/O
// so the invariants can be tested without a database.
package ledger

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// PaymentEpsilon is the float tolerance used when comparing paid amounts
// against invoice totals.
const PaymentEpsilon = 0.01

var (
	ErrNoItems         = errors.New("at least one item is required")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrInvalidPrice    = errors.New("price must not be negative")
)

// LineItem is the generic view of an intake or sale line item. Price is nil
// while the item is unpriced.
type LineItem struct {
	ID        int64
	ProductID int64
	Quantity  int
	Price     *float64
}

// DeriveStatus returns "completed" iff the item list is non-empty and every
// item has a price > 0, otherwise "pending". Status is always derived, never
// accepted from a client.
func DeriveStatus(items []LineItem) string {
	if len(items) == 0 {
		return "pending"
	}
	for _, it := range items {
		if it.Price == nil || *it.Price <= 0 {
			return "pending"
		}
	}
	return "completed"
}

// DerivePaymentStatus maps the paid amount against the total:
// 0 -> unpaid, (0, total) -> partial, >= total - epsilon -> paid.
func DerivePaymentStatus(amountPaid, totalAmount float64) string {
	switch {
	case amountPaid <= 0:
		return "unpaid"
	case amountPaid >= totalAmount-PaymentEpsilon:
		return "paid"
	default:
		return "partial"
	}
}

// WithinPaymentBound reports whether adding amount to amountPaid stays within
// the invoice total, allowing the float tolerance.
func WithinPaymentBound(amountPaid, amount, totalAmount float64) bool {
	return amountPaid+amount <= totalAmount+PaymentEpsilon
}

// TotalCost sums quantity times price over all priced items. Unpriced items
// contribute nothing.
func TotalCost(items []LineItem) float64 {
	var total float64
	for _, it := range items {
		if it.Price != nil && *it.Price > 0 {
			total += float64(it.Quantity) * *it.Price
		}
	}
	return total
}

// SaleTotal is the priced item total minus the discount.
func SaleTotal(items []LineItem, discount float64) float64 {
	return TotalCost(items) - discount
}

// InvoiceNumber formats a sequential invoice number like INV-2025-0001.
func InvoiceNumber(year, seq int) string {
	return fmt.Sprintf("INV-%d-%04d", year, seq)
}

// ParseInvoiceSeq extracts the sequence from an invoice number produced by
// InvoiceNumber. Returns false for anything malformed.
func ParseInvoiceSeq(invoice string) (int, bool) {
	parts := strings.Split(invoice, "-")
	if len(parts) != 3 || parts[0] != "INV" {
		return 0, false
	}
	seq, err := strconv.Atoi(parts[2])
	if err != nil || seq < 1 {
		return 0, false
	}
	return seq, true
}

// NormalizePrice maps absent, zero or empty prices to nil so that "no price
// yet" is represented one way. Negative prices are preserved for the caller
// to reject.
func NormalizePrice(p *float64) *float64 {
	if p == nil || *p == 0 {
		return nil
	}
	return p
}

// Clamp floors a stock quantity at zero. Delete-reversals clamp rather than
// fail; see the lenient reversal policy.
func Clamp(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// ItemPatch mutates one existing line item. Nil fields are left untouched;
// PriceSet distinguishes "clear the price" from "no change".
type ItemPatch struct {
	ID       int64
	Quantity *int
	Price    *float64
	PriceSet bool
}

// NewItem appends a line item to an aggregate.
type NewItem struct {
	ProductID int64
	Quantity  int
	Price     *float64
}

// ChangeSet is the result of applying an item-level update to an aggregate:
// the rows to delete, update and insert, plus the net change in item quantity
// per product. The caller applies QuantityDelta to Product.stock_quantity
// with the sign appropriate to the aggregate (positive for intakes, negative
// for sales).
type ChangeSet struct {
	Deleted []LineItem
	Updated []LineItem
	Added   []LineItem
	// QuantityDelta is final total item quantity minus previous, per product.
	QuantityDelta map[int64]int
}

// Final returns the line items that remain after the change set is applied.
func (cs *ChangeSet) Final() []LineItem {
	out := make([]LineItem, 0, len(cs.Updated)+len(cs.Added))
	out = append(out, cs.Updated...)
	out = append(out, cs.Added...)
	return out
}

// ApplyItemChanges computes the change set for the delete/update/add pattern
// shared by intake and sale updates. It validates quantities and prices and
// rejects updates that would leave the aggregate without items. Deletions of
// unknown item IDs are ignored.
func ApplyItemChanges(existing []LineItem, deletedIDs []int64, patches []ItemPatch, added []NewItem) (*ChangeSet, error) {
	deleted := make(map[int64]bool, len(deletedIDs))
	for _, id := range deletedIDs {
		deleted[id] = true
	}
	patchByID := make(map[int64]ItemPatch, len(patches))
	for _, p := range patches {
		patchByID[p.ID] = p
	}

	cs := &ChangeSet{QuantityDelta: make(map[int64]int)}

	for _, it := range existing {
		if deleted[it.ID] {
			cs.Deleted = append(cs.Deleted, it)
			cs.QuantityDelta[it.ProductID] -= it.Quantity
			continue
		}

		if p, ok := patchByID[it.ID]; ok {
			if p.Quantity != nil {
				if *p.Quantity < 1 {
					return nil, fmt.Errorf("item %d: %w", it.ID, ErrInvalidQuantity)
				}
				cs.QuantityDelta[it.ProductID] += *p.Quantity - it.Quantity
				it.Quantity = *p.Quantity
			}
			if p.PriceSet {
				if p.Price != nil && *p.Price < 0 {
					return nil, fmt.Errorf("item %d: %w", it.ID, ErrInvalidPrice)
				}
				it.Price = NormalizePrice(p.Price)
			}
		}
		cs.Updated = append(cs.Updated, it)
	}

	for _, n := range added {
		if n.ProductID == 0 {
			return nil, fmt.Errorf("new item: missing product")
		}
		if n.Quantity < 1 {
			return nil, fmt.Errorf("new item: %w", ErrInvalidQuantity)
		}
		if n.Price != nil && *n.Price < 0 {
			return nil, fmt.Errorf("new item: %w", ErrInvalidPrice)
		}
		cs.Added = append(cs.Added, LineItem{
			ProductID: n.ProductID,
			Quantity:  n.Quantity,
			Price:     NormalizePrice(n.Price),
		})
		cs.QuantityDelta[n.ProductID] += n.Quantity
	}

	if len(cs.Updated)+len(cs.Added) == 0 {
		return nil, ErrNoItems
	}

	return cs, nil
}
