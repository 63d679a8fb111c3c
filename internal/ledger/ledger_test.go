package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fp(v float64) *float64 { return &v }

func ip(v int) *int { return &v }

func TestDeriveStatus(t *testing.T) {
	assert.Equal(t, "pending", DeriveStatus(nil))
	assert.Equal(t, "pending", DeriveStatus([]LineItem{}))

	assert.Equal(t, "completed", DeriveStatus([]LineItem{
		{ProductID: 1, Quantity: 2, Price: fp(100)},
		{ProductID: 2, Quantity: 1, Price: fp(0.5)},
	}))

	// One unpriced item keeps the whole aggregate pending.
	assert.Equal(t, "pending", DeriveStatus([]LineItem{
		{ProductID: 1, Quantity: 2, Price: fp(100)},
		{ProductID: 2, Quantity: 1, Price: nil},
	}))

	// A zero price is treated as no price.
	assert.Equal(t, "pending", DeriveStatus([]LineItem{
		{ProductID: 1, Quantity: 2, Price: fp(0)},
	}))
}

func TestDerivePaymentStatus(t *testing.T) {
	assert.Equal(t, "unpaid", DerivePaymentStatus(0, 100))
	assert.Equal(t, "unpaid", DerivePaymentStatus(-5, 100))
	assert.Equal(t, "partial", DerivePaymentStatus(50, 100))
	assert.Equal(t, "paid", DerivePaymentStatus(100, 100))
	assert.Equal(t, "paid", DerivePaymentStatus(99.995, 100))
	assert.Equal(t, "paid", DerivePaymentStatus(150, 100))
}

func TestWithinPaymentBound(t *testing.T) {
	assert.True(t, WithinPaymentBound(0, 100, 100))
	assert.True(t, WithinPaymentBound(50, 50, 100))
	assert.True(t, WithinPaymentBound(50, 50.005, 100))
	assert.False(t, WithinPaymentBound(50, 51, 100))
	assert.False(t, WithinPaymentBound(100, 1, 100))
}

func TestTotalCost(t *testing.T) {
	assert.Zero(t, TotalCost(nil))

	items := []LineItem{
		{Quantity: 3, Price: fp(10)},
		{Quantity: 2, Price: nil},
		{Quantity: 5, Price: fp(2.5)},
	}
	assert.InDelta(t, 42.5, TotalCost(items), 1e-9)
}

func TestSaleTotal(t *testing.T) {
	items := []LineItem{{Quantity: 2, Price: fp(500)}}
	assert.InDelta(t, 900, SaleTotal(items, 100), 1e-9)
	assert.InDelta(t, 1000, SaleTotal(items, 0), 1e-9)
}

func TestInvoiceNumber(t *testing.T) {
	assert.Equal(t, "INV-2025-0001", InvoiceNumber(2025, 1))
	assert.Equal(t, "INV-2025-0042", InvoiceNumber(2025, 42))
	assert.Equal(t, "INV-2026-12345", InvoiceNumber(2026, 12345))
}

func TestParseInvoiceSeq(t *testing.T) {
	seq, ok := ParseInvoiceSeq("INV-2025-0042")
	require.True(t, ok)
	assert.Equal(t, 42, seq)

	for _, malformed := range []string{"", "INV-2025", "XYZ-2025-0001", "INV-2025-abc", "INV-2025-0000"} {
		_, ok := ParseInvoiceSeq(malformed)
		assert.False(t, ok, malformed)
	}
}

func TestNormalizePrice(t *testing.T) {
	assert.Nil(t, NormalizePrice(nil))
	assert.Nil(t, NormalizePrice(fp(0)))

	p := NormalizePrice(fp(12.5))
	require.NotNil(t, p)
	assert.Equal(t, 12.5, *p)

	// Negative prices pass through so callers can reject them.
	n := NormalizePrice(fp(-1))
	require.NotNil(t, n)
	assert.Equal(t, -1.0, *n)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0, Clamp(-3))
	assert.Equal(t, 0, Clamp(0))
	assert.Equal(t, 7, Clamp(7))
}

func TestApplyItemChanges_Delete(t *testing.T) {
	existing := []LineItem{
		{ID: 1, ProductID: 10, Quantity: 5, Price: fp(100)},
		{ID: 2, ProductID: 20, Quantity: 3, Price: fp(50)},
	}

	cs, err := ApplyItemChanges(existing, []int64{1}, nil, nil)
	require.NoError(t, err)

	require.Len(t, cs.Deleted, 1)
	assert.Equal(t, int64(1), cs.Deleted[0].ID)
	assert.Equal(t, -5, cs.QuantityDelta[10])
	_, touched := cs.QuantityDelta[20]
	assert.False(t, touched)
	assert.Len(t, cs.Final(), 1)
}

func TestApplyItemChanges_DeleteAllRejected(t *testing.T) {
	existing := []LineItem{{ID: 1, ProductID: 10, Quantity: 5, Price: fp(100)}}

	_, err := ApplyItemChanges(existing, []int64{1}, nil, nil)
	assert.ErrorIs(t, err, ErrNoItems)
}

func TestApplyItemChanges_UnknownDeleteIgnored(t *testing.T) {
	existing := []LineItem{{ID: 1, ProductID: 10, Quantity: 5, Price: fp(100)}}

	cs, err := ApplyItemChanges(existing, []int64{999}, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, cs.Deleted)
	assert.Len(t, cs.Updated, 1)
}

func TestApplyItemChanges_PatchQuantity(t *testing.T) {
	existing := []LineItem{{ID: 1, ProductID: 10, Quantity: 5, Price: fp(100)}}

	cs, err := ApplyItemChanges(existing, nil, []ItemPatch{{ID: 1, Quantity: ip(8)}}, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, cs.QuantityDelta[10])
	require.Len(t, cs.Updated, 1)
	assert.Equal(t, 8, cs.Updated[0].Quantity)
	// Price untouched without PriceSet.
	require.NotNil(t, cs.Updated[0].Price)
	assert.Equal(t, 100.0, *cs.Updated[0].Price)
}

func TestApplyItemChanges_PatchPriceClear(t *testing.T) {
	existing := []LineItem{{ID: 1, ProductID: 10, Quantity: 5, Price: fp(100)}}

	cs, err := ApplyItemChanges(existing, nil, []ItemPatch{{ID: 1, Price: nil, PriceSet: true}}, nil)
	require.NoError(t, err)

	require.Len(t, cs.Updated, 1)
	assert.Nil(t, cs.Updated[0].Price)
	assert.Equal(t, "pending", DeriveStatus(cs.Final()))
}

func TestApplyItemChanges_InvalidPatch(t *testing.T) {
	existing := []LineItem{{ID: 1, ProductID: 10, Quantity: 5, Price: fp(100)}}

	_, err := ApplyItemChanges(existing, nil, []ItemPatch{{ID: 1, Quantity: ip(0)}}, nil)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = ApplyItemChanges(existing, nil, []ItemPatch{{ID: 1, Price: fp(-5), PriceSet: true}}, nil)
	assert.ErrorIs(t, err, ErrInvalidPrice)
}

func TestApplyItemChanges_Add(t *testing.T) {
	existing := []LineItem{{ID: 1, ProductID: 10, Quantity: 5, Price: fp(100)}}

	cs, err := ApplyItemChanges(existing, nil, nil, []NewItem{
		{ProductID: 20, Quantity: 4, Price: fp(75)},
		{ProductID: 10, Quantity: 2, Price: fp(0)},
	})
	require.NoError(t, err)

	assert.Equal(t, 4, cs.QuantityDelta[20])
	assert.Equal(t, 2, cs.QuantityDelta[10])
	require.Len(t, cs.Added, 2)
	assert.Nil(t, cs.Added[1].Price)
	assert.Len(t, cs.Final(), 3)
}

func TestApplyItemChanges_InvalidAdd(t *testing.T) {
	existing := []LineItem{{ID: 1, ProductID: 10, Quantity: 5, Price: fp(100)}}

	_, err := ApplyItemChanges(existing, nil, nil, []NewItem{{ProductID: 0, Quantity: 1}})
	assert.Error(t, err)

	_, err = ApplyItemChanges(existing, nil, nil, []NewItem{{ProductID: 20, Quantity: 0}})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = ApplyItemChanges(existing, nil, nil, []NewItem{{ProductID: 20, Quantity: 1, Price: fp(-1)}})
	assert.ErrorIs(t, err, ErrInvalidPrice)
}

func TestApplyItemChanges_CombinedNetDelta(t *testing.T) {
	existing := []LineItem{
		{ID: 1, ProductID: 10, Quantity: 5, Price: fp(100)},
		{ID: 2, ProductID: 10, Quantity: 3, Price: fp(100)},
		{ID: 3, ProductID: 20, Quantity: 2, Price: fp(50)},
	}

	// Delete item 1 (-5), bump item 2 to 7 (+4), add 6 more (+6): net +5 on
	// product 10; product 20 untouched.
	cs, err := ApplyItemChanges(existing,
		[]int64{1},
		[]ItemPatch{{ID: 2, Quantity: ip(7)}},
		[]NewItem{{ProductID: 10, Quantity: 6, Price: fp(90)}})
	require.NoError(t, err)

	assert.Equal(t, 5, cs.QuantityDelta[10])
	_, touched := cs.QuantityDelta[20]
	assert.False(t, touched)

	assert.Equal(t, "completed", DeriveStatus(cs.Final()))
	assert.InDelta(t, 7*100+2*50+6*90, TotalCost(cs.Final()), 1e-9)
}

func TestStatusTransitionOnPricing(t *testing.T) {
	existing := []LineItem{
		{ID: 1, ProductID: 10, Quantity: 5, Price: nil},
		{ID: 2, ProductID: 20, Quantity: 3, Price: fp(50)},
	}
	assert.Equal(t, "pending", DeriveStatus(existing))

	cs, err := ApplyItemChanges(existing, nil, []ItemPatch{{ID: 1, Price: fp(120), PriceSet: true}}, nil)
	require.NoError(t, err)

	assert.Equal(t, "completed", DeriveStatus(cs.Final()))
	assert.Empty(t, cs.QuantityDelta)
}
