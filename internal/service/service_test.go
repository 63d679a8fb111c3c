package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	got, err := parseDate("2025-03-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), got)

	got, err = parseDate("2025-03-15T10:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, 10, got.Hour())

	_, err = parseDate("15/03/2025")
	assert.Error(t, err)

	_, err = parseDate("")
	assert.Error(t, err)
}

func TestTagsRoundTrip(t *testing.T) {
	assert.Equal(t, `[]`, encodeTags(nil))
	assert.Equal(t, `[]`, encodeTags([]string{}))
	assert.Equal(t, `["oem","toyota"]`, encodeTags([]string{"oem", "toyota"}))

	assert.Equal(t, []string{"oem", "toyota"}, DecodeTags(`["oem","toyota"]`))
	assert.Empty(t, DecodeTags(""))
	assert.Empty(t, DecodeTags("not json"))
	assert.Empty(t, DecodeTags("null"))
}

func TestIntakeItemPatchUnmarshal(t *testing.T) {
	var p IntakeItemPatch
	require.NoError(t, json.Unmarshal([]byte(`{"id":7,"quantity":3}`), &p))
	assert.Equal(t, int64(7), p.ID)
	require.NotNil(t, p.Quantity)
	assert.Equal(t, 3, *p.Quantity)
	assert.False(t, p.PriceSet)
	assert.Nil(t, p.PurchasePricePerUnit)

	p = IntakeItemPatch{}
	require.NoError(t, json.Unmarshal([]byte(`{"id":7,"purchase_price_per_unit":null}`), &p))
	assert.True(t, p.PriceSet)
	assert.Nil(t, p.PurchasePricePerUnit)

	p = IntakeItemPatch{}
	require.NoError(t, json.Unmarshal([]byte(`{"id":7,"purchase_price_per_unit":125.5}`), &p))
	assert.True(t, p.PriceSet)
	require.NotNil(t, p.PurchasePricePerUnit)
	assert.Equal(t, 125.5, *p.PurchasePricePerUnit)
}

func TestSaleItemPatchUnmarshal(t *testing.T) {
	var p SaleItemPatch
	require.NoError(t, json.Unmarshal([]byte(`{"id":9,"quantity":2}`), &p))
	assert.False(t, p.PriceSet)

	p = SaleItemPatch{}
	require.NoError(t, json.Unmarshal([]byte(`{"id":9,"unit_price":null}`), &p))
	assert.True(t, p.PriceSet)
	assert.Nil(t, p.UnitPrice)

	p = SaleItemPatch{}
	require.NoError(t, json.Unmarshal([]byte(`{"id":9,"unit_price":850}`), &p))
	assert.True(t, p.PriceSet)
	require.NotNil(t, p.UnitPrice)
	assert.Equal(t, 850.0, *p.UnitPrice)
}

func TestUpdatePaymentRequestDecoding(t *testing.T) {
	var req UpdatePaymentRequest
	require.NoError(t, json.Unmarshal([]byte(`{"amount_paid": 150.0, "payment_method": "bank_transfer"}`), &req))

	assert.Nil(t, req.PaymentStatus)
	require.NotNil(t, req.AmountPaid)
	assert.Equal(t, 150.0, *req.AmountPaid)
	require.NotNil(t, req.PaymentMethod)
	assert.Equal(t, "bank_transfer", *req.PaymentMethod)

	req = UpdatePaymentRequest{}
	require.NoError(t, json.Unmarshal([]byte(`{"payment_status": "paid"}`), &req))
	require.NotNil(t, req.PaymentStatus)
	assert.Equal(t, "paid", *req.PaymentStatus)
	assert.Nil(t, req.AmountPaid)
	assert.Nil(t, req.PaymentMethod)
}

func TestVariantRequestDefaults(t *testing.T) {
	req := VariantRequest{VariantName: "Panoramic 2019+"}
	v := req.toModel(0)
	assert.Equal(t, "N/A", v.SunroofType)
	assert.Equal(t, `[]`, v.ClipPositions)
	assert.Nil(t, v.ProductID)

	sunroof := "panoramic"
	req = VariantRequest{
		VariantName:   "Spoiler 2020",
		SunroofType:   &sunroof,
		ClipPositions: []string{"front-left", "rear-center"},
	}
	v = req.toModel(7)
	assert.Equal(t, int64(7), v.ID)
	assert.Equal(t, "panoramic", v.SunroofType)
	assert.Equal(t, `["front-left","rear-center"]`, v.ClipPositions)
}

func TestUpdateIntakeRequestDecoding(t *testing.T) {
	raw := `{
		"supplier_name": "Glass Direct",
		"deleted_item_ids": [3],
		"items": [{"id": 1, "quantity": 10, "purchase_price_per_unit": 99.9}],
		"new_items": [{"product_id": 5, "quantity": 4}],
		"update_purchase_price": true
	}`

	var req UpdateIntakeRequest
	require.NoError(t, json.Unmarshal([]byte(raw), &req))

	require.NotNil(t, req.SupplierName)
	assert.Equal(t, "Glass Direct", *req.SupplierName)
	assert.Equal(t, []int64{3}, req.DeletedItemIDs)
	require.Len(t, req.Items, 1)
	assert.True(t, req.Items[0].PriceSet)
	require.Len(t, req.NewItems, 1)
	assert.Equal(t, int64(5), req.NewItems[0].ProductID)
	assert.True(t, req.UpdatePurchasePrice)
}
