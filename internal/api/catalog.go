package api

import (
	"net/http"

	"backoffice-service/internal/service"
	"backoffice-service/internal/store"

	"github.com/gin-gonic/gin"
)

// variantView shapes a catalog entry for the response, stripping the linked
// product's purchase price for users without financial visibility.
func variantView(v store.VariantRow, financial bool) gin.H {
	view := gin.H{
		"id":                v.ID,
		"car_name":          v.CarName,
		"variant_name":      v.Name,
		"sunroof_type":      v.SunroofType,
		"sunroof_length_in": v.SunroofLengthIn,
		"sunroof_width_in":  v.SunroofWidthIn,
		"clip_positions":    service.DecodeTags(v.ClipPositions),
		"product_id":        v.ProductID,
		"product_code":      v.ProductCode,
		"product_name":      v.ProductName,
		"description":       v.Description,
		"stock_quantity":    v.StockQuantity,
		"selling_price":     v.SellingPrice,
		"image_url":         v.ImageURL,
		"created_at":        v.CreatedAt,
	}
	if financial {
		view["purchase_price"] = v.PurchasePrice
	}
	return view
}

// listVariants handles catalog listing with an optional search term
func (h *Handler) listVariants(c *gin.Context) {
	variants, err := h.catalogService.ListVariants(c.Request.Context(), c.Query("search"))
	if err != nil {
		respondErr(c, err)
		return
	}

	financial := currentActor(c).CanViewFinancials
	views := make([]gin.H, 0, len(variants))
	for _, v := range variants {
		views = append(views, variantView(v, financial))
	}
	respondList(c, views, len(views))
}

// getVariant handles get catalog entry by ID
func (h *Handler) getVariant(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	variant, err := h.catalogService.GetVariant(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondData(c, http.StatusOK, variantView(*variant, currentActor(c).CanViewFinancials))
}

// createVariant handles catalog entry creation
func (h *Handler) createVariant(c *gin.Context) {
	var req service.VariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindErr(c, err)
		return
	}

	variant, err := h.catalogService.CreateVariant(c.Request.Context(), currentActor(c), &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondData(c, http.StatusCreated, variant)
}

// updateVariant handles catalog entry update
func (h *Handler) updateVariant(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req service.VariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindErr(c, err)
		return
	}

	variant, err := h.catalogService.UpdateVariant(c.Request.Context(), currentActor(c), id, &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondData(c, http.StatusOK, variant)
}

// deleteVariant handles catalog entry deletion
func (h *Handler) deleteVariant(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.catalogService.DeleteVariant(c.Request.Context(), currentActor(c), id); err != nil {
		respondErr(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"message": "Variant deleted"})
}
