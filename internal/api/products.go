package api

import (
	"net/http"

	"backoffice-service/internal/models"
	"backoffice-service/internal/service"
	"backoffice-service/internal/store"

	"github.com/gin-gonic/gin"
)

// productView shapes a product for the response, stripping purchase price and
// margin fields for users without financial visibility.
func productView(p models.Product, financial bool) gin.H {
	view := gin.H{
		"id":                  p.ID,
		"product_code":        p.ProductCode,
		"name":                p.Name,
		"category":            p.Category,
		"tags":                service.DecodeTags(p.Tags),
		"description":         p.Description,
		"length_mm":           p.LengthMM,
		"width_mm":            p.WidthMM,
		"thickness_mm":        p.ThicknessMM,
		"year":                p.Year,
		"stock_quantity":      p.StockQuantity,
		"low_stock_threshold": p.LowStockThreshold,
		"is_low_stock":        p.IsLowStock(),
		"selling_price":       p.SellingPrice,
		"image_url":           p.ImageURL,
		"is_active":           p.IsActive,
		"created_at":          p.CreatedAt,
		"updated_at":          p.UpdatedAt,
	}
	if financial {
		view["purchase_price"] = p.PurchasePrice
		view["profit_margin"] = p.ProfitMargin()
		view["profit_percentage"] = p.ProfitPercentage()
	}
	return view
}

func productViews(products []models.Product, financial bool) []gin.H {
	views := make([]gin.H, 0, len(products))
	for _, p := range products {
		views = append(views, productView(p, financial))
	}
	return views
}

// listProducts handles product listing with filters
func (h *Handler) listProducts(c *gin.Context) {
	filter := store.ProductFilter{
		Category:    c.Query("category"),
		StockStatus: c.Query("stock_status"),
		Search:      c.Query("search"),
		IsActive:    c.DefaultQuery("is_active", "true") != "false",
		MinLength:   queryFloat(c, "min_length"),
		MaxLength:   queryFloat(c, "max_length"),
		MinWidth:    queryFloat(c, "min_width"),
		MaxWidth:    queryFloat(c, "max_width"),
	}

	products, err := h.productService.ListProducts(c.Request.Context(), filter)
	if err != nil {
		respondErr(c, err)
		return
	}

	views := productViews(products, currentActor(c).CanViewFinancials)
	respondList(c, views, len(views))
}

// listLowStock handles the low stock alert listing
func (h *Handler) listLowStock(c *gin.Context) {
	products, err := h.productService.ListLowStock(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}

	views := productViews(products, currentActor(c).CanViewFinancials)
	respondList(c, views, len(views))
}

// getProduct handles get product by ID with warehouse breakdown
func (h *Handler) getProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	product, breakdown, err := h.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}

	view := productView(*product, currentActor(c).CanViewFinancials)
	view["warehouse_stock"] = breakdown
	respondData(c, http.StatusOK, view)
}

// getProductStock handles a product's per-warehouse stock breakdown
func (h *Handler) getProductStock(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	rows, err := h.store.ListProductStockByWarehouse(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondList(c, rows, len(rows))
}

// createProduct handles product creation
func (h *Handler) createProduct(c *gin.Context) {
	var req service.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindErr(c, err)
		return
	}

	product, err := h.productService.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondData(c, http.StatusCreated, productView(*product, currentActor(c).CanViewFinancials))
}

// updateProduct handles product update
func (h *Handler) updateProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req service.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindErr(c, err)
		return
	}

	product, err := h.productService.UpdateProduct(c.Request.Context(), id, &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondData(c, http.StatusOK, productView(*product, currentActor(c).CanViewFinancials))
}

// deleteProduct handles product deletion or deactivation
func (h *Handler) deleteProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	deactivated, err := h.productService.DeleteProduct(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}

	msg := "Product deleted"
	if deactivated {
		msg = "Product deactivated (has sale history)"
	}
	respondData(c, http.StatusOK, gin.H{"deactivated": deactivated, "message": msg})
}

// adjustStock handles a manual stock correction
func (h *Handler) adjustStock(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req service.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindErr(c, err)
		return
	}

	oldQty, newQty, err := h.productService.AdjustStock(c.Request.Context(), id, &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{
		"old_quantity": oldQty,
		"new_quantity": newQty,
	})
}
