package api

import (
	"net/http"

	"backoffice-service/internal/service"
	"backoffice-service/internal/store"

	"github.com/gin-gonic/gin"
)

// listIntakes handles intake listing with filters
func (h *Handler) listIntakes(c *gin.Context) {
	filter := store.IntakeFilter{
		Supplier:  c.Query("supplier"),
		Status:    c.Query("status"),
		StartDate: queryDate(c, "start_date"),
		EndDate:   queryDate(c, "end_date"),
	}

	intakes, err := h.intakeService.ListIntakes(c.Request.Context(), filter)
	if err != nil {
		respondErr(c, err)
		return
	}

	financial := currentActor(c).CanViewFinancials
	views := make([]gin.H, 0, len(intakes))
	for _, row := range intakes {
		views = append(views, intakeView(row, financial))
	}
	respondList(c, views, len(views))
}

// getIntake handles get intake by ID with items
func (h *Handler) getIntake(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	intake, items, err := h.intakeService.GetIntake(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}

	financial := currentActor(c).CanViewFinancials
	itemViews := make([]gin.H, 0, len(items))
	for _, it := range items {
		itemViews = append(itemViews, intakeItemView(it, financial))
	}

	view := intakeView(*intake, financial)
	view["items"] = itemViews
	respondData(c, http.StatusOK, view)
}

// createIntake handles recording a stock intake
func (h *Handler) createIntake(c *gin.Context) {
	var req service.CreateIntakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindErr(c, err)
		return
	}

	intake, err := h.intakeService.CreateIntake(c.Request.Context(), currentActor(c), &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondData(c, http.StatusCreated, intake)
}

// updateIntake handles a partial intake update
func (h *Handler) updateIntake(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req service.UpdateIntakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindErr(c, err)
		return
	}

	intake, err := h.intakeService.UpdateIntake(c.Request.Context(), currentActor(c), id, &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondData(c, http.StatusOK, intake)
}

// deleteIntake handles intake deletion with stock reversal
func (h *Handler) deleteIntake(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.intakeService.DeleteIntake(c.Request.Context(), currentActor(c), id); err != nil {
		respondErr(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"message": "Stock intake deleted"})
}

// intakeView shapes an intake row, stripping cost figures for users without
// financial visibility.
func intakeView(row store.IntakeRow, financial bool) gin.H {
	view := gin.H{
		"id":             row.ID,
		"intake_date":    row.IntakeDate,
		"supplier_name":  row.SupplierName,
		"notes":          row.Notes,
		"status":         row.Status,
		"warehouse_id":   row.WarehouseID,
		"created_by":     row.CreatedBy,
		"created_at":     row.CreatedAt,
		"total_items":    row.TotalItems,
		"total_quantity": row.TotalQuantity,
	}
	if financial {
		view["total_cost"] = row.TotalCost
	}
	return view
}

func intakeItemView(it store.IntakeItemRow, financial bool) gin.H {
	view := gin.H{
		"id":           it.ID,
		"product_id":   it.ProductID,
		"product_name": it.ProductName,
		"product_code": it.ProductCode,
		"quantity":     it.Quantity,
	}
	if financial {
		view["purchase_price_per_unit"] = it.PurchasePricePerUnit
		view["total_cost"] = it.TotalCostValue()
	}
	return view
}
