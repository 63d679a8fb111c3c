package api

import (
	"net/http"

	"backoffice-service/internal/service"
	"backoffice-service/internal/store"

	"github.com/gin-gonic/gin"
)

// listWarehouses handles warehouse listing
func (h *Handler) listWarehouses(c *gin.Context) {
	warehouses, err := h.warehouseService.ListWarehouses(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	respondList(c, warehouses, len(warehouses))
}

// getWarehouseStock handles a warehouse's stock positions
func (h *Handler) getWarehouseStock(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	warehouse, rows, err := h.warehouseService.GetWarehouseStock(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{
		"warehouse": warehouse,
		"stock":     rows,
		"count":     len(rows),
	})
}

// createTransfer handles moving stock between warehouses
func (h *Handler) createTransfer(c *gin.Context) {
	var req service.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindErr(c, err)
		return
	}

	transfer, err := h.warehouseService.Transfer(c.Request.Context(), currentActor(c), &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondData(c, http.StatusCreated, transfer)
}

// listTransfers handles transfer history with filters
func (h *Handler) listTransfers(c *gin.Context) {
	filter := store.TransferFilter{
		ProductID:       queryInt64(c, "product_id"),
		FromWarehouseID: queryInt64(c, "from_warehouse_id"),
		ToWarehouseID:   queryInt64(c, "to_warehouse_id"),
		StartDate:       queryDate(c, "start_date"),
		EndDate:         queryDate(c, "end_date"),
	}

	transfers, err := h.warehouseService.ListTransfers(c.Request.Context(), filter)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondList(c, transfers, len(transfers))
}
