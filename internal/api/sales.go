package api

import (
	"net/http"
	"time"

	"backoffice-service/internal/service"
	"backoffice-service/internal/store"

	"github.com/gin-gonic/gin"
)

// listSales handles sale listing with filters
func (h *Handler) listSales(c *gin.Context) {
	filter := store.SaleFilter{
		Search:        c.Query("search"),
		Status:        c.Query("status"),
		PaymentStatus: c.Query("payment_status"),
		CustomerID:    queryInt64(c, "customer_id"),
		StartDate:     queryDate(c, "start_date"),
		EndDate:       queryDate(c, "end_date"),
	}

	sales, err := h.saleService.ListSales(c.Request.Context(), filter)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondList(c, sales, len(sales))
}

// todaySales handles today's sales with an optional financial summary
func (h *Handler) todaySales(c *gin.Context) {
	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	sales, err := h.saleService.ListSales(c.Request.Context(), store.SaleFilter{StartDate: &dayStart})
	if err != nil {
		respondErr(c, err)
		return
	}

	resp := gin.H{"sales": sales, "count": len(sales)}
	if currentActor(c).CanViewFinancials {
		var revenue, collected float64
		for _, s := range sales {
			revenue += s.TotalAmount
			collected += s.AmountPaid
		}
		resp["total_revenue"] = revenue
		resp["total_collected"] = collected
	}
	respondData(c, http.StatusOK, resp)
}

// getSale handles get sale by ID with items and payments
func (h *Handler) getSale(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	sale, items, payments, err := h.saleService.GetSale(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{
		"sale":     sale,
		"items":    items,
		"payments": payments,
	})
}

// createSale handles invoice creation
func (h *Handler) createSale(c *gin.Context) {
	var req service.CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindErr(c, err)
		return
	}

	sale, err := h.saleService.CreateSale(c.Request.Context(), currentActor(c), &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondData(c, http.StatusCreated, sale)
}

// updateSale handles invoice update
func (h *Handler) updateSale(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req service.UpdateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindErr(c, err)
		return
	}

	sale, err := h.saleService.UpdateSale(c.Request.Context(), currentActor(c), id, &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondData(c, http.StatusOK, sale)
}

// deleteSale handles invoice deletion
func (h *Handler) deleteSale(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.saleService.DeleteSale(c.Request.Context(), currentActor(c), id); err != nil {
		respondErr(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"message": "Sale deleted"})
}

// addPayment handles recording a payment against an invoice
func (h *Handler) addPayment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req service.AddPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindErr(c, err)
		return
	}

	sale, err := h.saleService.AddPayment(c.Request.Context(), currentActor(c), id, &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondData(c, http.StatusCreated, sale)
}

// listPayments handles a sale's payment history
func (h *Handler) listPayments(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	payments, err := h.saleService.ListPayments(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondList(c, payments, len(payments))
}

// updatePayment handles a direct edit of a sale's payment fields
func (h *Handler) updatePayment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req service.UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindErr(c, err)
		return
	}

	sale, err := h.saleService.UpdatePayment(c.Request.Context(), id, &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondData(c, http.StatusOK, sale)
}
