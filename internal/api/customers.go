package api

import (
	"net/http"

	"backoffice-service/internal/service"

	"github.com/gin-gonic/gin"
)

// listCustomers handles customer listing with search
func (h *Handler) listCustomers(c *gin.Context) {
	customers, err := h.customerService.ListCustomers(c.Request.Context(), c.Query("search"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondList(c, customers, len(customers))
}

// getCustomer handles get customer with purchase aggregates and sale history
func (h *Handler) getCustomer(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	customer, summary, sales, err := h.customerService.GetCustomer(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{
		"customer": customer,
		"summary":  summary,
		"sales":    sales,
	})
}

// createCustomer handles customer creation
func (h *Handler) createCustomer(c *gin.Context) {
	var req service.CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindErr(c, err)
		return
	}

	customer, err := h.customerService.CreateCustomer(c.Request.Context(), &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondData(c, http.StatusCreated, customer)
}

// updateCustomer handles customer update
func (h *Handler) updateCustomer(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req service.CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindErr(c, err)
		return
	}

	customer, err := h.customerService.UpdateCustomer(c.Request.Context(), id, &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondData(c, http.StatusOK, customer)
}

// deleteCustomer handles customer deletion
func (h *Handler) deleteCustomer(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.customerService.DeleteCustomer(c.Request.Context(), id); err != nil {
		respondErr(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"message": "Customer deleted"})
}
