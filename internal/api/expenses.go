package api

import (
	"net/http"
	"time"

	"backoffice-service/internal/service"
	"backoffice-service/internal/store"

	"github.com/gin-gonic/gin"
)

// listExpenses handles expense listing with filters
func (h *Handler) listExpenses(c *gin.Context) {
	filter := store.ExpenseFilter{
		Category:  c.Query("category"),
		StartDate: queryDate(c, "start_date"),
		EndDate:   queryDate(c, "end_date"),
	}

	// month=YYYY-MM is a shorthand for a date range.
	if month := c.Query("month"); month != "" && filter.StartDate == nil {
		if t, err := time.Parse("2006-01", month); err == nil {
			end := t.AddDate(0, 1, -1)
			filter.StartDate = &t
			filter.EndDate = &end
		}
	}

	expenses, err := h.expenseService.ListExpenses(c.Request.Context(), filter)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondList(c, expenses, len(expenses))
}

// createExpense handles manual expense creation
func (h *Handler) createExpense(c *gin.Context) {
	var req service.ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindErr(c, err)
		return
	}

	expense, err := h.expenseService.CreateExpense(c.Request.Context(), currentActor(c), &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondData(c, http.StatusCreated, expense)
}

// updateExpense handles manual expense update
func (h *Handler) updateExpense(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req service.ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindErr(c, err)
		return
	}

	expense, err := h.expenseService.UpdateExpense(c.Request.Context(), id, &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondData(c, http.StatusOK, expense)
}

// deleteExpense handles manual expense deletion
func (h *Handler) deleteExpense(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.expenseService.DeleteExpense(c.Request.Context(), id); err != nil {
		respondErr(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"message": "Expense deleted"})
}

// expenseSummary handles per-category expense aggregates over a period
func (h *Handler) expenseSummary(c *gin.Context) {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 1, -1)

	if s := queryDate(c, "start_date"); s != nil {
		start = *s
	}
	if e := queryDate(c, "end_date"); e != nil {
		end = *e
	}

	rows, err := h.expenseService.SummarizeByCategory(c.Request.Context(), start, end)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{
		"start_date": start.Format("2006-01-02"),
		"end_date":   end.Format("2006-01-02"),
		"categories": rows,
	})
}
