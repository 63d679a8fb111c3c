package api

import (
	"net/http"
	"strconv"
	"time"

	"backoffice-service/internal/reports"
	"backoffice-service/internal/store"

	"github.com/gin-gonic/gin"
)

// dashboard handles the headline summary. Money figures are stripped for
// users without financial visibility.
func (h *Handler) dashboard(c *gin.Context) {
	summary, err := h.dashboardService.GetSummary(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}

	if !currentActor(c).CanViewFinancials {
		stripped := *summary
		stripped.TodayRevenue = 0
		stripped.UnpaidBalance = 0
		stripped.MonthRevenue = 0
		stripped.MonthExpenses = 0
		stripped.InventoryValue = 0
		respondData(c, http.StatusOK, &stripped)
		return
	}
	respondData(c, http.StatusOK, summary)
}

// timeline handles the activity feed
func (h *Handler) timeline(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	events, err := h.dashboardService.GetTimeline(c.Request.Context(), limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondList(c, events, len(events))
}

// topProducts handles the quantity-sold ranking over a period
func (h *Handler) topProducts(c *gin.Context) {
	now := time.Now()
	start := now.AddDate(0, -1, 0)
	end := now

	if s := queryDate(c, "start_date"); s != nil {
		start = *s
	}
	if e := queryDate(c, "end_date"); e != nil {
		end = *e
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	rows, err := h.dashboardService.GetTopProducts(c.Request.Context(), start, end, limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondList(c, rows, len(rows))
}

// monthlyFinancials handles the revenue/expense/profit series
func (h *Handler) monthlyFinancials(c *gin.Context) {
	months, _ := strconv.Atoi(c.DefaultQuery("months", "12"))
	rows, err := h.dashboardService.GetMonthlyFinancials(c.Request.Context(), months)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondList(c, rows, len(rows))
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// exportInventory streams the inventory workbook. Financial columns are
// included only for users holding the financial flag.
func (h *Handler) exportInventory(c *gin.Context) {
	date := time.Now().Format("2006-01-02")
	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", "attachment; filename="+reports.InventoryFilename(date))

	financial := currentActor(c).CanViewFinancials
	if err := h.exporter.WriteInventory(c.Request.Context(), c.Writer, financial); err != nil {
		respondErr(c, err)
	}
}

// exportSales streams the sales workbook for an optional date range
func (h *Handler) exportSales(c *gin.Context) {
	filter := store.SaleFilter{
		StartDate: queryDate(c, "start_date"),
		EndDate:   queryDate(c, "end_date"),
	}

	date := time.Now().Format("2006-01-02")
	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", "attachment; filename="+reports.SalesFilename(date))

	if err := h.exporter.WriteSales(c.Request.Context(), c.Writer, filter); err != nil {
		respondErr(c, err)
	}
}
