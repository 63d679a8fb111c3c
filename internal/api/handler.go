package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"backoffice-service/internal/auth"
	"backoffice-service/internal/reports"
	"backoffice-service/internal/service"
	"backoffice-service/internal/store"
	"backoffice-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	store            *store.Store
	authManager      *auth.Manager
	productService   *service.ProductService
	intakeService    *service.IntakeService
	saleService      *service.SaleService
	warehouseService *service.WarehouseService
	customerService  *service.CustomerService
	expenseService   *service.ExpenseService
	dashboardService *service.DashboardService
	catalogService   *service.CatalogService
	exporter         *reports.Exporter
}

// NewHandler creates a new HTTP handler
func NewHandler(
	st *store.Store,
	authManager *auth.Manager,
	productService *service.ProductService,
	intakeService *service.IntakeService,
	saleService *service.SaleService,
	warehouseService *service.WarehouseService,
	customerService *service.CustomerService,
	expenseService *service.ExpenseService,
	dashboardService *service.DashboardService,
	catalogService *service.CatalogService,
	exporter *reports.Exporter,
) *Handler {
	return &Handler{
		store:            st,
		authManager:      authManager,
		productService:   productService,
		intakeService:    intakeService,
		saleService:      saleService,
		warehouseService: warehouseService,
		customerService:  customerService,
		expenseService:   expenseService,
		dashboardService: dashboardService,
		catalogService:   catalogService,
		exporter:         exporter,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")

	api.POST("/auth/login", h.login)
	api.POST("/auth/register", h.register)

	authed := api.Group("")
	authed.Use(h.requireAuth())
	{
		products := authed.Group("/products")
		{
			products.GET("", h.listProducts)
			products.POST("", h.createProduct)
			products.GET("/low-stock", h.listLowStock)
			products.GET("/:id", h.getProduct)
			products.PUT("/:id", h.updateProduct)
			products.DELETE("/:id", h.deleteProduct)
			products.POST("/:id/adjust-stock", h.adjustStock)
			products.GET("/:id/stock", h.getProductStock)
		}

		customers := authed.Group("/customers")
		{
			customers.GET("", h.listCustomers)
			customers.POST("", h.createCustomer)
			customers.GET("/:id", h.getCustomer)
			customers.PUT("/:id", h.updateCustomer)
			customers.DELETE("/:id", h.deleteCustomer)
		}

		sales := authed.Group("/sales")
		{
			sales.GET("", h.listSales)
			sales.POST("", h.createSale)
			sales.GET("/today", h.todaySales)
			sales.GET("/:id", h.getSale)
			sales.PUT("/:id", h.updateSale)
			sales.DELETE("/:id", h.deleteSale)
			sales.PUT("/:id/payment", h.updatePayment)
			sales.GET("/:id/payments", h.listPayments)
			sales.POST("/:id/payments", h.addPayment)
		}

		intakes := authed.Group("/stock-intake")
		{
			intakes.GET("", h.listIntakes)
			intakes.POST("", h.createIntake)
			intakes.GET("/:id", h.getIntake)
			intakes.PUT("/:id", h.updateIntake)
			intakes.DELETE("/:id", h.deleteIntake)
		}

		warehouses := authed.Group("/warehouses")
		{
			warehouses.GET("", h.listWarehouses)
			warehouses.GET("/transfers", h.listTransfers)
			warehouses.POST("/transfers", h.createTransfer)
			warehouses.GET("/:id/stock", h.getWarehouseStock)
		}

		catalog := authed.Group("/catalog")
		{
			catalog.GET("/variants", h.listVariants)
			catalog.POST("/variants", h.createVariant)
			catalog.GET("/variants/:id", h.getVariant)
			catalog.PUT("/variants/:id", h.updateVariant)
			catalog.DELETE("/variants/:id", h.deleteVariant)
		}

		expenses := authed.Group("/expenses")
		expenses.Use(h.requireFinancials())
		{
			expenses.GET("", h.listExpenses)
			expenses.POST("", h.createExpense)
			expenses.GET("/summary", h.expenseSummary)
			expenses.PUT("/:id", h.updateExpense)
			expenses.DELETE("/:id", h.deleteExpense)
		}

		authed.GET("/dashboard", h.dashboard)
		authed.GET("/dashboard/timeline", h.timeline)
		authed.GET("/dashboard/top-products", h.topProducts)
		authed.GET("/dashboard/financials", h.requireFinancials(), h.monthlyFinancials)

		authed.GET("/reports/inventory.xlsx", h.exportInventory)
		authed.GET("/reports/sales.xlsx", h.requireFinancials(), h.exportSales)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// respondData writes the success envelope without a count.
func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

// respondList writes the success envelope with a count.
func respondList(c *gin.Context, data interface{}, count int) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data, "count": count})
}

func respondMsg(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"msg": msg})
}

// respondErr maps store sentinel errors onto HTTP statuses.
func respondErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondMsg(c, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrValidation):
		respondMsg(c, http.StatusBadRequest, err.Error())
	default:
		respondMsg(c, http.StatusInternalServerError, "internal server error")
	}
}

func bindErr(c *gin.Context, err error) {
	respondMsg(c, http.StatusBadRequest, "invalid request body: "+err.Error())
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		respondMsg(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func queryInt64(c *gin.Context, key string) *int64 {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

func queryFloat(c *gin.Context, key string) *float64 {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

func queryDate(c *gin.Context, key string) *time.Time {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return &t
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t
	}
	return nil
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
