package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"backoffice-service/internal/models"
	"backoffice-service/internal/redisclient"
	"backoffice-service/internal/store"
	"backoffice-service/internal/util"

	"go.uber.org/zap"
)

// ProductService handles product catalog business logic
type ProductService struct {
	store  *store.Store
	redis  *redisclient.Client
	logger *zap.Logger
}

// NewProductService creates a new product service
func NewProductService(st *store.Store, redis *redisclient.Client) *ProductService {
	return &ProductService{
		store:  st,
		redis:  redis,
		logger: util.GetLogger(),
	}
}

// CreateProductRequest represents a request to create a product
type CreateProductRequest struct {
	ProductCode       string   `json:"product_code" binding:"required"`
	Name              string   `json:"name" binding:"required"`
	Category          *string  `json:"category"`
	Tags              []string `json:"tags"`
	Description       *string  `json:"description"`
	LengthMM          *float64 `json:"length_mm"`
	WidthMM           *float64 `json:"width_mm"`
	ThicknessMM       *float64 `json:"thickness_mm"`
	Year              *string  `json:"year"`
	StockQuantity     int      `json:"stock_quantity"`
	LowStockThreshold *int     `json:"low_stock_threshold"`
	PurchasePrice     *float64 `json:"purchase_price"`
	SellingPrice      *float64 `json:"selling_price"`
	ImageURL          *string  `json:"image_url"`
}

// UpdateProductRequest represents a full update of a product's mutable fields
type UpdateProductRequest struct {
	Name              string   `json:"name" binding:"required"`
	Category          *string  `json:"category"`
	Tags              []string `json:"tags"`
	Description       *string  `json:"description"`
	LengthMM          *float64 `json:"length_mm"`
	WidthMM           *float64 `json:"width_mm"`
	ThicknessMM       *float64 `json:"thickness_mm"`
	Year              *string  `json:"year"`
	StockQuantity     *int     `json:"stock_quantity"`
	LowStockThreshold *int     `json:"low_stock_threshold"`
	PurchasePrice     *float64 `json:"purchase_price"`
	SellingPrice      *float64 `json:"selling_price"`
	ImageURL          *string  `json:"image_url"`
	IsActive          *bool    `json:"is_active"`
}

// AdjustStockRequest is a manual stock correction
type AdjustStockRequest struct {
	Adjustment int     `json:"adjustment" binding:"required"`
	Reason     *string `json:"reason"`
}

// CreateProduct creates a catalog entry
func (s *ProductService) CreateProduct(ctx context.Context, req *CreateProductRequest) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.CreateProduct")
	defer span.End()

	if req.Category != nil && *req.Category != "" && !models.ValidCategory(*req.Category) {
		return nil, fmt.Errorf("%w: invalid category '%s'", store.ErrValidation, *req.Category)
	}
	if req.StockQuantity < 0 {
		return nil, fmt.Errorf("%w: stock quantity cannot be negative", store.ErrValidation)
	}
	if req.PurchasePrice != nil && *req.PurchasePrice < 0 {
		return nil, fmt.Errorf("%w: purchase price cannot be negative", store.ErrValidation)
	}
	if req.SellingPrice != nil && *req.SellingPrice < 0 {
		return nil, fmt.Errorf("%w: selling price cannot be negative", store.ErrValidation)
	}

	threshold := 5
	if req.LowStockThreshold != nil {
		threshold = *req.LowStockThreshold
	}

	product := &models.Product{
		ProductCode:       strings.TrimSpace(req.ProductCode),
		Name:              strings.TrimSpace(req.Name),
		Category:          req.Category,
		Tags:              encodeTags(req.Tags),
		Description:       req.Description,
		LengthMM:          req.LengthMM,
		WidthMM:           req.WidthMM,
		ThicknessMM:       req.ThicknessMM,
		Year:              req.Year,
		StockQuantity:     req.StockQuantity,
		LowStockThreshold: threshold,
		PurchasePrice:     req.PurchasePrice,
		SellingPrice:      req.SellingPrice,
		ImageURL:          req.ImageURL,
		IsActive:          true,
	}

	if err := s.store.CreateProduct(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("Product created",
		zap.Int64("product_id", product.ID),
		zap.String("product_code", product.ProductCode))

	s.invalidateSummaries(ctx)
	return product, nil
}

// UpdateProduct applies an update to a product's mutable fields
func (s *ProductService) UpdateProduct(ctx context.Context, productID int64, req *UpdateProductRequest) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.UpdateProduct")
	defer span.End()

	product, err := s.store.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	if req.Category != nil && *req.Category != "" && !models.ValidCategory(*req.Category) {
		return nil, fmt.Errorf("%w: invalid category '%s'", store.ErrValidation, *req.Category)
	}

	product.Name = strings.TrimSpace(req.Name)
	product.Category = req.Category
	if req.Tags != nil {
		product.Tags = encodeTags(req.Tags)
	}
	product.Description = req.Description
	product.LengthMM = req.LengthMM
	product.WidthMM = req.WidthMM
	product.ThicknessMM = req.ThicknessMM
	product.Year = req.Year
	if req.StockQuantity != nil {
		if *req.StockQuantity < 0 {
			return nil, fmt.Errorf("%w: stock quantity cannot be negative", store.ErrValidation)
		}
		product.StockQuantity = *req.StockQuantity
	}
	if req.LowStockThreshold != nil {
		product.LowStockThreshold = *req.LowStockThreshold
	}
	product.PurchasePrice = req.PurchasePrice
	product.SellingPrice = req.SellingPrice
	product.ImageURL = req.ImageURL
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := s.store.UpdateProduct(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("Product updated", zap.Int64("product_id", productID))
	s.invalidateSummaries(ctx)
	return product, nil
}

// DeleteProduct removes a product, or deactivates it when sale history
// references it so past invoices stay intact.
func (s *ProductService) DeleteProduct(ctx context.Context, productID int64) (deactivated bool, err error) {
	ctx, span := util.StartSpan(ctx, "ProductService.DeleteProduct")
	defer span.End()

	hasHistory, err := s.store.ProductHasSaleHistory(ctx, productID)
	if err != nil {
		return false, err
	}

	if hasHistory {
		if err := s.store.DeactivateProduct(ctx, productID); err != nil {
			return false, err
		}
		s.logger.Info("Product deactivated (has sale history)", zap.Int64("product_id", productID))
		s.invalidateSummaries(ctx)
		return true, nil
	}

	if err := s.store.DeleteProduct(ctx, productID); err != nil {
		return false, err
	}
	s.logger.Info("Product deleted", zap.Int64("product_id", productID))
	s.invalidateSummaries(ctx)
	return false, nil
}

// AdjustStock applies a manual correction to a product's stock
func (s *ProductService) AdjustStock(ctx context.Context, productID int64, req *AdjustStockRequest) (oldQty, newQty int, err error) {
	ctx, span := util.StartSpan(ctx, "ProductService.AdjustStock")
	defer span.End()

	oldQty, newQty, err = s.store.AdjustStockTx(ctx, productID, req.Adjustment)
	if err != nil {
		return 0, 0, err
	}

	s.logger.Info("Stock adjusted",
		zap.Int64("product_id", productID),
		zap.Int("old_quantity", oldQty),
		zap.Int("new_quantity", newQty))

	s.invalidateSummaries(ctx)
	return oldQty, newQty, nil
}

// GetProduct retrieves a product with its per-warehouse stock breakdown
func (s *ProductService) GetProduct(ctx context.Context, productID int64) (*models.Product, []store.ProductWarehouseRow, error) {
	product, err := s.store.GetProductByID(ctx, productID)
	if err != nil {
		return nil, nil, err
	}
	breakdown, err := s.store.ListProductStockByWarehouse(ctx, productID)
	if err != nil {
		return nil, nil, err
	}
	return product, breakdown, nil
}

// ListProducts retrieves products matching the filter
func (s *ProductService) ListProducts(ctx context.Context, filter store.ProductFilter) ([]models.Product, error) {
	return s.store.ListProducts(ctx, filter)
}

// ListLowStock retrieves products at or below their alert threshold, served
// from cache when fresh
func (s *ProductService) ListLowStock(ctx context.Context) ([]models.Product, error) {
	if s.redis != nil {
		var cached []models.Product
		if hit, err := s.redis.GetJSON(ctx, redisclient.KeyLowStock, &cached); err == nil && hit {
			util.CacheHitsTotal.WithLabelValues("low_stock").Inc()
			return cached, nil
		}
	}

	products, err := s.store.ListLowStockProducts(ctx)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if err := s.redis.SetJSON(ctx, redisclient.KeyLowStock, products, redisclient.DefaultTTL); err != nil {
			s.logger.Warn("Failed to cache low stock list", zap.Error(err))
		}
	}
	return products, nil
}

func (s *ProductService) invalidateSummaries(ctx context.Context) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Invalidate(ctx,
		redisclient.KeyDashboard, redisclient.KeyLowStock, redisclient.KeyFinancial); err != nil {
		s.logger.Warn("Failed to invalidate summary cache", zap.Error(err))
	}
}

// encodeTags stores tags as a JSON array string.
func encodeTags(tags []string) string {
	if tags == nil {
		tags = []string{}
	}
	raw, _ := json.Marshal(tags)
	return string(raw)
}

// DecodeTags parses the stored tag representation.
func DecodeTags(raw string) []string {
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return []string{}
	}
	return tags
}
