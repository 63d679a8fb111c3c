package service

import (
	"context"
	"time"

	"backoffice-service/internal/models"
	"backoffice-service/internal/redisclient"
	"backoffice-service/internal/store"
	"backoffice-service/internal/util"

	"go.uber.org/zap"
)

// DashboardService serves the summary views: headline counters, monthly
// financials, top products and the activity timeline. Summaries are cached in
// Redis and invalidated by the mutating services.
type DashboardService struct {
	store  *store.Store
	redis  *redisclient.Client
	logger *zap.Logger
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(st *store.Store, redis *redisclient.Client) *DashboardService {
	return &DashboardService{store: st, redis: redis, logger: util.GetLogger()}
}

// GetSummary retrieves the dashboard counters, served from cache when fresh
func (s *DashboardService) GetSummary(ctx context.Context) (*store.DashboardSummary, error) {
	if s.redis != nil {
		var cached store.DashboardSummary
		if hit, err := s.redis.GetJSON(ctx, redisclient.KeyDashboard, &cached); err == nil && hit {
			util.CacheHitsTotal.WithLabelValues("dashboard").Inc()
			return &cached, nil
		}
	}

	summary, err := s.store.GetDashboardSummary(ctx, time.Now())
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if err := s.redis.SetJSON(ctx, redisclient.KeyDashboard, summary, redisclient.DefaultTTL); err != nil {
			s.logger.Warn("Failed to cache dashboard summary", zap.Error(err))
		}
	}
	return summary, nil
}

// GetMonthlyFinancials retrieves monthly revenue/expense/profit rows, served
// from cache when fresh
func (s *DashboardService) GetMonthlyFinancials(ctx context.Context, months int) ([]store.MonthlyFinancialRow, error) {
	if s.redis != nil {
		var cached []store.MonthlyFinancialRow
		if hit, err := s.redis.GetJSON(ctx, redisclient.KeyFinancial, &cached); err == nil && hit {
			util.CacheHitsTotal.WithLabelValues("financials").Inc()
			return cached, nil
		}
	}

	rows, err := s.store.GetMonthlyFinancials(ctx, months)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if err := s.redis.SetJSON(ctx, redisclient.KeyFinancial, rows, redisclient.DefaultTTL); err != nil {
			s.logger.Warn("Failed to cache monthly financials", zap.Error(err))
		}
	}
	return rows, nil
}

// GetTopProducts ranks products by quantity sold over a period
func (s *DashboardService) GetTopProducts(ctx context.Context, start, end time.Time, limit int) ([]store.TopProductRow, error) {
	return s.store.GetTopProducts(ctx, start, end, limit)
}

// GetTimeline retrieves the most recent activity feed entries
func (s *DashboardService) GetTimeline(ctx context.Context, limit int) ([]models.TimelineEvent, error) {
	return s.store.ListTimelineEvents(ctx, limit)
}
