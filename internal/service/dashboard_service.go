package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/osworks/servicedesk-api/internal/workflow"
	appErrors "github.com/osworks/servicedesk-api/pkg/errors"
)

const (
	dashboardCacheKey     = "dashboard:summary"
	dashboardCachePattern = "dashboard:*"
)

// DashboardService computes the console's landing aggregates by
// replaying the full order set against the registry.
type DashboardService struct {
	orders   orderRepository
	statuses registryProvider
	cache    *CacheService
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(orders orderRepository, statuses registryProvider, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{orders: orders, statuses: statuses, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// Summary returns the dashboard aggregate, served from cache when warm.
func (s *DashboardService) Summary(ctx context.Context) (*workflow.Summary, error) {
	var cached workflow.Summary
	if hit, err := s.cache.Get(ctx, dashboardCacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load orders")
	}

	reg, err := s.statuses.Registry(ctx)
	if err != nil {
		return nil, err
	}

	summary := workflow.Summarize(orders, reg)

	if err := s.cache.Set(ctx, dashboardCacheKey, summary, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache dashboard summary", zap.Error(err))
	}

	return &summary, nil
}

// Invalidate clears the cached aggregate. Order writes call this so the
// dashboard never serves a summary older than its TTL after a change.
func (s *DashboardService) Invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, dashboardCachePattern); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}
