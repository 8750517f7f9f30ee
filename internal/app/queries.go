package app

import (
	"context"
	"fmt"
	"time"

	"hotelsat/internal/analytics"
	"hotelsat/internal/domain"
)

// QueryService serves analytics reads, caching per-hotel statistics.
type QueryService struct {
	store    domain.HotelStore
	engine   *analytics.Engine
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(store domain.HotelStore, engine *analytics.Engine, cache domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{store: store, engine: engine, cache: cache, cacheTTL: ttl}
}

func (s *QueryService) HotelStatistics(ctx context.Context, hotelID int64) (analytics.Statistics, error) {
	key := fmt.Sprintf("stats:%d", hotelID)
	var cached analytics.Statistics
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &cached); ok {
			return cached, nil
		}
	}
	stats, err := s.engine.HotelStatistics(ctx, hotelID)
	if err != nil {
		return analytics.Statistics{}, err
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, stats, int(s.cacheTTL.Seconds()))
	}
	return stats, nil
}

// InvalidateStatistics drops the cached statistics after a new response.
func (s *QueryService) InvalidateStatistics(ctx context.Context, hotelID int64) {
	if s.cache != nil {
		_ = s.cache.Del(ctx, fmt.Sprintf("stats:%d", hotelID))
	}
}

func (s *QueryService) ComparativeAnalysis(ctx context.Context, hotelIDs []int64) (map[string]analytics.Statistics, error) {
	return s.engine.ComparativeAnalysis(ctx, hotelIDs)
}

func (s *QueryService) TemporalAnalysis(ctx context.Context, hotelID int64, periodDays int) (analytics.TemporalAnalysis, error) {
	return s.engine.TemporalAnalysis(ctx, hotelID, periodDays)
}

func (s *QueryService) Insights(ctx context.Context, hotelID int64) ([]analytics.Insight, error) {
	return s.engine.Insights(ctx, hotelID)
}

func (s *QueryService) ListResponses(ctx context.Context, hotelID int64, pg domain.PageQuery) (domain.ResponsesPage, error) {
	return s.store.ListResponsesPage(ctx, hotelID, pg)
}
