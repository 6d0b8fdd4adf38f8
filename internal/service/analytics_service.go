// internal/service/analytics_service.go
package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/yellow444/shelfmetrics/internal/cache"
	"github.com/yellow444/shelfmetrics/internal/domain"
	"github.com/yellow444/shelfmetrics/internal/engine"
)

// AnalyticsService fronts the engine with the result cache. Cache failures
// degrade to direct computation.
type AnalyticsService struct {
	engine *engine.Engine
	cache  cache.AnalyticsCache
}

func NewAnalyticsService(eng *engine.Engine, cacheImpl cache.AnalyticsCache) *AnalyticsService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopAnalyticsCache()
	}
	return &AnalyticsService{engine: eng, cache: cacheImpl}
}

// ItemAnalytics resolves the date pair to a window and returns the ranked rows
// for it, consulting the cache keyed on window plus snapshot version.
func (s *AnalyticsService) ItemAnalytics(ctx context.Context, startDate, finishDate string) ([]domain.ItemRow, error) {
	startTs, endTs, err := engine.Window(startDate, finishDate)
	if err != nil {
		return nil, err
	}

	version, ok := s.engine.SnapshotVersion()
	if !ok {
		return nil, domain.ErrDatasetNotReady
	}

	key := cache.QueryKey{StartTs: startTs, EndTs: endTs, SnapshotVersion: version}
	if rows, hit, err := s.cache.GetRows(ctx, key); err == nil && hit {
		return rows, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("analytics: cache get failed")
	}

	rows, computedVersion, err := s.engine.Query(ctx, startTs, endTs)
	if err != nil {
		return nil, err
	}

	// A refresh may have landed between the version probe and the query; store
	// under the version the rows were actually computed against.
	key.SnapshotVersion = computedVersion
	if err := s.cache.SetRows(ctx, key, rows); err != nil {
		log.Warn().Err(err).Msg("analytics: cache set failed")
	}

	return rows, nil
}
