// internal/refresh/refresher.go
package refresh

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/yellow444/shelfmetrics/internal/cache"
	"github.com/yellow444/shelfmetrics/internal/dataset"
	"github.com/yellow444/shelfmetrics/internal/normalize"
	"github.com/yellow444/shelfmetrics/internal/source"
)

// Refresher rebuilds the dataset snapshot from the configured source and
// publishes it. The engine is read-mostly: the whole snapshot is rebuilt on
// every refresh, never patched.
type Refresher struct {
	src   source.Source
	store *dataset.Store
	cache cache.AnalyticsCache
}

func New(src source.Source, store *dataset.Store, cacheImpl cache.AnalyticsCache) *Refresher {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopAnalyticsCache()
	}
	return &Refresher{src: src, store: store, cache: cacheImpl}
}

// Refresh fetches both dumps, normalizes, builds and publishes a new snapshot.
// A fetch failure leaves the previous snapshot (or none) in place.
func (r *Refresher) Refresh(ctx context.Context) error {
	started := time.Now()

	stock, err := r.src.FetchStock(ctx)
	if err != nil {
		return fmt.Errorf("refresh: fetch stock dump: %w", err)
	}
	sales, err := r.src.FetchSales(ctx)
	if err != nil {
		return fmt.Errorf("refresh: fetch sales dump: %w", err)
	}

	agg := normalize.Normalize(stock, sales)
	d := dataset.Build(agg)
	r.store.Publish(d)

	if err := r.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("refresh: cache invalidation failed")
	}

	log.Info().
		Int("stock_records", len(stock)).
		Int("sales_records", len(sales)).
		Int("items", d.Len()).
		Int("events", d.Offsets[d.Len()]).
		Int64("version", d.Version).
		Dur("took", time.Since(started)).
		Msg("dataset snapshot published")

	return nil
}

// Run blocks, re-polling the source at the given interval until the context is
// cancelled. Poll failures keep the previous snapshot and are logged.
func (r *Refresher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Refresh(ctx); err != nil {
				log.Error().Err(err).Msg("periodic refresh failed")
			}
		}
	}
}
