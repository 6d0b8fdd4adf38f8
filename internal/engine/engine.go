// internal/engine/engine.go
package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/yellow444/shelfmetrics/internal/dataset"
	"github.com/yellow444/shelfmetrics/internal/domain"
	"github.com/yellow444/shelfmetrics/internal/normalize"
)

// Engine answers item-analytics queries against the current dataset snapshot.
// It captures the snapshot pointer once per query, so a concurrent refresh
// never changes results mid-computation.
type Engine struct {
	store *dataset.Store
}

func New(store *dataset.Store) *Engine {
	return &Engine{store: store}
}

// SnapshotVersion reports the version of the current snapshot, false when no
// refresh has ever published one. Used by the cache layer for key derivation.
func (e *Engine) SnapshotVersion() (int64, bool) {
	d := e.store.Current()
	if d == nil {
		return 0, false
	}
	return d.Version, true
}

// Window converts a raw (start, finish) date pair into a half-open unix-second
// window. The finish date is inclusive of its full day: the window end is 24h
// past the parsed finish instant.
func Window(startDate, finishDate string) (startTs, endTs int64, err error) {
	start, ok := normalize.ParseTimestamp(startDate)
	if !ok {
		return 0, 0, fmt.Errorf("%w: start date %q", domain.ErrInvalidDateRange, startDate)
	}
	finish, ok := normalize.ParseTimestamp(finishDate)
	if !ok {
		return 0, 0, fmt.Errorf("%w: finish date %q", domain.ErrInvalidDateRange, finishDate)
	}
	return start.Unix(), finish.Add(24 * time.Hour).Unix(), nil
}

// Query computes one ranked row per qualifying item for the window
// [startTs, endTs). Rows come back in descending-sales rank order. The second
// return value is the snapshot version the rows were computed against.
// Returns domain.ErrDatasetNotReady when no snapshot has ever been published.
func (e *Engine) Query(ctx context.Context, startTs, endTs int64) ([]domain.ItemRow, int64, error) {
	d := e.store.Current()
	if d == nil {
		return nil, 0, domain.ErrDatasetNotReady
	}

	osa := Availability(ctx, d, startTs, endTs)
	order, tiers := Rank(d.SalesAmount, d.Codes)

	rows := make([]domain.ItemRow, 0, d.Len())
	for r, i := range order {
		sales := d.SalesAmount[i]
		lossAmount := d.LostQuantity[i] * d.AveragePrice[i]
		lossPct := 0.0
		if sales > 0 {
			lossPct = lossAmount / sales * 100.0
		}

		rows = append(rows, domain.ItemRow{
			Name:         d.Names[i],
			Code:         d.Codes[i],
			Group:        d.Groups[i],
			Sales:        roundFloat(sales, 2),
			Loss:         roundFloat(lossAmount, 2),
			LossOfProfit: roundFloat(lossPct, 3),
			OSA:          roundFloat(osa[i], 2),
			ABC:          string(tiers[r]),
		})
	}

	return rows, d.Version, nil
}

// roundFloat rounds v to the given number of decimal places. Rounding happens
// only here at the output edge, never during accumulation.
func roundFloat(v float64, decimals int) float64 {
	if decimals <= 0 {
		return math.Round(v)
	}
	factor := math.Pow(10, float64(decimals))
	return math.Round(v*factor) / factor
}
