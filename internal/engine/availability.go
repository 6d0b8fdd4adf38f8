// internal/engine/availability.go
package engine

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/yellow444/shelfmetrics/internal/dataset"
)

// availabilityOne computes the percentage of the half-open window
// [startTs, endTs) during which one item's balance was positive, given its
// time-sorted event span. Balance is piecewise-constant: the first event's
// "before" value governs time preceding it, each event's "after" value governs
// time until the next event. Every segment is clipped to the window, so events
// outside it need no separate filter pass.
func availabilityOne(times []int64, before, after []float64, startTs, endTs int64) float64 {
	totalHours := float64(endTs-startTs) / 3600.0
	if totalHours <= 0 {
		return 0
	}

	m := len(times)
	if m == 0 {
		return 0
	}

	availHours := 0.0

	// Before the first event.
	segStart := startTs
	segEnd := times[0]
	if segEnd > endTs {
		segEnd = endTs
	}
	if segEnd > segStart && before[0] > 0 {
		availHours += float64(segEnd-segStart) / 3600.0
	}

	// Between consecutive events. Later events cannot affect the window once
	// one lands at or past its end.
	for j := 1; j < m; j++ {
		s := times[j-1]
		e := times[j]
		if s < startTs {
			s = startTs
		}
		if e > endTs {
			e = endTs
		}
		if e > s && after[j-1] > 0 {
			availHours += float64(e-s) / 3600.0
		}
		if times[j] >= endTs {
			break
		}
	}

	// After the last event.
	segStart = times[m-1]
	if segStart < startTs {
		segStart = startTs
	}
	if endTs > segStart && after[m-1] > 0 {
		availHours += float64(endTs-segStart) / 3600.0
	}

	return 100.0 * availHours / totalHours
}

// Availability computes availability percentages for every item in the
// snapshot. Items are independent, so the work fans out across chunks of the
// index range; each worker writes only its own disjoint slice of the result.
func Availability(ctx context.Context, d *dataset.Dataset, startTs, endTs int64) []float64 {
	n := d.Len()
	out := make([]float64, n)
	if n == 0 {
		return out
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers

	g, _ := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		if lo >= hi {
			break
		}
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				times, before, after := d.Events(i)
				out[i] = availabilityOne(times, before, after, startTs, endTs)
			}
			return nil
		})
	}
	_ = g.Wait()

	return out
}
