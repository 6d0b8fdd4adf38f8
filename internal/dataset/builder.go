// internal/dataset/builder.go
package dataset

import (
	"time"

	"github.com/yellow444/shelfmetrics/internal/normalize"
)

// Build compacts normalized per-item aggregates into one immutable Dataset.
//
// The item set is every code with positive total sales, in first-appearance
// order of the sales feed — stable across rebuilds of identical input. Events
// arrive already time-sorted from the normalizer and are copied into the next
// free span of the flattened arrays. An item absent from the stock ledger gets
// an empty span (Offsets[i] == Offsets[i+1]); the availability calculator
// treats that as 0%, not an error.
func Build(agg *normalize.Result) *Dataset {
	codes := make([]string, 0, len(agg.SalesCodeOrder))
	totalEvents := 0
	for _, code := range agg.SalesCodeOrder {
		if agg.SalesAmountByCode[code] <= 0 {
			continue
		}
		codes = append(codes, code)
		totalEvents += len(agg.EventsByCode[code])
	}

	n := len(codes)
	d := &Dataset{
		BuiltAt:      time.Now(),
		Codes:        codes,
		Offsets:      make([]int, n+1),
		EventTimes:   make([]int64, totalEvents),
		EventBefore:  make([]float64, totalEvents),
		EventAfter:   make([]float64, totalEvents),
		SalesAmount:  make([]float64, n),
		AveragePrice: make([]float64, n),
		LostQuantity: make([]float64, n),
		Names:        make([]string, n),
		Groups:       make([]string, n),
	}

	cur := 0
	for i, code := range codes {
		d.Offsets[i] = cur
		for _, ev := range agg.EventsByCode[code] {
			d.EventTimes[cur] = ev.Time
			d.EventBefore[cur] = ev.Before
			d.EventAfter[cur] = ev.After
			cur++
		}

		d.SalesAmount[i] = agg.SalesAmountByCode[code]
		d.AveragePrice[i] = agg.AveragePrice(code)
		d.LostQuantity[i] = agg.LossQtyByCode[code]
		d.Names[i] = agg.DisplayName(code)
		d.Groups[i] = agg.Group(code)
	}
	d.Offsets[n] = cur

	return d
}
