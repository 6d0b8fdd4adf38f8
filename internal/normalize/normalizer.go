// internal/normalize/normalizer.go
package normalize

import (
	"sort"
	"strings"
	"time"

	"github.com/yellow444/shelfmetrics/internal/domain"
)

// timeLayouts are the accepted period/date notations of the ledger and of query
// parameters, tried in order. First parse wins.
var timeLayouts = []string{
	"02.01.2006 15:04:05",
	"02.01.2006 15:04",
	"02.01.2006",
}

// ParseTimestamp parses a ledger period or query date string against the
// accepted layouts. Returns false when none match.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Event is a single recorded balance transition for one item.
type Event struct {
	Time   int64 // unix seconds
	Before float64
	After  float64
}

// Result holds the per-item accumulations produced from one pair of raw dumps.
// It is a pure function of its inputs and carries everything the dataset
// builder needs: time-ordered events, loss and sales accumulators, and
// name/group hints.
type Result struct {
	EventsByCode      map[string][]Event
	LossQtyByCode     map[string]float64
	SalesAmountByCode map[string]float64
	SalesQtyByCode    map[string]float64
	StockNameByCode   map[string]string
	SalesNameByCode   map[string]string
	GroupByCode       map[string]string

	// SalesCodeOrder is the first-appearance order of item codes in the sales
	// feed. It fixes the item index order of the built dataset so that
	// rebuilding from identical input yields an identical snapshot.
	SalesCodeOrder []string
}

// Normalize turns the raw stock and sales dumps into per-item aggregates.
// Records with empty item codes are dropped. A stock row whose period parses
// under no accepted layout contributes no event, but its spoilage tally (if
// tagged) still counts. Numeric fields have already been defaulted to 0 by the
// decoding layer.
func Normalize(stock []domain.StockRecord, sales []domain.SalesRecord) *Result {
	r := &Result{
		EventsByCode:      make(map[string][]Event),
		LossQtyByCode:     make(map[string]float64),
		SalesAmountByCode: make(map[string]float64),
		SalesQtyByCode:    make(map[string]float64),
		StockNameByCode:   make(map[string]string),
		SalesNameByCode:   make(map[string]string),
		GroupByCode:       make(map[string]string),
	}

	for _, rec := range stock {
		code := strings.TrimSpace(rec.ItemCode)
		if code == "" {
			continue
		}

		if rec.ItemName != "" {
			r.StockNameByCode[code] = rec.ItemName
		}
		if rec.ParentGroup != "" {
			r.GroupByCode[code] = rec.ParentGroup
		}

		if t, ok := ParseTimestamp(rec.Period); ok {
			r.EventsByCode[code] = append(r.EventsByCode[code], Event{
				Time:   t.Unix(),
				Before: float64(rec.OpeningBalance),
				After:  float64(rec.ClosingBalance),
			})
		}

		if rec.ExpenseCategory == domain.SpoilageExpenseCategory {
			// Only positive differences are spoilage; negative means restocking.
			if diff := float64(rec.OpeningBalance) - float64(rec.ClosingBalance); diff > 0 {
				r.LossQtyByCode[code] += diff
			}
		}
	}

	for _, rec := range sales {
		code := strings.TrimSpace(rec.ItemCode)
		if code == "" {
			continue
		}
		if _, seen := r.SalesAmountByCode[code]; !seen {
			r.SalesCodeOrder = append(r.SalesCodeOrder, code)
		}
		if rec.ItemName != "" {
			r.SalesNameByCode[code] = rec.ItemName
		}
		r.SalesAmountByCode[code] += float64(rec.Amount)
		r.SalesQtyByCode[code] += float64(rec.Quantity)
	}

	// Sort each item's events ascending by time. Equal timestamps keep input
	// order; no dedup.
	for code, evs := range r.EventsByCode {
		sort.SliceStable(evs, func(i, j int) bool { return evs[i].Time < evs[j].Time })
		r.EventsByCode[code] = evs
	}

	return r
}

// DisplayName resolves an item's name: sales-feed name, then stock-feed name,
// then the bare code.
func (r *Result) DisplayName(code string) string {
	if name := r.SalesNameByCode[code]; name != "" {
		return name
	}
	if name := r.StockNameByCode[code]; name != "" {
		return name
	}
	return code
}

// Group resolves an item's parent category, falling back to the ungrouped label.
func (r *Result) Group(code string) string {
	if g := r.GroupByCode[code]; g != "" {
		return g
	}
	return domain.UngroupedLabel
}

// AveragePrice is sales amount over sales quantity, 0 when no quantity was sold.
func (r *Result) AveragePrice(code string) float64 {
	qty := r.SalesQtyByCode[code]
	if qty <= 0 {
		return 0
	}
	return r.SalesAmountByCode[code] / qty
}
