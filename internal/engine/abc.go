// internal/engine/abc.go
package engine

import "sort"

// ABC tier letters assigned from cumulative sales share in rank order:
// A up to 80%, B up to 95%, C beyond.
const (
	tierABoundary = 80.0
	tierBBoundary = 95.0
)

// Rank sorts item indices by sales descending and assigns each rank position an
// ABC tier from the running cumulative share of total sales. Equal sales break
// ties by item code ascending so the order is reproducible across runs; the
// sort key is explicit rather than relying on sort stability.
//
// order[r] is the dataset index of the item at rank r; tiers[r] is that rank's
// tier letter. A zero sales total (defensive; the builder filters such items)
// yields share 0 and tier A for every rank.
func Rank(sales []float64, codes []string) (order []int, tiers []byte) {
	n := len(sales)
	order = make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		i, j := order[a], order[b]
		if sales[i] != sales[j] {
			return sales[i] > sales[j]
		}
		return codes[i] < codes[j]
	})

	total := 0.0
	for _, v := range sales {
		total += v
	}

	tiers = make([]byte, n)
	cumulative := 0.0
	for r, i := range order {
		cumulative += sales[i]
		share := 0.0
		if total > 0 {
			share = cumulative / total * 100.0
		}
		switch {
		case share <= tierABoundary:
			tiers[r] = 'A'
		case share <= tierBBoundary:
			tiers[r] = 'B'
		default:
			tiers[r] = 'C'
		}
	}

	return order, tiers
}
