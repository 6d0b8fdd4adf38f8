// internal/dataset/dataset.go
package dataset

import (
	"sync/atomic"
	"time"
)

// Dataset is one immutable columnar snapshot of the item catalog. Per-item event
// slices live in flattened arrays addressed through Offsets (CSR layout):
// item i owns EventTimes[Offsets[i]:Offsets[i+1]], sorted ascending by time.
// Nothing mutates a Dataset after Build returns it; refreshes construct a new
// one and swap the Store pointer.
type Dataset struct {
	// Version identifies the snapshot, used for cache keying. Monotonic per
	// process.
	Version int64

	// BuiltAt records when the snapshot was assembled.
	BuiltAt time.Time

	// Codes holds the item codes in index order; all parallel arrays below are
	// indexed 0..len(Codes)-1.
	Codes []string

	// Offsets has length len(Codes)+1, Offsets[0] == 0, non-decreasing;
	// Offsets[len(Codes)] equals the total event count.
	Offsets []int

	// Flattened event store, concatenated in item order.
	EventTimes  []int64
	EventBefore []float64
	EventAfter  []float64

	// Per-item scalars.
	SalesAmount  []float64
	AveragePrice []float64
	LostQuantity []float64

	// Display metadata, resolved at build time.
	Names  []string
	Groups []string
}

// Len returns the number of qualifying items in the snapshot.
func (d *Dataset) Len() int { return len(d.Codes) }

// Events returns item i's event span of the flattened arrays. The span is empty
// for items that never appeared in the stock ledger.
func (d *Dataset) Events(i int) (times []int64, before, after []float64) {
	s, e := d.Offsets[i], d.Offsets[i+1]
	return d.EventTimes[s:e], d.EventBefore[s:e], d.EventAfter[s:e]
}

// Store is the process-wide handle to the current snapshot. One writer (the
// refresher) publishes via Publish; any number of readers capture a snapshot
// with Current once per query and keep using it regardless of concurrent
// refreshes.
type Store struct {
	current atomic.Pointer[Dataset]
	version atomic.Int64
}

// NewStore returns an empty store with no published snapshot.
func NewStore() *Store { return &Store{} }

// Current returns the latest published snapshot, or nil when no refresh has
// ever completed.
func (s *Store) Current() *Dataset {
	return s.current.Load()
}

// Publish stamps the snapshot with the next version and makes it visible to
// subsequently starting queries. In-flight queries keep the snapshot they
// captured.
func (s *Store) Publish(d *Dataset) {
	d.Version = s.version.Add(1)
	s.current.Store(d)
}
