package spike

import (
	"fmt"
	"slices"
	"sync"
)

// Bin is a BinKey with its accepted spikes in acceptance order.
type Bin struct {
	Key    BinKey
	Spikes []Candidate
}

// Accumulator collects accepted candidates per BinKey up to a fixed
// capacity. It belongs to a single run and is safe for concurrent use.
type Accumulator struct {
	mu       sync.Mutex
	capacity int
	bins     map[BinKey][]Candidate
	full     int
}

// NewAccumulator creates an accumulator holding at most capacity spikes per key.
func NewAccumulator(capacity int) *Accumulator {
	return &Accumulator{
		capacity: capacity,
		bins:     make(map[BinKey][]Candidate),
	}
}

// Accept stores c under its key unless the key is already at capacity.
func (a *Accumulator) Accept(c Candidate) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	spikes := a.bins[c.Key]
	if len(spikes) >= a.capacity {
		return false
	}

	a.bins[c.Key] = append(spikes, c)

	if len(spikes)+1 == a.capacity {
		a.full++
	}

	return true
}

// Count returns the number of spikes accepted under key.
func (a *Accumulator) Count(key BinKey) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return len(a.bins[key])
}

// Full returns the number of keys at capacity.
func (a *Accumulator) Full() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.full
}

// Snapshot returns every populated bin, sorted by key.
func (a *Accumulator) Snapshot() []Bin {
	return a.Threshold(1)
}

// Threshold returns the bins holding at least minSpike spikes, sorted by key.
func (a *Accumulator) Threshold(minSpike int) []Bin {
	a.mu.Lock()
	defer a.mu.Unlock()

	var bins []Bin

	for key, spikes := range a.bins {
		if len(spikes) >= minSpike {
			bins = append(bins, Bin{Key: key, Spikes: slices.Clone(spikes)})
		}
	}

	slices.SortFunc(bins, func(x, y Bin) int { return x.Key.Compare(y.Key) })

	return bins
}

// Filled is Threshold that fails with ErrInsufficientSpikes when no bin qualifies.
func (a *Accumulator) Filled(minSpike int) ([]Bin, error) {
	bins := a.Threshold(minSpike)
	if len(bins) == 0 {
		return nil, fmt.Errorf("%w: no bin reached %d spike(s) (capacity %d)", ErrInsufficientSpikes, minSpike, a.capacity)
	}

	return bins, nil
}
