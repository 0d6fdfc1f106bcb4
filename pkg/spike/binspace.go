package spike

import (
	"fmt"
	"math"
)

// maxBins bounds the number of bins in one dimension.
const maxBins = 1 << 20

// BinSpace is an ordered sequence of half-open bins [low, low+width) with
// open-ended first and last bins.
type BinSpace struct {
	min   float64
	width float64
	n     int
}

// NewBinSpace builds the bins min, min+width, ... strictly below max.
func NewBinSpace(r Range) (*BinSpace, error) {
	if err := validateRange("bin", r); err != nil {
		return nil, err
	}

	n := math.Ceil((r.Max - r.Min) / r.Width)
	if n < 1 {
		return nil, fmt.Errorf("%w: range %s yields no bins", ErrConfiguration, r)
	}

	if n > maxBins {
		return nil, fmt.Errorf("%w: range %s yields more than %d bins", ErrConfiguration, r, maxBins)
	}

	return &BinSpace{min: r.Min, width: r.Width, n: int(n)}, nil
}

// Len returns the number of bins.
func (b *BinSpace) Len() int {
	return b.n
}

// Low returns the lower edge of bin i.
func (b *BinSpace) Low(i int) float64 {
	return b.min + float64(i)*b.width
}

// Width returns the bin width.
func (b *BinSpace) Width() float64 {
	return b.width
}

// Classify returns the index of the bin containing v. Values below the first
// bin land in bin 0, values at or above the last low edge land in the last
// bin, and NaN lands in bin 0. It never fails.
func (b *BinSpace) Classify(v float64) int {
	if math.IsNaN(v) {
		return 0
	}

	f := math.Floor((v - b.min) / b.width)

	switch {
	case f < 0:
		return 0
	case f >= float64(b.n-1):
		return b.n - 1
	default:
		return int(f)
	}
}

// Spaces groups the bin spaces of one run. Size is nil in row mode.
type Spaces struct {
	Initial *BinSpace
	Change  *BinSpace
	Size    *BinSpace
}

// NewSpaces builds the bin spaces for opts.
func NewSpaces(opts Options) (Spaces, error) {
	initial, err := NewBinSpace(opts.Initial)
	if err != nil {
		return Spaces{}, fmt.Errorf("initial bins: %w", err)
	}

	change, err := NewBinSpace(opts.Change)
	if err != nil {
		return Spaces{}, fmt.Errorf("change bins: %w", err)
	}

	spaces := Spaces{Initial: initial, Change: change}

	if opts.Mode == ModeCluster {
		size, sizeErr := NewBinSpace(opts.Subcluster.Range())
		if sizeErr != nil {
			return Spaces{}, fmt.Errorf("subcluster bins: %w", sizeErr)
		}

		spaces.Size = size
	}

	return spaces, nil
}

// Cells returns the total number of bin keys.
func (s Spaces) Cells() int {
	cells := s.Initial.Len() * s.Change.Len()
	if s.Size != nil {
		cells *= s.Size.Len()
	}

	return cells
}

// Key classifies an (initial, change) pair and, when a size space is set, a subcluster size.
func (s Spaces) Key(initial, change float64, size int) BinKey {
	key := BinKey{
		Initial: s.Initial.Classify(initial),
		Change:  s.Change.Classify(change),
	}

	if s.Size != nil {
		key.Size = s.Size.Classify(float64(size))
	}

	return key
}
