// Package stats provides the small set of numerical helpers used by the
// count-table operations: means, order statistics and ratio transforms.
package stats

import (
	"cmp"
	"errors"
	"math"
	"slices"
)

// ErrUndefinedRatio is returned when a log ratio is requested for a
// non-positive numerator or denominator.
var ErrUndefinedRatio = errors.New("log ratio undefined for non-positive operands")

// Mean returns the arithmetic mean of values.
// Returns 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	return Sum(values) / float64(len(values))
}

// GeometricMean returns the geometric mean of values, computed in log space.
// ok is false when the slice is empty or any value is not strictly positive.
func GeometricMean(values []float64) (gm float64, ok bool) {
	if len(values) == 0 {
		return 0, false
	}

	var logSum float64

	for _, v := range values {
		if v <= 0 || math.IsNaN(v) {
			return 0, false
		}

		logSum += math.Log(v)
	}

	return math.Exp(logSum / float64(len(values))), true
}

// Log2Ratio returns log2(num/den).
func Log2Ratio(num, den float64) (float64, error) {
	if num <= 0 || den <= 0 {
		return 0, ErrUndefinedRatio
	}

	return math.Log2(num / den), nil
}

// Well-known percentile thresholds.
const (
	PercentileMedian = 0.5
)

// Percentile returns the p-th percentile of values using linear interpolation.
// p must be in [0, 1]. The input slice is not modified (a copy is sorted internally).
// Returns 0 for an empty slice.
func Percentile(values []float64, p float64) float64 {
	count := len(values)
	if count == 0 {
		return 0
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	idx := Clamp(p, 0, 1) * float64(count-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))

	if lower == upper || upper >= count {
		return sorted[lower]
	}

	frac := idx - float64(lower)

	return sorted[lower]*(1-frac) + sorted[upper]*frac
}

// Median returns the 50th percentile of values.
// Returns 0 for an empty slice.
func Median(values []float64) float64 {
	return Percentile(values, PercentileMedian)
}

// Clamp restricts val to the range [lo, hi].
func Clamp[T cmp.Ordered](val, lo, hi T) T {
	return max(lo, min(val, hi))
}

// Max returns the largest element in values.
// Returns the zero value of T for an empty slice.
func Max[T cmp.Ordered](values []T) T {
	if len(values) == 0 {
		var zero T

		return zero
	}

	return slices.Max(values)
}

// Sum returns the sum of all elements in values.
// Returns the zero value of T for an empty slice.
func Sum[T cmp.Ordered](values []T) T {
	var result T

	for _, v := range values {
		result += v
	}

	return result
}
