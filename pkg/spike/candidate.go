package spike

import (
	"cmp"
	"fmt"
	"math"
	"strings"

	"github.com/tbrown91/cgat/pkg/alg/stats"
	"github.com/tbrown91/cgat/pkg/table"
)

// DifferenceMethod selects the change statistic between the two groups.
type DifferenceMethod string

// Difference methods.
const (
	// DifferenceLogFold is log2(group2 mean / group1 mean).
	DifferenceLogFold DifferenceMethod = "logfold"
	// DifferenceRelative is group2 mean - group1 mean.
	DifferenceRelative DifferenceMethod = "relative"
)

// ParseDifferenceMethod parses a difference method name.
func ParseDifferenceMethod(s string) (DifferenceMethod, error) {
	switch DifferenceMethod(strings.ToLower(strings.TrimSpace(s))) {
	case DifferenceLogFold:
		return DifferenceLogFold, nil
	case DifferenceRelative:
		return DifferenceRelative, nil
	default:
		return "", fmt.Errorf("%w: unknown difference method %q (want logfold or relative)", ErrConfiguration, s)
	}
}

// Change returns the change from mean1 to mean2. ok is false when the
// statistic is undefined: a non-positive mean under logfold, or a
// non-finite mean under either method.
func (m DifferenceMethod) Change(mean1, mean2 float64) (change float64, ok bool) {
	if !finite(mean1) || !finite(mean2) {
		return 0, false
	}

	switch m {
	case DifferenceLogFold:
		v, err := stats.Log2Ratio(mean2, mean1)
		if err != nil {
			return 0, false
		}

		return v, true
	case DifferenceRelative:
		return mean2 - mean1, true
	default:
		return 0, false
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// BinKey addresses one accumulator cell. Size is always 0 in row mode.
type BinKey struct {
	Initial int
	Change  int
	Size    int
}

// Compare orders keys by initial, change, then size bin.
func (k BinKey) Compare(o BinKey) int {
	if c := cmp.Compare(k.Initial, o.Initial); c != 0 {
		return c
	}

	if c := cmp.Compare(k.Change, o.Change); c != 0 {
		return c
	}

	return cmp.Compare(k.Size, o.Size)
}

// String renders the key as initial/change/size.
func (k BinKey) String() string {
	return fmt.Sprintf("%d/%d/%d", k.Initial, k.Change, k.Size)
}

// Candidate is one draw: the source rows and the column reassignment that
// produced it. Permutation[j] is the pooled track whose values fill slot j;
// slots below the group-1 size belong to group 1.
type Candidate struct {
	Rows        []int
	Permutation []int
	Initial     float64
	Change      float64
	Key         BinKey
}

// slotMeans returns the group means of a block of rows after reassignment.
// ok is false when any row of the block is invalid.
func slotMeans(values *table.Matrix, rows, perm []int, n1 int) (mean1, mean2 float64, ok bool) {
	var sum1, sum2 float64

	for _, r := range rows {
		if !values.Valid[r] {
			return 0, 0, false
		}

		row := values.Row(r)

		for slot, src := range perm {
			if slot < n1 {
				sum1 += row[src]
			} else {
				sum2 += row[src]
			}
		}
	}

	n2 := len(perm) - n1
	count := float64(len(rows))

	return sum1 / (count * float64(n1)), sum2 / (count * float64(n2)), true
}
