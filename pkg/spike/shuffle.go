package spike

import (
	"context"
	"math/rand/v2"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tbrown91/cgat/pkg/table"
)

// IterationStats counts the outcome of every candidate evaluation.
type IterationStats struct {
	// Evaluated is the number of rows or subclusters examined.
	Evaluated int
	// Accepted candidates were stored by the accumulator.
	Accepted int
	// Rejected candidates hit a bin already at capacity.
	Rejected int
	// Skipped draws had an undefined statistic or non-numeric values.
	Skipped int
}

// Add accumulates o into s.
func (s *IterationStats) Add(o IterationStats) {
	s.Evaluated += o.Evaluated
	s.Accepted += o.Accepted
	s.Rejected += o.Rejected
	s.Skipped += o.Skipped
}

// RowShuffler draws single-row candidates. Values holds the pooled shuffle
// columns, first group then second.
type RowShuffler struct {
	Values    *table.Matrix
	FirstSize int
	Method    DifferenceMethod
	Spaces    Spaces
}

// RowPlan is the state of one row-mode iteration. Rows keep their own
// values, so Permutation is always the identity; only Order is random.
type RowPlan struct {
	Permutation []int
	Order       []int
}

// Plan draws the visit order for one iteration.
func (s *RowShuffler) Plan(rng *rand.Rand) RowPlan {
	perm := make([]int, len(s.Values.Columns))
	for i := range perm {
		perm[i] = i
	}

	return RowPlan{
		Permutation: perm,
		Order:       rng.Perm(s.Values.Rows()),
	}
}

// Candidate evaluates row with its columns assigned by perm.
func (s *RowShuffler) Candidate(row int, perm []int) (Candidate, bool) {
	rows := []int{row}

	mean1, mean2, ok := slotMeans(s.Values, rows, perm, s.FirstSize)
	if !ok {
		return Candidate{}, false
	}

	change, ok := s.Method.Change(mean1, mean2)
	if !ok {
		return Candidate{}, false
	}

	return Candidate{
		Rows:        rows,
		Permutation: perm,
		Initial:     mean1,
		Change:      change,
		Key:         s.Spaces.Key(mean1, change, len(rows)),
	}, true
}

// Iterate runs one row-mode iteration into acc.
func (s *RowShuffler) Iterate(ctx context.Context, rng *rand.Rand, acc *Accumulator, workers int) (IterationStats, error) {
	plan := s.Plan(rng)

	return evaluate(ctx, workers, plan.Order, acc, func(row int) (Candidate, bool) {
		return s.Candidate(row, plan.Permutation)
	})
}

// ClusterShuffler draws subcluster candidates from precomputed clusters.
type ClusterShuffler struct {
	Values    *table.Matrix
	FirstSize int
	Method    DifferenceMethod
	Spaces    Spaces
	Clusters  []Cluster
	Sizes     []int
}

// ClusterDraw is the random state of one subcluster draw.
type ClusterDraw struct {
	Cluster     int
	Start       int
	Size        int
	Permutation []int
}

// Plan draws one subcluster per cluster, visiting clusters in random order.
// The size is uniform over the configured sizes that fit the cluster and
// the start is uniform over the valid offsets for that size.
func (s *ClusterShuffler) Plan(rng *rand.Rand) []ClusterDraw {
	draws := make([]ClusterDraw, 0, len(s.Clusters))

	for _, ci := range rng.Perm(len(s.Clusters)) {
		n := s.Clusters[ci].Len()

		sizes := s.Sizes
		if last := slices.IndexFunc(sizes, func(size int) bool { return size > n }); last >= 0 {
			sizes = sizes[:last]
		}

		if len(sizes) == 0 {
			continue
		}

		size := sizes[rng.IntN(len(sizes))]

		draws = append(draws, ClusterDraw{
			Cluster:     ci,
			Size:        size,
			Start:       rng.IntN(n - size + 1),
			Permutation: rng.Perm(len(s.Values.Columns)),
		})
	}

	return draws
}

// Candidate evaluates the block described by d on the aggregate group means.
func (s *ClusterShuffler) Candidate(d ClusterDraw) (Candidate, bool) {
	rows := slices.Clone(s.Clusters[d.Cluster].Rows[d.Start : d.Start+d.Size])

	mean1, mean2, ok := slotMeans(s.Values, rows, d.Permutation, s.FirstSize)
	if !ok {
		return Candidate{}, false
	}

	change, ok := s.Method.Change(mean1, mean2)
	if !ok {
		return Candidate{}, false
	}

	return Candidate{
		Rows:        rows,
		Permutation: d.Permutation,
		Initial:     mean1,
		Change:      change,
		Key:         s.Spaces.Key(mean1, change, d.Size),
	}, true
}

// Iterate runs one cluster-mode iteration into acc.
func (s *ClusterShuffler) Iterate(ctx context.Context, rng *rand.Rand, acc *Accumulator, workers int) (IterationStats, error) {
	return evaluate(ctx, workers, s.Plan(rng), acc, s.Candidate)
}

// evaluate turns every item into a candidate and offers it to acc. With more
// than one worker the items are split into contiguous chunks; acceptance
// order across chunks is then unspecified.
func evaluate[T any](
	ctx context.Context, workers int, items []T, acc *Accumulator, draw func(T) (Candidate, bool),
) (IterationStats, error) {
	run := func(chunk []T) IterationStats {
		var st IterationStats

		for _, item := range chunk {
			st.Evaluated++

			c, ok := draw(item)

			switch {
			case !ok:
				st.Skipped++
			case acc.Accept(c):
				st.Accepted++
			default:
				st.Rejected++
			}
		}

		return st
	}

	if workers <= 1 || len(items) < workers {
		return run(items), nil
	}

	var (
		mu    sync.Mutex
		total IterationStats
	)

	group, groupCtx := errgroup.WithContext(ctx)
	chunkSize := (len(items) + workers - 1) / workers

	for chunk := range slices.Chunk(items, chunkSize) {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			st := run(chunk)

			mu.Lock()
			total.Add(st)
			mu.Unlock()

			return nil
		})
	}

	err := group.Wait()

	return total, err
}
