package spike_test

import (
	"context"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbrown91/cgat/pkg/spike"
	"github.com/tbrown91/cgat/pkg/table"
)

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func rowOptions() spike.Options {
	opts := spike.DefaultOptions()
	opts.MaxSpike = 5
	opts.Iterations = 10

	return opts
}

func generate(t *testing.T, opts spike.Options, tbl *table.Table, seed uint64) (*spike.Result, error) {
	t.Helper()

	g, err := spike.NewGenerator(opts, seeded(seed))
	require.NoError(t, err)

	return g.Generate(context.Background(), tbl, twoGroups(t, tbl))
}

func TestGenerate_SingleCellFillsAndStops(t *testing.T) {
	t.Parallel()

	tbl := buildTable(t, uniformLoci(100, 10, 20))

	res, err := generate(t, rowOptions(), tbl, 1)
	require.NoError(t, err)

	require.Len(t, res.Bins, 1)
	assert.Equal(t, spike.BinKey{}, res.Bins[0].Key)
	assert.Len(t, res.Bins[0].Spikes, 5)

	// The only cell fills during the first iteration.
	assert.Equal(t, 1, res.Stats.Iterations)
	assert.Equal(t, 100, res.Stats.Evaluated)
	assert.Equal(t, 5, res.Stats.Accepted)
	assert.Equal(t, 95, res.Stats.Rejected)
	assert.Equal(t, 1, res.Stats.FullBins)

	for _, c := range res.Bins[0].Spikes {
		assert.Len(t, c.Rows, 1)
		assert.Equal(t, identity(6), c.Permutation)
	}
}

func TestGenerate_ZeroMeansInsufficient(t *testing.T) {
	t.Parallel()

	tbl := buildTable(t, uniformLoci(100, 0, 0))

	_, err := generate(t, rowOptions(), tbl, 1)
	require.ErrorIs(t, err, spike.ErrInsufficientSpikes)
}

func TestGenerate_ZeroFirstGroupIsInsufficient(t *testing.T) {
	t.Parallel()

	tbl := buildTable(t, uniformLoci(100, 0, 20))

	_, err := generate(t, rowOptions(), tbl, 1)
	require.ErrorIs(t, err, spike.ErrInsufficientSpikes)
}

func TestGenerate_RowModeKeepsRowValues(t *testing.T) {
	t.Parallel()

	opts := rowOptions()
	opts.Initial = spike.Range{Min: 0, Max: 40, Width: 5}
	opts.Change = spike.Range{Min: -3, Max: 3, Width: 0.5}
	opts.MaxSpike = 3
	opts.Iterations = 4

	tbl := buildTable(t, uniformLoci(50, 10, 20))

	res, err := generate(t, opts, tbl, 9)
	require.NoError(t, err)
	require.Len(t, res.Bins, 1)

	for _, c := range res.Bins[0].Spikes {
		assert.InDelta(t, 10, c.Initial, 1e-12)
		assert.InDelta(t, 1, c.Change, 1e-12)
		assert.Equal(t, identity(6), c.Permutation)
	}
}

func TestGenerate_RelativeAcceptsZeros(t *testing.T) {
	t.Parallel()

	opts := rowOptions()
	opts.Difference = spike.DifferenceRelative
	opts.Change = spike.Range{Min: -10, Max: 10, Width: 1}

	res, err := generate(t, opts, buildTable(t, uniformLoci(20, 0, 0)), 3)
	require.NoError(t, err)

	require.Len(t, res.Bins, 1)
	assert.Equal(t, spike.BinKey{Initial: 0, Change: 10}, res.Bins[0].Key)
}

func TestNewGenerator_RejectsAppendWithoutIDColumns(t *testing.T) {
	t.Parallel()

	for _, mode := range []spike.Mode{spike.ModeRow, spike.ModeCluster} {
		opts := spike.DefaultOptions()
		opts.Mode = mode
		opts.Output = spike.OutputAppend

		_, err := spike.NewGenerator(opts, seeded(1))
		require.ErrorIs(t, err, spike.ErrConfiguration, "mode %s", mode)
	}

	_, err := spike.NewGenerator(spike.DefaultOptions(), nil)
	require.ErrorIs(t, err, spike.ErrConfiguration)
}

func variedLoci(n int) []locus {
	loci := make([]locus, n)
	for i := range loci {
		loci[i] = locus{contig: "chr1", position: (i + 1) * 10, a: float64(i%17 + 1), b: float64(i%5+1) * 3}
	}

	return loci
}

func variedOptions() spike.Options {
	opts := spike.DefaultOptions()
	opts.Initial = spike.Range{Min: 0, Max: 20, Width: 2}
	opts.Change = spike.Range{Min: -3, Max: 3, Width: 0.5}
	opts.MaxSpike = 4
	opts.MinSpike = 1
	opts.Iterations = 5

	return opts
}

func TestGenerate_SeedIsDeterministic(t *testing.T) {
	t.Parallel()

	tbl := buildTable(t, variedLoci(200))

	first, err := generate(t, variedOptions(), tbl, 42)
	require.NoError(t, err)

	second, err := generate(t, variedOptions(), tbl, 42)
	require.NoError(t, err)

	assert.Equal(t, first.Bins, second.Bins)
	assert.Equal(t, first.Stats.Accepted, second.Stats.Accepted)
}

func TestGenerate_BinInvariants(t *testing.T) {
	t.Parallel()

	for _, workers := range []int{1, 4} {
		opts := variedOptions()
		opts.Workers = workers
		opts.MinSpike = 2

		res, err := generate(t, opts, buildTable(t, variedLoci(300)), 7)
		require.NoError(t, err, "workers %d", workers)

		populated := 0
		for _, bin := range res.Populated {
			populated += len(bin.Spikes)
			assert.LessOrEqual(t, len(bin.Spikes), opts.MaxSpike)
		}

		assert.Equal(t, res.Stats.Accepted, populated)
		assert.Equal(t, res.Stats.Evaluated, res.Stats.Accepted+res.Stats.Rejected+res.Stats.Skipped)

		for _, bin := range res.Bins {
			assert.GreaterOrEqual(t, len(bin.Spikes), 2)

			for _, c := range bin.Spikes {
				assert.Equal(t, bin.Key, res.Spaces.Key(c.Initial, c.Change, 1))
			}
		}
	}
}

func TestGenerate_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tbl := buildTable(t, uniformLoci(10, 10, 20))

	g, err := spike.NewGenerator(rowOptions(), seeded(1))
	require.NoError(t, err)

	_, err = g.Generate(ctx, tbl, twoGroups(t, tbl))
	require.ErrorIs(t, err, context.Canceled)
}

type recordingObserver struct {
	mu         sync.Mutex
	iterations []int
}

func (o *recordingObserver) ObserveIteration(_ context.Context, iteration int, _ spike.IterationStats) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.iterations = append(o.iterations, iteration)
}

func TestGenerate_NotifiesObserver(t *testing.T) {
	t.Parallel()

	opts := variedOptions()
	opts.Iterations = 3
	opts.MaxSpike = 1000

	tbl := buildTable(t, variedLoci(50))

	g, err := spike.NewGenerator(opts, seeded(5))
	require.NoError(t, err)

	obs := &recordingObserver{}
	g.Observer = obs

	_, err = g.Generate(context.Background(), tbl, twoGroups(t, tbl))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, obs.iterations)
}

func clusterLoci() []locus {
	var loci []locus

	for _, contig := range []string{"chr1", "chr2"} {
		for i := range 12 {
			loci = append(loci, locus{contig: contig, position: 100 + i*20, a: 10, b: 30})
		}
	}

	return loci
}

func clusterOptions() spike.Options {
	opts := spike.DefaultOptions()
	opts.Mode = spike.ModeCluster
	opts.Subcluster = spike.SizeRange{Min: 2, Max: 4, Width: 1}
	opts.ClusterMinSize = 10
	opts.MaxSpike = 2
	opts.MinSpike = 1
	opts.Iterations = 50

	return opts
}

func TestGenerate_ClusterMode(t *testing.T) {
	t.Parallel()

	tbl := buildTable(t, clusterLoci())

	res, err := generate(t, clusterOptions(), tbl, 11)
	require.NoError(t, err)

	require.Len(t, res.Clusters, 2)
	require.NotNil(t, res.Spaces.Size)
	assert.Equal(t, 3, res.Spaces.Cells())
	require.NotEmpty(t, res.Bins)

	contigCol, _ := tbl.Column(spike.ColumnContig)

	for _, bin := range res.Bins {
		assert.LessOrEqual(t, len(bin.Spikes), 2)

		for _, c := range bin.Spikes {
			require.Len(t, c.Rows, 2+bin.Key.Size)

			contig := tbl.Cell(c.Rows[0], contigCol).Text
			for i, row := range c.Rows {
				assert.Equal(t, contig, tbl.Cell(row, contigCol).Text)

				if i > 0 {
					assert.Equal(t, c.Rows[i-1]+1, row)
				}
			}
		}
	}
}

func TestGenerate_ClusterModeErrors(t *testing.T) {
	t.Parallel()

	sparse := buildTable(t, []locus{
		{contig: "chr1", position: 10, a: 1, b: 1},
		{contig: "chr1", position: 5000, a: 1, b: 1},
	})

	_, err := generate(t, clusterOptions(), sparse, 1)
	require.ErrorIs(t, err, spike.ErrNoClustersFound)

	opts := clusterOptions()
	opts.Subcluster.Max = 11

	_, err = spike.NewGenerator(opts, seeded(1))
	require.ErrorIs(t, err, spike.ErrConfiguration)
	assert.Contains(t, err.Error(), "greater than min size of cluster")
}
