// Package spike generates synthetic spike-in rows for count tables.
//
// Values of the two compared groups are reassigned at random across the
// pooled tracks, each draw is classified by its baseline (the group-1 mean)
// and its change between groups, and draws are accumulated per bin until the
// bins reach the configured population. Row mode draws single rows; cluster
// mode draws contiguous blocks of rows from clusters of nearby positions.
package spike

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbrown91/cgat/pkg/table"
)

const tracerName = "github.com/tbrown91/cgat/pkg/spike"

// Observer receives per-iteration counters, e.g. to export metrics.
type Observer interface {
	ObserveIteration(ctx context.Context, iteration int, stats IterationStats)
}

// RunStats summarizes a generation run.
type RunStats struct {
	IterationStats

	Iterations int
	Clusters   int
	Populated  int
	FullBins   int
	Duration   time.Duration
}

// Result is the outcome of a successful run.
type Result struct {
	// Bins holds the bins that met the minimum population, sorted by key.
	Bins []Bin
	// Populated holds every bin that received at least one spike.
	Populated []Bin
	Spaces    Spaces
	Clusters  []Cluster
	Stats     RunStats
	MinSpike  int
}

// Generator runs spike generation for one set of options.
type Generator struct {
	Options Options

	// Rand drives every random draw. A fixed seed gives a fixed candidate sequence.
	Rand *rand.Rand

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Tracer defaults to the global OTel tracer.
	Tracer trace.Tracer

	// Observer is optional.
	Observer Observer
}

// NewGenerator validates opts and returns a generator drawing from rng.
func NewGenerator(opts Options, rng *rand.Rand) (*Generator, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	if rng == nil {
		return nil, fmt.Errorf("%w: a random source is required", ErrConfiguration)
	}

	return &Generator{Options: opts, Rand: rng}, nil
}

func (g *Generator) logger() *slog.Logger {
	if g.Logger != nil {
		return g.Logger
	}

	return slog.Default()
}

func (g *Generator) tracer() trace.Tracer {
	if g.Tracer != nil {
		return g.Tracer
	}

	return otel.Tracer(tracerName)
}

// iterator is one pass of either shuffler.
type iterator interface {
	Iterate(ctx context.Context, rng *rand.Rand, acc *Accumulator, workers int) (IterationStats, error)
}

// Generate draws candidates from tbl for the groups in gc and returns the
// bins that reached the minimum population. The context is checked between
// iterations.
func (g *Generator) Generate(ctx context.Context, tbl *table.Table, gc GroupColumns) (*Result, error) {
	opts := g.Options

	if err := opts.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	logger := g.logger()

	ctx, span := g.tracer().Start(ctx, "spike.generate",
		trace.WithAttributes(
			attribute.String("spike.mode", string(opts.Mode)),
			attribute.String("spike.difference", string(opts.Difference)),
			attribute.Int("spike.iterations", opts.Iterations),
			attribute.Int("spike.max", opts.MaxSpike),
			attribute.Int("table.rows", tbl.Len()),
		))
	defer span.End()

	spaces, err := NewSpaces(opts)
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "bin boundaries",
		"initial", opts.Initial.String(), "initial_bins", spaces.Initial.Len(),
		"change", opts.Change.String(), "change_bins", spaces.Change.Len())

	values, err := tbl.Numeric(columnsOf(gc.Pooled()), opts.Policy)
	if err != nil {
		return nil, fmt.Errorf("read sample columns: %w", err)
	}

	result := &Result{Spaces: spaces, MinSpike: opts.EffectiveMinSpike()}

	var it iterator

	switch opts.Mode {
	case ModeCluster:
		shuffler, clusterErr := g.clusterShuffler(ctx, tbl, values, gc, spaces)
		if clusterErr != nil {
			return nil, clusterErr
		}

		result.Clusters = shuffler.Clusters
		result.Stats.Clusters = len(shuffler.Clusters)
		it = shuffler
	default:
		logger.InfoContext(ctx, "shuffling rows", "rows", tbl.Len())

		it = &RowShuffler{Values: values, FirstSize: gc.FirstSize(), Method: opts.Difference, Spaces: spaces}
	}

	acc := NewAccumulator(opts.MaxSpike)

	for iteration := range opts.Iterations {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("spike generation stopped after %d iteration(s): %w", iteration, ctxErr)
		}

		st, iterErr := it.Iterate(ctx, g.Rand, acc, opts.Workers)
		if iterErr != nil {
			return nil, fmt.Errorf("iteration %d: %w", iteration+1, iterErr)
		}

		result.Stats.Add(st)
		result.Stats.Iterations = iteration + 1

		if g.Observer != nil {
			g.Observer.ObserveIteration(ctx, iteration, st)
		}

		logger.DebugContext(ctx, "iteration done",
			"iteration", iteration+1, "evaluated", st.Evaluated, "accepted", st.Accepted,
			"rejected", st.Rejected, "skipped", st.Skipped)

		if acc.Full() == spaces.Cells() {
			logger.InfoContext(ctx, "every bin is full", "iterations", iteration+1)

			break
		}
	}

	result.Populated = acc.Snapshot()
	result.Stats.Populated = len(result.Populated)
	result.Stats.FullBins = acc.Full()
	result.Stats.Duration = time.Since(start)

	span.SetAttributes(
		attribute.Int("spike.accepted", result.Stats.Accepted),
		attribute.Int("spike.bins_populated", result.Stats.Populated),
	)

	bins, err := acc.Filled(result.MinSpike)
	if err != nil {
		return nil, fmt.Errorf("%w (mode %s, difference %s, initial %s, change %s, max %d, iterations %d)",
			err, opts.Mode, opts.Difference, opts.Initial, opts.Change, opts.MaxSpike, opts.Iterations)
	}

	result.Bins = bins

	logger.InfoContext(ctx, "spike generation finished",
		"bins", len(bins), "populated", result.Stats.Populated, "accepted", result.Stats.Accepted,
		"duration", result.Stats.Duration)

	return result, nil
}

func (g *Generator) clusterShuffler(
	ctx context.Context, tbl *table.Table, values *table.Matrix, gc GroupColumns, spaces Spaces,
) (*ClusterShuffler, error) {
	opts := g.Options

	order, err := tbl.OrderBy(ColumnContig, ColumnPosition)
	if err != nil {
		return nil, fmt.Errorf("%w: cluster analysis requires columns named %q and %q: %w",
			ErrConfiguration, ColumnContig, ColumnPosition, err)
	}

	g.logger().InfoContext(ctx, "looking for clusters",
		"max_distance", opts.ClusterMaxDistance, "min_size", opts.ClusterMinSize)

	clusters, err := FindClusters(tbl, order, ClusterOptions{
		MaxDistance: opts.ClusterMaxDistance,
		MinSize:     opts.ClusterMinSize,
	})
	if err != nil {
		return nil, err
	}

	g.logger().InfoContext(ctx, "shuffling subcluster regions", "clusters", len(clusters))

	return &ClusterShuffler{
		Values:    values,
		FirstSize: gc.FirstSize(),
		Method:    opts.Difference,
		Spaces:    spaces,
		Clusters:  clusters,
		Sizes:     opts.Subcluster.Sizes(),
	}, nil
}

func columnsOf(tracks []TrackColumns) []string {
	cols := make([]string, len(tracks))
	for i, tc := range tracks {
		cols[i] = tc.Shuffle
	}

	return cols
}
