package commands

import (
	"fmt"
	"math/rand/v2"

	"github.com/spf13/cobra"

	"github.com/tbrown91/cgat/pkg/config"
	"github.com/tbrown91/cgat/pkg/design"
	"github.com/tbrown91/cgat/pkg/observability"
	"github.com/tbrown91/cgat/pkg/report"
	"github.com/tbrown91/cgat/pkg/spike"
	"github.com/tbrown91/cgat/pkg/version"
)

// ErrDesignRequired is returned when spike runs without a design table.
var ErrDesignRequired = fmt.Errorf("%w: a design table is required (--design-tsv-file)", spike.ErrConfiguration)

func (a *app) spikeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spike",
		Short: "Generate spike-in rows with known initial values and changes",
		Long: `Shuffle the sample columns of the first compared pair across groups to
produce synthetic rows, binned by initial value and change, until every bin
holds the requested number of spikes.

In cluster mode (--spike-type cluster) the table needs contig and position
columns; runs of nearby rows are shuffled as contiguous subclusters.`,
		Args: cobra.NoArgs,
		RunE: a.runSpike,
	}

	f := cmd.Flags()
	f.String("spike-type", config.DefaultSpikeType, "Spike unit: row or cluster")
	f.String("spike-difference-method", config.DefaultSpikeDifferenceMethod, "Change measure: logfold or relative")
	f.Float64("spike-initial-bin-min", config.DefaultSpikeBinMin, "Lowest initial value bin edge")
	f.Float64("spike-initial-bin-max", config.DefaultSpikeBinMax, "Highest initial value bin edge")
	f.Float64("spike-initial-bin-width", config.DefaultSpikeBinWidth, "Initial value bin width")
	f.Float64("spike-change-bin-min", config.DefaultSpikeBinMin, "Lowest change bin edge")
	f.Float64("spike-change-bin-max", config.DefaultSpikeBinMax, "Highest change bin edge")
	f.Float64("spike-change-bin-width", config.DefaultSpikeBinWidth, "Change bin width")
	f.Int("spike-subcluster-min-size", config.DefaultSubclusterMinSize, "Smallest subcluster size")
	f.Int("spike-subcluster-max-size", config.DefaultSubclusterMaxSize, "Largest subcluster size")
	f.Int("spike-subcluster-bin-width", config.DefaultSubclusterBinWidth, "Subcluster size bin width")
	f.Int("spike-minimum", config.DefaultSpikeMinimum, "Minimum spikes per bin to output it (0 means the maximum)")
	f.Int("spike-maximum", config.DefaultSpikeMaximum, "Spikes per bin before the bin is full")
	f.Int("spike-iterations", config.DefaultSpikeIterations, "Shuffling passes over the table")
	f.String("spike-output-method", config.DefaultSpikeOutputMethod, "Output: separate or append")
	f.StringSlice("spike-id-columns", nil, "Identifier columns; the first receives the spike id")
	f.Float64("spike-cluster-maximum-distance", config.DefaultClusterMaxDistance, "Largest position gap inside a cluster")
	f.Int("spike-cluster-minimum-size", config.DefaultClusterMinSize, "Fewest rows in a cluster")
	f.String("spike-shuffle-column-suffix", "", "Suffix of the columns compared between groups")
	f.StringSlice("spike-keep-column-suffix", nil, "Suffixes of columns carried with the shuffled ones")
	f.Uint64("seed", 0, "Random seed (0 draws a fresh seed and logs it)")
	f.Int("workers", config.DefaultSpikeWorkers, "Parallel candidate evaluation workers")
	f.String("report", "", "Write a run report (.json, otherwise YAML)")
	f.String("plot", "", "Write an HTML heat map of bin populations")

	return cmd
}

func (a *app) runSpike(cmd *cobra.Command, _ []string) error {
	s, err := a.start(cmd)
	if err != nil {
		return err
	}

	return s.finish(cmd.Context(), s.spike(cmd))
}

func (s *session) spike(cmd *cobra.Command) error {
	ctx := cmd.Context()

	opts, err := s.cfg.SpikeOptions()
	if err != nil {
		return err
	}

	if s.cfg.IO.Design == "" {
		return ErrDesignRequired
	}

	d, err := design.Load(s.cfg.IO.Design)
	if err != nil {
		return err
	}

	tbl, err := s.readTable(cmd)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	groups, err := spike.MapGroups(d, tbl.Header(), s.cfg.Spike.Suffixes())
	if err != nil {
		return err
	}

	if len(groups.Groups) > 2 {
		s.logger.Warn("more than two groups in the design, comparing the first two",
			"groups", groups.Groups, "compared", []string{groups.First(), groups.Second()})
	}

	seed := s.cfg.Spike.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	s.logger.Info("spiking",
		"rows", tbl.Len(), "groups", groups.Groups, "mode", opts.Mode,
		"initial", opts.Initial, "change", opts.Change, "seed", seed)

	gen, err := spike.NewGenerator(opts, rand.New(rand.NewPCG(seed, seed)))
	if err != nil {
		return err
	}

	metrics, err := observability.NewSpikeMetrics(s.providers.Meter)
	if err != nil {
		return err
	}

	gen.Logger = s.logger
	gen.Tracer = s.providers.Tracer
	gen.Observer = metrics

	res, err := gen.Generate(ctx, tbl, groups)
	if err != nil {
		return err
	}

	metrics.RecordRun(ctx, opts.Mode, res.Stats)

	out, err := spike.NewWriter(opts, groups).Render(tbl, res)
	if err != nil {
		return err
	}

	if err := s.writeTable(cmd, out); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	rep := report.Build(res, opts, seed, version.Version)

	if err := report.WriteSummary(cmd.ErrOrStderr(), rep); err != nil {
		return err
	}

	if path := s.cfg.Report.Path; path != "" {
		if err := report.WriteFile(path, rep); err != nil {
			return err
		}
	}

	if path := s.cfg.Report.Plot; path != "" {
		if err := report.WriteHeatMapFile(path, res); err != nil {
			return err
		}
	}

	return nil
}
