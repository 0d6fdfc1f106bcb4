package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tbrown91/cgat/pkg/config"
	"github.com/tbrown91/cgat/pkg/counts"
	"github.com/tbrown91/cgat/pkg/design"
	"github.com/tbrown91/cgat/pkg/table"
)

func (a *app) filterCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Drop rows and samples with low counts",
		Long: `Drop rows whose largest count is below --filter-min-counts-per-row,
samples whose largest remaining count is below --filter-min-counts-per-sample,
and rows whose total lies below --filter-percentile-rowsums.

Samples are the included tracks of the design table, or every column but the
first without one.`,
		Args: cobra.NoArgs,
		RunE: a.runFilter,
	}

	f := cmd.Flags()
	f.Float64("filter-min-counts-per-row", config.DefaultFilterMinCountsPerRow, "Minimum of the largest count in a row")
	f.Float64("filter-min-counts-per-sample", config.DefaultFilterMinCountsPerSample,
		"Minimum of the largest count in a sample")
	f.Float64("filter-percentile-rowsums", config.DefaultFilterPercentileRowSums,
		"Drop rows whose total is below this percentile (0-100)")

	return cmd
}

func (a *app) runFilter(cmd *cobra.Command, _ []string) error {
	s, err := a.start(cmd)
	if err != nil {
		return err
	}

	return s.finish(cmd.Context(), s.filter(cmd))
}

func (s *session) filter(cmd *cobra.Command) error {
	tbl, samples, err := s.readSamples(cmd)
	if err != nil {
		return err
	}

	res, err := counts.Filter(tbl, samples, s.cfg.Filter, s.cfg.IO.NumericPolicy())
	if err != nil {
		return err
	}

	s.logger.Info("filtered",
		"observations", res.Observations, "dropped_rows", res.DroppedRows,
		"samples", len(res.Samples), "dropped_samples", res.Dropped)

	if res.Observations == 0 {
		s.logger.Warn("no observations remain after filtering")
	}

	if len(res.Samples) == 0 {
		s.logger.Warn("no samples remain after filtering")
	}

	if err := s.writeTable(cmd, res.Table); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	return nil
}

// readSamples reads the input table and resolves its sample columns.
func (s *session) readSamples(cmd *cobra.Command) (tbl *table.Table, samples []string, err error) {
	tbl, err = s.readTable(cmd)
	if err != nil {
		return nil, nil, fmt.Errorf("read input: %w", err)
	}

	if s.cfg.IO.Design == "" {
		return tbl, tbl.Header()[1:], nil
	}

	d, err := design.Load(s.cfg.IO.Design)
	if err != nil {
		return nil, nil, err
	}

	return tbl, d.Included().Names(), nil
}
