package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tbrown91/cgat/pkg/config"
	"github.com/tbrown91/cgat/pkg/counts"
)

func (a *app) normalizeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Scale sample columns by per-sample factors",
		Args:  cobra.NoArgs,
		RunE:  a.runNormalize,
	}

	cmd.Flags().String("normalization-method", config.DefaultNormalizationMethod,
		"Normalization: deseq-size-factors or million-counts")

	return cmd
}

func (a *app) runNormalize(cmd *cobra.Command, _ []string) error {
	s, err := a.start(cmd)
	if err != nil {
		return err
	}

	return s.finish(cmd.Context(), s.normalize(cmd))
}

func (s *session) normalize(cmd *cobra.Command) error {
	method, err := counts.ParseMethod(s.cfg.Normalize.Method)
	if err != nil {
		return err
	}

	tbl, samples, err := s.readSamples(cmd)
	if err != nil {
		return err
	}

	res, err := counts.Normalize(tbl, samples, method, s.cfg.IO.NumericPolicy())
	if err != nil {
		return err
	}

	for _, f := range res.Factors {
		s.logger.Debug("normalization factor", "sample", f.Sample, "factor", f.Value)
	}

	s.logger.Info("normalized", "method", method, "samples", len(res.Factors), "rows", res.Table.Len())

	if err := s.writeTable(cmd, res.Table); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	return nil
}
