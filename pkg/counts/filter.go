// Package counts filters and normalizes count tables.
package counts

import (
	"errors"
	"fmt"
	"slices"

	"github.com/tbrown91/cgat/pkg/alg/stats"
	"github.com/tbrown91/cgat/pkg/table"
)

// Sentinel errors.
var (
	ErrNoSamples      = errors.New("no sample columns")
	ErrInvalidOptions = errors.New("invalid filter options")
)

// percentScale converts a 0..100 percentile to a fraction.
const percentScale = 100

// FilterOptions are the thresholds applied by Filter.
type FilterOptions struct {
	// MinCountsPerRow drops rows whose every sample is below it.
	MinCountsPerRow float64 `mapstructure:"min_counts_per_row"`
	// MinCountsPerSample drops samples whose largest count is below it.
	MinCountsPerSample float64 `mapstructure:"min_counts_per_sample"`
	// PercentileRowSums drops rows whose total is below this percentile (0..100).
	PercentileRowSums float64 `mapstructure:"percentile_rowsums"`
}

// DefaultFilterOptions returns the command-line defaults.
func DefaultFilterOptions() FilterOptions {
	return FilterOptions{MinCountsPerRow: 1, MinCountsPerSample: 10}
}

// Validate checks the percentile bounds.
func (o FilterOptions) Validate() error {
	if !(o.PercentileRowSums >= 0 && o.PercentileRowSums <= percentScale) {
		return fmt.Errorf("%w: percentile %g outside 0..100", ErrInvalidOptions, o.PercentileRowSums)
	}

	return nil
}

// FilterResult is the outcome of Filter.
type FilterResult struct {
	// Table holds every input column except the dropped samples.
	Table *table.Table
	// Samples are the surviving sample columns in input order.
	Samples []string

	Observations int
	DroppedRows  int
	Dropped      []string
}

// Filter drops low-count rows and samples from tbl. Columns outside samples
// are carried unchanged. Rows with non-numeric sample cells are dropped under
// SkipOnNumericError and fail under StrictNumericConversion.
func Filter(tbl *table.Table, samples []string, opts FilterOptions, policy table.NumericPolicy) (*FilterResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	if len(samples) == 0 {
		return nil, ErrNoSamples
	}

	values, err := tbl.Numeric(samples, policy)
	if err != nil {
		return nil, fmt.Errorf("read sample columns: %w", err)
	}

	rows := make([]int, 0, values.Rows())

	for r := range values.Rows() {
		if values.Valid[r] && stats.Max(values.Row(r)) >= opts.MinCountsPerRow {
			rows = append(rows, r)
		}
	}

	var kept, dropped []int

	for c := range samples {
		largest := 0.0
		for _, r := range rows {
			largest = max(largest, values.At(r, c))
		}

		if len(rows) > 0 && largest >= opts.MinCountsPerSample {
			kept = append(kept, c)
		} else {
			dropped = append(dropped, c)
		}
	}

	rows = dropBelowPercentile(values, rows, kept, opts.PercentileRowSums)

	res := &FilterResult{
		Observations: len(rows),
		DroppedRows:  values.Rows() - len(rows),
	}

	for _, c := range kept {
		res.Samples = append(res.Samples, samples[c])
	}

	for _, c := range dropped {
		res.Dropped = append(res.Dropped, samples[c])
	}

	res.Table, err = tbl.Select(rows, withoutColumns(tbl.Header(), res.Dropped))
	if err != nil {
		return nil, err
	}

	return res, nil
}

func dropBelowPercentile(values *table.Matrix, rows, cols []int, percentile float64) []int {
	if percentile <= 0 || len(rows) == 0 {
		return rows
	}

	sums := make([]float64, len(rows))
	for i, r := range rows {
		for _, c := range cols {
			sums[i] += values.At(r, c)
		}
	}

	threshold := stats.Percentile(sums, percentile/percentScale)

	out := rows[:0:0]
	for i, r := range rows {
		if sums[i] >= threshold {
			out = append(out, r)
		}
	}

	return out
}

// withoutColumns returns header in order, minus the named columns.
func withoutColumns(header, drop []string) []string {
	cols := make([]string, 0, len(header))

	for _, h := range header {
		if !slices.Contains(drop, h) {
			cols = append(cols, h)
		}
	}

	return cols
}
