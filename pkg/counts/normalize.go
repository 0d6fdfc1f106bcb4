package counts

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tbrown91/cgat/pkg/alg/stats"
	"github.com/tbrown91/cgat/pkg/table"
)

// ErrNoReference indicates that size factors could not be estimated.
var ErrNoReference = errors.New("no reference for normalization")

// Method selects a normalization.
type Method string

// Normalization methods.
const (
	// MethodDESeq divides by the median ratio to the per-row geometric mean.
	MethodDESeq Method = "deseq-size-factors"
	// MethodMillion divides by the column total in millions.
	MethodMillion Method = "million-counts"
)

const perMillion = 1e6

// ParseMethod parses a normalization method name.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(s))); m {
	case MethodDESeq, MethodMillion:
		return m, nil
	default:
		return "", fmt.Errorf("%w: unknown normalization method %q", ErrInvalidOptions, s)
	}
}

// Factor is the divisor applied to one sample.
type Factor struct {
	Sample string  `json:"sample" yaml:"sample"`
	Value  float64 `json:"factor" yaml:"factor"`
}

// Normalized is the outcome of Normalize.
type Normalized struct {
	Table   *table.Table
	Factors []Factor
}

// Normalize divides every sample column by its factor. Rows with
// non-numeric sample cells keep their text and take no part in estimation.
func Normalize(tbl *table.Table, samples []string, method Method, policy table.NumericPolicy) (*Normalized, error) {
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}

	values, err := tbl.Numeric(samples, policy)
	if err != nil {
		return nil, fmt.Errorf("read sample columns: %w", err)
	}

	var factors []float64

	switch method {
	case MethodDESeq:
		factors, err = sizeFactors(values)
	case MethodMillion:
		factors, err = millionFactors(values)
	default:
		_, err = ParseMethod(string(method))
	}

	if err != nil {
		return nil, err
	}

	out, err := table.New(tbl.Header())
	if err != nil {
		return nil, err
	}

	positions := make([]int, len(samples))
	for c, name := range samples {
		positions[c], _ = tbl.Column(name)
	}

	for r := range tbl.Len() {
		cells := tbl.Row(r)

		if values.Valid[r] {
			for c, pos := range positions {
				cells[pos] = table.NumCell(values.At(r, c) / factors[c])
			}
		}

		if err := out.Append(cells); err != nil {
			return nil, err
		}
	}

	res := &Normalized{Table: out, Factors: make([]Factor, len(samples))}
	for c, name := range samples {
		res.Factors[c] = Factor{Sample: name, Value: factors[c]}
	}

	return res, nil
}

// sizeFactors estimates median-of-ratios size factors from the rows in which
// every sample is positive.
func sizeFactors(values *table.Matrix) ([]float64, error) {
	ratios := make([][]float64, len(values.Columns))

	for r := range values.Rows() {
		if !values.Valid[r] {
			continue
		}

		row := values.Row(r)

		gm, ok := stats.GeometricMean(row)
		if !ok {
			continue
		}

		for c, v := range row {
			ratios[c] = append(ratios[c], v/gm)
		}
	}

	if len(ratios[0]) == 0 {
		return nil, fmt.Errorf("%w: every row has a zero count", ErrNoReference)
	}

	factors := make([]float64, len(ratios))
	for c, rs := range ratios {
		factors[c] = stats.Median(rs)
	}

	return factors, nil
}

func millionFactors(values *table.Matrix) ([]float64, error) {
	factors := make([]float64, len(values.Columns))

	for r := range values.Rows() {
		if !values.Valid[r] {
			continue
		}

		for c, v := range values.Row(r) {
			factors[c] += v
		}
	}

	for c := range factors {
		if factors[c] <= 0 {
			return nil, fmt.Errorf("%w: sample %q has no counts", ErrNoReference, values.Columns[c])
		}

		factors[c] /= perMillion
	}

	return factors, nil
}
