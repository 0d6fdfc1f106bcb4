package counts_test

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbrown91/cgat/pkg/counts"
	"github.com/tbrown91/cgat/pkg/table"
)

func readTable(t *testing.T, text string) *table.Table {
	t.Helper()

	tbl, err := table.Read(strings.NewReader(text))
	require.NoError(t, err)

	return tbl
}

func column(t *testing.T, tbl *table.Table, name string) []string {
	t.Helper()

	idx, ok := tbl.Column(name)
	require.True(t, ok, name)

	out := make([]string, tbl.Len())
	for r := range out {
		out[r] = tbl.Cell(r, idx).Text
	}

	return out
}

func floats(t *testing.T, tbl *table.Table, name string) []float64 {
	t.Helper()

	idx, ok := tbl.Column(name)
	require.True(t, ok, name)

	out := make([]float64, tbl.Len())
	for r := range out {
		v, numeric := tbl.Float(r, idx)
		require.True(t, numeric, "row %d", r)

		out[r] = v
	}

	return out
}

const filterInput = "id\ts1\ts2\ts3\n" +
	"g1\t0\t0\t0\n" +
	"g2\t20\t5\t1\n" +
	"g3\t30\t8\t2\n" +
	"g4\t40\t9\tNA\n" +
	"g5\t50\t6\t1\n"

func TestFilter_RowsAndSamples(t *testing.T) {
	t.Parallel()

	tbl := readTable(t, filterInput)

	res, err := counts.Filter(tbl, []string{"s1", "s2", "s3"}, counts.DefaultFilterOptions(), table.SkipOnNumericError)
	require.NoError(t, err)

	// g1 is all zero, g4 is not numeric, s2 and s3 never reach 10.
	assert.Equal(t, []string{"s1"}, res.Samples)
	assert.Equal(t, []string{"s2", "s3"}, res.Dropped)
	assert.Equal(t, 3, res.Observations)
	assert.Equal(t, 2, res.DroppedRows)

	assert.Equal(t, []string{"id", "s1"}, res.Table.Header())
	assert.Equal(t, []string{"g2", "g3", "g5"}, column(t, res.Table, "id"))
}

func TestFilter_Percentile(t *testing.T) {
	t.Parallel()

	tbl := readTable(t, filterInput)
	opts := counts.FilterOptions{MinCountsPerRow: 1, MinCountsPerSample: 1, PercentileRowSums: 50}

	res, err := counts.Filter(tbl, []string{"s1", "s2", "s3"}, opts, table.SkipOnNumericError)
	require.NoError(t, err)

	// Totals of g2, g3, g5 are 26, 40, 57; the median is 40.
	assert.Equal(t, []string{"g3", "g5"}, column(t, res.Table, "id"))
	assert.Equal(t, []string{"s1", "s2", "s3"}, res.Samples)
}

func TestFilter_Strict(t *testing.T) {
	t.Parallel()

	_, err := counts.Filter(readTable(t, filterInput), []string{"s3"}, counts.DefaultFilterOptions(),
		table.StrictNumericConversion)
	require.ErrorIs(t, err, table.ErrNonNumeric)
}

func TestFilter_InvalidOptions(t *testing.T) {
	t.Parallel()

	tbl := readTable(t, filterInput)

	_, err := counts.Filter(tbl, []string{"s1"}, counts.FilterOptions{PercentileRowSums: 101}, table.SkipOnNumericError)
	require.ErrorIs(t, err, counts.ErrInvalidOptions)

	_, err = counts.Filter(tbl, []string{"s1"}, counts.FilterOptions{PercentileRowSums: math.NaN()}, table.SkipOnNumericError)
	require.ErrorIs(t, err, counts.ErrInvalidOptions)

	_, err = counts.Filter(tbl, nil, counts.DefaultFilterOptions(), table.SkipOnNumericError)
	require.ErrorIs(t, err, counts.ErrNoSamples)
}

func TestFilter_NothingSurvives(t *testing.T) {
	t.Parallel()

	res, err := counts.Filter(readTable(t, "id\ts1\ts2\ng1\t0\t0\n"), []string{"s1", "s2"},
		counts.DefaultFilterOptions(), table.SkipOnNumericError)
	require.NoError(t, err)

	assert.Zero(t, res.Observations)
	assert.Empty(t, res.Samples)
}

func TestNormalize_Million(t *testing.T) {
	t.Parallel()

	tbl := readTable(t, "id\ts1\ts2\ng1\t500000\t1000000\ng2\t500000\t1000000\n")

	res, err := counts.Normalize(tbl, []string{"s1", "s2"}, counts.MethodMillion, table.SkipOnNumericError)
	require.NoError(t, err)

	require.Len(t, res.Factors, 2)
	assert.InDelta(t, 1, res.Factors[0].Value, 1e-12)
	assert.InDelta(t, 2, res.Factors[1].Value, 1e-12)

	assert.Equal(t, []string{"500000", "500000"}, column(t, res.Table, "s1"))
	assert.Equal(t, []string{"500000", "500000"}, column(t, res.Table, "s2"))
	assert.Equal(t, []string{"g1", "g2"}, column(t, res.Table, "id"))
}

func TestNormalize_DESeq(t *testing.T) {
	t.Parallel()

	// s2 is s1 scaled by four; g3 has a zero and is ignored for estimation.
	tbl := readTable(t, "id\ts1\ts2\n"+
		"g1\t10\t40\n"+
		"g2\t20\t80\n"+
		"g3\t0\t12\n")

	res, err := counts.Normalize(tbl, []string{"s1", "s2"}, counts.MethodDESeq, table.SkipOnNumericError)
	require.NoError(t, err)

	assert.InDelta(t, 0.5, res.Factors[0].Value, 1e-12)
	assert.InDelta(t, 2, res.Factors[1].Value, 1e-12)

	assert.InDeltaSlice(t, []float64{20, 40, 0}, floats(t, res.Table, "s1"), 1e-9)
	assert.InDeltaSlice(t, []float64{20, 40, 6}, floats(t, res.Table, "s2"), 1e-9)
}

func TestNormalize_Errors(t *testing.T) {
	t.Parallel()

	zeros := readTable(t, "id\ts1\ts2\ng1\t0\t4\n")

	_, err := counts.Normalize(zeros, []string{"s1", "s2"}, counts.MethodDESeq, table.SkipOnNumericError)
	require.ErrorIs(t, err, counts.ErrNoReference)

	_, err = counts.Normalize(zeros, []string{"s1", "s2"}, counts.MethodMillion, table.SkipOnNumericError)
	require.ErrorIs(t, err, counts.ErrNoReference)

	_, err = counts.Normalize(zeros, []string{"s1"}, "tmm", table.SkipOnNumericError)
	require.ErrorIs(t, err, counts.ErrInvalidOptions)

	_, err = counts.ParseMethod("million-counts")
	require.NoError(t, err)
}
