package spike_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbrown91/cgat/pkg/spike"
	"github.com/tbrown91/cgat/pkg/table"
)

// distinctTable holds one row whose six tracks carry 1..6.
func distinctTable(t *testing.T) *table.Table {
	t.Helper()

	tbl, err := table.Read(strings.NewReader(
		"id\tcontig\tposition\ta1\ta2\ta3\tb1\tb2\tb3\n" +
			"gene000\tchr1\t10\t1\t2\t3\t4\t5\t6\n"))
	require.NoError(t, err)

	return tbl
}

func reversedResult(t *testing.T, opts spike.Options) *spike.Result {
	t.Helper()

	spaces, err := spike.NewSpaces(opts)
	require.NoError(t, err)

	return &spike.Result{
		Spaces: spaces,
		Bins: []spike.Bin{{
			Key:    spike.BinKey{},
			Spikes: []spike.Candidate{{Rows: []int{0}, Permutation: []int{5, 4, 3, 2, 1, 0}}},
		}},
	}
}

func column(t *testing.T, tbl *table.Table, row int, name string) string {
	t.Helper()

	idx, ok := tbl.Column(name)
	require.True(t, ok, "column %s", name)

	return tbl.Cell(row, idx).Text
}

func TestWriter_SeparateAppliesPermutation(t *testing.T) {
	t.Parallel()

	src := distinctTable(t)
	opts := spike.DefaultOptions()

	out, err := spike.NewWriter(opts, twoGroups(t, src)).Render(src, reversedResult(t, opts))
	require.NoError(t, err)

	assert.Equal(t, []string{"spike", "a1", "a2", "a3", "b1", "b2", "b3"}, out.Header())
	require.Equal(t, 1, out.Len())

	assert.Equal(t, "spike_i0_c0_0", column(t, out, 0, "spike"))

	for name, want := range map[string]string{"a1": "6", "a2": "5", "a3": "4", "b1": "3", "b2": "2", "b3": "1"} {
		assert.Equal(t, want, column(t, out, 0, name), name)
	}
}

func TestWriter_SeparateCustomIDColumns(t *testing.T) {
	t.Parallel()

	src := distinctTable(t)
	opts := spike.DefaultOptions()
	opts.IDColumns = []string{"name", "contig"}

	out, err := spike.NewWriter(opts, twoGroups(t, src)).Render(src, reversedResult(t, opts))
	require.NoError(t, err)

	assert.Equal(t, "name", out.Header()[0])
	assert.Equal(t, "spike_i0_c0_0", column(t, out, 0, "name"))
	assert.Equal(t, "chr1", column(t, out, 0, "contig"))
}

func TestWriter_Append(t *testing.T) {
	t.Parallel()

	src := distinctTable(t)
	opts := spike.DefaultOptions()
	opts.Output = spike.OutputAppend
	opts.IDColumns = []string{"id"}

	out, err := spike.NewWriter(opts, twoGroups(t, src)).Render(src, reversedResult(t, opts))
	require.NoError(t, err)

	assert.Equal(t, src.Header(), out.Header())
	require.Equal(t, 2, out.Len())

	assert.Equal(t, "gene000", column(t, out, 0, "id"))
	assert.Equal(t, "1", column(t, out, 0, "a1"))

	assert.Equal(t, "spike_i0_c0_0", column(t, out, 1, "id"))
	assert.Equal(t, "chr1", column(t, out, 1, "contig"))
	assert.Equal(t, "6", column(t, out, 1, "a1"))
	assert.Equal(t, "1", column(t, out, 1, "b3"))

	// The source table is untouched.
	assert.Equal(t, 1, src.Len())
}

func TestWriter_AppendErrors(t *testing.T) {
	t.Parallel()

	src := distinctTable(t)
	gc := twoGroups(t, src)

	opts := spike.DefaultOptions()
	opts.Output = spike.OutputAppend

	_, err := spike.NewWriter(opts, gc).Render(src, reversedResult(t, opts))
	require.ErrorIs(t, err, spike.ErrConfiguration)

	opts.IDColumns = []string{"gene_name"}

	_, err = spike.NewWriter(opts, gc).Render(src, reversedResult(t, opts))
	require.ErrorIs(t, err, spike.ErrConfiguration)
}

func TestWriter_ClusterIDs(t *testing.T) {
	t.Parallel()

	tbl := buildTable(t, clusterLoci())
	opts := clusterOptions()

	res, err := generate(t, opts, tbl, 11)
	require.NoError(t, err)

	out, err := spike.NewWriter(opts, twoGroups(t, tbl)).Render(tbl, res)
	require.NoError(t, err)

	want := 0
	for _, bin := range res.Bins {
		for _, c := range bin.Spikes {
			want += len(c.Rows)
		}
	}

	require.Equal(t, want, out.Len())

	for row := range out.Len() {
		id, err := spike.ParseID(column(t, out, row, "spike"))
		require.NoError(t, err)

		assert.True(t, id.HasSize)
		assert.GreaterOrEqual(t, id.SizeLow, 2.0)
		assert.GreaterOrEqual(t, id.Member, 0)
		assert.Less(t, id.Member, int(id.SizeLow))
	}
}
