package spike_test

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tbrown91/cgat/pkg/design"
	"github.com/tbrown91/cgat/pkg/spike"
	"github.com/tbrown91/cgat/pkg/table"
)

var (
	groupA = []string{"a1", "a2", "a3"}
	groupB = []string{"b1", "b2", "b3"}
)

// locus is one row of a synthetic count table.
type locus struct {
	contig   string
	position int
	a, b     float64
}

// buildTable creates a table with id, contig, position and three tracks per
// group; every track of a group carries the same value.
func buildTable(t *testing.T, loci []locus) *table.Table {
	t.Helper()

	header := append([]string{"id", spike.ColumnContig, spike.ColumnPosition}, groupA...)
	header = append(header, groupB...)

	tbl, err := table.New(header)
	require.NoError(t, err)

	for i, l := range loci {
		fields := []string{fmt.Sprintf("gene%03d", i), l.contig, strconv.Itoa(l.position)}

		for range groupA {
			fields = append(fields, strconv.FormatFloat(l.a, 'g', -1, 64))
		}

		for range groupB {
			fields = append(fields, strconv.FormatFloat(l.b, 'g', -1, 64))
		}

		require.NoError(t, tbl.AppendText(fields))
	}

	return tbl
}

// uniformLoci returns n rows spaced 10 apart on one contig.
func uniformLoci(n int, a, b float64) []locus {
	loci := make([]locus, n)
	for i := range loci {
		loci[i] = locus{contig: "chr1", position: (i + 1) * 10, a: a, b: b}
	}

	return loci
}

func twoGroupDesign(t *testing.T) design.Design {
	t.Helper()

	var b strings.Builder

	b.WriteString("track\tinclude\tgroup\tpair\n")

	for _, name := range groupA {
		fmt.Fprintf(&b, "%s\t1\tctrl\t1\n", name)
	}

	for _, name := range groupB {
		fmt.Fprintf(&b, "%s\t1\ttreat\t1\n", name)
	}

	d, err := design.Read(strings.NewReader(b.String()))
	require.NoError(t, err)

	return d
}

func twoGroups(t *testing.T, tbl *table.Table) spike.GroupColumns {
	t.Helper()

	gc, err := spike.MapGroups(twoGroupDesign(t), tbl.Header(), spike.Suffixes{})
	require.NoError(t, err)

	return gc
}

func identity(n int) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}

	return perm
}
