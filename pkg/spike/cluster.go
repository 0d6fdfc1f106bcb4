package spike

import (
	"fmt"

	"github.com/tbrown91/cgat/pkg/table"
)

// Cluster is a run of rows on one contig whose consecutive positions are at
// most the configured distance apart. Rows are table row indices in
// position order.
type Cluster struct {
	Contig string
	Rows   []int
}

// Len returns the number of rows in the cluster.
func (c Cluster) Len() int {
	return len(c.Rows)
}

// ClusterOptions parameterizes FindClusters.
type ClusterOptions struct {
	MaxDistance float64
	MinSize     int
}

// FindClusters scans tbl in the given row order (sorted by contig and
// position) and returns every run of at least MinSize rows. A row without a
// numeric position ends the current run and belongs to no cluster.
func FindClusters(tbl *table.Table, order []int, opts ClusterOptions) ([]Cluster, error) {
	contigCol, ok := tbl.Column(ColumnContig)
	if !ok {
		return nil, fmt.Errorf("%w: cluster analysis requires a %q column", ErrConfiguration, ColumnContig)
	}

	posCol, ok := tbl.Column(ColumnPosition)
	if !ok {
		return nil, fmt.Errorf("%w: cluster analysis requires a %q column", ErrConfiguration, ColumnPosition)
	}

	var (
		clusters []Cluster
		current  Cluster
		lastPos  float64
	)

	flush := func() {
		if current.Len() >= opts.MinSize && current.Len() > 0 {
			clusters = append(clusters, current)
		}

		current = Cluster{}
	}

	for _, row := range order {
		contig := tbl.Cell(row, contigCol).Text

		pos, numeric := tbl.Float(row, posCol)
		if !numeric {
			flush()

			continue
		}

		if current.Len() > 0 && (contig != current.Contig || pos-lastPos > opts.MaxDistance) {
			flush()
		}

		if current.Len() == 0 {
			current.Contig = contig
		}

		current.Rows = append(current.Rows, row)
		lastPos = pos
	}

	flush()

	if len(clusters) == 0 {
		return nil, fmt.Errorf("%w: no run of %d rows within distance %g",
			ErrNoClustersFound, opts.MinSize, opts.MaxDistance)
	}

	return clusters, nil
}
