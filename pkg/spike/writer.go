package spike

import (
	"fmt"
	"strings"

	"github.com/tbrown91/cgat/pkg/table"
)

// Writer renders accepted spikes as table rows.
type Writer struct {
	Options Options
	Groups  GroupColumns
}

// NewWriter creates a writer for the given run options and group layout.
func NewWriter(opts Options, gc GroupColumns) *Writer {
	return &Writer{Options: opts, Groups: gc}
}

// IDColumns returns the configured identifier columns, or DefaultIDColumn
// for separate output without configuration.
func (w *Writer) IDColumns() []string {
	if len(w.Options.IDColumns) > 0 {
		return w.Options.IDColumns
	}

	return []string{DefaultIDColumn}
}

// Render builds the output table. In separate mode it holds only synthetic
// rows: the identifier columns followed by the carried columns of every
// compared track. In append mode it is a copy of src followed by the
// synthetic rows in the source layout.
func (w *Writer) Render(src *table.Table, res *Result) (*table.Table, error) {
	if w.Options.Output == OutputAppend && len(w.Options.IDColumns) == 0 {
		return nil, fmt.Errorf("%w: id column(s) must be specified to append spikes", ErrConfiguration)
	}

	slots := w.slotColumns()

	lookup, err := w.sourcePositions(src, slots)
	if err != nil {
		return nil, err
	}

	if w.Options.Output == OutputAppend {
		return w.renderAppend(src, res, slots, lookup)
	}

	return w.renderSeparate(src, res, slots, lookup)
}

func (w *Writer) slotColumns() [][]string {
	pooled := w.Groups.Pooled()

	slots := make([][]string, len(pooled))
	for i, tc := range pooled {
		slots[i] = tc.Carried()
	}

	return slots
}

// sourcePositions maps every carried column to its position in src.
func (w *Writer) sourcePositions(src *table.Table, slots [][]string) (map[string]int, error) {
	lookup := make(map[string]int)

	for _, cols := range slots {
		for _, col := range cols {
			idx, ok := src.Column(col)
			if !ok {
				return nil, fmt.Errorf("%w: column %q is not in the table", ErrConfiguration, col)
			}

			lookup[col] = idx
		}
	}

	return lookup, nil
}

// synthetic walks every output row: one per candidate in row mode, one per
// subcluster member in cluster mode.
func (w *Writer) synthetic(res *Result, emit func(id SpikeID, row int, perm []int) error) error {
	for _, bin := range res.Bins {
		label := SpikeID{
			InitialLow: res.Spaces.Initial.Low(bin.Key.Initial),
			ChangeLow:  res.Spaces.Change.Low(bin.Key.Change),
			Member:     -1,
		}

		if res.Spaces.Size != nil {
			label.SizeLow = res.Spaces.Size.Low(bin.Key.Size)
			label.HasSize = true
		}

		for n, spike := range bin.Spikes {
			id := label
			id.Index = n

			for member, row := range spike.Rows {
				if w.Options.Mode == ModeCluster {
					id.Member = member
				}

				if err := emit(id, row, spike.Permutation); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

func (w *Writer) renderSeparate(
	src *table.Table, res *Result, slots [][]string, lookup map[string]int,
) (*table.Table, error) {
	idCols := w.IDColumns()

	header := append([]string(nil), idCols...)
	for _, cols := range slots {
		header = append(header, cols...)
	}

	out, err := table.New(header)
	if err != nil {
		return nil, fmt.Errorf("%w: output columns %s: %w", ErrConfiguration, strings.Join(header, ","), err)
	}

	err = w.synthetic(res, func(id SpikeID, row int, perm []int) error {
		cells := make([]table.Cell, 0, len(header))
		cells = append(cells, table.TextCell(id.String()))

		for _, col := range idCols[1:] {
			if idx, ok := src.Column(col); ok {
				cells = append(cells, src.Cell(row, idx))
			} else {
				cells = append(cells, table.TextCell(id.String()))
			}
		}

		for slot, cols := range slots {
			from := slots[perm[slot]]
			for k := range cols {
				cells = append(cells, src.Cell(row, lookup[from[k]]))
			}
		}

		return out.Append(cells)
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (w *Writer) renderAppend(
	src *table.Table, res *Result, slots [][]string, lookup map[string]int,
) (*table.Table, error) {
	idCols := w.Options.IDColumns
	if missing := src.Missing(idCols...); len(missing) > 0 {
		return nil, fmt.Errorf("%w: id column(s) %s are not in the table", ErrConfiguration, strings.Join(missing, ", "))
	}

	idIdx, _ := src.Column(idCols[0])

	out, err := src.Select(src.AllRows(), nil)
	if err != nil {
		return nil, err
	}

	err = w.synthetic(res, func(id SpikeID, row int, perm []int) error {
		cells := src.Row(row)
		cells[idIdx] = table.TextCell(id.String())

		for slot, cols := range slots {
			from := slots[perm[slot]]
			for k, col := range cols {
				cells[lookup[col]] = src.Cell(row, lookup[from[k]])
			}
		}

		return out.Append(cells)
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}
