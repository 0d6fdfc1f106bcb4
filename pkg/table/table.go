// Package table provides the in-memory model of a tab-delimited count table.
// Rows are addressed by their position in the loaded table; that index is the
// row identity used throughout spike generation and is never reassigned.
package table

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Sentinel errors.
var (
	// ErrDuplicateColumn indicates that a header names the same column twice.
	ErrDuplicateColumn = errors.New("duplicate column")
	// ErrMissingColumn indicates that a requested column is not in the header.
	ErrMissingColumn = errors.New("missing column")
	// ErrRowWidth indicates that a row does not have one cell per column.
	ErrRowWidth = errors.New("row width does not match header")
	// ErrEmptyTable indicates that the input had no header line.
	ErrEmptyTable = errors.New("empty table")
)

// Cell is a single table value. The source text is always kept so that
// values pass through unchanged when written back out.
type Cell struct {
	Text    string
	Num     float64
	Numeric bool
}

// TextCell builds a cell from its textual form, parsing it as a number when possible.
func TextCell(s string) Cell {
	num, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return Cell{Text: s}
	}

	return Cell{Text: s, Num: num, Numeric: true}
}

// NumCell builds a numeric cell.
func NumCell(v float64) Cell {
	return Cell{Text: strconv.FormatFloat(v, 'g', -1, 64), Num: v, Numeric: true}
}

// Table is an ordered collection of rows sharing one header.
type Table struct {
	header []string
	index  map[string]int
	rows   [][]Cell
}

// New creates an empty table with the given header.
func New(header []string) (*Table, error) {
	index := make(map[string]int, len(header))

	for i, name := range header {
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, name)
		}

		index[name] = i
	}

	return &Table{
		header: slices.Clone(header),
		index:  index,
	}, nil
}

// Header returns a copy of the column names in order.
func (t *Table) Header() []string {
	return slices.Clone(t.header)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Width returns the number of columns.
func (t *Table) Width() int {
	return len(t.header)
}

// Column returns the position of the named column.
func (t *Table) Column(name string) (int, bool) {
	idx, ok := t.index[name]

	return idx, ok
}

// Missing returns the names that are not columns of the table, in argument order.
func (t *Table) Missing(names ...string) []string {
	var missing []string

	for _, name := range names {
		if _, ok := t.index[name]; !ok {
			missing = append(missing, name)
		}
	}

	return missing
}

// Append adds a row. The cells are copied.
func (t *Table) Append(cells []Cell) error {
	if len(cells) != len(t.header) {
		return fmt.Errorf("%w: got %d cells, want %d", ErrRowWidth, len(cells), len(t.header))
	}

	t.rows = append(t.rows, slices.Clone(cells))

	return nil
}

// AppendText adds a row from raw field text.
func (t *Table) AppendText(fields []string) error {
	cells := make([]Cell, len(fields))
	for i, f := range fields {
		cells[i] = TextCell(f)
	}

	return t.Append(cells)
}

// Cell returns the cell at row, col.
func (t *Table) Cell(row, col int) Cell {
	return t.rows[row][col]
}

// Row returns a copy of the cells of row i.
func (t *Table) Row(i int) []Cell {
	return slices.Clone(t.rows[i])
}

// Float returns the numeric value at row, col and whether the cell is numeric.
func (t *Table) Float(row, col int) (float64, bool) {
	c := t.rows[row][col]

	return c.Num, c.Numeric
}

// Select returns a new table holding the given rows (in the given order)
// restricted to the given columns. A nil cols keeps every column.
func (t *Table) Select(rows []int, cols []string) (*Table, error) {
	if cols == nil {
		cols = t.header
	}

	if missing := t.Missing(cols...); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}

	out, err := New(cols)
	if err != nil {
		return nil, err
	}

	positions := make([]int, len(cols))
	for i, name := range cols {
		positions[i] = t.index[name]
	}

	out.rows = make([][]Cell, 0, len(rows))

	for _, r := range rows {
		cells := make([]Cell, len(positions))
		for i, p := range positions {
			cells[i] = t.rows[r][p]
		}

		out.rows = append(out.rows, cells)
	}

	return out, nil
}

// AllRows returns the identity row order 0..Len()-1.
func (t *Table) AllRows() []int {
	rows := make([]int, len(t.rows))
	for i := range rows {
		rows[i] = i
	}

	return rows
}
