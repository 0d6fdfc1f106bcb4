package table

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
)

// ErrNonNumeric indicates a non-numeric cell in a column read as numeric.
var ErrNonNumeric = errors.New("non-numeric value")

// NumericPolicy selects how non-numeric cells are treated when columns are
// read as numbers.
type NumericPolicy int

const (
	// StrictNumericConversion fails on the first non-numeric cell.
	StrictNumericConversion NumericPolicy = iota
	// SkipOnNumericError marks the row invalid and carries on.
	SkipOnNumericError
)

// String returns the policy name.
func (p NumericPolicy) String() string {
	switch p {
	case StrictNumericConversion:
		return "strict"
	case SkipOnNumericError:
		return "skip"
	default:
		return fmt.Sprintf("NumericPolicy(%d)", int(p))
	}
}

// Matrix is a dense row-major view of selected numeric columns.
// Values of invalid rows are NaN.
type Matrix struct {
	Columns []string
	Valid   []bool

	values []float64
}

// Rows returns the number of rows in the matrix.
func (m *Matrix) Rows() int {
	return len(m.Valid)
}

// At returns the value at row, col.
func (m *Matrix) At(row, col int) float64 {
	return m.values[row*len(m.Columns)+col]
}

// Row returns the values of one row. The slice aliases the matrix storage.
func (m *Matrix) Row(row int) []float64 {
	w := len(m.Columns)

	return m.values[row*w : (row+1)*w]
}

// Numeric reads cols as float64 values under the given policy.
func (t *Table) Numeric(cols []string, policy NumericPolicy) (*Matrix, error) {
	if missing := t.Missing(cols...); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}

	m := &Matrix{
		Columns: slices.Clone(cols),
		Valid:   make([]bool, len(t.rows)),
		values:  make([]float64, len(t.rows)*len(cols)),
	}

	for r, row := range t.rows {
		m.Valid[r] = true

		for c, name := range cols {
			cell := row[t.index[name]]
			if cell.Numeric && !math.IsNaN(cell.Num) {
				m.values[r*len(cols)+c] = cell.Num

				continue
			}

			if policy == StrictNumericConversion {
				return nil, fmt.Errorf("%w: row %d column %q: %q", ErrNonNumeric, r, name, cell.Text)
			}

			m.Valid[r] = false
		}

		if !m.Valid[r] {
			for c := range cols {
				m.values[r*len(cols)+c] = math.NaN()
			}
		}
	}

	return m, nil
}

// OrderBy returns the row indices sorted by the text of keyCol, then by the
// numeric value of posCol. Rows with a non-numeric position sort after the
// numeric ones of the same key. The sort is stable, so ties keep table order.
func (t *Table) OrderBy(keyCol, posCol string) ([]int, error) {
	if missing := t.Missing(keyCol, posCol); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}

	keyIdx, posIdx := t.index[keyCol], t.index[posCol]
	order := t.AllRows()

	slices.SortStableFunc(order, func(a, b int) int {
		ka, kb := t.rows[a][keyIdx].Text, t.rows[b][keyIdx].Text
		if c := strings.Compare(ka, kb); c != 0 {
			return c
		}

		pa, pb := t.rows[a][posIdx], t.rows[b][posIdx]

		switch {
		case pa.Numeric && pb.Numeric:
			return cmp.Compare(pa.Num, pb.Num)
		case pa.Numeric:
			return -1
		case pb.Numeric:
			return 1
		default:
			return 0
		}
	})

	return order, nil
}
