package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

const (
	fieldSeparator = '\t'
	commentMarker  = '#'
)

// Read parses a tab-separated table with a header line. Lines starting with
// '#' are comments.
func Read(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = fieldSeparator
	reader.Comment = commentMarker
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyTable
	}

	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	t, err := New(header)
	if err != nil {
		return nil, err
	}

	for {
		record, readErr := reader.Read()
		if errors.Is(readErr, io.EOF) {
			break
		}

		if readErr != nil {
			return nil, fmt.Errorf("read row %d: %w", t.Len()+1, readErr)
		}

		appendErr := t.AppendText(record)
		if appendErr != nil {
			return nil, fmt.Errorf("read row %d: %w", t.Len()+1, appendErr)
		}
	}

	return t, nil
}

// Write serializes t as a tab-separated table with a header line.
func Write(w io.Writer, t *Table) error {
	writer := csv.NewWriter(w)
	writer.Comma = fieldSeparator

	err := writer.Write(t.header)
	if err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	record := make([]string, len(t.header))

	for i, row := range t.rows {
		for c, cell := range row {
			record[c] = cell.Text
		}

		writeErr := writer.Write(record)
		if writeErr != nil {
			return fmt.Errorf("write row %d: %w", i, writeErr)
		}
	}

	writer.Flush()

	flushErr := writer.Error()
	if flushErr != nil {
		return fmt.Errorf("flush table: %w", flushErr)
	}

	return nil
}
