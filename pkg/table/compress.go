package table

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// StdStream is the path that selects standard input or output.
const StdStream = "-"

// Compression identifies a stream codec chosen from a file suffix.
type Compression string

// Supported codecs.
const (
	CompressionNone Compression = ""
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
	CompressionLZ4  Compression = "lz4"
)

// CompressionFor returns the codec implied by the suffix of path.
func CompressionFor(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		return CompressionGzip
	case ".zst", ".zstd":
		return CompressionZstd
	case ".lz4":
		return CompressionLZ4
	default:
		return CompressionNone
	}
}

// Open opens path for reading, decompressing by suffix. An empty path or "-"
// reads standard input.
func Open(path string) (io.ReadCloser, error) {
	if path == "" || path == StdStream {
		return io.NopCloser(os.Stdin), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	rc, err := NewReader(f, CompressionFor(path))
	if err != nil {
		return nil, errors.Join(fmt.Errorf("open %s: %w", path, err), f.Close())
	}

	return &stackedReadCloser{ReadCloser: rc, file: f}, nil
}

// NewReader wraps r with the decoder for codec.
func NewReader(r io.Reader, codec Compression) (io.ReadCloser, error) {
	switch codec {
	case CompressionGzip:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}

		return gz, nil
	case CompressionZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}

		return dec.IOReadCloser(), nil
	case CompressionLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return io.NopCloser(r), nil
	}
}

// Create opens path for writing, compressing by suffix. An empty path or "-"
// writes standard output.
func Create(path string) (io.WriteCloser, error) {
	if path == "" || path == StdStream {
		return nopWriteCloser{Writer: os.Stdout}, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}

	wc, err := NewWriter(f, CompressionFor(path))
	if err != nil {
		return nil, errors.Join(fmt.Errorf("create %s: %w", path, err), f.Close())
	}

	return &stackedWriteCloser{WriteCloser: wc, file: f}, nil
}

// NewWriter wraps w with the encoder for codec. Closing the result flushes
// the encoder but does not close w.
func NewWriter(w io.Writer, codec Compression) (io.WriteCloser, error) {
	switch codec {
	case CompressionGzip:
		return gzip.NewWriter(w), nil
	case CompressionZstd:
		enc, err := zstd.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("zstd writer: %w", err)
		}

		return enc, nil
	case CompressionLZ4:
		return lz4.NewWriter(w), nil
	default:
		return nopWriteCloser{Writer: w}, nil
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

type stackedReadCloser struct {
	io.ReadCloser

	file *os.File
}

func (s *stackedReadCloser) Close() error {
	return errors.Join(s.ReadCloser.Close(), s.file.Close())
}

type stackedWriteCloser struct {
	io.WriteCloser

	file *os.File
}

func (s *stackedWriteCloser) Close() error {
	return errors.Join(s.WriteCloser.Close(), s.file.Close())
}

// ReadFile loads a table from path (see Open).
func ReadFile(path string) (*Table, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, err
	}

	t, readErr := Read(rc)

	return t, errors.Join(readErr, rc.Close())
}

// WriteFile stores t at path (see Create).
func WriteFile(path string, t *Table) error {
	wc, err := Create(path)
	if err != nil {
		return err
	}

	writeErr := Write(wc, t)

	return errors.Join(writeErr, wc.Close())
}
