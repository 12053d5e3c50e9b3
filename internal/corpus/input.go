package corpus

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"tracerank/internal/errors"
)

// Compression is the encoding of an input or output file, chosen by extension.
type Compression int

const (
	Plain Compression = iota
	Gzip
	Zstd
)

// CompressionFor returns the compression implied by path's extension.
func CompressionFor(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		return Gzip
	case ".zst", ".zstd":
		return Zstd
	default:
		return Plain
	}
}

// BaseName strips a compression extension, so "t.txt.gz" becomes "t.txt".
func BaseName(path string) string {
	if CompressionFor(path) == Plain {
		return path
	}
	return strings.TrimSuffix(path, filepath.Ext(path))
}

type readCloser struct {
	io.Reader
	closers []func() error
}

func (r *readCloser) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// OpenInput opens path for reading, decompressing .gz and .zst files.
func OpenInput(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(errors.IOError, "cannot open "+path, err)
	}

	switch CompressionFor(path) {
	case Gzip:
		zr, err := gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, errors.New(errors.UnsupportedFormat, path+" is not a gzip stream", err)
		}
		return &readCloser{Reader: zr, closers: []func() error{zr.Close, f.Close}}, nil
	case Zstd:
		zr, err := zstd.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, errors.New(errors.UnsupportedFormat, path+" is not a zstd stream", err)
		}
		return &readCloser{Reader: zr, closers: []func() error{
			func() error { zr.Close(); return nil },
			f.Close,
		}}, nil
	default:
		return f, nil
	}
}

type writeCloser struct {
	io.Writer
	closers []func() error
}

func (w *writeCloser) Close() error {
	var first error
	for _, c := range w.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// CreateOutput creates path for writing, compressing when the extension asks for it.
// Close flushes the compressor before closing the file.
func CreateOutput(path string) (io.WriteCloser, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.New(errors.IOError, "cannot create directory "+dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.New(errors.IOError, "cannot create "+path, err)
	}

	switch CompressionFor(path) {
	case Gzip:
		zw := gzip.NewWriter(f)
		return &writeCloser{Writer: zw, closers: []func() error{zw.Close, f.Close}}, nil
	case Zstd:
		zw, err := zstd.NewWriter(f)
		if err != nil {
			_ = f.Close()
			return nil, errors.New(errors.InternalError, "cannot start zstd encoder", err)
		}
		return &writeCloser{Writer: zw, closers: []func() error{zw.Close, f.Close}}, nil
	default:
		return f, nil
	}
}
