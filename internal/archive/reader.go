// Package archive reads and writes document sources that may be compressed.
// Files ending in .xz or .gz are transparently (de)compressed; anything else
// is treated as plain text.
package archive

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ulikunitz/xz"
)

// Compression identifies a source file's compression.
type Compression string

// Supported compressions.
const (
	None Compression = ""
	XZ   Compression = "xz"
	Gzip Compression = "gzip"
)

// DetectCompression infers compression from the file name.
func DetectCompression(path string) Compression {
	switch {
	case strings.HasSuffix(path, ".xz"):
		return XZ
	case strings.HasSuffix(path, ".gz"):
		return Gzip
	}
	return None
}

// StripCompression removes a compression suffix, so "notes.md.xz" yields
// "notes.md".
func StripCompression(path string) string {
	switch DetectCompression(path) {
	case XZ:
		return strings.TrimSuffix(path, ".xz")
	case Gzip:
		return strings.TrimSuffix(path, ".gz")
	}
	return path
}

// Reader wraps a source file with automatic decompression handling.
type Reader struct {
	io.Reader
	file         *os.File
	decompressor io.Closer
}

// Open opens path for reading, decompressing .xz and .gz files.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}

	var reader io.Reader = f
	var decompressor io.Closer

	switch DetectCompression(path) {
	case XZ:
		xzr, err := xz.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("xz reader: %w", err)
		}
		reader = xzr
	case Gzip:
		gzr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		reader = gzr
		decompressor = gzr
	}

	return &Reader{Reader: reader, file: f, decompressor: decompressor}, nil
}

// Close closes the reader and any underlying decompressor.
func (r *Reader) Close() error {
	var first error
	if r.decompressor != nil {
		first = r.decompressor.Close()
	}
	if err := r.file.Close(); err != nil && first == nil {
		first = err
	}
	return first
}

// ReadFile reads a whole, possibly compressed, source file.
func ReadFile(path string) ([]byte, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
