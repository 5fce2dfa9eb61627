// Package compress opens and creates files, transparently (de)compressing them based on the file extension.
//
// Supported extensions: .gz (gzip to read, BGZF to write), .zst (zstandard) and .lz4 (lz4 frames).
// Anything else is read and written as is. The path "-" means STDIN or STDOUT.
package compress

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/biogo/hts/bgzf"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
)

// Codec identifies a compression format
type Codec int

const (
	// None is uncompressed data
	None Codec = iota
	// Gzip is gzip (or BGZF) data
	Gzip
	// Zstd is zstandard data
	Zstd
	// LZ4 is lz4 frame data
	LZ4
)

func (c Codec) String() string {
	switch c {
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	}
	return "none"
}

// FromPath returns the codec implied by the file extension
func FromPath(path string) Codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz", ".bgz":
		return Gzip
	case ".zst", ".zstd":
		return Zstd
	case ".lz4":
		return LZ4
	}
	return None
}

// TrimExt removes a compression extension from path, if there is one
func TrimExt(path string) string {
	if FromPath(path) == None {
		return path
	}
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// closers closes a decoder or encoder and then the file under it
type closers struct {
	io.Reader
	io.Writer
	close []func() error
}

func (c *closers) Close() error {
	var first error
	for _, fn := range c.close {
		if err := fn(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Open opens path for reading, decompressing according to the extension
func Open(path string) (io.ReadCloser, error) {
	var fh *os.File
	if path == "-" {
		fh = os.Stdin
	} else {
		var err error
		if fh, err = os.Open(path); err != nil {
			return nil, errors.Wrapf(err, "could not open %v", path)
		}
	}
	r, err := NewReader(fh, FromPath(path))
	if err != nil {
		closeFile(fh)()
		return nil, errors.Wrapf(err, "could not read %v", path)
	}
	return &closers{Reader: r, close: []func() error{r.Close, closeFile(fh)}}, nil
}

// NewReader wraps r with a decoder for codec, closing the result does not close r
func NewReader(r io.Reader, codec Codec) (io.ReadCloser, error) {
	switch codec {
	case Gzip:
		return gzip.NewReader(r)
	case Zstd:
		dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	}
	return io.NopCloser(r), nil
}

// Create creates (or truncates) path for writing, compressing according to the extension
func Create(path string) (io.WriteCloser, error) {
	var fh *os.File
	if path == "-" {
		fh = os.Stdout
	} else {
		var err error
		if fh, err = os.Create(path); err != nil {
			return nil, errors.Wrapf(err, "could not create %v", path)
		}
	}
	w, err := NewWriter(fh, FromPath(path))
	if err != nil {
		closeFile(fh)()
		return nil, errors.Wrapf(err, "could not write %v", path)
	}
	return &closers{Writer: w, close: []func() error{w.Close, closeFile(fh)}}, nil
}

// NewWriter wraps w with an encoder for codec, the result must be closed to flush it but closing it does not close w
func NewWriter(w io.Writer, codec Codec) (io.WriteCloser, error) {
	switch codec {
	case Gzip:
		return bgzf.NewWriter(w, 1), nil
	case Zstd:
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	case LZ4:
		return lz4.NewWriter(w), nil
	}
	return nopWriteCloser{w}, nil
}

// closeFile leaves the standard streams open
func closeFile(fh *os.File) func() error {
	if fh == os.Stdin || fh == os.Stdout {
		return func() error { return nil }
	}
	return fh.Close
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
