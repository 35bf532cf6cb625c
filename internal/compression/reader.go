// Package compression opens compressed image files as plain byte streams.
package compression

import (
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"

	"github.com/jmylchreest/kpalette/internal/security"
)

// Format identifies a single-stream compression format.
type Format string

const (
	FormatNone  Format = ""
	FormatXZ    Format = "xz"
	FormatGzip  Format = "gzip"
	FormatBzip2 Format = "bzip2"
	FormatZstd  Format = "zstd"
	FormatLZ4   Format = "lz4"
)

var extensions = map[string]Format{
	".xz":  FormatXZ,
	".gz":  FormatGzip,
	".bz2": FormatBzip2,
	".zst": FormatZstd,
	".lz4": FormatLZ4,
}

// Detect returns the compression format implied by the file extension of path.
func Detect(path string) Format {
	return extensions[strings.ToLower(filepath.Ext(path))]
}

// TrimExt removes a recognised compression extension from path.
func TrimExt(path string) string {
	if Detect(path) == FormatNone {
		return path
	}
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// SupportedExtensions lists the compression suffixes Detect recognises, sorted.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(extensions))
	for ext := range extensions {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}

// NewReader wraps r in a decompressor for format. The decompressed stream fails once it
// exceeds maxBytes. Closing the result releases the decompressor, not r.
func NewReader(r io.Reader, format Format, maxBytes int64) (io.ReadCloser, error) {
	var (
		dec    io.Reader
		closer func() error
	)

	switch format {
	case FormatNone:
		return io.NopCloser(r), nil
	case FormatXZ:
		xzr, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		dec = xzr
	case FormatGzip:
		gzr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		dec, closer = gzr, gzr.Close
	case FormatBzip2:
		dec = bzip2.NewReader(r)
	case FormatZstd:
		zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		dec = zr
		closer = func() error {
			zr.Close()
			return nil
		}
	case FormatLZ4:
		dec = lz4.NewReader(r)
	default:
		return nil, fmt.Errorf("unsupported compression format: %s", format)
	}

	return &limitedReadCloser{
		Reader: security.NewLimitedReader(dec, maxBytes),
		close:  closer,
	}, nil
}

type limitedReadCloser struct {
	io.Reader
	close func() error
}

func (l *limitedReadCloser) Close() error {
	if l.close == nil {
		return nil
	}
	return l.close()
}
