package compression

import (
	"bytes"
	"compress/gzip"
	"io"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

func TestDetect(t *testing.T) {
	tests := map[string]Format{
		"wall.png":      FormatNone,
		"wall.png.xz":   FormatXZ,
		"wall.PNG.GZ":   FormatGzip,
		"wall.jpg.bz2":  FormatBzip2,
		"/a/b.tar.zst":  FormatZstd,
		"wall.webp.lz4": FormatLZ4,
		"wall.png.zip":  FormatNone,
		"no-extension":  FormatNone,
	}
	for path, want := range tests {
		assert.Equal(t, want, Detect(path), path)
	}
}

func TestSupportedExtensions(t *testing.T) {
	exts := SupportedExtensions()
	assert.Equal(t, []string{".bz2", ".gz", ".lz4", ".xz", ".zst"}, exts)
	for _, ext := range exts {
		assert.NotEqual(t, FormatNone, Detect("wall.png"+ext), ext)
	}
}

func TestTrimExt(t *testing.T) {
	assert.Equal(t, "wall.png", TrimExt("wall.png.xz"))
	assert.Equal(t, "wall.png", TrimExt("wall.png.gz"))
	assert.Equal(t, "wall.png", TrimExt("wall.png"))
}

func compress(t *testing.T, format Format, payload []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	switch format {
	case FormatXZ:
		w, err := xz.NewWriter(&buf)
		require.NoError(t, err)
		_, err = w.Write(payload)
		require.NoError(t, err)
		require.NoError(t, w.Close())
	case FormatGzip:
		w := gzip.NewWriter(&buf)
		_, err := w.Write(payload)
		require.NoError(t, err)
		require.NoError(t, w.Close())
	case FormatZstd:
		w, err := zstd.NewWriter(&buf)
		require.NoError(t, err)
		_, err = w.Write(payload)
		require.NoError(t, err)
		require.NoError(t, w.Close())
	case FormatLZ4:
		w := lz4.NewWriter(&buf)
		_, err := w.Write(payload)
		require.NoError(t, err)
		require.NoError(t, w.Close())
	default:
		buf.Write(payload)
	}
	return buf.Bytes()
}

func TestNewReaderRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("kpalette"), 512)

	for _, format := range []Format{FormatNone, FormatXZ, FormatGzip, FormatZstd, FormatLZ4} {
		t.Run(string(format), func(t *testing.T) {
			r, err := NewReader(bytes.NewReader(compress(t, format, payload)), format, 1<<20)
			require.NoError(t, err)
			defer r.Close()

			got, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, payload, got)
		})
	}
}

func TestNewReaderEnforcesLimit(t *testing.T) {
	payload := bytes.Repeat([]byte{0}, 4096)

	r, err := NewReader(bytes.NewReader(compress(t, FormatGzip, payload)), FormatGzip, 1024)
	require.NoError(t, err)
	defer r.Close()

	_, err = io.ReadAll(r)
	assert.Error(t, err)
}

func TestNewReaderAcceptsExactLimit(t *testing.T) {
	payload := bytes.Repeat([]byte("kpalette"), 512)

	for _, format := range []Format{FormatXZ, FormatGzip, FormatZstd, FormatLZ4} {
		t.Run(string(format), func(t *testing.T) {
			r, err := NewReader(bytes.NewReader(compress(t, format, payload)), format, int64(len(payload)))
			require.NoError(t, err)
			defer r.Close()

			got, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, payload, got)
		})
	}
}

func TestNewReaderRejectsCorruptInput(t *testing.T) {
	_, err := NewReader(bytes.NewReader([]byte("not xz")), FormatXZ, 1024)
	assert.Error(t, err)

	_, err = NewReader(bytes.NewReader([]byte("not gzip")), FormatGzip, 1024)
	assert.Error(t, err)

	_, err = NewReader(bytes.NewReader(nil), Format("brotli"), 1024)
	assert.Error(t, err)
}
