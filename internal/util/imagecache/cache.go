// Package imagecache downloads remote images once and keeps them on disk.
package imagecache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	httputil "github.com/jmylchreest/kpalette/internal/util/http"
)

// CacheOptions configures image caching behaviour.
type CacheOptions struct {
	// CacheDir is where images are stored. Empty means DefaultCacheDir().
	CacheDir string

	// Refresh forces a new download even when a cached copy exists.
	Refresh bool

	// AllowPrivate permits downloads from loopback and private addresses.
	AllowPrivate bool
}

// DefaultCacheDir returns $XDG_CACHE_HOME/kpalette/images (or the platform equivalent).
func DefaultCacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to determine cache directory: %w", err)
		}
		return filepath.Join(home, ".cache", "kpalette", "images"), nil
	}
	return filepath.Join(cacheDir, "kpalette", "images"), nil
}

// Filename derives the cache file name for url: a hash of the URL plus its extension.
func Filename(url string) string {
	sum := sha256.Sum256([]byte(url))

	path := url
	if idx := strings.IndexAny(path, "?#"); idx != -1 {
		path = path[:idx]
	}
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" || len(ext) > 5 {
		ext = ".img"
	}

	return hex.EncodeToString(sum[:16]) + ext
}

// DownloadAndCache returns the local path of url, downloading it first if needed.
// Files are written to a temporary name and renamed so partial downloads are never reused.
func DownloadAndCache(ctx context.Context, url string, opts CacheOptions) (string, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return "", fmt.Errorf("invalid URL: must start with http:// or https://")
	}

	cacheDir := opts.CacheDir
	if cacheDir == "" {
		defaultDir, err := DefaultCacheDir()
		if err != nil {
			return "", err
		}
		cacheDir = defaultDir
	}

	if err := os.MkdirAll(cacheDir, 0o755); err != nil { // #nosec G301 - Cache directory needs standard permissions
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}

	cachedPath := filepath.Join(cacheDir, Filename(url))
	if !opts.Refresh {
		if _, err := os.Stat(cachedPath); err == nil {
			return cachedPath, nil
		}
	}

	data, err := httputil.Fetch(ctx, url, httputil.FetchOptions{AllowPrivate: opts.AllowPrivate})
	if err != nil {
		return "", fmt.Errorf("failed to download image: %w", err)
	}

	tmp, err := os.CreateTemp(cacheDir, ".download-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil || closeErr != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write cached image: %w", errors.Join(writeErr, closeErr))
	}
	if err := os.Rename(tmp.Name(), cachedPath); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to store cached image: %w", err)
	}

	return cachedPath, nil
}
