// Package image provides utilities for loading and preparing images for palette extraction.
package image

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format
	_ "image/jpeg" // Register JPEG format
	_ "image/png"  // Register PNG format
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	_ "github.com/gen2brain/avif" // Register AVIF format
	_ "golang.org/x/image/webp"   // Register WebP format

	"github.com/jmylchreest/kpalette/internal/compression"
	"github.com/jmylchreest/kpalette/internal/security"
	httputil "github.com/jmylchreest/kpalette/internal/util/http"
	"github.com/jmylchreest/kpalette/internal/util/imagecache"
)

// MaxDecompressedSize bounds the size of a compressed image once decompressed.
const MaxDecompressedSize = 256 * 1024 * 1024

// Loader handles loading images from various sources.
type Loader interface {
	// Load loads an image from the given path or URL.
	Load(ctx context.Context, path string) (image.Image, error)
}

// FileLoader loads images from the local filesystem.
// Files with a compression suffix (.xz, .gz, .bz2, .zst, .lz4) are decompressed before decoding.
type FileLoader struct{}

// NewFileLoader creates a new FileLoader instance.
func NewFileLoader() *FileLoader {
	return &FileLoader{}
}

// Load loads an image from a file path.
// Supported formats: JPEG, PNG, GIF, WebP, AVIF, optionally compressed.
func (l *FileLoader) Load(_ context.Context, path string) (image.Image, error) {
	if path == "" {
		return nil, fmt.Errorf("image path cannot be empty")
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("image file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to stat image file: %w", err)
	}

	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	file, err := os.Open(path) // #nosec G304 - User-specified image path, intended to be read
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	return decode(file, path)
}

// decode decompresses r according to the suffix of name and decodes the image.
func decode(r io.Reader, name string) (image.Image, error) {
	rc, err := compression.NewReader(r, compression.Detect(name), MaxDecompressedSize)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	img, format, err := image.Decode(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image (format: %s): %w", format, err)
	}

	return img, nil
}

// ValidateImagePath checks if the given path is valid and points to a supported image file or directory.
// HTTP(S) URLs are only checked for their scheme; they are fetched later.
func ValidateImagePath(path string) error {
	if path == "" {
		return fmt.Errorf("image path cannot be empty")
	}

	if IsURL(path) {
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("image file or directory not found: %s", path)
		}
		return fmt.Errorf("failed to access image path: %w", err)
	}

	if info.IsDir() {
		return nil
	}

	// Compressed images are validated when decoded.
	if isCompressed(path) {
		return nil
	}

	file, err := os.Open(path) // #nosec G304 - User-specified image path, intended to be read
	if err != nil {
		return fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	if _, _, err := image.DecodeConfig(file); err != nil {
		return fmt.Errorf("unsupported or invalid image format (expected %s, optionally compressed as %s): %w",
			strings.Join(SupportedImageExtensions(), " "), strings.Join(compression.SupportedExtensions(), " "), err)
	}

	return nil
}

// SupportedImageExtensions returns a list of supported image file extensions.
func SupportedImageExtensions() []string {
	return []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".avif"}
}

// IsURL reports whether path is an HTTP(S) URL.
func IsURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

func isCompressed(path string) bool {
	return compression.Detect(path) != compression.FormatNone
}

// isImageFile checks if a file has a supported image extension, optionally followed by a compression suffix.
func isImageFile(path string) bool {
	name := compression.TrimExt(strings.ToLower(path))
	return slices.Contains(SupportedImageExtensions(), filepath.Ext(name))
}

// ScanDirectoryForImages scans a directory and returns all valid image files, sorted by name.
// It does not recurse into subdirectories, but follows symlinks.
func ScanDirectoryForImages(dirPath string) ([]string, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var imageFiles []string
	for _, entry := range entries {
		fullPath := filepath.Join(dirPath, entry.Name())

		// For symlinks, stat the target to determine if it's a file.
		info, err := os.Stat(fullPath)
		if err != nil {
			continue
		}
		if info.IsDir() {
			continue
		}

		if isImageFile(entry.Name()) {
			imageFiles = append(imageFiles, fullPath)
		}
	}

	if len(imageFiles) == 0 {
		return nil, fmt.Errorf("no supported image files found in directory: %s", dirPath)
	}

	slices.Sort(imageFiles)
	return imageFiles, nil
}

// ResolveImagePaths expands a path into the images it names.
// Directories yield every supported image inside them; files and URLs are returned as-is.
func ResolveImagePaths(path string) ([]string, error) {
	if IsURL(path) {
		return []string{path}, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to access path: %w", err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	return ScanDirectoryForImages(path)
}

// SmartLoader loads images from both local files and HTTPS URLs.
// When a cache directory is configured, remote images are downloaded once and reused.
type SmartLoader struct {
	fileLoader *FileLoader
	cacheDir   string
}

// SmartLoaderOption configures a SmartLoader.
type SmartLoaderOption func(*SmartLoader)

// WithCacheDir enables on-disk caching of remote images in dir.
func WithCacheDir(dir string) SmartLoaderOption {
	return func(l *SmartLoader) {
		l.cacheDir = dir
	}
}

// NewSmartLoader creates a new SmartLoader instance.
func NewSmartLoader(opts ...SmartLoaderOption) *SmartLoader {
	l := &SmartLoader{
		fileLoader: NewFileLoader(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load loads an image from either a local file path or HTTPS URL.
func (l *SmartLoader) Load(ctx context.Context, path string) (image.Image, error) {
	if IsURL(path) {
		return l.loadFromURL(ctx, path)
	}
	return l.fileLoader.Load(ctx, path)
}

// loadFromURL fetches and decodes an image from an HTTPS URL.
func (l *SmartLoader) loadFromURL(ctx context.Context, url string) (image.Image, error) {
	if err := security.ValidateHTTPURL(url); err != nil {
		return nil, fmt.Errorf("refusing to fetch image: %w", err)
	}

	if l.cacheDir != "" {
		cached, err := imagecache.DownloadAndCache(ctx, url, imagecache.CacheOptions{CacheDir: l.cacheDir})
		if err != nil {
			return nil, fmt.Errorf("failed to cache image from URL: %w", err)
		}
		return l.fileLoader.Load(ctx, cached)
	}

	data, err := httputil.Fetch(ctx, url, httputil.FetchOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image from URL: %w", err)
	}

	return decode(bytes.NewReader(data), urlPath(url))
}

// urlPath strips the query and fragment so the compression suffix can be detected.
func urlPath(url string) string {
	if idx := strings.IndexAny(url, "?#"); idx != -1 {
		return url[:idx]
	}
	return url
}
