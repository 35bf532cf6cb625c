// Package seed derives the k-means seed for an extraction.
//
// Identical seeds give identical palettes, so the default is a fixed manual seed.
// The content and filepath modes stay reproducible per image while varying across images.
package seed

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"image"
	"math/rand"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// DefaultValue is the seed used in manual mode when no value is given.
const DefaultValue int64 = 42

// Mode determines how the seed is produced.
type Mode string

const (
	// ModeManual uses a fixed, user-provided value (default).
	ModeManual Mode = "manual"
	// ModeContent hashes the image pixels.
	ModeContent Mode = "content"
	// ModeFilepath hashes the absolute file path or URL.
	ModeFilepath Mode = "filepath"
	// ModeRandom varies on every run.
	ModeRandom Mode = "random"
)

// Config holds configuration for seed generation.
type Config struct {
	Mode  Mode
	Value int64 // only used by ModeManual
}

// Default returns manual mode with DefaultValue.
func Default() Config {
	return Config{Mode: ModeManual, Value: DefaultValue}
}

// Calculate determines the seed for img, loaded from imagePath, according to config.
func Calculate(img image.Image, imagePath string, config Config) (int64, error) {
	switch config.Mode {
	case ModeManual, "":
		return config.Value, nil
	case ModeContent:
		if img == nil {
			return 0, fmt.Errorf("image is required for content-based seed mode")
		}
		return ContentSeed(img), nil
	case ModeFilepath:
		if imagePath == "" {
			return 0, fmt.Errorf("image path is required for filepath-based seed mode")
		}
		return FilepathSeed(imagePath), nil
	case ModeRandom:
		return RandomSeed(), nil
	default:
		return 0, fmt.Errorf("unknown seed mode: %s", config.Mode)
	}
}

// ContentSeed hashes the dimensions and a grid sample of pixels.
// The same pixels give the same seed regardless of file name or location.
func ContentSeed(img image.Image) int64 {
	bounds := img.Bounds()
	hasher := sha256.New()

	var dims [8]byte
	binary.LittleEndian.PutUint32(dims[0:4], uint32(bounds.Dx())) // #nosec G115 -- image dimensions are non-negative
	binary.LittleEndian.PutUint32(dims[4:8], uint32(bounds.Dy())) // #nosec G115 -- image dimensions are non-negative
	hasher.Write(dims[:])

	step := max(bounds.Dx()/100, bounds.Dy()/100, 1)
	var px [4]byte
	for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
		for x := bounds.Min.X; x < bounds.Max.X; x += step {
			r, g, b, a := img.At(x, y).RGBA()
			px[0], px[1], px[2], px[3] = byte(r>>8), byte(g>>8), byte(b>>8), byte(a>>8)
			hasher.Write(px[:])
		}
	}

	return hashToSeed(hasher.Sum(nil))
}

// FilepathSeed hashes the absolute path of imagePath (URLs are hashed verbatim).
func FilepathSeed(imagePath string) int64 {
	key := imagePath
	if !strings.HasPrefix(imagePath, "http://") && !strings.HasPrefix(imagePath, "https://") {
		if abs, err := filepath.Abs(imagePath); err == nil {
			key = abs
		}
	}
	sum := sha256.Sum256([]byte(key))
	return hashToSeed(sum[:])
}

// RandomSeed returns a non-deterministic seed.
func RandomSeed() int64 {
	// #nosec G404 -- Random seed generation is intentionally non-deterministic
	return time.Now().UnixNano() + int64(rand.Intn(1000000))
}

func hashToSeed(hash []byte) int64 {
	return int64(binary.LittleEndian.Uint64(hash[:8])) // #nosec G115 -- any 64-bit pattern is a valid seed
}

// ValidModes returns a list of valid seed modes.
func ValidModes() []Mode {
	return []Mode{ModeManual, ModeContent, ModeFilepath, ModeRandom}
}

// ParseMode converts a string to a Mode, case-insensitively.
func ParseMode(s string) (Mode, error) {
	mode := Mode(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(ValidModes(), mode) {
		return mode, nil
	}
	return "", fmt.Errorf("invalid seed mode: %s (valid: manual, content, filepath, random)", s)
}
