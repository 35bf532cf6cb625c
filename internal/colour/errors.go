package colour

import "errors"

var (
	// ErrUnsupportedColorSpace is returned when an analysis space is not one of rgb, hsl or lab.
	ErrUnsupportedColorSpace = errors.New("unsupported color space")

	// ErrInvalidClusterCount is returned when K is below 1 or above the number of pixels.
	ErrInvalidClusterCount = errors.New("invalid cluster count")

	// ErrNoColorsSelected is returned when a palette is composed from an empty selection.
	ErrNoColorsSelected = errors.New("no colors selected")

	// ErrEmptyImage is returned when an image has zero width or height.
	ErrEmptyImage = errors.New("empty image")
)
