package colour

import (
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
)

const (
	// DefaultBarHeight is the height in pixels of the colour bar appended below the image.
	DefaultBarHeight = 50

	// JSONFilename is the file name used for the palette colour list.
	JSONFilename = "color_palette.json"

	// PNGFilename is the file name used for the annotated image.
	PNGFilename = "color_palette.png"
)

// ComposeOptions configures palette artifact composition.
type ComposeOptions struct {
	// BarHeight is the height of the colour bar. Zero means DefaultBarHeight.
	BarHeight int
}

// Artifact is a composed palette: the JSON colour list and the annotated image.
type Artifact struct {
	JSON  []byte
	Image *image.RGBA
}

// Compose renders the selected colours as a JSON list and as a bar appended below img.
//
// The bar is split into len(colors) segments of width W/len(colors). Segment i covers
// columns [floor(i*step), floor((i+1)*step)); the last segment always ends at W.
func Compose(img image.Image, colors []RGB, opts ComposeOptions) (*Artifact, error) {
	if len(colors) == 0 {
		return nil, ErrNoColorsSelected
	}
	if img == nil {
		return nil, fmt.Errorf("%w: image cannot be nil", ErrEmptyImage)
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrEmptyImage, width, height)
	}

	barHeight := opts.BarHeight
	if barHeight <= 0 {
		barHeight = DefaultBarHeight
	}

	doc, err := MarshalColors(colors)
	if err != nil {
		return nil, fmt.Errorf("failed to encode palette JSON: %w", err)
	}

	out := image.NewRGBA(image.Rect(0, 0, width, height+barHeight))
	draw.Draw(out, out.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(out, image.Rect(0, 0, width, height), flatten(img), bounds.Min, draw.Src)

	for i, seg := range BarSegments(width, len(colors)) {
		rect := image.Rect(seg[0], height, seg[1], height+barHeight)
		draw.Draw(out, rect, image.NewUniform(colors[i].RGBA()), image.Point{}, draw.Src)
	}

	return &Artifact{JSON: doc, Image: out}, nil
}

// BarSegments returns the [start, end) column range of each of n bar segments across width.
func BarSegments(width, n int) [][2]int {
	if n <= 0 {
		return nil
	}
	step := float64(width) / float64(n)
	segments := make([][2]int, n)
	for i := range n {
		x0 := int(math.Floor(float64(i) * step))
		x1 := int(math.Floor(float64(i+1) * step))
		if i == n-1 {
			x1 = width
		}
		segments[i] = [2]int{x0, x1}
	}
	return segments
}

// WriteFiles saves the artifact as color_palette.json and color_palette.png in dir.
func (a *Artifact) WriteFiles(dir string) (jsonPath, pngPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil { // #nosec G301 - Output directory needs standard permissions
		return "", "", fmt.Errorf("failed to create output directory: %w", err)
	}

	jsonPath = filepath.Join(dir, JSONFilename)
	if err := os.WriteFile(jsonPath, append(a.JSON, '\n'), 0o644); err != nil { // #nosec G306 - Palette files are user-readable output
		return "", "", fmt.Errorf("failed to write palette JSON: %w", err)
	}

	pngPath = filepath.Join(dir, PNGFilename)
	file, err := os.Create(pngPath) // #nosec G304 - Output path chosen by the user
	if err != nil {
		return "", "", fmt.Errorf("failed to create palette image: %w", err)
	}
	encodeErr := png.Encode(file, a.Image)
	closeErr := file.Close()
	if encodeErr != nil {
		return "", "", fmt.Errorf("failed to encode palette image: %w", encodeErr)
	}
	if closeErr != nil {
		return "", "", fmt.Errorf("failed to close palette image: %w", closeErr)
	}

	return jsonPath, pngPath, nil
}

// flatten returns an opaque copy of img with alpha discarded, matching how pixels are analysed.
func flatten(img image.Image) image.Image {
	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			out.SetRGBA(x, y, ToRGB(img.At(x, y)).RGBA())
		}
	}
	return out
}
