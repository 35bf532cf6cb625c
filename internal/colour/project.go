package colour

import (
	"context"
	"fmt"
	"image"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultProgressStep is the number of pixels converted between progress notifications.
const DefaultProgressStep = 4096

// projectChunk is the number of pixels each conversion goroutine handles.
const projectChunk = 8192

// FeatureMatrix holds one feature vector per pixel, in row-major image order.
type FeatureMatrix struct {
	Space  Space
	Width  int
	Height int
	Rows   []Vector
}

// Len returns the number of feature vectors (pixels).
func (m *FeatureMatrix) Len() int {
	return len(m.Rows)
}

// ProjectOptions configures a projection pass.
type ProjectOptions struct {
	// Progress receives the number of converted pixels and the total.
	// Calls are serialised and done never decreases.
	Progress func(done, total int)

	// ProgressStep is the pixel granularity of progress notifications.
	// Zero means DefaultProgressStep.
	ProgressStep int

	// Workers bounds the number of conversion goroutines. Zero means GOMAXPROCS.
	Workers int
}

// Project maps every pixel of img into a feature vector in the requested space.
// Alpha is discarded. Nothing is returned unless the whole image was converted.
func Project(ctx context.Context, img image.Image, space Space, opts ProjectOptions) (*FeatureMatrix, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: image cannot be nil", ErrEmptyImage)
	}
	if !space.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedColorSpace, space)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrEmptyImage, width, height)
	}

	total := width * height
	rows := make([]Vector, total)
	matrix := &FeatureMatrix{Space: space, Width: width, Height: height, Rows: rows}

	if space == SpaceRGB {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				rgb := ToRGB(img.At(bounds.Min.X+x, bounds.Min.Y+y))
				rows[y*width+x] = Vector{float64(rgb.R), float64(rgb.G), float64(rgb.B)}
			}
		}
		if opts.Progress != nil {
			opts.Progress(total, total)
		}
		return matrix, nil
	}

	step := opts.ProgressStep
	if step <= 0 {
		step = DefaultProgressStep
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var (
		mu   sync.Mutex
		done int
	)
	report := func(n int) {
		if opts.Progress == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		done += n
		opts.Progress(done, total)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for start := 0; start < total; start += projectChunk {
		if gctx.Err() != nil {
			break
		}
		start := start
		end := min(start+projectChunk, total)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			pending := 0
			for i := start; i < end; i++ {
				rgb := ToRGB(img.At(bounds.Min.X+i%width, bounds.Min.Y+i/width))
				v, err := ToVector(rgb, space)
				if err != nil {
					return err
				}
				rows[i] = v
				if pending++; pending == step {
					report(pending)
					pending = 0
				}
			}
			if pending > 0 {
				report(pending)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("projecting image into %s: %w", space, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("projecting image into %s: %w", space, err)
	}

	return matrix, nil
}
