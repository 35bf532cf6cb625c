package colour

import (
	"image"
	"image/color"
)

// newTestImage builds an RGBA image from rows of colours.
func newTestImage(rows [][]RGB) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, len(rows[0]), len(rows)))
	for y, row := range rows {
		for x, c := range row {
			img.Set(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 255})
		}
	}
	return img
}

// newBlockImage fills width x height with colours in equal vertical bands.
func newBlockImage(width, height int, colors ...RGB) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	band := width / len(colors)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			idx := min(x/band, len(colors)-1)
			c := colors[idx]
			img.Set(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 255})
		}
	}
	return img
}

var (
	red   = RGB{R: 255}
	green = RGB{G: 255}
	blue  = RGB{B: 255}
)
