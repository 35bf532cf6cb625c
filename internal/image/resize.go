package image

import (
	"image"

	"golang.org/x/image/draw"
)

// Downscale shrinks img so that neither side exceeds maxDimension, keeping the aspect ratio.
// Images that already fit, and a non-positive maxDimension, return img unchanged.
func Downscale(img image.Image, maxDimension int) image.Image {
	if maxDimension <= 0 {
		return img
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= maxDimension && height <= maxDimension {
		return img
	}

	newWidth, newHeight := maxDimension, maxDimension
	if width >= height {
		newHeight = max(1, height*maxDimension/width)
	} else {
		newWidth = max(1, width*maxDimension/height)
	}

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
	return dst
}
