package colour

import "math"

// Luminance returns the WCAG 2.0 relative luminance of c, from 0 (black) to 1 (white).
// https://www.w3.org/TR/WCAG20/#relativeluminancedef
func Luminance(c RGB) float64 {
	return 0.2126*linearise(c.R) + 0.7152*linearise(c.G) + 0.0722*linearise(c.B)
}

func linearise(v uint8) float64 {
	f := float64(v) / 255
	if f <= 0.03928 {
		return f / 12.92
	}
	return math.Pow((f+0.055)/1.055, 2.4)
}

// ContrastRatio returns the WCAG 2.0 contrast ratio of two colours, from 1 to 21.
func ContrastRatio(a, b RGB) float64 {
	la, lb := Luminance(a), Luminance(b)
	if la < lb {
		la, lb = lb, la
	}
	return (la + 0.05) / (lb + 0.05)
}

// ReadableOn returns black or white, whichever contrasts more with bg.
func ReadableOn(bg RGB) RGB {
	black, white := RGB{}, RGB{R: 255, G: 255, B: 255}
	if ContrastRatio(bg, black) >= ContrastRatio(bg, white) {
		return black
	}
	return white
}
