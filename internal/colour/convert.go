package colour

import (
	"fmt"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Vector is a single feature vector: (r, g, b), (h, s, l) or (L, a, b) depending on the space.
type Vector [3]float64

// Distance returns the Euclidean distance between two vectors.
func (v Vector) Distance(other Vector) float64 {
	return math.Sqrt(v.distanceSq(other))
}

func (v Vector) distanceSq(other Vector) float64 {
	d0 := v[0] - other[0]
	d1 := v[1] - other[1]
	d2 := v[2] - other[2]
	return d0*d0 + d1*d1 + d2*d2
}

// RGBToHSL converts RGB to HSL colour space.
// Returns hue (0-360), saturation (0-1), lightness (0-1).
func RGBToHSL(rgb RGB) (h, s, l float64) {
	r := float64(rgb.R) / 255.0
	g := float64(rgb.G) / 255.0
	b := float64(rgb.B) / 255.0

	maxVal := math.Max(r, math.Max(g, b))
	minVal := math.Min(r, math.Min(g, b))
	delta := maxVal - minVal

	l = (maxVal + minVal) / 2.0

	if delta == 0 {
		return 0, 0, l
	}

	if l < 0.5 {
		s = delta / (maxVal + minVal)
	} else {
		s = delta / (2.0 - maxVal - minVal)
	}

	switch maxVal {
	case r:
		h = (g - b) / delta
		if g < b {
			h += 6
		}
	case g:
		h = (b-r)/delta + 2
	default:
		h = (r-g)/delta + 4
	}

	h *= 60
	if h >= 360 {
		h -= 360
	}
	return h, s, l
}

// HSLToRGB converts HSL to RGB colour space.
// h is hue in degrees (wrapped into 0-360), s is saturation (0-1), l is lightness (0-1).
// Channels are rounded to the nearest integer and clamped to 0-255.
func HSLToRGB(h, s, l float64) RGB {
	h = wrapHue(h)
	s = clamp01(s)
	l = clamp01(l)

	if s == 0 {
		v := channel(l)
		return RGB{R: v, G: v, B: v}
	}

	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q

	return RGB{
		R: channel(hueToRGB(p, q, h+120)),
		G: channel(hueToRGB(p, q, h)),
		B: channel(hueToRGB(p, q, h-120)),
	}
}

// hueToRGB is a helper for HSL to RGB conversion.
func hueToRGB(p, q, t float64) float64 {
	t = wrapHue(t)

	if t < 60 {
		return p + (q-p)*t/60
	}
	if t < 180 {
		return q
	}
	if t < 240 {
		return p + (q-p)*(240-t)/60
	}
	return p
}

// RGBToLab converts an sRGB colour to CIELAB (D65).
// L is in 0-100; a and b are unbounded but stay within roughly -128..127 for sRGB input.
func RGBToLab(rgb RGB) (l, a, b float64) {
	c := colorful.Color{
		R: float64(rgb.R) / 255.0,
		G: float64(rgb.G) / 255.0,
		B: float64(rgb.B) / 255.0,
	}
	l, a, b = c.Lab()
	return l * 100, a * 100, b * 100
}

// LabToRGB converts CIELAB (D65) back to sRGB.
// Out-of-gamut values are clamped before each channel is rounded.
func LabToRGB(l, a, b float64) RGB {
	c := colorful.Lab(l/100, a/100, b/100).Clamped()
	return RGB{
		R: channel(c.R),
		G: channel(c.G),
		B: channel(c.B),
	}
}

// ToVector converts an RGB colour into a feature vector in the given space.
func ToVector(rgb RGB, space Space) (Vector, error) {
	switch space {
	case SpaceRGB:
		return Vector{float64(rgb.R), float64(rgb.G), float64(rgb.B)}, nil
	case SpaceHSL:
		h, s, l := RGBToHSL(rgb)
		return Vector{h, s, l}, nil
	case SpaceLab:
		l, a, b := RGBToLab(rgb)
		return Vector{l, a, b}, nil
	default:
		return Vector{}, fmt.Errorf("%w: %q", ErrUnsupportedColorSpace, space)
	}
}

// FromVector converts a feature vector in the given space back to RGB.
// The result is rounded and clamped to 8-bit channels.
func FromVector(v Vector, space Space) (RGB, error) {
	switch space {
	case SpaceRGB:
		return RGB{R: clampByte(v[0]), G: clampByte(v[1]), B: clampByte(v[2])}, nil
	case SpaceHSL:
		return HSLToRGB(v[0], v[1], v[2]), nil
	case SpaceLab:
		return LabToRGB(v[0], v[1], v[2]), nil
	default:
		return RGB{}, fmt.Errorf("%w: %q", ErrUnsupportedColorSpace, space)
	}
}

// channel maps a 0-1 intensity to a rounded 8-bit channel.
func channel(v float64) uint8 {
	return clampByte(v * 255)
}

func clampByte(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.Round(v))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func wrapHue(h float64) float64 {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	return h
}
