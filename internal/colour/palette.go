package colour

import (
	"encoding/json"
	"fmt"
	"image/color"
	"strings"
)

// RGB represents a color in RGB format.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// String returns the RGB color as a string in the format "rgb(r, g, b)".
func (rgb RGB) String() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", rgb.R, rgb.G, rgb.B)
}

// Hex returns the RGB color as an uppercase hex string (e.g., "#1A2B3C").
func (rgb RGB) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", rgb.R, rgb.G, rgb.B)
}

// RGBA returns the colour as an opaque color.RGBA.
func (rgb RGB) RGBA() color.RGBA {
	return color.RGBA{R: rgb.R, G: rgb.G, B: rgb.B, A: 255}
}

// ToRGB converts a color.Color to RGB, discarding alpha.
// Channels are read non-premultiplied so translucent pixels keep their colour.
func ToRGB(c color.Color) RGB {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return RGB{R: n.R, G: n.G, B: n.B}
}

// ParseHex parses "#rrggbb" or "rrggbb" (case-insensitive) into RGB.
func ParseHex(s string) (RGB, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return RGB{}, fmt.Errorf("invalid hex colour %q: expected 6 digits", s)
	}
	var v [3]uint8
	for i := range v {
		hi, ok1 := hexNibble(hex[2*i])
		lo, ok2 := hexNibble(hex[2*i+1])
		if !ok1 || !ok2 {
			return RGB{}, fmt.Errorf("invalid hex colour %q", s)
		}
		v[i] = hi<<4 | lo
	}
	return RGB{R: v[0], G: v[1], B: v[2]}, nil
}

func hexNibble(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// Palette is an ordered selection of cluster records chosen by the caller.
type Palette struct {
	Records []ColorRecord
}

// NewPalette creates a new Palette from records in the given order.
func NewPalette(records []ColorRecord) *Palette {
	return &Palette{
		Records: records,
	}
}

// Select builds a palette from records by index, preserving the order of indices.
// Indices refer to positions in records (after any sorting the caller applied).
func Select(records []ColorRecord, indices []int) (*Palette, error) {
	if len(indices) == 0 {
		return nil, ErrNoColorsSelected
	}
	selected := make([]ColorRecord, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(records) {
			return nil, fmt.Errorf("selection index out of bounds: %d (palette has %d colors)", idx, len(records))
		}
		selected = append(selected, records[idx])
	}
	return NewPalette(selected), nil
}

// SelectColors builds a palette from records whose RGB equals each requested colour, in request order.
func SelectColors(records []ColorRecord, colors []RGB) (*Palette, error) {
	if len(colors) == 0 {
		return nil, ErrNoColorsSelected
	}
	selected := make([]ColorRecord, 0, len(colors))
	for _, c := range colors {
		found := false
		for _, r := range records {
			if r.RGB == c {
				selected = append(selected, r)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("colour %s is not in the extracted palette", c.Hex())
		}
	}
	return NewPalette(selected), nil
}

// Len returns the number of colors in the palette.
func (p *Palette) Len() int {
	return len(p.Records)
}

// Colors returns the RGB value of every record in palette order.
func (p *Palette) Colors() []RGB {
	colors := make([]RGB, len(p.Records))
	for i, r := range p.Records {
		colors[i] = r.RGB
	}
	return colors
}

// ToHex converts the palette colors to hex strings.
func (p *Palette) ToHex() []string {
	hexColors := make([]string, len(p.Records))
	for i, r := range p.Records {
		hexColors[i] = r.RGB.Hex()
	}
	return hexColors
}

// MarshalColors serialises colours as an indented JSON array of {"r","g","b"} objects.
func MarshalColors(colors []RGB) ([]byte, error) {
	if colors == nil {
		colors = []RGB{}
	}
	return json.MarshalIndent(colors, "", "  ")
}
