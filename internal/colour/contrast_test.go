package colour

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLuminance(t *testing.T) {
	assert.InDelta(t, 0.0, Luminance(RGB{}), 1e-9)
	assert.InDelta(t, 1.0, Luminance(RGB{R: 255, G: 255, B: 255}), 1e-9)
	assert.InDelta(t, 0.2126, Luminance(RGB{R: 255}), 1e-9)
	assert.InDelta(t, 0.7152, Luminance(RGB{G: 255}), 1e-9)
}

func TestContrastRatio(t *testing.T) {
	black, white := RGB{}, RGB{R: 255, G: 255, B: 255}

	assert.InDelta(t, 21.0, ContrastRatio(black, white), 1e-9)
	assert.InDelta(t, 21.0, ContrastRatio(white, black), 1e-9)
	assert.InDelta(t, 1.0, ContrastRatio(red, red), 1e-9)
}

func TestReadableOn(t *testing.T) {
	tests := []struct {
		bg   RGB
		want RGB
	}{
		{RGB{R: 255, G: 255, B: 255}, RGB{}},
		{RGB{R: 255, G: 255}, RGB{}},
		{RGB{}, RGB{R: 255, G: 255, B: 255}},
		{RGB{B: 255}, RGB{R: 255, G: 255, B: 255}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ReadableOn(tt.bg), tt.bg.Hex())
	}
}

func TestSwatches(t *testing.T) {
	s := Swatch(RGB{R: 1, G: 2, B: 3}, 4)
	assert.Equal(t, "\033[48;2;1;2;3m    \033[0m", s)

	s = SwatchWithText(RGB{R: 255, G: 255}, "0", 3)
	assert.True(t, strings.HasPrefix(s, "\033[48;2;255;255;0m\033[38;2;0;0;0m"))
	assert.Contains(t, s, " 0 ")

	s = SwatchWithText(RGB{B: 255}, "toolong", 3)
	assert.Contains(t, s, "\033[38;2;255;255;255mtoo\033[0m")
}
