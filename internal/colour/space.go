// Package colour provides colour-space conversion, k-means palette extraction and
// palette artifact composition.
package colour

import (
	"fmt"
	"slices"
	"strings"
)

// Space is the colour representation in which pixels are clustered.
type Space string

const (
	// SpaceRGB clusters raw 8-bit sRGB channels.
	SpaceRGB Space = "rgb"

	// SpaceHSL clusters hue (degrees), saturation and lightness.
	SpaceHSL Space = "hsl"

	// SpaceLab clusters CIELAB coordinates (D65 white point).
	SpaceLab Space = "lab"
)

// ValidSpaces returns the supported analysis spaces.
func ValidSpaces() []Space {
	return []Space{SpaceRGB, SpaceLab, SpaceHSL}
}

// IsValid reports whether s is a supported space.
func (s Space) IsValid() bool {
	return slices.Contains(ValidSpaces(), s)
}

// String returns the lowercase space name.
func (s Space) String() string {
	return string(s)
}

// ParseSpace normalises a user-supplied space name. Matching is case-insensitive.
func ParseSpace(name string) (Space, error) {
	s := Space(strings.ToLower(strings.TrimSpace(name)))
	if !s.IsValid() {
		return "", fmt.Errorf("%w: %q (valid: rgb, lab, hsl)", ErrUnsupportedColorSpace, name)
	}
	return s, nil
}
