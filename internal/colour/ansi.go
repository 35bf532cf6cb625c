package colour

import (
	"fmt"
	"strings"
)

// ANSI escape codes for terminal swatches.
const (
	ansiReset    = "\033[0m"
	ansiFgPrefix = "\033[38;2;"
	ansiBgPrefix = "\033[48;2;"
	ansiSuffix   = "m"
	defaultWidth = 8
)

// Swatch returns a solid block of the colour, width characters wide, using a truecolour background.
func Swatch(c RGB, width int) string {
	if width <= 0 {
		width = defaultWidth
	}
	return background(c) + strings.Repeat(" ", width) + ansiReset
}

// SwatchWithText returns a swatch with text centred on it.
// The text is black or white, whichever is more readable on c.
func SwatchWithText(c RGB, text string, width int) string {
	if width <= 0 {
		width = defaultWidth
	}

	displayText := text
	if len(text) > width {
		displayText = text[:width]
	} else if len(text) < width {
		padding := (width - len(text)) / 2
		displayText = strings.Repeat(" ", padding) + text + strings.Repeat(" ", width-len(text)-padding)
	}

	return background(c) + foreground(ReadableOn(c)) + displayText + ansiReset
}

// FormatRecordWithSwatch formats a record as a swatch followed by its hex code.
func FormatRecordWithSwatch(r ColorRecord, width int) string {
	return fmt.Sprintf("%s %s", Swatch(r.RGB, width), r.RGB.Hex())
}

func background(c RGB) string {
	return fmt.Sprintf("%s%d;%d;%d%s", ansiBgPrefix, c.R, c.G, c.B, ansiSuffix)
}

func foreground(c RGB) string {
	return fmt.Sprintf("%s%d;%d;%d%s", ansiFgPrefix, c.R, c.G, c.B, ansiSuffix)
}
