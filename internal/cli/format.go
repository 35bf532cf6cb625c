package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/jmylchreest/kpalette/internal/colour"
)

// Output formats accepted by --format.
const (
	formatTable = "table"
	formatHex   = "hex"
	formatRGB   = "rgb"
	formatJSON  = "json"
)

var validFormats = []string{formatTable, formatHex, formatRGB, formatJSON}

const swatchWidth = 8

func validateFormat(format string) error {
	if !slices.Contains(validFormats, format) {
		return fmt.Errorf("unsupported format: %s (supported: %s)", format, strings.Join(validFormats, ", "))
	}
	return nil
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd())) // #nosec G115 - file descriptors fit in int
}

// renderRecords formats ranked records. The json format is handled by the caller.
func renderRecords(records []colour.ColorRecord, format string, preview bool) string {
	var sb strings.Builder

	switch format {
	case formatHex:
		for _, r := range records {
			if preview {
				sb.WriteString(colour.FormatRecordWithSwatch(r, swatchWidth) + "\n")
				continue
			}
			sb.WriteString(r.RGB.Hex() + "\n")
		}
	case formatRGB:
		for _, r := range records {
			if preview {
				sb.WriteString(colour.Swatch(r.RGB, swatchWidth) + " ")
			}
			sb.WriteString(r.RGB.String() + "\n")
		}
	default:
		table := NewTable([]string{"RANK", "CLUSTER", "HEX", "RGB", "WEIGHT", "DISPERSION", "SCORE"})
		for rank, r := range records {
			table.AddRow([]string{
				strconv.Itoa(rank),
				strconv.Itoa(r.Index),
				r.RGB.Hex(),
				r.RGB.String(),
				fmt.Sprintf("w: %.2f%%", r.Weight*100),
				fmt.Sprintf("d: %.2f", r.Dispersion),
				fmt.Sprintf("score: %.4f", r.Score),
			})
		}
		rendered := table.Render()
		if !preview {
			return rendered
		}
		// Swatches carry escape codes, so they are prefixed outside the table's width calculation.
		lines := strings.Split(strings.TrimSuffix(rendered, "\n"), "\n")
		for i, line := range lines {
			switch {
			case i >= 2 && i-2 < len(records):
				sb.WriteString(colour.SwatchWithText(records[i-2].RGB, strconv.Itoa(i-2), swatchWidth))
			default:
				sb.WriteString(strings.Repeat(" ", swatchWidth))
			}
			sb.WriteString("  " + line + "\n")
		}
	}

	return sb.String()
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
