package cli

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

const columnGap = "  "

// Table renders rows as left-aligned plain-text columns under a dashed header.
// Widths are display cells, so cells must not contain escape sequences.
type Table struct {
	headers   []string
	rows      [][]string
	maxWidths map[int]int
}

// NewTable creates a table with the given column headers.
func NewTable(headers []string) *Table {
	return &Table{
		headers:   headers,
		maxWidths: make(map[int]int),
	}
}

// SetColumnMaxWidth wraps cells of column col at word boundaries to at most width cells.
func (t *Table) SetColumnMaxWidth(col, width int) {
	t.maxWidths[col] = width
}

// AddRow appends a row, padding or truncating it to the number of headers.
func (t *Table) AddRow(row []string) {
	cells := make([]string, len(t.headers))
	copy(cells, row)
	t.rows = append(t.rows, cells)
}

// Render returns the table as text, one line per row plus the header and separator.
func (t *Table) Render() string {
	if len(t.headers) == 0 {
		return ""
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = displayWidth(h)
	}

	// Each row becomes a list of cells, each cell a list of wrapped lines.
	wrapped := make([][][]string, len(t.rows))
	for r, row := range t.rows {
		wrapped[r] = make([][]string, len(row))
		for c, cell := range row {
			lines := []string{cell}
			if limit := t.maxWidths[c]; limit > 0 {
				lines = wrapText(cell, limit)
			}
			wrapped[r][c] = lines
			for _, l := range lines {
				widths[c] = max(widths[c], displayWidth(l))
			}
		}
	}

	var sb strings.Builder
	writeLine := func(cells []string) {
		for i, cell := range cells {
			if i > 0 {
				sb.WriteString(columnGap)
			}
			sb.WriteString(padRight(cell, widths[i]))
		}
		sb.WriteByte('\n')
	}

	writeLine(t.headers)
	sep := make([]string, len(widths))
	for i, w := range widths {
		sep[i] = strings.Repeat("-", w)
	}
	writeLine(sep)

	for _, row := range wrapped {
		height := 1
		for _, cell := range row {
			height = max(height, len(cell))
		}
		for line := range height {
			cells := make([]string, len(row))
			for c, cell := range row {
				if line < len(cell) {
					cells[c] = cell[line]
				}
			}
			writeLine(cells)
		}
	}

	return sb.String()
}

func displayWidth(s string) int {
	return runewidth.StringWidth(s)
}

// padRight pads s with spaces to width cells. Longer strings are returned unchanged.
func padRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}

// wrapText splits text at spaces into lines of at most width cells.
// Words longer than width are broken.
func wrapText(text string, width int) []string {
	if width <= 0 || displayWidth(text) <= width {
		return []string{text}
	}

	var lines []string
	current := ""
	for _, word := range strings.Fields(text) {
		for displayWidth(word) > width {
			if current != "" {
				lines = append(lines, current)
				current = ""
			}
			head := runewidth.Truncate(word, width, "")
			if head == "" {
				break
			}
			lines = append(lines, head)
			word = strings.TrimPrefix(word, head)
		}
		switch {
		case current == "":
			current = word
		case displayWidth(current)+1+displayWidth(word) <= width:
			current += " " + word
		default:
			lines = append(lines, current)
			current = word
		}
	}
	if current != "" {
		lines = append(lines, current)
	}
	if len(lines) == 0 {
		return []string{text}
	}
	return lines
}
