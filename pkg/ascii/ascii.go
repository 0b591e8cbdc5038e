// Package ascii renders run summaries as boxes and aligned tables. Widths are
// measured in terminal cells so CJK group names and emoji keep borders straight.
package ascii

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// StringWidth returns the display width of s in terminal cells.
func StringWidth(s string) int {
	return runewidth.StringWidth(s)
}

// Box builds a box containing the provided lines and returns it as a string.
// Lines are left-aligned with single-space padding on each side.
func Box(lines []string) string {
	if len(lines) == 0 {
		return ""
	}

	trimmed := make([]string, len(lines))
	maxWidth := 0
	for i, line := range lines {
		trimmed[i] = strings.TrimRight(line, " ")
		if w := StringWidth(trimmed[i]); w > maxWidth {
			maxWidth = w
		}
	}

	innerWidth := maxWidth + 2
	border := strings.Repeat("─", innerWidth)

	var sb strings.Builder
	sb.WriteString("┌" + border + "┐\n")
	for _, line := range trimmed {
		sb.WriteString("│ " + padRight(line, maxWidth) + " │\n")
	}
	sb.WriteString("└" + border + "┘\n")
	return sb.String()
}

// Table renders rows under a header with columns padded to their widest cell.
// Cells wider than maxCell are truncated; maxCell <= 0 disables truncation.
func Table(header []string, rows [][]string, maxCell int) string {
	cols := len(header)
	for _, r := range rows {
		if len(r) > cols {
			cols = len(r)
		}
	}
	if cols == 0 {
		return ""
	}

	cell := func(r []string, i int) string {
		if i >= len(r) {
			return ""
		}
		if maxCell > 0 {
			return Truncate(r[i], maxCell)
		}
		return r[i]
	}

	widths := make([]int, cols)
	for i := 0; i < cols; i++ {
		widths[i] = StringWidth(cell(header, i))
		for _, r := range rows {
			if w := StringWidth(cell(r, i)); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var sb strings.Builder
	writeRow := func(r []string) {
		parts := make([]string, cols)
		for i := 0; i < cols; i++ {
			parts[i] = padRight(cell(r, i), widths[i])
		}
		sb.WriteString(strings.TrimRight(strings.Join(parts, "  "), " ") + "\n")
	}

	if len(header) > 0 {
		writeRow(header)
		rule := make([]string, cols)
		for i, w := range widths {
			rule[i] = strings.Repeat("-", w)
		}
		writeRow(rule)
	}
	for _, r := range rows {
		writeRow(r)
	}
	return sb.String()
}

// Fprint writes a box to w.
func Fprint(w io.Writer, lines []string) {
	if len(lines) == 0 {
		return
	}
	_, _ = fmt.Fprint(w, Box(lines))
}

// Truncate shortens value to fit width cells, appending "..." when there is
// room for it.
func Truncate(value string, width int) string {
	if width <= 0 {
		return ""
	}
	if StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}

func padRight(s string, width int) string {
	fill := width - StringWidth(s)
	if fill <= 0 {
		return s
	}
	return s + strings.Repeat(" ", fill)
}
