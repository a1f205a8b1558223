package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const columnSeparator = " │ "

// Table is a reusable table component using lipgloss.
type Table struct {
	Style   lipgloss.Style
	Headers []string
	Rows    [][]string
	// Weights, when set, share the available width between columns
	// proportionally. Columns without a weight get an even share.
	Weights []int
	Width   int
}

// Render renders the table.
func (t Table) Render() string {
	if len(t.Headers) == 0 {
		return ""
	}

	widths := t.calculateColumnWidths()

	renderedRows := []string{
		t.renderRow(t.Headers, widths, titleStyle),
		t.renderSeparator(widths),
	}
	for _, row := range t.Rows {
		renderedRows = append(renderedRows, t.renderRow(row, widths, t.Style))
	}

	return strings.Join(renderedRows, "\n")
}

// calculateColumnWidths calculates the width for each column.
func (t Table) calculateColumnWidths() []int {
	n := len(t.Headers)
	if n == 0 {
		return []int{}
	}

	availableWidth := t.Width - (n-1)*lipgloss.Width(columnSeparator)
	if availableWidth < n {
		availableWidth = n
	}

	weights := make([]int, n)
	total := 0
	for i := range weights {
		weights[i] = 1
		if i < len(t.Weights) && t.Weights[i] > 0 {
			weights[i] = t.Weights[i]
		}
		total += weights[i]
	}

	widths := make([]int, n)
	used := 0
	for i, w := range weights {
		widths[i] = availableWidth * w / total
		if widths[i] < 1 {
			widths[i] = 1
		}
		used += widths[i]
	}

	// Give any remaining width to the last column
	if remainder := availableWidth - used; remainder > 0 {
		widths[n-1] += remainder
	}

	return widths
}

// renderRow renders a single row with the given widths and style.
func (t Table) renderRow(cells []string, widths []int, style lipgloss.Style) string {
	formattedCells := make([]string, len(widths))
	for i := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		formattedCells[i] = padOrTruncate(cell, widths[i])
	}

	return style.Render(strings.Join(formattedCells, columnSeparator))
}

// renderSeparator renders a separator line.
func (t Table) renderSeparator(widths []int) string {
	parts := make([]string, len(widths))
	for i, width := range widths {
		parts[i] = strings.Repeat("─", width)
	}
	return grayStyle.Render(strings.Join(parts, "─┼─"))
}

// padOrTruncate makes s exactly width cells wide. Truncated text ends in an ellipsis.
func padOrTruncate(s string, width int) string {
	if width <= 0 {
		return ""
	}

	visualLen := lipgloss.Width(s)
	switch {
	case visualLen == width:
		return s
	case visualLen < width:
		return s + strings.Repeat(" ", width-visualLen)
	}

	var b strings.Builder
	count := 0
	inAnsi := false
	for _, ch := range s {
		if ch == '\033' {
			inAnsi = true
		}
		if inAnsi {
			b.WriteRune(ch)
			if ch == 'm' {
				inAnsi = false
			}
			continue
		}
		if count >= width-1 {
			break
		}
		b.WriteRune(ch)
		count++
	}
	b.WriteString("…")
	return b.String()
}
