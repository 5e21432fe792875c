package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize/english"
)

// Table provides aligned column output. Cells may contain styled text;
// widths are measured without escape sequences.
type Table struct {
	headers []string
	rows    [][]string
	widths  []int
}

// NewTable creates a new table with the given headers.
func NewTable(headers ...string) *Table {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	return &Table{
		headers: headers,
		widths:  widths,
	}
}

// AddRow adds a row to the table. Missing cells are left empty and extra
// cells are dropped.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.headers))
	copy(row, cells)
	for i, cell := range row {
		if w := lipgloss.Width(cell); w > t.widths[i] {
			t.widths[i] = w
		}
	}
	t.rows = append(t.rows, row)
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// String renders the table as a string.
func (t *Table) String() string {
	if len(t.headers) == 0 {
		return ""
	}

	var b strings.Builder

	for i, h := range t.headers {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(Header(padRight(h, t.widths[i], i == len(t.headers)-1)))
	}
	b.WriteString("\n")

	for i, w := range t.widths {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(Dim(strings.Repeat("─", w)))
	}
	b.WriteString("\n")

	for _, row := range t.rows {
		for i, cell := range row {
			if i > 0 {
				b.WriteString("  ")
			}
			b.WriteString(padRight(cell, t.widths[i], i == len(row)-1))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// padRight pads s to width. The last column is not padded.
func padRight(s string, width int, last bool) string {
	w := lipgloss.Width(s)
	if last || w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

// Indent indents all non-empty lines in content by the given amount.
func Indent(content string, spaces int) string {
	indent := strings.Repeat(" ", spaces)
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = indent + line
		}
	}
	return strings.Join(lines, "\n")
}

// FormatKeyValue formats a key-value pair.
func FormatKeyValue(key, value string) string {
	return Dim(key+":") + " " + value
}

// FormatCount formats a count with singular/plural form, e.g. "3 entities".
func FormatCount(count int, singular, plural string) string {
	return english.Plural(count, singular, plural)
}
