package dataset

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// maxCell is the widest cell, in runes, shown in a preview.
const maxCell = 80

// Head returns up to n raw rows.
func (d *Dataset) Head(n int) [][]string {
	if n <= 0 || n > len(d.Rows) {
		n = len(d.Rows)
	}
	return d.Rows[:n]
}

// Markdown renders a short description of the table, its first n rows and
// any loader warnings.
func (d *Dataset) Markdown(n int) string {
	var b strings.Builder
	b.WriteString("[DATASET PREVIEW]\n")
	if d.Name != "" {
		fmt.Fprintf(&b, "File: %s\n", d.Name)
	}
	fmt.Fprintf(&b, "Rows: %d (observations %d, skipped %d)\n", len(d.Rows), len(d.Observations), d.Skipped)
	fmt.Fprintf(&b, "Columns: %d\n", len(d.Header))

	if rows := d.Head(n); len(rows) > 0 {
		b.WriteString("\n")
		writeTable(&b, d.Header, rows)
	}
	if len(d.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range d.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	return b.String()
}

// writeTable writes a pipe table. Rows are padded or cut to the header width.
func writeTable(b *strings.Builder, header []string, rows [][]string) {
	cells := make([]string, len(header))
	for i, h := range header {
		cells[i] = safeName(h)
	}
	writeRow(b, cells)
	for i := range cells {
		cells[i] = "---"
	}
	writeRow(b, cells)
	for _, row := range rows {
		for i := range cells {
			cells[i] = ""
			if i < len(row) {
				cells[i] = safeVal(clipCell(row[i], maxCell))
			}
		}
		writeRow(b, cells)
	}
}

func writeRow(b *strings.Builder, cells []string) {
	b.WriteString("| ")
	b.WriteString(strings.Join(cells, " | "))
	b.WriteString(" |\n")
}

// clipCell shortens s to at most max runes, ending in "..." when cut.
func clipCell(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max-3]) + "..."
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
