// Package renderer formats reports as markdown strings, ready to be printed
// raw or through a terminal markdown renderer.
package renderer

import (
	"fmt"
	"strings"
)

// table writes a markdown table with a right-aligned layout for every column
// but the first.
func table(b *strings.Builder, header []string, rows [][]string) {
	b.WriteString("| " + strings.Join(header, " | ") + " |\n")
	b.WriteString("|:---")
	for range header[1:] {
		b.WriteString("|---:")
	}
	b.WriteString("|\n")
	for _, row := range rows {
		b.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}
}

type renderer struct{ *strings.Builder }

// Printf formats according to a format specifier and writes to the renderer's buffer.
func (r renderer) Printf(format string, args ...any) {
	fmt.Fprintf(r, format, args...)
}
