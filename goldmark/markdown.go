// Package goldmark renders a turn's accumulated text to ANSI-styled terminal
// output using goldmark for parsing and lipgloss for styling. It recognizes
// the same constructs as the HTML renderer: fenced code blocks, bold and
// italic. Everything else is shown as written, line breaks included.
package goldmark

import "github.com/fwojciec/aira"

// DefaultWidth is used when the caller passes a non-positive width.
const DefaultWidth = 80

// Render parses source and returns ANSI-styled terminal output. Prose is
// word-wrapped to width; code blocks are rendered without reflow.
func Render(source string, width int, theme aira.Theme) string {
	if source == "" {
		return ""
	}
	if width <= 0 {
		width = DefaultWidth
	}
	r := newRenderer(theme)
	return r.render([]byte(source), width)
}
