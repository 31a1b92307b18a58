// Package goldmark renders the markdown prose found in analysis results
// (summaries, deep analysis, match summaries) as ANSI-styled terminal text.
// goldmark parses the source with the linkify and strikethrough extensions;
// lipgloss does the styling and wrapping.
package goldmark

import "github.com/fwojciec/pitch"

// DefaultWidth is used when Render is given a non-positive width.
const DefaultWidth = 80

// Render parses markdown source and returns ANSI-styled terminal output.
// Paragraphs, quotes and list items are word-wrapped to width. Code blocks
// keep their lines as written. Surrounding blank lines are trimmed.
func Render(source string, width int, theme pitch.Theme) string {
	if source == "" {
		return ""
	}
	if width <= 0 {
		width = DefaultWidth
	}
	return newRenderer(theme, width).render([]byte(source))
}
