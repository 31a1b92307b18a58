package bubbletea

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/pitch"
	"github.com/fwojciec/pitch/goldmark"
)

var _ Block = (*ResultBlock)(nil)

// ResultBlock renders the headline of a result: the match line, its
// context and the markdown summary. Rendered summaries are cached per width.
type ResultBlock struct {
	result  *pitch.Result
	theme   pitch.Theme
	styles  Styles
	byWidth map[int]string
}

// NewResultBlock creates a ResultBlock.
func NewResultBlock(r *pitch.Result, theme pitch.Theme, styles Styles) *ResultBlock {
	return &ResultBlock{result: r, theme: theme, styles: styles, byWidth: make(map[int]string)}
}

func (b *ResultBlock) Update(msg tea.Msg) (Block, tea.Cmd) {
	return b, nil
}

func (b *ResultBlock) View(width int) string {
	if width <= 0 {
		return ""
	}
	if cached, ok := b.byWidth[width]; ok {
		return cached
	}
	var parts []string
	if m := b.result.MatchMetadata; m != nil {
		parts = append(parts, b.matchHeader(m, width))
	}
	if b.result.Summary != "" {
		parts = append(parts, goldmark.Render(b.result.Summary, width, b.theme))
	} else {
		parts = append(parts, b.styles.Muted.Render("No summary was returned."))
	}
	out := strings.Join(parts, "\n\n")
	b.byWidth[width] = out
	return out
}

func (b *ResultBlock) matchHeader(m *pitch.MatchMetadata, width int) string {
	wrap := lipgloss.NewStyle().Width(width)
	var lines []string

	title := strings.TrimSpace(strings.Join([]string{m.HomeTeam, m.Score, m.AwayTeam}, " "))
	if m.HomeTeam != "" && m.AwayTeam != "" && m.Score == "" {
		title = m.HomeTeam + " vs " + m.AwayTeam
	}
	if title != "" {
		lines = append(lines, b.styles.Accent.Render(wrap.Render(title)))
	}

	var context []string
	for _, s := range []string{m.Competition, m.MatchDate} {
		if s != "" {
			context = append(context, s)
		}
	}
	if len(context) > 0 {
		lines = append(lines, b.styles.Muted.Render(wrap.Render(strings.Join(context, " · "))))
	}
	if m.ManOfTheMatch != "" {
		lines = append(lines, wrap.Render("Man of the match: "+b.styles.Success.Render(m.ManOfTheMatch)))
	}
	return strings.Join(lines, "\n")
}
