package bubbletea

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/pitch"
	"github.com/fwojciec/pitch/goldmark"
)

var _ collapsible = (*SectionBlock)(nil)

// SectionBlock renders a titled part of a result behind a collapsible
// header. The body is rendered on demand for the current width.
type SectionBlock struct {
	title     string
	count     int // shown after the title when positive
	body      func(width int) string
	collapsed bool
	styles    Styles
}

func (b *SectionBlock) Update(msg tea.Msg) (Block, tea.Cmd) {
	if _, ok := msg.(ToggleMsg); ok {
		b.collapsed = !b.collapsed
	}
	return b, nil
}

// Collapsed reports whether the body is hidden.
func (b *SectionBlock) Collapsed() bool { return b.collapsed }

// Title returns the section title.
func (b *SectionBlock) Title() string { return b.title }

func (b *SectionBlock) View(width int) string {
	indicator := "▶"
	if !b.collapsed {
		indicator = "▼"
	}
	label := indicator + " " + b.title
	if b.count > 0 {
		label += fmt.Sprintf(" (%d)", b.count)
	}
	header := b.styles.Accent.Render(lipgloss.NewStyle().Width(width).Render(label))
	if b.collapsed {
		return header
	}
	return header + "\n" + b.body(width)
}

// NewKeyMomentsBlock lists the key moments of a match. It starts expanded.
func NewKeyMomentsBlock(moments []pitch.KeyMoment, styles Styles) *SectionBlock {
	return &SectionBlock{
		title:  "Key moments",
		count:  len(moments),
		styles: styles,
		body: func(width int) string {
			wrap := lipgloss.NewStyle().Width(width - 2)
			lines := make([]string, 0, len(moments))
			for _, k := range moments {
				head := k.Event
				if k.Minute != "" {
					head = strings.TrimSuffix(k.Minute, "'") + "' " + head
				}
				if k.Team != "" {
					head += " (" + k.Team + ")"
				}
				text := strong(styles, head)
				if k.Description != "" {
					text += " " + k.Description
				}
				if k.MomentumImpact != "" {
					text += " " + styles.Muted.Render("momentum: "+k.MomentumImpact)
				}
				lines = append(lines, indent(wrap.Render(text), "  "))
			}
			return strings.Join(lines, "\n")
		},
	}
}

// NewHighlightsBlock lists highlight clips with their links. It starts
// expanded.
func NewHighlightsBlock(highlights []pitch.Highlight, styles Styles) *SectionBlock {
	return &SectionBlock{
		title:  "Highlights",
		count:  len(highlights),
		styles: styles,
		body: func(width int) string {
			wrap := lipgloss.NewStyle().Width(width - 2)
			lines := make([]string, 0, len(highlights))
			for _, h := range highlights {
				title := h.Title
				if title == "" {
					title = "Untitled clip"
				}
				text := styles.Link.Render(title)
				var tags []string
				if h.Duration != "" {
					tags = append(tags, h.Duration)
				}
				if h.SourceType != "" {
					tags = append(tags, h.SourceType)
				}
				if h.IsOfficialClub {
					tags = append(tags, "official club")
				}
				if h.IsNBCSports {
					tags = append(tags, "NBC Sports")
				}
				if h.Confidence != nil {
					tags = append(tags, strconv.Itoa(int(*h.Confidence*100+0.5))+"% match")
				}
				if len(tags) > 0 {
					text += " " + styles.Muted.Render("["+strings.Join(tags, ", ")+"]")
				}
				line := indent(wrap.Render("• "+text), "  ")
				if h.URL != "" {
					line += "\n" + indent(styles.Muted.Render(h.URL), "    ")
				}
				lines = append(lines, line)
			}
			return strings.Join(lines, "\n")
		},
	}
}

// NewSourcesBlock lists source URLs. It starts collapsed.
func NewSourcesBlock(sources []string, styles Styles) *SectionBlock {
	return &SectionBlock{
		title:     "Sources",
		count:     len(sources),
		collapsed: true,
		styles:    styles,
		body: func(width int) string {
			lines := make([]string, len(sources))
			for i, s := range sources {
				lines[i] = "  " + styles.Muted.Render(s)
			}
			return strings.Join(lines, "\n")
		},
	}
}

// NewAnalysisBlock renders a markdown analysis text. It starts collapsed.
func NewAnalysisBlock(title, markdown string, theme pitch.Theme, styles Styles) *SectionBlock {
	return &SectionBlock{
		title:     title,
		collapsed: true,
		styles:    styles,
		body: func(width int) string {
			return indent(goldmark.Render(markdown, width-2, theme), "  ")
		},
	}
}

func strong(styles Styles, s string) string {
	return styles.Stage.Bold(true).Render(s)
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

// resultBlocks builds the blocks that present r.
func resultBlocks(r *pitch.Result, theme pitch.Theme, styles Styles) []Block {
	blocks := []Block{NewResultBlock(r, theme, styles)}
	if m := r.MatchMetadata; m != nil {
		if len(m.KeyMoments) > 0 {
			blocks = append(blocks, NewKeyMomentsBlock(m.KeyMoments, styles))
		}
		if m.MatchSummary != "" && m.MatchSummary != r.Summary {
			blocks = append(blocks, NewAnalysisBlock("Match summary", m.MatchSummary, theme, styles))
		}
	}
	if len(r.Highlights) > 0 {
		blocks = append(blocks, NewHighlightsBlock(r.Highlights, styles))
	}
	if g := r.GameAnalysis; g != nil && g.DeepAnalysis != "" {
		blocks = append(blocks, NewAnalysisBlock("Deep analysis", g.DeepAnalysis, theme, styles))
	}
	if len(r.Sources) > 0 {
		blocks = append(blocks, NewSourcesBlock(r.Sources, styles))
	}
	return blocks
}
