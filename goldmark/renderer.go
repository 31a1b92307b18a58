package goldmark

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/pitch"
	"github.com/mattn/go-runewidth"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// minItemWidth bounds how narrow a list item or quote may wrap.
const minItemWidth = 10

var markdown = goldmark.New(goldmark.WithExtensions(extension.Linkify, extension.Strikethrough))

type renderer struct {
	width int

	heading lipgloss.Style
	sub     lipgloss.Style
	bold    lipgloss.Style
	italic  lipgloss.Style
	strike  lipgloss.Style
	code    lipgloss.Style
	link    lipgloss.Style
	muted   lipgloss.Style
}

func newRenderer(theme pitch.Theme, width int) *renderer {
	return &renderer{
		width:   width,
		heading: lipgloss.NewStyle().Foreground(ansiColor(theme.Accent)).Bold(true),
		sub:     lipgloss.NewStyle().Foreground(ansiColor(theme.Accent)),
		bold:    lipgloss.NewStyle().Bold(true),
		italic:  lipgloss.NewStyle().Italic(true),
		strike:  lipgloss.NewStyle().Strikethrough(true),
		code:    lipgloss.NewStyle().Bold(true),
		link:    lipgloss.NewStyle().Foreground(ansiColor(theme.Link)).Underline(true),
		muted:   lipgloss.NewStyle().Foreground(ansiColor(theme.Muted)).Faint(true),
	}
}

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}

func (r *renderer) render(source []byte) string {
	doc := markdown.Parser().Parse(text.NewReader(source))
	blocks := r.blocks(doc, source, r.width)
	return strings.Trim(strings.Join(blocks, "\n\n"), "\n")
}

// blocks renders each block child of node, one string per block.
func (r *renderer) blocks(node ast.Node, source []byte, width int) []string {
	var out []string
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		if s := r.block(c, source, width); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (r *renderer) block(node ast.Node, source []byte, width int) string {
	switch n := node.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		return wrap(r.inline(n, source), width)

	case *ast.Heading:
		style := r.heading
		if n.Level > 1 {
			style = r.sub.Bold(n.Level == 2)
		}
		return wrap(style.Render(r.inline(n, source)), width)

	case *ast.FencedCodeBlock:
		var b strings.Builder
		if lang := string(n.Language(source)); lang != "" {
			b.WriteString(r.muted.Render(lang))
			b.WriteString("\n")
		}
		b.WriteString(r.codeLines(n, source))
		return b.String()

	case *ast.CodeBlock:
		return r.codeLines(n, source)

	case *ast.Blockquote:
		inner := strings.Join(r.blocks(n, source, max(width-2, minItemWidth)), "\n\n")
		return prefixLines(inner, r.muted.Render("┃")+" ", r.muted.Render("┃")+" ")

	case *ast.List:
		return r.list(n, source, width)

	case *ast.ThematicBreak:
		return r.muted.Render(strings.Repeat("─", min(width, 40)))

	case *ast.HTMLBlock:
		var b bytes.Buffer
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			b.Write(seg.Value(source))
		}
		return strings.TrimRight(b.String(), "\n")

	default:
		return strings.Join(r.blocks(node, source, width), "\n\n")
	}
}

// codeLines renders preformatted lines behind a gutter without reflow.
func (r *renderer) codeLines(n ast.Node, source []byte) string {
	gutter := r.muted.Render("│") + " "
	lines := n.Lines()
	out := make([]string, 0, lines.Len())
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		out = append(out, gutter+strings.TrimRight(string(seg.Value(source)), "\n"))
	}
	return strings.Join(out, "\n")
}

func (r *renderer) list(n *ast.List, source []byte, width int) string {
	var items []string
	num := n.Start
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		item, ok := c.(*ast.ListItem)
		if !ok {
			continue
		}
		marker := "• "
		if n.IsOrdered() {
			marker = strconv.Itoa(num) + ". "
			num++
		}
		pad := strings.Repeat(" ", runewidth.StringWidth(marker))
		inner := max(width-runewidth.StringWidth(marker), minItemWidth)

		var parts []string
		for ic := item.FirstChild(); ic != nil; ic = ic.NextSibling() {
			if s := r.block(ic, source, inner); s != "" {
				parts = append(parts, s)
			}
		}
		items = append(items, prefixLines(strings.Join(parts, "\n"), marker, pad))
	}
	if n.IsTight {
		return strings.Join(items, "\n")
	}
	return strings.Join(items, "\n\n")
}

// inline collects the styled inline text of node's children.
func (r *renderer) inline(node ast.Node, source []byte) string {
	var b strings.Builder
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		r.writeInline(&b, c, source)
	}
	return b.String()
}

func (r *renderer) writeInline(b *strings.Builder, node ast.Node, source []byte) {
	switch n := node.(type) {
	case *ast.Text:
		b.Write(n.Segment.Value(source))
		switch {
		case n.HardLineBreak():
			b.WriteByte('\n')
		case n.SoftLineBreak():
			b.WriteByte(' ')
		}

	case *ast.String:
		b.Write(n.Value)

	case *ast.Emphasis:
		if n.Level == 1 {
			b.WriteString(r.italic.Render(r.inline(n, source)))
		} else {
			b.WriteString(r.bold.Render(r.inline(n, source)))
		}

	case *east.Strikethrough:
		b.WriteString(r.strike.Render(r.inline(n, source)))

	case *ast.CodeSpan:
		b.WriteString(r.code.Render(r.inline(n, source)))

	case *ast.Link:
		label := r.inline(n, source)
		url := string(n.Destination)
		b.WriteString(r.link.Render(label))
		if label != url {
			b.WriteString(" " + r.muted.Render("("+url+")"))
		}

	case *ast.AutoLink:
		b.WriteString(r.link.Render(string(n.URL(source))))

	case *ast.Image:
		b.WriteString(r.link.Render(r.inline(n, source)))
		b.WriteString(" " + r.muted.Render("("+string(n.Destination)+")"))

	case *ast.RawHTML:
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			b.Write(seg.Value(source))
		}

	default:
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			r.writeInline(b, c, source)
		}
	}
}

// wrap word-wraps s to width, dropping the padding lipgloss adds.
func wrap(s string, width int) string {
	lines := strings.Split(lipgloss.NewStyle().Width(width).Render(s), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	return strings.Join(lines, "\n")
}

// prefixLines puts first before the first line of s and rest before the
// others.
func prefixLines(s, first, rest string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		p := rest
		if i == 0 {
			p = first
		}
		if l == "" && i > 0 {
			lines[i] = strings.TrimRight(p, " ")
			continue
		}
		lines[i] = p + l
	}
	return strings.Join(lines, "\n")
}
