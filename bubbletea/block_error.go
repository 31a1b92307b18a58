package bubbletea

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/pitch"
)

var _ Block = (*ErrorBlock)(nil)

// ErrorBlock renders the user-facing message for a failed session, with the
// underlying error beneath it.
type ErrorBlock struct {
	err    error
	styles Styles
}

// NewErrorBlock creates an ErrorBlock.
func NewErrorBlock(err error, styles Styles) *ErrorBlock {
	return &ErrorBlock{err: err, styles: styles}
}

func (b *ErrorBlock) Update(msg tea.Msg) (Block, tea.Cmd) {
	return b, nil
}

func (b *ErrorBlock) View(width int) string {
	wrap := lipgloss.NewStyle().Width(width)
	content := b.styles.Error.Render(wrap.Render("✗ " + pitch.UserMessage(b.err)))
	return content + "\n" + b.styles.Muted.Render(wrap.Render(b.err.Error()))
}
