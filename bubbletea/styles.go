package bubbletea

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/pitch"
)

// Styles maps a Theme to lipgloss styles for TUI rendering.
type Styles struct {
	Query    lipgloss.Style
	Stage    lipgloss.Style
	Progress lipgloss.Style
	Error    lipgloss.Style
	Success  lipgloss.Style
	Muted    lipgloss.Style
	Accent   lipgloss.Style
	Link     lipgloss.Style
	Focus    lipgloss.Style
}

// NewStyles creates Styles from a Theme.
func NewStyles(t pitch.Theme) Styles {
	return Styles{
		Query:    lipgloss.NewStyle().Foreground(ansiColor(t.Query)).Bold(true),
		Stage:    lipgloss.NewStyle().Foreground(ansiColor(t.Stage)),
		Progress: lipgloss.NewStyle().Foreground(ansiColor(t.Progress)),
		Error:    lipgloss.NewStyle().Foreground(ansiColor(t.Error)),
		Success:  lipgloss.NewStyle().Foreground(ansiColor(t.Success)),
		Muted:    lipgloss.NewStyle().Foreground(ansiColor(t.Muted)).Faint(true),
		Accent:   lipgloss.NewStyle().Foreground(ansiColor(t.Accent)).Bold(true),
		Link:     lipgloss.NewStyle().Foreground(ansiColor(t.Link)),
		Focus:    lipgloss.NewStyle().Foreground(ansiColor(t.Accent)),
	}
}

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}
