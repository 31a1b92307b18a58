package bubbletea

import tea "github.com/charmbracelet/bubbletea"

// Block is a renderable element of the output area.
// Unlike tea.Model, View takes a width parameter so the root model
// controls layout and blocks are testable in isolation.
type Block interface {
	Update(tea.Msg) (Block, tea.Cmd)
	View(width int) string
}

// ToggleMsg tells a collapsible block to toggle its collapsed state.
// Sent by the root model when the user presses Tab on a focused block.
type ToggleMsg struct{}

// collapsible is implemented by blocks that respond to ToggleMsg.
type collapsible interface {
	Block
	Collapsed() bool
}
