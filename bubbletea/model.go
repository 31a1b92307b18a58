package bubbletea

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/pitch"
)

var _ tea.Model = Model{}

// Model is the Bubble Tea model for the pitch TUI.
type Model struct {
	// Input is the query input. Exported for test access.
	Input textinput.Model
	// Viewport is the scrollable output area. Exported for test access.
	Viewport viewport.Model
	// Spinner animates the running step. Exported for test access.
	Spinner spinner.Model

	ctrl    Controller
	updates <-chan pitch.Snapshot
	query   pitch.Query // options applied to every submitted query
	theme   pitch.Theme
	styles  Styles

	snap     pitch.Snapshot
	progress *ProgressBlock
	sections []Block // result presentation, rebuilt when the result changes
	focus    int     // index into sections of the focused collapsible block (-1 = none)
	err      error   // last rejected submission
	ready    bool
}

// New creates a TUI Model. Submitted queries carry the options of defaults
// with the typed text. updates delivers the controller's snapshots; see
// [Forward].
func New(ctrl Controller, updates <-chan pitch.Snapshot, defaults pitch.Query, theme pitch.Theme) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask about a match..."
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 0

	styles := NewStyles(theme)
	sp := spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(styles.Stage))

	return Model{
		Input:    ti,
		Spinner:  sp,
		ctrl:     ctrl,
		updates:  updates,
		query:    defaults,
		theme:    theme,
		styles:   styles,
		progress: NewProgressBlock(nil, 0, styles),
		focus:    -1,
	}
}

// Snapshot returns the snapshot the model is currently showing.
func (m Model) Snapshot() pitch.Snapshot { return m.snap }

// Err returns the last submission error, if any.
func (m Model) Err() error { return m.err }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, listenForSnapshot(m.updates))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m = m.handleWindowSize(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case SnapshotMsg:
		var cmd tea.Cmd
		m, cmd = m.applySnapshot(msg.Snapshot)
		m = m.refresh(true)
		return m, tea.Batch(cmd, listenForSnapshot(m.updates))

	case spinner.TickMsg:
		if m.snap.State != pitch.SessionStreaming {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		m.progress.SetActive(true, m.Spinner.View())
		m = m.refresh(false)
		return m, cmd
	}

	// Viewport always receives messages for scrolling (keyboard and mouse).
	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)

	m.Input, cmd = m.Input.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder

	// Output area.
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")

	// Status line.
	b.WriteString(m.statusLine())
	b.WriteString("\n")

	// Input area.
	b.WriteString(m.Input.View())

	return b.String()
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	inputH := 1
	statusHeight := 1
	borderHeight := 2 // newlines between sections
	vpHeight := max(msg.Height-inputH-statusHeight-borderHeight, 1)

	if !m.ready {
		m.Viewport = viewport.New(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = vpHeight
	}
	m.Input.Width = msg.Width - len(m.Input.Prompt)
	return m.refresh(true)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	streaming := m.snap.State == pitch.SessionStreaming

	switch msg.Type {
	case tea.KeyCtrlC:
		if streaming {
			m.ctrl.Cancel()
			return m, nil
		}
		return m, tea.Quit

	case tea.KeyEsc:
		if streaming {
			m.ctrl.Cancel()
		}
		return m, nil

	case tea.KeyEnter:
		text := strings.TrimSpace(m.Input.Value())
		if text == "" {
			return m, nil
		}
		return m.submit(text)

	case tea.KeyTab:
		if m.focus >= 0 {
			block, cmd := m.sections[m.focus].Update(ToggleMsg{})
			m.sections[m.focus] = block
			m = m.refresh(false)
			return m, cmd
		}
		return m, nil

	case tea.KeyShiftTab:
		m = m.cycleFocusPrev()
		m = m.refresh(false)
		return m, nil
	}

	// Only forward non-character keys to viewport to avoid conflicts
	// (e.g. 'j'/'k' are viewport scroll AND text characters).
	var cmd tea.Cmd
	var cmds []tea.Cmd

	if msg.Type != tea.KeyRunes {
		m.Viewport, cmd = m.Viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.Input, cmd = m.Input.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// submit starts a session for text, superseding any running one. The
// controller publishes the new streaming snapshot itself.
func (m Model) submit(text string) (tea.Model, tea.Cmd) {
	q := m.query
	q.Text = text
	if _, err := m.ctrl.Submit(q); err != nil {
		m.err = err
		return m, nil
	}
	m.err = nil
	m.Input.SetValue("")
	return m, nil
}

// applySnapshot adopts s unless it belongs to an older session than the one
// shown.
func (m Model) applySnapshot(s pitch.Snapshot) (Model, tea.Cmd) {
	if s.Generation < m.snap.Generation {
		return m, nil
	}
	wasStreaming := s.Generation == m.snap.Generation && m.snap.State == pitch.SessionStreaming
	resultChanged := s.Generation != m.snap.Generation || s.Result != m.snap.Result
	m.snap = s

	streaming := s.State == pitch.SessionStreaming
	m.progress = NewProgressBlock(s.Progress, s.Total, m.styles)
	m.progress.SetActive(streaming, m.Spinner.View())

	if resultChanged {
		m.sections = nil
		if s.Result != nil {
			m.sections = resultBlocks(s.Result, m.theme, m.styles)
		}
		m = m.updateFocus()
	}

	if streaming && !wasStreaming {
		return m, m.Spinner.Tick
	}
	return m, nil
}

// refresh re-renders the viewport content, following the output when
// follow is set.
func (m Model) refresh(follow bool) Model {
	if !m.ready {
		return m
	}
	m.Viewport.SetContent(m.renderContent())
	if follow {
		m.Viewport.GotoBottom()
	}
	return m
}

func (m Model) blocks() []Block {
	if m.snap.Generation == 0 {
		return nil
	}
	blocks := []Block{NewQueryBlock(m.snap.Query.Text, m.styles), m.progress}
	blocks = append(blocks, m.sections...)
	if m.snap.State == pitch.SessionErrored && m.snap.Err != nil {
		blocks = append(blocks, NewErrorBlock(m.snap.Err, m.styles))
	}
	return blocks
}

func (m Model) renderContent() string {
	var parts []string
	for _, block := range m.blocks() {
		if v := block.View(m.Viewport.Width); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, "\n\n")
}

// updateFocus focuses the last collapsible section. Tab toggles the focused
// section; Shift+Tab moves focus to the previous one.
func (m Model) updateFocus() Model {
	m.focus = -1
	for i := len(m.sections) - 1; i >= 0; i-- {
		if _, ok := m.sections[i].(collapsible); ok {
			m.focus = i
			return m
		}
	}
	return m
}

// cycleFocusPrev moves focus to the previous collapsible section, wrapping
// around.
func (m Model) cycleFocusPrev() Model {
	n := len(m.sections)
	if n == 0 {
		m.focus = -1
		return m
	}
	start := m.focus - 1
	if start < 0 {
		start = n - 1
	}
	for i := range n {
		idx := (start - i + n) % n
		if _, ok := m.sections[idx].(collapsible); ok {
			m.focus = idx
			return m
		}
	}
	m.focus = -1
	return m
}

func (m Model) statusLine() string {
	if m.err != nil {
		if errors.Is(m.err, pitch.ErrValidation) {
			return m.styles.Error.Render("Type a question first.")
		}
		return m.styles.Error.Render(m.err.Error())
	}
	switch m.snap.State {
	case pitch.SessionStreaming:
		return m.Spinner.View() + " " + m.styles.Muted.Render("Analysing... Esc to cancel")
	case pitch.SessionCompleted:
		return m.styles.Success.Render("✓ Done") + m.styles.Muted.Render(" · Tab to expand, Enter to ask again")
	case pitch.SessionErrored:
		return m.styles.Error.Render(pitch.UserMessage(m.snap.Err))
	case pitch.SessionCancelled:
		return m.styles.Muted.Render("Cancelled · Enter to ask again")
	default:
		return m.styles.Muted.Render("Enter to ask, Ctrl+C to quit")
	}
}
