package bubbletea

// RenderContent exports renderContent for testing.
func RenderContent(m Model) string {
	return m.renderContent()
}

// StatusLine exports statusLine for testing.
func StatusLine(m Model) string {
	return m.statusLine()
}

// FocusedSection returns the title of the focused section, or "" if none.
func FocusedSection(m Model) string {
	if m.focus < 0 {
		return ""
	}
	if s, ok := m.sections[m.focus].(*SectionBlock); ok {
		return s.Title()
	}
	return ""
}
