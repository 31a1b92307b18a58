package pitch

// Theme defines semantic color mappings using ANSI color indices (0-15).
// The user's terminal theme determines the actual RGB values, so the app
// automatically matches any color scheme. A negative index means no color.
type Theme struct {
	Query    int // Submitted query echo
	Stage    int // Progress stage label
	Progress int // Progress message text
	Error    int // Error messages and failed steps
	Success  int // Completed steps, final score
	Muted    int // Status bar, placeholders, URLs
	Accent   int // Headings, team names
	Link     int // Highlight titles
}

// DefaultTheme returns the default ANSI color mapping.
func DefaultTheme() Theme {
	return Theme{
		Query:    4,
		Stage:    6,
		Progress: 8,
		Error:    1,
		Success:  2,
		Muted:    8,
		Accent:   5,
		Link:     3,
	}
}
