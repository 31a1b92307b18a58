package pitch

import "context"

// Query is one user submission to the analysis service.
type Query struct {
	Text              string
	IncludeHighlights bool
	EmphasizeOrder    bool
	Audience          string // audience segment, passed through untouched
}

// Stream uses a pull-based iterator pattern. Cancellation flows through the
// context passed to Client.Stream().
//
// Next returns classified events in arrival order. It returns io.EOF when the
// stream ends logically (sentinel) or physically (body closed). Malformed
// records never surface: they are skipped. After the context is cancelled,
// Next returns the context's error even if decoded events are still buffered.
type Stream interface {
	Next() (Event, error)
	Close() error
}

// Client opens streaming query sessions against the analysis service.
type Client interface {
	Stream(ctx context.Context, q Query) (Stream, error)
}
