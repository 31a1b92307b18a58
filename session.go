package pitch

import "fmt"

// SessionState is the lifecycle state of a query session.
type SessionState int

const (
	SessionIdle      SessionState = iota // No query submitted yet.
	SessionStreaming                     // Stream open, events being applied.
	SessionCompleted                     // Stream ended with a result.
	SessionErrored                       // Transport, application or no-update failure.
	SessionCancelled                     // Cancelled by the caller or by teardown.
)

// String implements fmt.Stringer.
func (s SessionState) String() string {
	switch s {
	case SessionIdle:
		return "idle"
	case SessionStreaming:
		return "streaming"
	case SessionCompleted:
		return "completed"
	case SessionErrored:
		return "errored"
	case SessionCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ParseSessionState is the inverse of SessionState.String.
func ParseSessionState(s string) (SessionState, error) {
	for st := SessionIdle; st <= SessionCancelled; st++ {
		if st.String() == s {
			return st, nil
		}
	}
	return SessionIdle, fmt.Errorf("unknown session state %q", s)
}

// Terminal reports whether s is an end state.
func (s SessionState) Terminal() bool {
	return s == SessionCompleted || s == SessionErrored || s == SessionCancelled
}

// Snapshot is an immutable view of the current session, published to
// observers after every change.
type Snapshot struct {
	Generation uint64
	State      SessionState
	Query      Query
	Progress   []ProgressEvent
	Total      int
	Result     *Result
	Err        error // set only when State is SessionErrored
}
