package pitch

// State is the observable state of one session: a capped progress log and
// an optional final result.
type State struct {
	Progress []ProgressEvent // at most MaxProgress, oldest first
	Total    int             // progress events applied over the session
	Result   *Result
}

// Apply is the state transition function. It is pure: s is never mutated
// and the returned State shares no slice memory that a later Apply writes.
//
// Progress events append and keep the MaxProgress most recent. A result
// event is normalized and replaces any earlier result wholesale. Anything
// else leaves the state unchanged.
func Apply(s State, evt Event) State {
	switch e := evt.(type) {
	case EventProgress:
		progress := make([]ProgressEvent, 0, min(len(s.Progress)+1, MaxProgress))
		if drop := len(s.Progress) + 1 - MaxProgress; drop > 0 {
			progress = append(progress, s.Progress[drop:]...)
		} else {
			progress = append(progress, s.Progress...)
		}
		s.Progress = append(progress, e.Progress)
		s.Total++
	case EventResult:
		r := Normalize(e.Raw)
		s.Result = &r
	}
	return s
}
