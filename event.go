package pitch

// Event is a sealed interface representing a classified stream record.
// Events are purely semantic. Transport failures and end of stream come from
// Stream.Next()'s error return, not from events.
// The unexported marker method prevents external implementations.
type Event interface {
	event()
}

// EventProgress reports one step of backend reasoning.
type EventProgress struct {
	Progress ProgressEvent
}

func (EventProgress) event() {}

// EventResult carries a terminal result exactly as decoded from the wire.
// The reducer normalizes it before it becomes observable.
type EventResult struct {
	Raw RawResult
}

func (EventResult) event() {}

// Interface compliance checks.
var (
	_ Event = EventProgress{}
	_ Event = EventResult{}
)
