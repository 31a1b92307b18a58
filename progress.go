package pitch

import "strings"

// MaxProgress is the number of most recent progress events kept in a log.
const MaxProgress = 12

// Default progress field values, used when a record carries neither a
// top-level nor a nested value.
const (
	DefaultStage   = "thinking"
	DefaultStatus  = "info"
	DefaultMessage = ""
)

// ProgressEvent is one step of backend reasoning.
type ProgressEvent struct {
	Stage   string
	Message string
	Status  string
}

// StepKind groups the free-form status strings backends send.
type StepKind int

const (
	StepInfo StepKind = iota
	StepSuccess
	StepWarning
	StepError
)

// Kind classifies the event's status, case-insensitively. Unknown statuses
// are StepInfo.
func (e ProgressEvent) Kind() StepKind {
	switch strings.ToLower(e.Status) {
	case "done", "complete", "completed", "success", "ok":
		return StepSuccess
	case "warning", "warn":
		return StepWarning
	case "error", "failed", "failure":
		return StepError
	default:
		return StepInfo
	}
}
