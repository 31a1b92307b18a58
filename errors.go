package pitch

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Sentinel errors for common failure modes.
var (
	// ErrValidation indicates a query failed validation.
	ErrValidation = errors.New("validation error")

	// ErrNoLiveUpdates indicates a stream ended without delivering a result.
	ErrNoLiveUpdates = errors.New("no live updates received")
)

// TransportError is a failure to reach the service or a non-success HTTP
// status. StatusCode is zero for network failures.
type TransportError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("transport: HTTP %d: %s", e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("transport: HTTP %d", e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("transport: %v", e.Err)
	default:
		return "transport: " + e.Message
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ApplicationError is a result the backend explicitly reported as failed.
// Fallback is set when the backend gave no message of its own.
type ApplicationError struct {
	Message  string
	Fallback bool
}

func (e *ApplicationError) Error() string {
	return "application: " + e.Message
}

// fallbackApplicationMessage is used when a failed result carries no error.
const fallbackApplicationMessage = "the analysis service could not answer this query"

// User-facing wording, kept apart from Error() strings which are for logs.
const (
	msgTransport     = "Could not reach the analysis service. Please try again."
	msgResourceLimit = "The analysis service ran out of memory while answering. Try a narrower question."
	msgNoLiveUpdates = "No live updates were received from the analysis service."
	msgUnknown       = "Something went wrong."
)

var resourceLimitMarkers = []string{
	"out of memory",
	"memory limit",
	"memory exhausted",
	"insufficient memory",
	"resource limit",
	"resource_exhausted",
	"resource exhausted",
	"oom",
}

// IsResourceLimit reports whether err's text carries a memory or resource
// exhaustion indicator. Classification only; it does not change how a
// session ends.
func IsResourceLimit(err error) bool {
	if err == nil {
		return false
	}
	var msg string
	var appErr *ApplicationError
	var tErr *TransportError
	switch {
	case errors.As(err, &appErr):
		msg = appErr.Message
	case errors.As(err, &tErr):
		msg = tErr.Error()
	default:
		msg = err.Error()
	}
	msg = strings.ToLower(msg)
	for _, marker := range resourceLimitMarkers {
		if marker == "oom" {
			if containsWord(msg, marker) {
				return true
			}
			continue
		}
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func containsWord(s, word string) bool {
	for _, f := range strings.FieldsFunc(s, func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	}) {
		if f == word {
			return true
		}
	}
	return false
}

// UserMessage returns presentation wording for a terminal session error.
// Application errors keep the backend's message; transport errors get generic
// wording. Resource-limit errors of either kind get their own wording.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if IsResourceLimit(err) {
		return msgResourceLimit
	}
	var appErr *ApplicationError
	if errors.As(err, &appErr) {
		msg := appErr.Message
		if msg == "" {
			msg = fallbackApplicationMessage
		}
		r, size := utf8.DecodeRuneInString(msg)
		return string(unicode.ToUpper(r)) + msg[size:]
	}
	var tErr *TransportError
	if errors.As(err, &tErr) {
		return msgTransport
	}
	if errors.Is(err, ErrNoLiveUpdates) {
		return msgNoLiveUpdates
	}
	return msgUnknown
}
