// Package pitch is a client for a streaming match-analysis service.
//
// A query produces a stream of progress events followed by one terminal
// result. The root package holds the domain types and the parts of the
// pipeline that need no I/O: the result normalizer ([Normalize]), the state
// reducer ([Apply]) and the session [Controller]. Subpackages adapt external
// systems: backend speaks the service's HTTP stream, bubbletea renders a TUI,
// and goldmark renders markdown for the terminal.
package pitch
