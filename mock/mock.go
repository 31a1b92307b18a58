// Package mock provides test doubles for pitch interfaces using function fields.
package mock

import (
	"context"

	"github.com/fwojciec/pitch"
)

// Interface compliance checks.
var (
	_ pitch.Client = (*Client)(nil)
	_ pitch.Stream = (*Stream)(nil)
)

// Client is a test double for pitch.Client.
// Set StreamFn before calling Stream.
type Client struct {
	StreamFn func(ctx context.Context, q pitch.Query) (pitch.Stream, error)
}

// Stream delegates to StreamFn.
func (c *Client) Stream(ctx context.Context, q pitch.Query) (pitch.Stream, error) {
	return c.StreamFn(ctx, q)
}

// Stream is a test double for pitch.Stream.
// NextFn panics when nil to catch missing setup. CloseFn is nil-safe because
// callers always defer Close and it rarely needs custom behavior.
type Stream struct {
	NextFn  func() (pitch.Event, error)
	CloseFn func() error
}

// Next delegates to NextFn.
func (s *Stream) Next() (pitch.Event, error) {
	return s.NextFn()
}

// Close delegates to CloseFn. Returns nil when CloseFn is not set.
func (s *Stream) Close() error {
	if s.CloseFn == nil {
		return nil
	}
	return s.CloseFn()
}
