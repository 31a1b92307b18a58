package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/fwojciec/pitch"
)

// readSize is the chunk size used for reading the response body.
const readSize = 4 << 10

// stream implements [pitch.Stream] over a response body. It reads only as
// far as needed to produce the next event.
type stream struct {
	ctx     context.Context
	body    io.ReadCloser
	logger  *slog.Logger
	dec     *Decoder
	buf     []byte
	pending []pitch.Event // classified but not yet returned
	eof     bool          // no more events will be produced
	closed  bool
	err     error // terminal error, if any
}

// Interface compliance check.
var _ pitch.Stream = (*stream)(nil)

func newStream(ctx context.Context, body io.ReadCloser, logger *slog.Logger) *stream {
	return &stream{
		ctx:    ctx,
		body:   body,
		logger: logger,
		dec:    NewDecoder(),
		buf:    make([]byte, readSize),
	}
}

// Next returns the next event. It returns io.EOF once the sentinel has been
// seen or the body is exhausted, and ctx.Err() once the context is done.
func (s *stream) Next() (pitch.Event, error) {
	if s.closed {
		return nil, errors.New("backend: stream closed")
	}
	for {
		if err := s.ctx.Err(); err != nil {
			return nil, err
		}
		if len(s.pending) > 0 {
			evt := s.pending[0]
			s.pending = s.pending[1:]
			return evt, nil
		}
		if s.err != nil {
			return nil, s.err
		}
		if s.eof {
			return nil, io.EOF
		}
		s.read()
	}
}

// read pulls one chunk from the body and classifies the records it
// completes.
func (s *stream) read() {
	n, err := s.body.Read(s.buf)
	if n > 0 {
		s.enqueue(s.dec.Feed(s.buf[:n]))
	}
	switch {
	case err == nil:
	case errors.Is(err, io.EOF):
		if rec, ok := s.dec.Flush(); ok {
			s.enqueue([]string{rec})
		}
		s.eof = true
	default:
		if ctxErr := s.ctx.Err(); ctxErr != nil {
			s.err = ctxErr
			return
		}
		s.err = &pitch.TransportError{Err: fmt.Errorf("reading response: %w", err)}
	}
}

func (s *stream) enqueue(records []string) {
	for _, rec := range records {
		if s.eof {
			return
		}
		if IsSentinel(rec) {
			s.eof = true
			return
		}
		evt, ok := Classify(rec)
		if !ok {
			s.logger.Debug("skipping record", "record", rec)
			continue
		}
		s.pending = append(s.pending, evt)
	}
}

// Close releases the response body. Subsequent calls to Next fail.
func (s *stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}
