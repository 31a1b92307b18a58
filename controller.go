package pitch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// Controller owns the lifecycle of query sessions. At most one session
// streams at a time: submitting a query cancels the previous one.
//
// Each session is tagged with a generation. Events and outcomes are applied
// only while their generation is current, so a superseded stream that still
// delivers data can never mutate state.
type Controller struct {
	client   Client
	logger   *slog.Logger
	onUpdate func(Snapshot)

	mu        sync.Mutex
	gen       uint64
	query     Query
	state     SessionState
	data      State
	err       error
	cancel    context.CancelFunc
	cancelled bool // current session cancelled by Cancel or Close
	done      chan struct{}

	pubMu     sync.Mutex
	published uint64 // highest generation handed to onUpdate
}

// ControllerOption configures a [Controller].
type ControllerOption func(*Controller)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) ControllerOption {
	return func(c *Controller) { c.logger = l }
}

// WithUpdateHandler sets a callback that receives a Snapshot after every
// state change. Snapshots of superseded generations are never delivered
// after a newer one. Handlers are serialized and run on the session
// goroutine. Submit publishes too, so a handler that starts a new session
// must do so from another goroutine.
func WithUpdateHandler(h func(Snapshot)) ControllerOption {
	return func(c *Controller) { c.onUpdate = h }
}

// NewController creates a Controller that opens streams with client.
func NewController(client Client, opts ...ControllerOption) *Controller {
	c := &Controller{
		client: client,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Ticket identifies one submitted session.
type Ticket struct {
	Generation uint64
	done       <-chan struct{}
}

// Done is closed when the session's goroutine has exited and its transport
// has been released.
func (t Ticket) Done() <-chan struct{} {
	return t.done
}

// Submit starts a new session for q. The query text is trimmed; an empty
// query is rejected with ErrValidation. A session still streaming is
// cancelled first, and the log and result are reset.
func (c *Controller) Submit(q Query) (Ticket, error) {
	q.Text = strings.TrimSpace(q.Text)
	if q.Text == "" {
		return Ticket{}, fmt.Errorf("query is empty: %w", ErrValidation)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	prev := c.gen
	c.gen++
	gen := c.gen
	c.query = q
	c.state = SessionStreaming
	c.data = State{}
	c.err = nil
	c.cancel = cancel
	c.cancelled = false
	c.done = done
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.logger.Info("session started", "generation", gen, "superseded", prev)
	c.publish(snap)

	go c.run(ctx, gen, q, done)
	return Ticket{Generation: gen, done: done}, nil
}

// Cancel cancels the current session if it is streaming. The session ends
// as SessionCancelled without an error.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != SessionStreaming || c.cancelled {
		return
	}
	c.cancelled = true
	c.cancel()
	c.logger.Debug("session cancel requested", "generation", c.gen)
}

// Close tears the controller down: a streaming session is cancelled and
// Close waits until its transport is released.
func (c *Controller) Close() {
	c.Cancel()
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Snapshot returns the current session view.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	// Apply never writes into an existing Progress slice, so sharing it with
	// observers is safe.
	return Snapshot{
		Generation: c.gen,
		State:      c.state,
		Query:      c.query,
		Progress:   c.data.Progress,
		Total:      c.data.Total,
		Result:     c.data.Result,
		Err:        c.err,
	}
}

// run reads one session's stream to its end. Reads are strictly sequential.
func (c *Controller) run(ctx context.Context, gen uint64, q Query, done chan<- struct{}) {
	defer close(done)

	stream, err := c.client.Stream(ctx, q)
	if err != nil {
		c.finish(gen, err)
		return
	}
	defer stream.Close()

	for {
		evt, err := stream.Next()
		if err != nil {
			c.finish(gen, err)
			return
		}
		if !c.apply(gen, evt) {
			c.finish(gen, context.Canceled)
			return
		}
	}
}

// apply reduces evt into the current state. It returns false when gen is no
// longer the active, uncancelled session; the event is then discarded.
func (c *Controller) apply(gen uint64, evt Event) bool {
	c.mu.Lock()
	if gen != c.gen || c.state != SessionStreaming || c.cancelled {
		c.mu.Unlock()
		c.logger.Debug("discarding event from inactive session", "generation", gen)
		return false
	}
	c.data = Apply(c.data, evt)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(snap)
	return true
}

// finish moves the session to its terminal state. err is the reason the
// stream stopped; io.EOF means it ended normally.
func (c *Controller) finish(gen uint64, err error) {
	c.mu.Lock()
	if gen != c.gen || c.state != SessionStreaming {
		c.mu.Unlock()
		c.logger.Debug("discarding outcome of inactive session", "generation", gen)
		return
	}
	switch {
	case c.cancelled || errors.Is(err, context.Canceled):
		c.state = SessionCancelled
	case errors.Is(err, io.EOF):
		c.state, c.err = endOfStream(c.data.Result)
	default:
		c.state = SessionErrored
		c.err = asTransportError(err)
	}
	c.cancel()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if snap.Err != nil {
		c.logger.Info("session finished", "generation", gen, "state", snap.State, "error", snap.Err)
	} else {
		c.logger.Info("session finished", "generation", gen, "state", snap.State)
	}
	c.publish(snap)
}

// endOfStream classifies a stream that ended without cancellation.
func endOfStream(r *Result) (SessionState, error) {
	switch {
	case r == nil:
		return SessionErrored, ErrNoLiveUpdates
	case r.Failed() && r.Error != "":
		return SessionErrored, &ApplicationError{Message: r.Error}
	case r.Failed():
		return SessionErrored, &ApplicationError{Message: fallbackApplicationMessage, Fallback: true}
	default:
		return SessionCompleted, nil
	}
}

func asTransportError(err error) error {
	var tErr *TransportError
	if errors.As(err, &tErr) {
		return err
	}
	return &TransportError{Err: err}
}

func (c *Controller) publish(snap Snapshot) {
	if c.onUpdate == nil {
		return
	}
	c.pubMu.Lock()
	defer c.pubMu.Unlock()
	if snap.Generation < c.published {
		return
	}
	c.published = snap.Generation
	c.onUpdate(snap)
}
