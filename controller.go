package aira

import (
	"context"
	"errors"
	"html"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultFailureMessage is shown when a turn fails.
const DefaultFailureMessage = "⚠ Koneksi ke model gagal."

// DefaultDebounce is the delay after which a throttled render is flushed.
const DefaultDebounce = 30 * time.Millisecond

// Controller coordinates turns for one session: it opens the transport
// stream, pulls events in arrival order, feeds them to a fresh Renderer and
// reports observable renders to the caller. At most one turn is in flight.
type Controller struct {
	transport   Transport
	newRenderer func() Renderer
	logger      *slog.Logger
	debounce    time.Duration
	malformed   MalformedPolicy
	failure     FailurePolicy
	failureMsg  string

	mu      sync.Mutex
	session *Session
	phase   Phase
	active  *activeTurn
}

// Option configures a [Controller].
type Option func(*Controller)

// WithLogger sets the logger used for malformed frames and failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithDebounce sets how long a throttled render may stay pending before it
// is flushed. It should match the renderer's window.
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) { c.debounce = d }
}

// WithMalformedPolicy sets how malformed frames are handled.
func WithMalformedPolicy(p MalformedPolicy) Option {
	return func(c *Controller) { c.malformed = p }
}

// WithFailurePolicy sets what stays visible after a mid-stream failure.
func WithFailurePolicy(p FailurePolicy) Option {
	return func(c *Controller) { c.failure = p }
}

// WithFailureMessage overrides the user-visible failure message.
func WithFailureMessage(msg string) Option {
	return func(c *Controller) { c.failureMsg = msg }
}

// WithSession sets the session finished turns are appended to.
func WithSession(s *Session) Option {
	return func(c *Controller) { c.session = s }
}

// NewController creates a Controller. newRenderer is called once per turn so
// render state never leaks between turns.
func NewController(t Transport, newRenderer func() Renderer, opts ...Option) *Controller {
	c := &Controller{
		transport:   t,
		newRenderer: newRenderer,
		logger:      logger,
		debounce:    DefaultDebounce,
		failureMsg:  DefaultFailureMessage,
	}
	for _, o := range opts {
		o(c)
	}
	if c.session == nil {
		c.session = &Session{}
	}
	if c.session.ID == "" {
		now := time.Now()
		c.session.ID = uuid.NewString()
		c.session.CreatedAt, c.session.UpdatedAt = now, now
	}
	return c
}

// Phase returns the current lifecycle phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Session returns a copy of the session with its finished turns.
func (c *Controller) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := *c.session
	s.Turns = append([]Turn(nil), c.session.Turns...)
	return s
}

// Cancel aborts the in-flight turn. Once Cancel returns, onUpdate is not
// called again for that turn and no further event is applied to its
// renderer. It returns false when no turn is streaming.
func (c *Controller) Cancel() bool {
	c.mu.Lock()
	a := c.active
	c.mu.Unlock()
	if a == nil {
		return false
	}
	ok := a.finish(TurnAborted, ErrCanceled, nil, "")
	a.cancel()
	return ok
}

// Run executes one turn and blocks until it reaches a terminal state. It
// returns the finished turn; the error is nil for completed turns,
// ErrCanceled for aborted turns and the failure cause for failed turns.
// onUpdate must not call back into the Controller.
func (c *Controller) Run(ctx context.Context, message string, onUpdate func(Update)) (Turn, error) {
	req := Request{Message: message}
	if err := req.Validate(); err != nil {
		return Turn{}, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a := &activeTurn{
		turn: Turn{
			ID:        uuid.NewString(),
			Message:   message,
			State:     TurnCreated,
			CreatedAt: time.Now(),
		},
		cancel:   cancel,
		onUpdate: onUpdate,
	}

	c.mu.Lock()
	if c.active != nil {
		c.mu.Unlock()
		return Turn{}, ErrTurnInFlight
	}
	c.active = a
	c.phase = PhaseSending
	c.mu.Unlock()

	ctx, span := tracer.Start(ctx, "aira.turn", trace.WithAttributes(
		attribute.String("turn.id", a.turn.ID),
		attribute.Int("request.message_length", len(message)),
	))
	defer span.End()

	c.drive(ctx, a, req, span)

	turn := a.snapshot()
	span.SetAttributes(
		attribute.String("turn.state", turn.State.String()),
		attribute.Int("response.text_length", len(turn.Text)),
	)
	if turn.State == TurnFailed {
		span.RecordError(turn.Err)
		span.SetStatus(codes.Error, turn.Err.Error())
	}

	c.mu.Lock()
	c.active = nil
	if turn.State == TurnFailed {
		c.phase = PhaseError
	} else {
		c.phase = PhaseIdle
	}
	c.session.Append(turn)
	c.mu.Unlock()

	return turn, turn.Err
}

// pulled is one result of Stream.Next.
type pulled struct {
	evt Event
	err error
}

// drive performs every transition of the turn after it was registered.
func (c *Controller) drive(ctx context.Context, a *activeTurn, req Request, span trace.Span) {
	stream, err := c.transport.Stream(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			a.finish(TurnAborted, ErrCanceled, nil, "")
			return
		}
		c.fail(a, nil, err)
		return
	}

	if !a.begin() {
		stream.Close()
		return
	}
	c.mu.Lock()
	c.phase = PhaseStreaming
	c.mu.Unlock()
	span.AddEvent("stream opened")

	events := make(chan pulled)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		pull(ctx, stream, events)
	}()

	var timer *time.Timer
	var timerC <-chan time.Time
	stopTimer := func() {
		if timer != nil {
			timer.Stop()
			timer, timerC = nil, nil
		}
	}

	// The reader goroutine, the timer and the stream never outlive the turn.
	defer func() {
		stopTimer()
		a.cancel()
		stream.Close()
		wg.Wait()
	}()

	r := c.newRenderer()
	first := true
	for {
		select {
		case <-ctx.Done():
			a.finish(TurnAborted, ErrCanceled, nil, "")
			return

		case <-timerC:
			timer, timerC = nil, nil
			if !a.step(func() {
				if out, ok := r.Flush(); ok {
					a.publish(out, r.State().AccumulatedText)
				}
			}) {
				return
			}

		case p := <-events:
			// An event pulled before cancellation must not reach the renderer.
			if ctx.Err() != nil {
				a.finish(TurnAborted, ErrCanceled, nil, "")
				return
			}
			if p.err != nil {
				switch {
				case errors.Is(p.err, io.EOF):
					c.complete(a, r)
				case ctx.Err() != nil:
					a.finish(TurnAborted, ErrCanceled, nil, "")
				default:
					c.fail(a, r, p.err)
				}
				return
			}

			switch e := p.evt.(type) {
			case EventMalformedFrame:
				span.AddEvent("malformed frame")
				switch c.malformed {
				case MalformedFail:
					c.fail(a, r, ErrMalformedFrame)
					return
				case MalformedLog:
					c.logger.Warn("malformed frame", "turn", a.turn.ID, "raw", e.Raw)
				}
				continue
			case EventDone:
				c.complete(a, r)
				return
			case EventToken:
				if first && e.Text != "" {
					first = false
					span.AddEvent("first token")
				}
			}

			var delivered, pending bool
			if !a.step(func() {
				out, ok := r.Apply(p.evt)
				if ok {
					a.publish(out, r.State().AccumulatedText)
				}
				delivered, pending = ok, r.Pending()
			}) {
				return
			}
			if delivered {
				stopTimer()
			} else if pending && timer == nil {
				timer = time.NewTimer(c.debounce)
				timerC = timer.C
			}
		}
	}
}

// complete performs the final unthrottled render.
func (c *Controller) complete(a *activeTurn, r Renderer) {
	a.step(func() {
		out, _ := r.Apply(EventDone{})
		a.end(TurnCompleted, nil, &out, r.State().AccumulatedText)
	})
}

// fail transitions the turn to TurnFailed and renders the failure message.
// r is nil when the failure happened before the stream was opened.
func (c *Controller) fail(a *activeTurn, r Renderer, cause error) {
	err := cause
	var te *TransportError
	if !errors.As(err, &te) && !errors.Is(err, ErrMalformedFrame) {
		err = &TransportError{Err: cause}
	}

	msg := html.EscapeString(c.failureMsg)
	var text string
	if a.step(func() {
		out := RenderOutput{Markup: msg, IsFinal: true}
		if r != nil {
			text = r.State().AccumulatedText
		}
		if text != "" && c.failure == FailureKeepPartial {
			partial, _ := r.Apply(EventDone{})
			out.Markup = partial.Markup + `<br><span class="error">` + msg + `</span>`
		}
		a.end(TurnFailed, err, &out, text)
	}) {
		c.logger.Warn("turn failed", "turn", a.turn.ID, "error", err, "partial", text != "")
	}
}

// pull forwards Stream.Next results until an error (io.EOF included) has
// been delivered or the turn is over.
func pull(ctx context.Context, s Stream, out chan<- pulled) {
	for {
		evt, err := s.Next()
		select {
		case out <- pulled{evt: evt, err: err}:
		case <-ctx.Done():
			return
		}
		if err != nil {
			return
		}
	}
}

// activeTurn guards a Turn against concurrent delivery and cancellation.
// Delivery happens under mu, so once a terminal transition returns no
// further update can be observed.
type activeTurn struct {
	mu       sync.Mutex
	turn     Turn
	cancel   context.CancelFunc
	onUpdate func(Update)
}

// begin moves the turn to TurnStreaming unless it was already aborted.
func (a *activeTurn) begin() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.turn.State.Terminal() {
		return false
	}
	a.turn.State = TurnStreaming
	return true
}

// step runs fn under the turn lock unless the turn is already over, and
// reports whether it ran. Every use of the renderer goes through step, so
// nothing is applied once a terminal transition has returned.
func (a *activeTurn) step(fn func()) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.turn.State.Terminal() {
		return false
	}
	fn()
	return true
}

// publish records and reports an observable render. Must be called with mu
// held.
func (a *activeTurn) publish(out RenderOutput, text string) {
	a.turn.Markup = out.Markup
	a.turn.Text = text
	a.notify(out)
}

// finish performs the single terminal transition. A nil out keeps the last
// delivered markup and text. It returns false if the turn was already done.
func (a *activeTurn) finish(state TurnState, err error, out *RenderOutput, text string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.turn.State.Terminal() {
		return false
	}
	a.end(state, err, out, text)
	return true
}

// end is finish with mu held and the turn known to be live.
func (a *activeTurn) end(state TurnState, err error, out *RenderOutput, text string) {
	a.turn.State = state
	a.turn.Err = err
	a.turn.FinishedAt = time.Now()
	if out != nil {
		a.publish(*out, text)
	}
}

func (a *activeTurn) notify(out RenderOutput) {
	if a.onUpdate == nil {
		return
	}
	a.onUpdate(Update{
		TurnID: a.turn.ID,
		State:  a.turn.State,
		Output: out,
		Text:   a.turn.Text,
	})
}

func (a *activeTurn) snapshot() Turn {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.turn
}
