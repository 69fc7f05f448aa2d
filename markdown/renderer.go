package markdown

import (
	"strings"
	"time"

	"github.com/fwojciec/aira"
	"golang.org/x/time/rate"
)

// DefaultWindow is the debounce window between observable renders.
const DefaultWindow = 30 * time.Millisecond

// Interface compliance check.
var _ aira.Renderer = (*Renderer)(nil)

// Renderer renders one turn's streamed text. The prefix of the text up to
// the last blank line outside any code block is finalized: it is rendered
// once and cached, so each update only re-renders the trailing text.
// Observable renders are throttled to one per window; a throttled update
// leaves the renderer pending until Flush or EventDone.
type Renderer struct {
	limiter *rate.Limiter
	now     func() time.Time
	cursor  string
	hl      aira.Highlighter

	text strings.Builder

	// stable is the length of the finalized prefix. text[:stable] has all
	// fences closed and ends with a blank line, so its markup is a prefix of
	// the markup of any longer text.
	stable       int
	stableMarkup string

	lastRendered int
	pending      bool
	final        bool
}

// Option configures a [Renderer].
type Option func(*Renderer)

// WithWindow sets the debounce window. Zero disables throttling.
func WithWindow(d time.Duration) Option {
	return func(r *Renderer) { r.limiter = newLimiter(d) }
}

// WithClock sets the time source used for throttling.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) { r.now = now }
}

// WithCursor appends cursor markup to every non-final render.
func WithCursor(markup string) Option {
	return func(r *Renderer) { r.cursor = markup }
}

// WithHighlighter highlights code blocks in the final render.
func WithHighlighter(hl aira.Highlighter) Option {
	return func(r *Renderer) { r.hl = hl }
}

// New creates a Renderer with an empty state.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		limiter: newLimiter(DefaultWindow),
		now:     time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func newLimiter(window time.Duration) *rate.Limiter {
	return rate.NewLimiter(rate.Every(window), 1)
}

// Apply folds one event into the render state. Tokens append text and
// render unless throttled; EventDone performs the final, unthrottled render
// of the complete text. Malformed frames and empty tokens change nothing,
// and nothing but EventDone is applied after the final render.
func (r *Renderer) Apply(evt aira.Event) (aira.RenderOutput, bool) {
	switch e := evt.(type) {
	case aira.EventToken:
		if r.final || e.Text == "" {
			return aira.RenderOutput{}, false
		}
		r.text.WriteString(e.Text)
		r.promote()
		if !r.limiter.AllowN(r.now(), 1) {
			r.pending = true
			return aira.RenderOutput{}, false
		}
		return r.render(), true
	case aira.EventDone:
		return r.finish(), true
	default:
		return aira.RenderOutput{}, false
	}
}

// Pending reports whether applied text has not been rendered yet.
func (r *Renderer) Pending() bool {
	return r.pending
}

// Flush renders pending text. It returns false when nothing is pending.
func (r *Renderer) Flush() (aira.RenderOutput, bool) {
	if !r.pending || r.final {
		return aira.RenderOutput{}, false
	}
	// Count the flush against the window so the next token waits.
	r.limiter.ReserveN(r.now(), 1)
	return r.render(), true
}

// State returns a snapshot of the render state.
func (r *Renderer) State() aira.RenderState {
	text := r.text.String()
	return aira.RenderState{
		AccumulatedText:    text,
		OpenCodeFence:      hasUnclosedFence(text[r.stable:]),
		LastRenderedLength: r.lastRendered,
	}
}

func (r *Renderer) render() aira.RenderOutput {
	text := r.text.String()
	r.pending = false
	r.lastRendered = len(text)
	return aira.RenderOutput{Markup: r.stableMarkup + render(text[r.stable:], r.cursor, nil)}
}

// finish re-renders the whole text without the cursor. Highlighting, when
// configured, only happens here.
func (r *Renderer) finish() aira.RenderOutput {
	text := r.text.String()
	r.final = true
	r.pending = false
	r.lastRendered = len(text)
	return aira.RenderOutput{Markup: render(text, "", r.hl), IsFinal: true}
}

// promote advances the finalized prefix to the last blank line after which
// no code block is open. Only the text after the current prefix is scanned.
func (r *Renderer) promote() {
	tail := r.text.String()[r.stable:]
	for end := len(tail); ; {
		idx := strings.LastIndex(tail[:end], "\n\n")
		if idx < 0 {
			return
		}
		candidate := tail[:idx+2]
		if !hasUnclosedFence(candidate) {
			r.stableMarkup += render(candidate, "", nil)
			r.stable += len(candidate)
			return
		}
		end = idx
	}
}
