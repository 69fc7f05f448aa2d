package mock

import "github.com/fwojciec/aira"

// Interface compliance check.
var _ aira.Renderer = (*Renderer)(nil)

// Renderer is a test double for aira.Renderer.
// ApplyFn panics when nil. PendingFn, FlushFn and StateFn are nil-safe.
type Renderer struct {
	ApplyFn   func(evt aira.Event) (aira.RenderOutput, bool)
	PendingFn func() bool
	FlushFn   func() (aira.RenderOutput, bool)
	StateFn   func() aira.RenderState
}

// Apply delegates to ApplyFn.
func (r *Renderer) Apply(evt aira.Event) (aira.RenderOutput, bool) {
	return r.ApplyFn(evt)
}

// Pending delegates to PendingFn. Returns false when PendingFn is nil.
func (r *Renderer) Pending() bool {
	if r.PendingFn == nil {
		return false
	}
	return r.PendingFn()
}

// Flush delegates to FlushFn. Reports nothing to flush when FlushFn is nil.
func (r *Renderer) Flush() (aira.RenderOutput, bool) {
	if r.FlushFn == nil {
		return aira.RenderOutput{}, false
	}
	return r.FlushFn()
}

// State delegates to StateFn. Returns the zero state when StateFn is nil.
func (r *Renderer) State() aira.RenderState {
	if r.StateFn == nil {
		return aira.RenderState{}
	}
	return r.StateFn()
}
