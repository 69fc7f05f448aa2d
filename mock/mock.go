// Package mock provides test doubles for aira interfaces using function fields.
package mock

import (
	"context"

	"github.com/fwojciec/aira"
)

// Interface compliance checks.
var (
	_ aira.Transport   = (*Transport)(nil)
	_ aira.Highlighter = (*Highlighter)(nil)
	_ aira.Decoder     = (*Decoder)(nil)
)

// Transport is a test double for aira.Transport.
// Set StreamFn before calling Stream.
type Transport struct {
	StreamFn func(ctx context.Context, req aira.Request) (aira.Stream, error)
}

// Stream delegates to StreamFn.
func (t *Transport) Stream(ctx context.Context, req aira.Request) (aira.Stream, error) {
	return t.StreamFn(ctx, req)
}

// Highlighter is a test double for aira.Highlighter.
type Highlighter struct {
	HighlightFn func(code, language string) (string, error)
}

// Highlight delegates to HighlightFn.
func (h *Highlighter) Highlight(code, language string) (string, error) {
	return h.HighlightFn(code, language)
}

// Decoder is a test double for aira.Decoder. FlushFn is nil-safe.
type Decoder struct {
	DecodeFn func(chunk []byte) []aira.Event
	FlushFn  func() []aira.Event
}

// Decode delegates to DecodeFn.
func (d *Decoder) Decode(chunk []byte) []aira.Event {
	return d.DecodeFn(chunk)
}

// Flush delegates to FlushFn. Returns nil when FlushFn is not set.
func (d *Decoder) Flush() []aira.Event {
	if d.FlushFn == nil {
		return nil
	}
	return d.FlushFn()
}
