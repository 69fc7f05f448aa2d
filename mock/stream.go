package mock

import (
	"io"
	"sync"

	"github.com/fwojciec/aira"
)

// Interface compliance check.
var _ aira.Stream = (*Stream)(nil)

// Stream is a test double for aira.Stream.
// NextFn panics when nil to catch missing setup. CloseFn and StateFn are
// nil-safe.
type Stream struct {
	NextFn  func() (aira.Event, error)
	StateFn func() aira.StreamState
	CloseFn func() error
}

// Next delegates to NextFn.
func (s *Stream) Next() (aira.Event, error) {
	return s.NextFn()
}

// State delegates to StateFn. Returns StreamStateNew when StateFn is nil.
func (s *Stream) State() aira.StreamState {
	if s.StateFn == nil {
		return aira.StreamStateNew
	}
	return s.StateFn()
}

// Close delegates to CloseFn. Returns nil when CloseFn is not set.
func (s *Stream) Close() error {
	if s.CloseFn == nil {
		return nil
	}
	return s.CloseFn()
}

// Events returns a Stream that yields events in order, then io.EOF.
func Events(events ...aira.Event) *Stream {
	var mu sync.Mutex
	i := 0
	return &Stream{
		NextFn: func() (aira.Event, error) {
			mu.Lock()
			defer mu.Unlock()
			if i >= len(events) {
				return nil, io.EOF
			}
			evt := events[i]
			i++
			return evt, nil
		},
	}
}
