package sse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/fwojciec/aira"
)

// DefaultChunkSize is the read buffer size used by Stream.
const DefaultChunkSize = 4096

// Interface compliance check.
var _ aira.Stream = (*Stream)(nil)

// Stream implements [aira.Stream] by feeding raw reads from a response body
// through a Decoder. Each Read result is one chunk; the chunk size carries no
// meaning.
type Stream struct {
	body    io.ReadCloser
	ctx     context.Context
	decoder aira.Decoder
	chunk   []byte

	mu     sync.Mutex
	state  aira.StreamState
	queue  []aira.Event
	ended  bool  // body exhausted and flushed, or sentinel seen
	err    error // terminal error, if any
	closed bool
}

// StreamOption configures a [Stream].
type StreamOption func(*Stream)

// WithChunkSize sets the size of the read buffer.
func WithChunkSize(n int) StreamOption {
	return func(s *Stream) {
		if n > 0 {
			s.chunk = make([]byte, n)
		}
	}
}

// WithDecoder replaces the default frame decoder.
func WithDecoder(d aira.Decoder) StreamOption {
	return func(s *Stream) { s.decoder = d }
}

// NewStream wraps body. ctx is consulted to tell cancellation apart from
// transport failures.
func NewStream(ctx context.Context, body io.ReadCloser, opts ...StreamOption) *Stream {
	s := &Stream{
		body:    body,
		ctx:     ctx,
		decoder: NewDecoder(),
		chunk:   make([]byte, DefaultChunkSize),
		state:   aira.StreamStateNew,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Next returns the next event in arrival order. It returns io.EOF once the
// sentinel was returned or the body ended and the carry-over was flushed.
func (s *Stream) Next() (aira.Event, error) {
	for {
		s.mu.Lock()
		switch {
		case s.closed:
			s.mu.Unlock()
			return nil, fmt.Errorf("sse: %w", aira.ErrStreamClosed)
		case len(s.queue) > 0:
			evt := s.queue[0]
			s.queue = s.queue[1:]
			if s.state == aira.StreamStateNew {
				s.state = aira.StreamStateStreaming
			}
			if _, ok := evt.(aira.EventDone); ok {
				s.queue = nil
				s.ended = true
			}
			s.mu.Unlock()
			return evt, nil
		case s.err != nil:
			err := s.err
			s.mu.Unlock()
			return nil, err
		case s.ended:
			s.state = aira.StreamStateComplete
			s.mu.Unlock()
			return nil, io.EOF
		}
		s.mu.Unlock()

		// Read without holding the lock so Close can interrupt a blocked read.
		n, err := s.body.Read(s.chunk)

		s.mu.Lock()
		if n > 0 && !s.closed {
			if s.state == aira.StreamStateNew {
				s.state = aira.StreamStateStreaming
			}
			s.queue = append(s.queue, s.decoder.Decode(s.chunk[:n])...)
		}
		switch {
		case s.closed:
		case errors.Is(err, io.EOF):
			s.queue = append(s.queue, s.decoder.Flush()...)
			s.ended = true
		case err != nil:
			s.terminate(err)
		}
		s.mu.Unlock()
	}
}

// State returns the current stream state.
func (s *Stream) State() aira.StreamState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close closes the underlying body. Pending events are discarded.
func (s *Stream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.queue = nil
	if s.state != aira.StreamStateComplete && s.state != aira.StreamStateError {
		s.state = aira.StreamStateClosed
	}
	s.mu.Unlock()
	return s.body.Close()
}

// terminate records a terminal read error. Events decoded before the error
// stay queued and are returned first. Must be called with mu held.
func (s *Stream) terminate(err error) {
	s.state = aira.StreamStateError
	if s.ctx != nil && s.ctx.Err() != nil {
		s.err = fmt.Errorf("sse: %w", s.ctx.Err())
		return
	}
	s.err = fmt.Errorf("sse: %w", err)
}
