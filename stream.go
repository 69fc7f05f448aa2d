package aira

// StreamState indicates the current state of a Stream.
type StreamState int

const (
	StreamStateNew       StreamState = iota // Before Next() is ever called.
	StreamStateStreaming                    // Mid-stream, receiving frames.
	StreamStateComplete                     // Next() returned io.EOF.
	StreamStateError                        // Next() returned non-EOF error.
	StreamStateClosed                       // Close() called before terminal state.
)

// String returns a lowercase name for the state.
func (s StreamState) String() string {
	switch s {
	case StreamStateNew:
		return "new"
	case StreamStateStreaming:
		return "streaming"
	case StreamStateComplete:
		return "complete"
	case StreamStateError:
		return "error"
	case StreamStateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Stream uses a pull-based iterator pattern. Cancellation flows through the
// context passed to Transport.Stream().
//
// Next() returns events in arrival order. After EventDone, or after the
// underlying body ended and every flushed event was returned, Next() returns
// io.EOF. A transport failure is returned as a non-EOF error and the stream
// moves to StreamStateError; subsequent calls return the same error.
//
// Close() releases the underlying byte stream. It is safe to call Close()
// concurrently with a blocked Next(); the blocked call returns an error.
type Stream interface {
	Next() (Event, error)
	State() StreamState
	Close() error
}

// Decoder turns arbitrary byte chunks into events. Decode is called once per
// arriving chunk and Flush once when the byte stream signals completion.
// Implementations never fail: malformed input degrades to EventMalformedFrame.
type Decoder interface {
	Decode(chunk []byte) []Event
	Flush() []Event
}
