package aira

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	// ErrValidation indicates a request failed validation.
	ErrValidation = errors.New("validation error")

	// ErrTurnInFlight indicates a turn was started while another is streaming.
	ErrTurnInFlight = errors.New("turn already in flight")

	// ErrStreamClosed indicates an operation on a closed stream.
	ErrStreamClosed = errors.New("stream closed")

	// ErrCanceled indicates the turn was aborted by the user.
	ErrCanceled = errors.New("turn canceled")

	// ErrMalformedFrame indicates a frame without the data prefix was
	// received while MalformedFail is in effect.
	ErrMalformedFrame = errors.New("malformed frame")
)

// TransportError reports a network or HTTP failure. StatusCode is zero when
// no response was received.
type TransportError struct {
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transport: HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
