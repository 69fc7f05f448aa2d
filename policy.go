package aira

import "fmt"

// MalformedPolicy decides what the controller does with EventMalformedFrame.
// Malformed frames never reach the rendered markup.
type MalformedPolicy int

const (
	MalformedLog    MalformedPolicy = iota // Log at warn level and continue.
	MalformedIgnore                        // Drop silently.
	MalformedFail                          // Fail the turn with ErrMalformedFrame.
)

// ParseMalformedPolicy maps "log", "ignore" or "fail" to a policy.
func ParseMalformedPolicy(s string) (MalformedPolicy, error) {
	switch s {
	case "", "log":
		return MalformedLog, nil
	case "ignore":
		return MalformedIgnore, nil
	case "fail":
		return MalformedFail, nil
	default:
		return 0, fmt.Errorf("unknown malformed policy %q: %w", s, ErrValidation)
	}
}

// FailurePolicy decides what remains visible when the transport fails after
// part of the response was rendered. A failure before any token always shows
// the failure message alone.
type FailurePolicy int

const (
	FailureKeepPartial FailurePolicy = iota // Keep the partial render and append the failure message.
	FailureReplace                          // Replace the partial render with the failure message.
)

// ParseFailurePolicy maps "keep" or "replace" to a policy.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch s {
	case "", "keep":
		return FailureKeepPartial, nil
	case "replace":
		return FailureReplace, nil
	default:
		return 0, fmt.Errorf("unknown failure policy %q: %w", s, ErrValidation)
	}
}
