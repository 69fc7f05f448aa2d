package aira

import (
	"context"
	"fmt"
	"strings"
)

// Transport is a strategy pattern interface for the chat backend. It issues
// one request per turn and returns the decoded response stream.
type Transport interface {
	Stream(ctx context.Context, req Request) (Stream, error)
}

// Request is the outbound payload of a turn.
type Request struct {
	Message string `json:"message"`
}

// Validate checks that the request carries a non-blank message.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return fmt.Errorf("message must not be empty: %w", ErrValidation)
	}
	return nil
}
