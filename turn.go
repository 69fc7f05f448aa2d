package aira

import "time"

// TurnState is the lifecycle of a Turn.
type TurnState int

const (
	TurnCreated   TurnState = iota // Request not yet answered.
	TurnStreaming                  // Response body is being consumed.
	TurnCompleted                  // Terminal: stream ended normally.
	TurnAborted                    // Terminal: canceled by the user.
	TurnFailed                     // Terminal: transport or protocol failure.
)

// Terminal reports whether no further transition is possible.
func (s TurnState) Terminal() bool {
	return s == TurnCompleted || s == TurnAborted || s == TurnFailed
}

func (s TurnState) String() string {
	switch s {
	case TurnCreated:
		return "created"
	case TurnStreaming:
		return "streaming"
	case TurnCompleted:
		return "completed"
	case TurnAborted:
		return "aborted"
	case TurnFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Turn is one user message and its streamed response. Err is set for
// aborted (ErrCanceled) and failed turns.
type Turn struct {
	ID         string
	Message    string
	State      TurnState
	Text       string
	Markup     string
	Err        error
	CreatedAt  time.Time
	FinishedAt time.Time
}

// Phase is the controller lifecycle exposed to the surrounding UI.
type Phase int

const (
	PhaseIdle      Phase = iota // Ready for a new turn.
	PhaseSending                // Request issued, no response yet.
	PhaseStreaming              // Response body is streaming.
	PhaseError                  // Last turn failed; a new turn may start.
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSending:
		return "sending"
	case PhaseStreaming:
		return "streaming"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// Update is delivered to the UI for every observable render of a turn.
type Update struct {
	TurnID string
	State  TurnState
	Output RenderOutput
	// Text is the accumulated response text at the time of the render.
	Text string
}
