package aira

// Event is a sealed interface representing one logical frame decoded from
// the wire. Events are produced in the exact arrival order of their frames.
// Transport errors come from Stream.Next()'s error return, not from events.
// The unexported marker method prevents external implementations.
type Event interface {
	event()
}

// EventToken carries the payload of one data frame.
type EventToken struct {
	Text string
}

func (EventToken) event() {}

// EventDone is the terminal sentinel. It is produced at most once per stream
// and nothing follows it.
type EventDone struct{}

func (EventDone) event() {}

// EventMalformedFrame carries a frame that did not start with the data prefix.
// It is surfaced rather than dropped so the caller decides the policy.
type EventMalformedFrame struct {
	Raw string
}

func (EventMalformedFrame) event() {}

// Interface compliance checks.
var (
	_ Event = EventToken{}
	_ Event = EventDone{}
	_ Event = EventMalformedFrame{}
)
