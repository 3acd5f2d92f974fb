package stream

import (
	"errors"
	"fmt"
)

// State is the connection state of a Controller
type State int32

const (
	Idle State = iota
	Connecting
	Streaming
	Reconnecting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Connecting:
		return "connecting"
	case Streaming:
		return "streaming"
	case Reconnecting:
		return "reconnecting"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Active reports whether the controller holds or is acquiring a connection
func (s State) Active() bool {
	return s != Idle
}

// EventKind distinguishes notifications sent to subscribers
type EventKind int

const (
	// DataChanged is sent after every window mutation
	DataChanged EventKind = iota
	// StateChanged is sent after every state transition
	StateChanged
)

// Event is delivered to subscribers. Version is the window version after
// the change; Err carries the cause of a transition to Idle or Reconnecting.
type Event struct {
	Kind    EventKind
	State   State
	Version uint64
	Err     error
}

// Subscriber receives controller events. It runs on the goroutine that caused
// the event and must not block or call Stop.
type Subscriber func(Event)

var (
	// ErrMalformedEvent marks a single inbound message that could not be decoded
	ErrMalformedEvent = errors.New("malformed stream event")

	// ErrStreamClosed means the server ended the stream
	ErrStreamClosed = errors.New("stream closed by server")

	// ErrUnexpectedStatus means the server answered with a non-2xx status
	ErrUnexpectedStatus = errors.New("unexpected response status")

	// ErrNotEventStream means the response was not text/event-stream
	ErrNotEventStream = errors.New("response is not an event stream")
)

// IsTerminal reports whether err ends the stream for good. Anything else is
// a transient transport failure that may be retried.
func IsTerminal(err error) bool {
	return errors.Is(err, ErrStreamClosed) ||
		errors.Is(err, ErrUnexpectedStatus) ||
		errors.Is(err, ErrNotEventStream)
}
