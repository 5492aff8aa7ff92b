package transport

import "context"

// EventKind identifies a notification raised by a messaging connection.
type EventKind string

const (
	EventPairing      EventKind = "pairing"
	EventReady        EventKind = "ready"
	EventDisconnected EventKind = "disconnected"
	EventAuthFailure  EventKind = "auth_failure"
	EventMessage      EventKind = "message"
)

// Event is one notification from the underlying messaging platform.
// Payload is set for pairing events; Contact and Body for message events.
type Event struct {
	Kind    EventKind
	Payload string
	Contact string
	Body    string
}

// Info describes the connected account.
type Info struct {
	Number string
}

// Handle is one live connection to the messaging platform. A Handle is
// owned by exactly one session and must not be shared.
//
// Connect starts the pairing/login sequence and returns immediately; the
// outcome arrives on the Events channel. Close releases the connection and
// closes the Events channel; no events are delivered after Close returns.
type Handle interface {
	Connect()
	Send(ctx context.Context, contact, body string) error
	Events() <-chan Event
	Info() (Info, bool)
	Close() error
}

// Factory produces a fresh Handle for an owner.
type Factory interface {
	Dial(owner string) (Handle, error)
}
