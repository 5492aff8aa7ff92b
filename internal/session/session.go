package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"wabridge/internal/model"
	"wabridge/internal/transport"
)

// Status is a session's position in its lifecycle. Sessions start
// initializing and move forward on transport events; failed and
// disconnected are terminal for the instance, recovery is a fresh session.
type Status string

const (
	StatusInitializing    Status = "initializing"
	StatusAwaitingPairing Status = "awaiting_pairing"
	StatusConnected       Status = "connected"
	StatusDisconnected    Status = "disconnected"
	StatusFailed          Status = "failed"
)

// Notifier receives session events for push delivery. Calls are made from
// the session's event loop and from Send; implementations must bound how
// long a delivery can block, or they stall the owner's event stream.
type Notifier interface {
	SessionStatus(owner string, status Status)
	SessionMessage(owner string, msg model.Message)
}

// Session is one owner's live connection: an exclusively owned transport
// handle, the lifecycle status, the per-contact message log, and the most
// recent pairing challenge. All mutation happens either in the event loop
// or under the session mutex, so observers see consistent state.
type Session struct {
	owner  string
	handle transport.Handle
	log    *messageLog
	notify Notifier

	mu        sync.RWMutex
	status    Status
	challenge string

	closeOnce sync.Once
	done      chan struct{}
}

func newSession(owner string, handle transport.Handle, notify Notifier) *Session {
	s := &Session{
		owner:  owner,
		handle: handle,
		log:    newMessageLog(),
		notify: notify,
		status: StatusInitializing,
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

// run consumes the handle's event stream until it is closed. Every event
// for this owner passes through here in emission order, which is what
// makes status transitions linearizable per owner.
func (s *Session) run() {
	defer close(s.done)
	for ev := range s.handle.Events() {
		s.apply(ev)
	}
}

func (s *Session) apply(ev transport.Event) {
	switch ev.Kind {
	case transport.EventPairing:
		s.transition(StatusAwaitingPairing, ev.Payload)
	case transport.EventReady:
		s.transition(StatusConnected, "")
	case transport.EventDisconnected:
		s.transition(StatusDisconnected, "")
	case transport.EventAuthFailure:
		s.transition(StatusFailed, "")
	case transport.EventMessage:
		msg := model.Message{
			ID:        uuid.NewString(),
			Sender:    ev.Contact,
			Contact:   ev.Contact,
			Body:      ev.Body,
			CreatedAt: time.Now().UnixMilli(),
		}
		s.log.append(ev.Contact, msg)
		if s.notify != nil {
			s.notify.SessionMessage(s.owner, msg)
		}
	}
}

func (s *Session) transition(status Status, challenge string) {
	s.mu.Lock()
	if s.status == StatusFailed {
		// Failed is terminal; late transport events must not resurrect
		// the session.
		s.mu.Unlock()
		return
	}
	s.status = status
	s.challenge = challenge
	s.mu.Unlock()

	if s.notify != nil {
		s.notify.SessionStatus(s.owner, status)
	}
}

func (s *Session) Owner() string { return s.owner }

func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Challenge returns the pairing payload while the session is awaiting
// pairing. Once the session connects (or dies) the challenge is gone.
func (s *Session) Challenge() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.status != StatusAwaitingPairing || s.challenge == "" {
		return "", ErrNoChallenge
	}
	return s.challenge, nil
}

// Info reports the connected account details, if the transport has them.
func (s *Session) Info() (transport.Info, error) {
	if s.Status() != StatusConnected {
		return transport.Info{}, ErrNotReady
	}
	info, ok := s.handle.Info()
	if !ok {
		return transport.Info{}, ErrNotReady
	}
	return info, nil
}

// Send delivers body to contact over the transport and records the
// outbound message. The transport round trip is synchronous; nothing is
// recorded unless the transport acknowledged the send.
func (s *Session) Send(ctx context.Context, contact, body string) (model.Message, error) {
	if s.Status() != StatusConnected {
		return model.Message{}, ErrNotReady
	}

	if err := s.handle.Send(ctx, contact, body); err != nil {
		return model.Message{}, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	msg := model.Message{
		ID:        uuid.NewString(),
		Sender:    model.SelfSender,
		Contact:   contact,
		Body:      body,
		CreatedAt: time.Now().UnixMilli(),
	}
	s.log.append(contact, msg)
	if s.notify != nil {
		s.notify.SessionMessage(s.owner, msg)
	}
	return msg, nil
}

// Contacts lists the contact identifiers with at least one message.
func (s *Session) Contacts() []string {
	return s.log.contacts()
}

// Messages lists the full ordered history for a contact. An unknown
// contact yields an empty slice, not an error.
func (s *Session) Messages(contact string) []model.Message {
	return s.log.messages(contact)
}

// close releases the transport handle and stops the event loop. Safe to
// call more than once.
func (s *Session) close() {
	s.closeOnce.Do(func() {
		_ = s.handle.Close()
		<-s.done
	})
}
