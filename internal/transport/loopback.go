package transport

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"
)

// LoopbackFactory dials loopback handles: an in-process stand-in for the
// real messaging platform. Each handle emits a pairing payload on Connect,
// reports ready after PairDelay, and echoes every sent message back as an
// inbound message from the same contact.
type LoopbackFactory struct {
	// PairDelay is how long a handle stays in pairing before reporting
	// ready. Zero means ready immediately after the pairing event.
	PairDelay time.Duration
}

func (f *LoopbackFactory) Dial(owner string) (Handle, error) {
	return newLoopback(owner, f.PairDelay), nil
}

type loopback struct {
	owner     string
	pairDelay time.Duration
	events    chan Event

	mu     sync.Mutex
	ready  bool
	closed bool
}

func newLoopback(owner string, pairDelay time.Duration) *loopback {
	return &loopback{
		owner:     owner,
		pairDelay: pairDelay,
		events:    make(chan Event, 16),
	}
}

func (l *loopback) Connect() {
	go func() {
		payload := make([]byte, 16)
		if _, err := rand.Read(payload); err != nil {
			l.emit(Event{Kind: EventAuthFailure})
			return
		}
		l.emit(Event{Kind: EventPairing, Payload: "loopback:" + hex.EncodeToString(payload)})

		if l.pairDelay > 0 {
			time.Sleep(l.pairDelay)
		}

		l.mu.Lock()
		if !l.closed {
			l.ready = true
		}
		l.mu.Unlock()
		l.emit(Event{Kind: EventReady})
	}()
}

func (l *loopback) Send(ctx context.Context, contact, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	ready := l.ready && !l.closed
	l.mu.Unlock()
	if !ready {
		return errors.New("loopback: not connected")
	}

	l.emit(Event{Kind: EventMessage, Contact: contact, Body: "echo: " + body})
	return nil
}

func (l *loopback) Events() <-chan Event { return l.events }

func (l *loopback) Info() (Info, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.ready || l.closed {
		return Info{}, false
	}
	return Info{Number: "loopback-" + l.owner}, true
}

func (l *loopback) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	l.ready = false
	close(l.events)
	return nil
}

func (l *loopback) emit(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	select {
	case l.events <- ev:
	default:
		// Slow consumer; drop rather than wedge the connection.
	}
}
