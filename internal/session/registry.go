package session

import (
	"fmt"
	"log"
	"sync"

	"wabridge/internal/transport"
)

// Registry is the single source of truth mapping owner to session. At most
// one session exists per owner; creation is lazy and exactly-once, removal
// is idempotent. The registry lock covers only map access — per-owner work
// runs under each session's own lock, so owners never contend with each
// other.
type Registry struct {
	factory transport.Factory
	notify  Notifier

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry(factory transport.Factory, notify Notifier) *Registry {
	return &Registry{
		factory:  factory,
		notify:   notify,
		sessions: make(map[string]*Session),
	}
}

// GetOrCreate returns the owner's session, creating and connecting a fresh
// one if none exists. Concurrent first calls for the same owner all
// receive the same session and the transport is dialed exactly once.
func (r *Registry) GetOrCreate(owner string) (*Session, error) {
	if owner == "" {
		return nil, fmt.Errorf("missing owner")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.sessions[owner]; ok {
		return existing, nil
	}

	handle, err := r.factory.Dial(owner)
	if err != nil {
		return nil, fmt.Errorf("dial transport for %s: %w", owner, err)
	}

	s := newSession(owner, handle, r.notify)
	r.sessions[owner] = s
	handle.Connect()
	log.Printf("session created owner=%s", owner)
	return s, nil
}

// Get returns the owner's session or ErrNotFound.
func (r *Registry) Get(owner string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[owner]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Remove tears down and discards the owner's session: the transport handle
// is released and the message log dropped. Removing an absent owner is a
// no-op.
func (r *Registry) Remove(owner string) {
	r.mu.Lock()
	s, ok := r.sessions[owner]
	if ok {
		delete(r.sessions, owner)
	}
	r.mu.Unlock()

	if ok {
		s.close()
		log.Printf("session removed owner=%s", owner)
	}
}

// Close tears down every session. Used at process shutdown.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for owner, s := range r.sessions {
		sessions = append(sessions, s)
		delete(r.sessions, owner)
	}
	r.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
}
