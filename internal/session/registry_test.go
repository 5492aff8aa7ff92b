package session

import (
	"errors"
	"sync"
	"testing"

	"wabridge/internal/transport"
)

type fakeFactory struct {
	mu      sync.Mutex
	dials   int
	handles map[string]*fakeHandle
	dialErr error
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{handles: make(map[string]*fakeHandle)}
}

func (f *fakeFactory) Dial(owner string) (transport.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dialErr != nil {
		return nil, f.dialErr
	}
	f.dials++
	h := newFakeHandle()
	f.handles[owner] = h
	return h, nil
}

func (f *fakeFactory) handle(owner string) *fakeHandle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handles[owner]
}

func TestRegistry_GetOrCreateIsIdempotent(t *testing.T) {
	factory := newFakeFactory()
	r := NewRegistry(factory, nil)
	defer r.Close()

	s1, err := r.GetOrCreate("alice")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	s2, err := r.GetOrCreate("alice")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if s1 != s2 {
		t.Fatalf("expected the same session")
	}
	if factory.dials != 1 {
		t.Fatalf("expected 1 dial, got %d", factory.dials)
	}

	h := factory.handle("alice")
	h.mu.Lock()
	connects := h.connects
	h.mu.Unlock()
	if connects != 1 {
		t.Fatalf("expected 1 connect, got %d", connects)
	}
}

func TestRegistry_ConcurrentFirstRequests(t *testing.T) {
	factory := newFakeFactory()
	r := NewRegistry(factory, nil)
	defer r.Close()

	const n = 50
	sessions := make([]*Session, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := r.GetOrCreate("alice")
			if err != nil {
				t.Errorf("GetOrCreate: %v", err)
				return
			}
			sessions[i] = s
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if sessions[i] != sessions[0] {
			t.Fatalf("caller %d got a different session", i)
		}
	}
	factory.mu.Lock()
	dials := factory.dials
	factory.mu.Unlock()
	if dials != 1 {
		t.Fatalf("expected exactly 1 dial under race, got %d", dials)
	}
}

func TestRegistry_OwnersAreIsolated(t *testing.T) {
	factory := newFakeFactory()
	r := NewRegistry(factory, nil)
	defer r.Close()

	sa, err := r.GetOrCreate("alice")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	sb, err := r.GetOrCreate("bob")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if sa == sb {
		t.Fatalf("owners share a session")
	}

	r.Remove("bob")
	if _, err := r.Get("alice"); err != nil {
		t.Fatalf("removing bob disturbed alice: %v", err)
	}
	if _, err := r.Get("bob"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for bob, got %v", err)
	}
}

func TestRegistry_GetAbsentOwner(t *testing.T) {
	r := NewRegistry(newFakeFactory(), nil)
	defer r.Close()

	if _, err := r.Get("nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRegistry_RemoveIsIdempotentAndReleasesHandle(t *testing.T) {
	factory := newFakeFactory()
	r := NewRegistry(factory, nil)

	if _, err := r.GetOrCreate("alice"); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	r.Remove("alice")
	r.Remove("alice") // no-op

	h := factory.handle("alice")
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if !closed {
		t.Fatalf("expected handle released")
	}
}

func TestRegistry_RecreateAfterRemoveStartsFresh(t *testing.T) {
	factory := newFakeFactory()
	r := NewRegistry(factory, nil)
	defer r.Close()

	s1, err := r.GetOrCreate("alice")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	factory.handle("alice").emit(transport.Event{Kind: transport.EventMessage, Contact: "bob", Body: "hi"})
	waitForMessages(t, s1, "bob", 1)

	r.Remove("alice")

	s2, err := r.GetOrCreate("alice")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if s2 == s1 {
		t.Fatalf("expected a fresh session")
	}
	if s2.Status() != StatusInitializing {
		t.Fatalf("expected initializing, got %q", s2.Status())
	}
	if len(s2.Messages("bob")) != 0 || len(s2.Contacts()) != 0 {
		t.Fatalf("residue from prior session")
	}
	if factory.dials != 2 {
		t.Fatalf("expected 2 dials, got %d", factory.dials)
	}
}

func TestRegistry_DialFailure(t *testing.T) {
	factory := newFakeFactory()
	factory.dialErr = errors.New("no transport")
	r := NewRegistry(factory, nil)
	defer r.Close()

	if _, err := r.GetOrCreate("alice"); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := r.Get("alice"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("failed create must not register a session, got %v", err)
	}
}
