package hub

import (
	"encoding/json"
	"testing"
)

type testWriter struct {
	writes   int
	lastData []byte
	fail     bool
}

func (w *testWriter) Write(message []byte) error {
	w.writes++
	w.lastData = message
	if w.fail {
		return errTest
	}
	return nil
}

func (w *testWriter) Close() error { return nil }

var errTest = &testErr{}

type testErr struct{}

func (*testErr) Error() string { return "test" }

func TestHub_RegisterBroadcastUnregister(t *testing.T) {
	h := New()
	w1 := &testWriter{}
	c1 := &Connection{Owner: "alice", Writer: w1}

	h.Register(c1)
	h.Broadcast("alice", []byte("x"))
	if w1.writes != 1 {
		t.Fatalf("expected 1 write, got %d", w1.writes)
	}

	h.Broadcast("bob", []byte("x"))
	if w1.writes != 1 {
		t.Fatalf("another owner's broadcast reached alice")
	}

	h.Unregister(c1)
	h.Broadcast("alice", []byte("x"))
	if w1.writes != 1 {
		t.Fatalf("expected no more writes, got %d", w1.writes)
	}
}

func TestHub_BroadcastEventMarshalsEnvelope(t *testing.T) {
	h := New()
	w1 := &testWriter{}
	h.Register(&Connection{Owner: "alice", Writer: w1})

	h.BroadcastEvent("alice", Event{Type: "status", Body: map[string]interface{}{"status": "connected"}})
	if w1.writes != 1 {
		t.Fatalf("expected 1 write, got %d", w1.writes)
	}

	var ev Event
	if err := json.Unmarshal(w1.lastData, &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.Type != "status" {
		t.Fatalf("unexpected type %q", ev.Type)
	}
}

func TestHub_RemovesFailedConnections(t *testing.T) {
	h := New()
	w1 := &testWriter{fail: true}
	c1 := &Connection{Owner: "alice", Writer: w1}
	h.Register(c1)

	h.Broadcast("alice", []byte("x"))
	h.Broadcast("alice", []byte("x"))
	if w1.writes != 1 {
		t.Fatalf("expected only 1 write before removal, got %d", w1.writes)
	}
}
