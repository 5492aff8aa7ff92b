package transport

import (
	"context"
	"strings"
	"testing"
	"time"
)

func nextEvent(t *testing.T, h Handle) Event {
	t.Helper()
	select {
	case ev, ok := <-h.Events():
		if !ok {
			t.Fatalf("events channel closed")
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for event")
		return Event{}
	}
}

func TestLoopback_PairsThenConnects(t *testing.T) {
	f := &LoopbackFactory{}
	h, err := f.Dial("alice")
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer h.Close()

	h.Connect()

	ev := nextEvent(t, h)
	if ev.Kind != EventPairing || !strings.HasPrefix(ev.Payload, "loopback:") {
		t.Fatalf("expected pairing event, got %+v", ev)
	}

	ev = nextEvent(t, h)
	if ev.Kind != EventReady {
		t.Fatalf("expected ready event, got %+v", ev)
	}

	info, ok := h.Info()
	if !ok || info.Number != "loopback-alice" {
		t.Fatalf("unexpected info: %+v ok=%v", info, ok)
	}
}

func TestLoopback_EchoesSends(t *testing.T) {
	f := &LoopbackFactory{}
	h, err := f.Dial("alice")
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer h.Close()

	h.Connect()
	nextEvent(t, h) // pairing
	nextEvent(t, h) // ready

	if err := h.Send(context.Background(), "bob", "hi"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	ev := nextEvent(t, h)
	if ev.Kind != EventMessage || ev.Contact != "bob" || ev.Body != "echo: hi" {
		t.Fatalf("unexpected echo: %+v", ev)
	}
}

func TestLoopback_SendBeforeReadyFails(t *testing.T) {
	h := newLoopback("alice", time.Hour)
	defer h.Close()

	if err := h.Send(context.Background(), "bob", "hi"); err == nil {
		t.Fatalf("expected error before ready")
	}
}

func TestLoopback_CloseEndsEventStream(t *testing.T) {
	h := newLoopback("alice", 0)
	if err := h.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, ok := <-h.Events(); ok {
		t.Fatalf("expected closed events channel")
	}
}
