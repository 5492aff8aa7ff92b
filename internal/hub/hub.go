package hub

import (
	"encoding/json"
	"sync"
)

type Writer interface {
	Write(message []byte) error
	Close() error
}

type Connection struct {
	Owner  string
	Writer Writer
}

// Event is the envelope pushed to websocket clients.
type Event struct {
	Type string      `json:"type"`
	Body interface{} `json:"body,omitempty"`
}

// Hub fans session events out to every websocket connection an owner has
// open. Connections that fail a write are closed and dropped.
type Hub struct {
	mu          sync.RWMutex
	connections map[string]map[*Connection]struct{}
}

func New() *Hub {
	return &Hub{connections: make(map[string]map[*Connection]struct{})}
}

func (h *Hub) Register(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.connections[conn.Owner] == nil {
		h.connections[conn.Owner] = make(map[*Connection]struct{})
	}
	h.connections[conn.Owner][conn] = struct{}{}
}

func (h *Hub) Unregister(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.connections[conn.Owner]
	if set == nil {
		return
	}
	delete(set, conn)
	if len(set) == 0 {
		delete(h.connections, conn.Owner)
	}
}

// BroadcastEvent marshals the event and delivers it to all of the owner's
// connections. Marshal failures drop the event.
func (h *Hub) BroadcastEvent(owner string, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	h.Broadcast(owner, data)
}

func (h *Hub) Broadcast(owner string, message []byte) {
	h.mu.RLock()
	set := h.connections[owner]
	conns := make([]*Connection, 0, len(set))
	for c := range set {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	var failed []*Connection
	for _, c := range conns {
		if err := c.Writer.Write(message); err != nil {
			failed = append(failed, c)
		}
	}
	for _, c := range failed {
		_ = c.Writer.Close()
		h.Unregister(c)
	}
}
