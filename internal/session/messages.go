package session

import (
	"sort"
	"sync"

	"wabridge/internal/model"
)

// messageLog is a session's per-contact, append-only message history.
// Retrieval order is insertion order; buckets are created on first append.
type messageLog struct {
	mu   sync.RWMutex
	data map[string][]model.Message
}

func newMessageLog() *messageLog {
	return &messageLog{data: make(map[string][]model.Message)}
}

func (l *messageLog) append(contact string, msg model.Message) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.data[contact] = append(l.data[contact], msg)
}

func (l *messageLog) contacts() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]string, 0, len(l.data))
	for contact := range l.data {
		result = append(result, contact)
	}
	sort.Strings(result)
	return result
}

func (l *messageLog) messages(contact string) []model.Message {
	l.mu.RLock()
	defer l.mu.RUnlock()

	msgs := l.data[contact]
	result := make([]model.Message, len(msgs))
	copy(result, msgs)
	return result
}
