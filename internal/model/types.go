package model

// SelfSender marks a message record as sent by the session owner rather
// than received from the contact.
const SelfSender = "me"

type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    int64
}

// Message is one entry in a session's per-contact log. Immutable once
// appended.
type Message struct {
	ID        string
	Sender    string // contact identifier, or SelfSender for outbound
	Contact   string
	Body      string
	CreatedAt int64
}

func (m Message) Outbound() bool {
	return m.Sender == SelfSender
}
