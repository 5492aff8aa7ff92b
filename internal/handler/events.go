package handler

import (
	"wabridge/internal/hub"
	"wabridge/internal/model"
	"wabridge/internal/session"
)

// HubNotifier forwards session events to the websocket hub so polling
// clients can switch to push.
type HubNotifier struct {
	Hub *hub.Hub
}

var _ session.Notifier = (*HubNotifier)(nil)

func (n *HubNotifier) SessionStatus(owner string, status session.Status) {
	n.Hub.BroadcastEvent(owner, hub.Event{
		Type: "status",
		Body: map[string]interface{}{"status": status},
	})
}

func (n *HubNotifier) SessionMessage(owner string, msg model.Message) {
	n.Hub.BroadcastEvent(owner, hub.Event{
		Type: "message",
		Body: map[string]interface{}{
			"id":        msg.ID,
			"from":      msg.Sender,
			"contact":   msg.Contact,
			"body":      msg.Body,
			"createdAt": msg.CreatedAt,
		},
	})
}
