// Package delivery implements the real-time delivery subsystem: a per-user
// registry of event channels that decouples message producers from each
// user's live connection.
package delivery

import (
	"time"

	"github.com/google/uuid"

	"github.com/zerohour-app/zerohour-api/internal/model"
)

// EventType tags the variant carried by an Event.
type EventType string

const (
	// EventConnected acknowledges a freshly opened stream.
	EventConnected EventType = "connected"
	// EventKeepalive is a liveness signal with no semantic payload.
	EventKeepalive EventType = "keepalive"
	// EventMessage carries a chat message broadcast.
	EventMessage EventType = "message"
)

// Event is a tagged, immutable delivery payload. Exactly one of the
// variant fields is set, according to Type.
type Event struct {
	Type      EventType
	UserID    uuid.UUID
	Broadcast *Broadcast
}

// Broadcast is the fan-out form of a persisted message: message fields plus
// the sender's redacted profile.
type Broadcast struct {
	MessageID uuid.UUID     `json:"message_id"`
	ChatID    uuid.UUID     `json:"chat_id"`
	Content   string        `json:"content"`
	Timestamp time.Time     `json:"timestamp"`
	Sender    model.Profile `json:"sender"`
}

// ConnectedEvent builds the connection acknowledgment for user.
func ConnectedEvent(user uuid.UUID) Event {
	return Event{Type: EventConnected, UserID: user}
}

// KeepaliveEvent builds a keepalive signal.
func KeepaliveEvent() Event {
	return Event{Type: EventKeepalive}
}

// MessageEvent wraps a broadcast payload.
func MessageEvent(b Broadcast) Event {
	return Event{Type: EventMessage, Broadcast: &b}
}
