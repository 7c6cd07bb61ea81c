package delivery

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// keepaliveFrame is an SSE comment frame; clients ignore it, intermediaries
// see traffic.
var keepaliveFrame = []byte(": keepalive\n\n")

type connectedPayload struct {
	Type   EventType `json:"type"`
	UserID uuid.UUID `json:"user_id"`
}

type broadcastPayload struct {
	Type EventType `json:"type"`
	*Broadcast
}

// EncodeSSE renders ev as a text/event-stream frame, one case per variant.
func EncodeSSE(ev Event) ([]byte, error) {
	switch ev.Type {
	case EventKeepalive:
		return keepaliveFrame, nil

	case EventConnected:
		return sseDataFrame(connectedPayload{Type: EventConnected, UserID: ev.UserID})

	case EventMessage:
		return sseDataFrame(broadcastPayload{Type: EventMessage, Broadcast: ev.Broadcast})

	default:
		return nil, fmt.Errorf("delivery: unknown event type %q", ev.Type)
	}
}

func sseDataFrame(payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("delivery: encode frame: %w", err)
	}
	return fmt.Appendf(nil, "data: %s\n\n", data), nil
}

// EncodeSocket renders ev as a websocket text frame. Broadcast frames keep
// the legacy shape without the type discriminator. The second return is
// false for events the socket transport does not carry (keepalives; the
// websocket's own ping/pong provides liveness).
func EncodeSocket(ev Event) ([]byte, bool) {
	switch ev.Type {
	case EventConnected:
		data, err := json.Marshal(connectedPayload{Type: EventConnected, UserID: ev.UserID})
		if err != nil {
			return nil, false
		}
		return data, true

	case EventMessage:
		data, err := json.Marshal(ev.Broadcast)
		if err != nil {
			return nil, false
		}
		return data, true

	default:
		return nil, false
	}
}
