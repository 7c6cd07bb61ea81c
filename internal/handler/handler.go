// Package handler implements the HTTP surface of the API.
package handler

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/zerohour-app/zerohour-api/internal/chat"
	"github.com/zerohour-app/zerohour-api/internal/delivery"
	"github.com/zerohour-app/zerohour-api/internal/presence"
	"github.com/zerohour-app/zerohour-api/internal/store"
)

// defaultKeepalive is the idle window after which a stream emits a
// keepalive frame.
const defaultKeepalive = 30 * time.Second

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	db        store.DataStore
	registry  *delivery.Registry
	ingress   *chat.Ingress
	presence  *presence.Tracker
	jwtSecret string

	// Keepalive is the stream idle window. Tests shrink it.
	Keepalive time.Duration
}

// New returns a Handler wired to its collaborators.
func New(db store.DataStore, registry *delivery.Registry, ingress *chat.Ingress, tracker *presence.Tracker, jwtSecret string) *Handler {
	return &Handler{
		db:        db,
		registry:  registry,
		ingress:   ingress,
		presence:  tracker,
		jwtSecret: jwtSecret,
		Keepalive: defaultKeepalive,
	}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("handler: failed to encode response: %v", err)
	}
}

// Error sends a JSON error response in the API's failure shape.
func (h *Handler) Error(w http.ResponseWriter, status int, detail string) {
	h.JSON(w, status, map[string]string{"detail": detail})
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

// cleanupStream deregisters a closed connection and, when no replacement
// took over, marks the user offline. The request context is dead by now,
// so the presence write gets its own deadline.
func (h *Handler) cleanupStream(userID uuid.UUID, ch *delivery.Channel, transport string) {
	h.registry.Deregister(userID, ch)
	if h.registry.IsRegistered(userID) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	h.presence.SetOffline(ctx, userID)

	// A reconnect can land between the check above and the offline write,
	// which would leave a live user marked offline. Converge the flag back.
	if h.registry.IsRegistered(userID) {
		h.presence.SetOnline(ctx, userID)
		return
	}

	slog.Info(transport+" disconnected",
		slog.String("user_id", userID.String()))
}

// Root reports that the API is up.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	h.JSON(w, http.StatusOK, map[string]string{"message": "ZeroHour Chat API is running!"})
}
