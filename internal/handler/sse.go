package handler

import (
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/zerohour-app/zerohour-api/internal/delivery"
)

// StreamSSE serves the push-stream delivery endpoint: a long-lived
// server-to-client event stream of the user's delivery channel.
func (h *Handler) StreamSSE(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		h.Error(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	w.Header().Set("X-Accel-Buffering", "no")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	if err := rc.Flush(); err != nil {
		log.Printf("handler/sse: %v", err)
		return
	}

	ctx := r.Context()

	ch := h.registry.Register(userID)
	h.presence.SetOnline(ctx, userID)

	slog.InfoContext(ctx, "stream connected",
		slog.String("user_id", userID.String()))

	// Guaranteed cleanup on every exit path. When a newer connection
	// superseded this one, the registry entry and presence belong to it
	// and must be left alone.
	defer h.cleanupStream(userID, ch, "stream")

	h.emitSSE(w, rc, delivery.ConnectedEvent(userID))

	ticker := time.NewTicker(h.Keepalive)
	defer ticker.Stop()

	for {
		select {
		case ev := <-ch.Recv():
			h.emitSSE(w, rc, ev)
			ticker.Reset(h.Keepalive)

		case <-ticker.C:
			h.emitSSE(w, rc, delivery.KeepaliveEvent())

		case <-ch.Done():
			// Superseded by a newer connection for this user.
			return

		case <-ctx.Done():
			return
		}
	}
}

func (h *Handler) emitSSE(w http.ResponseWriter, rc *http.ResponseController, ev delivery.Event) {
	frame, err := delivery.EncodeSSE(ev)
	if err != nil {
		log.Printf("handler/sse: %v", err)
		return
	}

	if _, err := w.Write(frame); err != nil {
		log.Printf("handler/sse: could not write frame: %v", err)
		return
	}
	if err := rc.Flush(); err != nil {
		log.Printf("handler/sse: could not flush buffer to writer: %v", err)
	}
}
