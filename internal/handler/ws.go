package handler

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/zerohour-app/zerohour-api/internal/delivery"
)

type inboundFrame struct {
	ChatID  uuid.UUID `json:"chat_id"`
	Content string    `json:"content"`
}

// ServeWs handles the bidirectional socket delivery endpoint: outbound
// broadcasts drain the user's delivery channel while inbound frames are
// routed through message ingress.
func (h *Handler) ServeWs(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		h.Error(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.Printf("handler/ws: failed to accept connection: %v", err)
		return
	}

	ctx := r.Context()

	ch := h.registry.Register(userID)
	h.presence.SetOnline(ctx, userID)

	slog.InfoContext(ctx, "socket connected",
		slog.String("user_id", userID.String()))

	defer func() {
		conn.CloseNow() //nolint:errcheck
		h.cleanupStream(userID, ch, "socket")
	}()

	go h.writeSocket(ctx, conn, ch)

	// Block on the read loop so the request context stays alive for the
	// writer goroutine.
	h.readSocket(ctx, conn, userID)
}

// writeSocket acknowledges the connection, then drains the delivery
// channel onto the socket.
func (h *Handler) writeSocket(ctx context.Context, conn *websocket.Conn, ch *delivery.Channel) {
	if frame, ok := delivery.EncodeSocket(delivery.ConnectedEvent(ch.User())); ok {
		if err := conn.Write(ctx, websocket.MessageText, frame); err != nil {
			log.Printf("handler/ws: write failed: %v", err)
			return
		}
	}

	for {
		select {
		case ev := <-ch.Recv():
			frame, ok := delivery.EncodeSocket(ev)
			if !ok {
				continue
			}

			writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err := conn.Write(writeCtx, websocket.MessageText, frame)
			cancel()
			if err != nil {
				log.Printf("handler/ws: write failed: %v", err)
				return
			}

		case <-ch.Done():
			conn.Close(websocket.StatusGoingAway, "connection superseded") //nolint:errcheck
			return

		case <-ctx.Done():
			return
		}
	}
}

// readSocket parses inbound frames as new-message requests.
func (h *Handler) readSocket(ctx context.Context, conn *websocket.Conn, userID uuid.UUID) {
	for {
		msgType, p, err := conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure &&
				status != websocket.StatusGoingAway &&
				status != -1 {
				log.Printf("handler/ws: %v", err)
			}
			return
		}

		if msgType != websocket.MessageText {
			continue
		}

		var in inboundFrame
		if err := json.Unmarshal(p, &in); err != nil {
			log.Printf("handler/ws: failed to process payload from client: %v", err)
			continue
		}

		if _, err := h.ingress.Submit(ctx, userID, in.ChatID, in.Content); err != nil {
			log.Printf("handler/ws: submit failed for user %s: %v", userID, err)
		}
	}
}
