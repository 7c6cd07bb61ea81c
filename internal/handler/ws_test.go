package handler

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/zerohour-app/zerohour-api/internal/delivery"
)

func dialSocket(t *testing.T, env *testEnv, userID uuid.UUID) *websocket.Conn {
	t.Helper()

	url := strings.Replace(env.server.URL, "http://", "ws://", 1) + "/ws/" + userID.String()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.CloseNow() }) //nolint:errcheck
	return conn
}

func readSocketFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("socket read failed: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("frame is not JSON: %v", err)
	}
	return payload
}

func writeSocketFrame(t *testing.T, conn *websocket.Conn, raw []byte) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.Write(ctx, websocket.MessageText, raw); err != nil {
		t.Fatalf("socket write failed: %v", err)
	}
}

func TestServeWs(t *testing.T) {
	env := newTestEnv(t)
	alice, bob, thread := env.seedChat(t)

	aliceCh := env.registry.Register(alice.UserID)

	conn := dialSocket(t, env, bob.UserID)

	ack := readSocketFrame(t, conn)
	if ack["type"] != "connected" || ack["user_id"] != bob.UserID.String() {
		t.Fatalf("first frame = %v, want connection ack", ack)
	}
	waitFor(t, func() bool { return env.db.isOnline(bob.UserID) })

	raw, err := json.Marshal(map[string]string{
		"chat_id": thread.ChatID.String(),
		"content": "hello alice",
	})
	if err != nil {
		t.Fatalf("marshal frame: %v", err)
	}
	writeSocketFrame(t, conn, raw)

	// The message persists and fans out to the other participant.
	select {
	case ev := <-aliceCh.Recv():
		if ev.Type != delivery.EventMessage || ev.Broadcast.Content != "hello alice" {
			t.Errorf("unexpected event: %+v", ev)
		}
		if ev.Broadcast.Sender.Email != "" {
			t.Error("broadcast leaks the sender email")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("other participant never received the message")
	}

	msgs, err := env.db.ListChatMessages(testContext(t), thread.ChatID, 10)
	if err != nil {
		t.Fatalf("ListChatMessages() error = %+v", err)
	}
	if len(msgs) != 1 || msgs[0].Content != "hello alice" {
		t.Fatalf("persisted messages = %+v", msgs)
	}

	// The sender's own socket gets the broadcast in the legacy shape:
	// no type discriminator on the wire.
	echo := readSocketFrame(t, conn)
	if _, found := echo["type"]; found {
		t.Errorf("broadcast frame carries a type field: %v", echo)
	}
	if echo["content"] != "hello alice" || echo["message_id"] != msgs[0].MessageID.String() {
		t.Errorf("broadcast frame = %v", echo)
	}
}

func TestServeWsMalformedFrame(t *testing.T) {
	env := newTestEnv(t)
	_, bob, thread := env.seedChat(t)

	conn := dialSocket(t, env, bob.UserID)
	readSocketFrame(t, conn)

	// A frame that is not JSON is logged and skipped; the read loop
	// keeps serving.
	writeSocketFrame(t, conn, []byte("not-json"))

	raw, err := json.Marshal(map[string]string{
		"chat_id": thread.ChatID.String(),
		"content": "still here",
	})
	if err != nil {
		t.Fatalf("marshal frame: %v", err)
	}
	writeSocketFrame(t, conn, raw)

	waitFor(t, func() bool {
		msgs, err := env.db.ListChatMessages(testContext(t), thread.ChatID, 10)
		return err == nil && len(msgs) == 1
	})

	echo := readSocketFrame(t, conn)
	if echo["content"] != "still here" {
		t.Errorf("broadcast frame = %v", echo)
	}
}

func TestServeWsDisconnectCleansUp(t *testing.T) {
	env := newTestEnv(t)
	_, bob, _ := env.seedChat(t)

	conn := dialSocket(t, env, bob.UserID)
	readSocketFrame(t, conn)
	waitFor(t, func() bool { return env.db.isOnline(bob.UserID) })

	if err := conn.Close(websocket.StatusNormalClosure, ""); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	waitFor(t, func() bool { return !env.registry.IsRegistered(bob.UserID) })
	waitFor(t, func() bool { return !env.db.isOnline(bob.UserID) })
}

func TestServeWsInvalidUserID(t *testing.T) {
	env := newTestEnv(t)

	url := strings.Replace(env.server.URL, "http://", "ws://", 1) + "/ws/not-a-uuid"
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, _, err := websocket.Dial(ctx, url, nil); err == nil {
		t.Fatal("dial succeeded for an invalid user id")
	}
}
