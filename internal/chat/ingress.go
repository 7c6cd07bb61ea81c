// Package chat implements message ingress: accepting a new message for a
// thread, persisting it, and handing the broadcast to the delivery registry.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/zerohour-app/zerohour-api/internal/delivery"
	"github.com/zerohour-app/zerohour-api/internal/model"
	"github.com/zerohour-app/zerohour-api/internal/store"
)

var (
	// ErrChatNotFound is returned when the chat id resolves to nothing.
	ErrChatNotFound = errors.New("chat: not found")
	// ErrForbidden is returned when the sender is not a participant.
	ErrForbidden = errors.New("chat: sender is not a participant")
)

// Store is the slice of the data store that ingress needs.
type Store interface {
	FindChat(ctx context.Context, chatID uuid.UUID) (*model.Chat, error)
	CreateMessage(ctx context.Context, msg *model.Message) error
	UpdateChatLastMessage(ctx context.Context, chatID uuid.UUID, content string, at time.Time) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// Publisher hands a broadcast event to the delivery registry for fan-out.
type Publisher interface {
	Publish(ctx context.Context, ev delivery.Event, chatID uuid.UUID)
}

// Ingress accepts new messages and routes the resulting broadcast events.
type Ingress struct {
	db        Store
	publisher Publisher
	sanitizer *bluemonday.Policy
}

// NewIngress returns an Ingress writing to db and fanning out through
// publisher.
func NewIngress(db Store, publisher Publisher) *Ingress {
	return &Ingress{
		db:        db,
		publisher: publisher,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// Submit persists a new message from sender to the chat, updates the
// thread summary, and publishes the broadcast to online participants.
// The store writes and the fan-out are not transactional: a failed summary
// update leaves the message durably recorded and is only logged, since the
// summary is a display optimization.
func (i *Ingress) Submit(ctx context.Context, sender, chatID uuid.UUID, content string) (*model.Message, error) {
	thread, err := i.db.FindChat(ctx, chatID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, fmt.Errorf("chat: resolve chat %s: %w", chatID, err)
	}

	if !thread.HasParticipant(sender) {
		return nil, ErrForbidden
	}

	// Sanitize incoming content to prevent XSS.
	msg := &model.Message{
		MessageID: uuid.New(),
		ChatID:    chatID,
		SenderID:  sender,
		Content:   i.sanitizer.Sanitize(content),
		Timestamp: time.Now().UTC(),
		Type:      model.MessageTypeText,
	}

	if err := i.db.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("chat: persist message: %w", err)
	}

	if err := i.db.UpdateChatLastMessage(ctx, chatID, msg.Content, msg.Timestamp); err != nil {
		log.Printf("chat: failed to update thread summary for %s: %v", chatID, err)
	}

	i.publisher.Publish(ctx, delivery.MessageEvent(delivery.Broadcast{
		MessageID: msg.MessageID,
		ChatID:    msg.ChatID,
		Content:   msg.Content,
		Timestamp: msg.Timestamp,
		Sender:    i.senderProfile(ctx, sender),
	}), chatID)

	return msg, nil
}

// senderProfile loads the sender's redacted display fields for the
// broadcast. A lookup failure degrades to an id-only profile; delivery must
// not fail because of it.
func (i *Ingress) senderProfile(ctx context.Context, sender uuid.UUID) model.Profile {
	user, err := i.db.GetUserByID(ctx, sender)
	if err != nil {
		log.Printf("chat: failed to load sender %s for broadcast: %v", sender, err)
		return model.Profile{UserID: sender}
	}
	profile := user.Redacted()
	profile.Email = ""
	return profile
}
