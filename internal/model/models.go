// Package model defines the data structures shared across the API.
package model

import (
	"time"

	"github.com/google/uuid"
)

// User holds the full user record, including credential fields that must
// never leave the server. Use Redacted() for anything client-facing.
type User struct {
	UserID         uuid.UUID `json:"user_id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	MobileNo       string    `json:"mobile_no"`
	Email          string    `json:"email"`
	Username       string    `json:"username"`
	SecurityPhrase string    `json:"-"`
	PasswordHash   string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	IsOnline       bool      `json:"is_online"`
}

// Profile is the client-facing view of a user, credential fields stripped.
type Profile struct {
	UserID    uuid.UUID `json:"user_id"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email,omitempty"`
	IsOnline  bool      `json:"is_online"`
}

// Redacted returns the user's public profile.
func (u *User) Redacted() Profile {
	return Profile{
		UserID:    u.UserID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		IsOnline:  u.IsOnline,
	}
}

// Chat is a one-to-one thread between exactly two users. The last-message
// fields are a denormalized summary used for list-view ordering.
type Chat struct {
	ChatID          uuid.UUID   `json:"chat_id"`
	Participants    []uuid.UUID `json:"participants"`
	CreatedAt       time.Time   `json:"created_at"`
	LastMessage     *string     `json:"last_message,omitempty"`
	LastMessageTime *time.Time  `json:"last_message_time,omitempty"`
}

// HasParticipant reports whether id is one of the chat's participants.
func (c *Chat) HasParticipant(id uuid.UUID) bool {
	for _, p := range c.Participants {
		if p == id {
			return true
		}
	}
	return false
}

// OtherParticipant returns the participant that is not id.
func (c *Chat) OtherParticipant(id uuid.UUID) (uuid.UUID, bool) {
	for _, p := range c.Participants {
		if p != id {
			return p, true
		}
	}
	return uuid.UUID{}, false
}

// MessageTypeText is the default message type.
const MessageTypeText = "text"

// Message is a persisted chat message. Append-only; never mutated.
type Message struct {
	MessageID uuid.UUID `json:"message_id"`
	ChatID    uuid.UUID `json:"chat_id"`
	SenderID  uuid.UUID `json:"sender_id"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"message_type"`
}

// MessageWithSender is a message joined with its sender's profile, as
// returned by history queries.
type MessageWithSender struct {
	Message
	Sender Profile `json:"sender"`
}
