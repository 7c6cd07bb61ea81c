// Package store provides persistent storage for users, chats and messages.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/zerohour-app/zerohour-api/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// DataStore defines the interface for persistent storage. Postgres
// implements it; tests substitute an in-memory fake.
type DataStore interface {
	Close()
	Ping(ctx context.Context) error

	// User operations
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	UsernameOrEmailTaken(ctx context.Context, username, email string) (bool, error)
	SearchUsers(ctx context.Context, query string, exclude uuid.UUID, limit int) ([]model.User, error)
	SetUserOnline(ctx context.Context, id uuid.UUID, online bool) error

	// Chat operations
	CreateChat(ctx context.Context, chat *model.Chat) error
	FindChat(ctx context.Context, chatID uuid.UUID) (*model.Chat, error)
	FindChatByParticipants(ctx context.Context, a, b uuid.UUID) (*model.Chat, error)
	ListUserChats(ctx context.Context, userID uuid.UUID) ([]model.Chat, error)
	UpdateChatLastMessage(ctx context.Context, chatID uuid.UUID, content string, at time.Time) error

	// Message operations
	CreateMessage(ctx context.Context, msg *model.Message) error
	ListChatMessages(ctx context.Context, chatID uuid.UUID, limit int) ([]model.MessageWithSender, error)
}
