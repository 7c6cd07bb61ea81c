package handler

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/zerohour-app/zerohour-api/internal/model"
	"github.com/zerohour-app/zerohour-api/internal/store"
)

// testContext returns a context that is canceled when the test ends.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}

// memStore is an in-memory DataStore for handler tests.
type memStore struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*model.User
	chats    map[uuid.UUID]*model.Chat
	messages []*model.Message

	// setOnlineHook, when set, fires once before the next presence write
	// is applied. Lets tests interleave work with an in-flight write.
	setOnlineHook func(online bool)
}

var _ store.DataStore = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		users: make(map[uuid.UUID]*model.User),
		chats: make(map[uuid.UUID]*model.Chat),
	}
}

func (s *memStore) Close()                     {}
func (s *memStore) Ping(context.Context) error { return nil }

func (s *memStore) CreateUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *user
	s.users[user.UserID] = &clone
	return nil
}

func (s *memStore) GetUserByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (s *memStore) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Username == username {
			clone := *user
			return &clone, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *memStore) UsernameOrEmailTaken(_ context.Context, username, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Username == username || user.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) SearchUsers(_ context.Context, query string, exclude uuid.UUID, limit int) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := strings.ToLower(query)
	var results []model.User
	for _, user := range s.users {
		if user.UserID == exclude {
			continue
		}
		if strings.Contains(strings.ToLower(user.Username), q) ||
			strings.Contains(strings.ToLower(user.FirstName), q) ||
			strings.Contains(strings.ToLower(user.LastName), q) {
			results = append(results, *user)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Username < results[j].Username })
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (s *memStore) SetUserOnline(_ context.Context, id uuid.UUID, online bool) error {
	s.mu.Lock()
	hook := s.setOnlineHook
	s.setOnlineHook = nil
	s.mu.Unlock()
	if hook != nil {
		hook(online)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if user, ok := s.users[id]; ok {
		user.IsOnline = online
	}
	return nil
}

func (s *memStore) CreateChat(_ context.Context, chat *model.Chat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *chat
	s.chats[chat.ChatID] = &clone
	return nil
}

func (s *memStore) FindChat(_ context.Context, chatID uuid.UUID) (*model.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	chat, ok := s.chats[chatID]
	if !ok {
		return nil, store.ErrNotFound
	}
	clone := *chat
	return &clone, nil
}

func (s *memStore) FindChatByParticipants(_ context.Context, a, b uuid.UUID) (*model.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, chat := range s.chats {
		if chat.HasParticipant(a) && chat.HasParticipant(b) {
			clone := *chat
			return &clone, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *memStore) ListUserChats(_ context.Context, userID uuid.UUID) ([]model.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var chats []model.Chat
	for _, chat := range s.chats {
		if chat.HasParticipant(userID) {
			chats = append(chats, *chat)
		}
	}
	return chats, nil
}

func (s *memStore) UpdateChatLastMessage(_ context.Context, chatID uuid.UUID, content string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if chat, ok := s.chats[chatID]; ok {
		chat.LastMessage = &content
		chat.LastMessageTime = &at
	}
	return nil
}

func (s *memStore) CreateMessage(_ context.Context, msg *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *msg
	s.messages = append(s.messages, &clone)
	return nil
}

func (s *memStore) ListChatMessages(_ context.Context, chatID uuid.UUID, limit int) ([]model.MessageWithSender, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.MessageWithSender
	for _, msg := range s.messages {
		if msg.ChatID != chatID {
			continue
		}
		m := model.MessageWithSender{Message: *msg}
		if sender, ok := s.users[msg.SenderID]; ok {
			m.Sender = sender.Redacted()
			m.Sender.Email = ""
		}
		out = append(out, m)
		if len(out) == limit {
			break
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// isOnline reports the stored presence flag.
func (s *memStore) isOnline(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user, ok := s.users[id]; ok {
		return user.IsOnline
	}
	return false
}
