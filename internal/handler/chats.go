package handler

import (
	"errors"
	"log"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/zerohour-app/zerohour-api/internal/auth"
	"github.com/zerohour-app/zerohour-api/internal/model"
	"github.com/zerohour-app/zerohour-api/internal/store"
)

const messageHistoryLimit = 1000

type createChatRequest struct {
	OtherUserID uuid.UUID `json:"other_user_id"`
}

// chatSummary is one entry of the chat list view: the thread plus the other
// participant's profile.
type chatSummary struct {
	ChatID          uuid.UUID     `json:"chat_id"`
	OtherUser       model.Profile `json:"other_user"`
	LastMessage     *string       `json:"last_message"`
	LastMessageTime *time.Time    `json:"last_message_time"`
	CreatedAt       time.Time     `json:"created_at"`
}

type chatMessage struct {
	MessageID    uuid.UUID     `json:"message_id"`
	Content      string        `json:"content"`
	Timestamp    time.Time     `json:"timestamp"`
	Sender       model.Profile `json:"sender"`
	IsOwnMessage bool          `json:"is_own_message"`
}

// CreateChat creates a one-to-one chat with another user, or returns the
// existing one.
func (h *Handler) CreateChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := auth.GetUserFromContext(ctx)
	if err != nil {
		h.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req createChatRequest
	if err := decodeJSON(r, &req); err != nil || req.OtherUserID == uuid.Nil {
		h.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	existing, err := h.db.FindChatByParticipants(ctx, userID, req.OtherUserID)
	if err == nil {
		h.JSON(w, http.StatusOK, existing)
		return
	}
	if !errors.Is(err, store.ErrNotFound) {
		log.Printf("handler/chats: lookup failed: %v", err)
		h.Error(w, http.StatusInternalServerError, "Database error")
		return
	}

	thread := &model.Chat{
		ChatID:       uuid.New(),
		Participants: []uuid.UUID{userID, req.OtherUserID},
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.db.CreateChat(ctx, thread); err != nil {
		log.Printf("handler/chats: create failed: %v", err)
		h.Error(w, http.StatusInternalServerError, "Database error")
		return
	}

	h.JSON(w, http.StatusOK, thread)
}

// ListChats returns the caller's chats with the other participant embedded,
// most recently active first.
func (h *Handler) ListChats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := auth.GetUserFromContext(ctx)
	if err != nil {
		h.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	chats, err := h.db.ListUserChats(ctx, userID)
	if err != nil {
		log.Printf("handler/chats: list failed: %v", err)
		h.Error(w, http.StatusInternalServerError, "Database error")
		return
	}

	summaries := make([]chatSummary, 0, len(chats))
	for _, c := range chats {
		otherID, ok := c.OtherParticipant(userID)
		if !ok {
			continue
		}

		other, err := h.db.GetUserByID(ctx, otherID)
		if err != nil {
			// Skip threads whose other side no longer resolves.
			if !errors.Is(err, store.ErrNotFound) {
				log.Printf("handler/chats: load participant %s: %v", otherID, err)
			}
			continue
		}

		profile := other.Redacted()
		profile.Email = ""
		summaries = append(summaries, chatSummary{
			ChatID:          c.ChatID,
			OtherUser:       profile,
			LastMessage:     c.LastMessage,
			LastMessageTime: c.LastMessageTime,
			CreatedAt:       c.CreatedAt,
		})
	}

	// Order by last activity, falling back to creation time for threads
	// without messages.
	activity := func(s chatSummary) time.Time {
		if s.LastMessageTime != nil {
			return *s.LastMessageTime
		}
		return s.CreatedAt
	}
	sort.Slice(summaries, func(i, j int) bool {
		return activity(summaries[i]).After(activity(summaries[j]))
	})

	h.JSON(w, http.StatusOK, summaries)
}

// ChatMessages returns a chat's message history for a participant.
func (h *Handler) ChatMessages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := auth.GetUserFromContext(ctx)
	if err != nil {
		h.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	chatID, err := uuid.Parse(chi.URLParam(r, "chatID"))
	if err != nil {
		h.Error(w, http.StatusBadRequest, "Invalid chat id")
		return
	}

	thread, err := h.db.FindChat(ctx, chatID)
	if err != nil || !thread.HasParticipant(userID) {
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			log.Printf("handler/chats: find chat %s: %v", chatID, err)
		}
		h.Error(w, http.StatusForbidden, "Access denied")
		return
	}

	messages, err := h.db.ListChatMessages(ctx, chatID, messageHistoryLimit)
	if err != nil {
		log.Printf("handler/chats: list messages: %v", err)
		h.Error(w, http.StatusInternalServerError, "Database error")
		return
	}

	out := make([]chatMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, chatMessage{
			MessageID:    m.MessageID,
			Content:      m.Content,
			Timestamp:    m.Timestamp,
			Sender:       m.Sender,
			IsOwnMessage: m.SenderID == userID,
		})
	}

	h.JSON(w, http.StatusOK, out)
}
