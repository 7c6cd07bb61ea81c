package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/zerohour-app/zerohour-api/internal/chat"
)

type sendRequest struct {
	ChatID  uuid.UUID `json:"chat_id"`
	Content string    `json:"content"`
}

type sendResponse struct {
	Status    string    `json:"status"`
	MessageID uuid.UUID `json:"message_id"`
	Timestamp time.Time `json:"timestamp"`
}

// SendMessage accepts a new message for a chat and routes it through
// message ingress.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		h.Error(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	var req sendRequest
	if err := decodeJSON(r, &req); err != nil || req.ChatID == uuid.Nil {
		h.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	msg, err := h.ingress.Submit(r.Context(), userID, req.ChatID, req.Content)
	switch {
	case errors.Is(err, chat.ErrChatNotFound):
		h.Error(w, http.StatusNotFound, "Chat not found")
		return
	case errors.Is(err, chat.ErrForbidden):
		h.Error(w, http.StatusForbidden, "User not in chat")
		return
	case err != nil:
		log.Printf("handler/send: %v", err)
		h.Error(w, http.StatusInternalServerError, "Server error")
		return
	}

	h.JSON(w, http.StatusOK, sendResponse{
		Status:    "success",
		MessageID: msg.MessageID,
		Timestamp: msg.Timestamp,
	})
}
