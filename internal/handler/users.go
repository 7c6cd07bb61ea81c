package handler

import (
	"log"
	"net/http"

	"github.com/zerohour-app/zerohour-api/internal/auth"
	"github.com/zerohour-app/zerohour-api/internal/model"
)

const searchLimit = 20

// SearchUsers finds users matching the query on username or name,
// excluding the caller.
func (h *Handler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := auth.GetUserFromContext(ctx)
	if err != nil {
		h.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	query := r.URL.Query().Get("query")
	users, err := h.db.SearchUsers(ctx, query, userID, searchLimit)
	if err != nil {
		log.Printf("handler/users: search failed: %v", err)
		h.Error(w, http.StatusInternalServerError, "Database error")
		return
	}

	results := make([]model.Profile, 0, len(users))
	for _, u := range users {
		profile := u.Redacted()
		profile.Email = ""
		results = append(results, profile)
	}

	h.JSON(w, http.StatusOK, results)
}
