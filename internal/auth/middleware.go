package auth

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
)

// Middleware validates the bearer token and places the user id in the
// request context.
func Middleware(tokenSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				unauthorized(w)
				return
			}

			userID, err := ValidateJWT(token, tokenSecret)
			if err != nil {
				log.Printf("middleware: %v", err)
				unauthorized(w)
				return
			}

			r = r.WithContext(context.WithValue(r.Context(), UserIDKey, userID))
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"detail": "Not authenticated"}) //nolint:errcheck
}
