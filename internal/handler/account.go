package handler

import (
	"errors"
	"log"
	"log/slog"
	"net/http"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/zerohour-app/zerohour-api/internal/auth"
	"github.com/zerohour-app/zerohour-api/internal/model"
	"github.com/zerohour-app/zerohour-api/internal/store"
)

type registerRequest struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	MobileNo       string `json:"mobile_no"`
	Email          string `json:"email"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	SecurityPhrase string `json:"security_phrase"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	UserData    model.Profile `json:"user_data"`
}

// Register handles user account creation.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		h.Error(w, http.StatusBadRequest, "Username, email and password are required")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		h.Error(w, http.StatusBadRequest, "Invalid email address")
		return
	}

	taken, err := h.db.UsernameOrEmailTaken(ctx, req.Username, req.Email)
	if err != nil {
		log.Printf("handler/register: %v", err)
		h.Error(w, http.StatusInternalServerError, "Database error")
		return
	}
	if taken {
		h.Error(w, http.StatusBadRequest, "Username or email already registered")
		return
	}

	hashedPw, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Printf("handler/register: argon2id hash creation failed: %v", err)
		h.Error(w, http.StatusInternalServerError, "Server error")
		return
	}

	user := &model.User{
		UserID:         uuid.New(),
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		MobileNo:       req.MobileNo,
		Email:          req.Email,
		Username:       req.Username,
		SecurityPhrase: req.SecurityPhrase,
		PasswordHash:   hashedPw,
		CreatedAt:      time.Now().UTC(),
	}

	if err := h.db.CreateUser(ctx, user); err != nil {
		log.Printf("handler/register: failed to create user entry in database: %v", err)
		h.Error(w, http.StatusInternalServerError, "Database error")
		return
	}

	token, err := auth.MakeJWT(user.UserID, h.jwtSecret, auth.TokenTTL)
	if err != nil {
		log.Printf("handler/register: failed to create JWT: %v", err)
		h.Error(w, http.StatusInternalServerError, "Server error")
		return
	}

	slog.InfoContext(ctx, "user signed up",
		slog.String("username", user.Username))

	h.JSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		UserData:    user.Redacted(),
	})
}

// Login verifies credentials, marks the user online and issues a token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.db.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("handler/login: %v", err)
		}
		h.Error(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}

	ok, err := auth.CheckPasswordHash(req.Password, user.PasswordHash)
	if err != nil {
		log.Printf("handler/login: cannot verify password: %v", err)
		h.Error(w, http.StatusInternalServerError, "Server error")
		return
	}
	if !ok {
		h.Error(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}

	if err := h.db.SetUserOnline(ctx, user.UserID, true); err != nil {
		log.Printf("handler/login: %v", err)
	}
	user.IsOnline = true

	token, err := auth.MakeJWT(user.UserID, h.jwtSecret, auth.TokenTTL)
	if err != nil {
		log.Printf("handler/login: failed to create JWT: %v", err)
		h.Error(w, http.StatusInternalServerError, "Server error")
		return
	}

	slog.InfoContext(ctx, "user logged in",
		slog.String("username", user.Username))

	h.JSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		UserData:    user.Redacted(),
	})
}

// Logout marks the current user offline.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := auth.GetUserFromContext(ctx)
	if err != nil {
		h.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	if err := h.db.SetUserOnline(ctx, userID, false); err != nil {
		log.Printf("handler/logout: %v", err)
	}

	h.JSON(w, http.StatusOK, map[string]string{"message": "Successfully logged out"})
}
