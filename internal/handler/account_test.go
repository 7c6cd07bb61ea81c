package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/zerohour-app/zerohour-api/internal/auth"
)

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()

	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func registerBody(username, email string) map[string]string {
	return map[string]string{
		"first_name": "Alice",
		"last_name":  "Archer",
		"username":   username,
		"email":      email,
		"password":   "password1234",
	}
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	resp := postJSON(t, env.server.URL+"/api/auth/register", registerBody("alice", "alice@example.com"))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var got tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.TokenType != "bearer" {
		t.Errorf("token_type = %q, want bearer", got.TokenType)
	}
	if got.UserData.Username != "alice" {
		t.Errorf("user_data = %+v", got.UserData)
	}

	userID, err := auth.ValidateJWT(got.AccessToken, "testsecret")
	if err != nil {
		t.Fatalf("issued token does not validate: %+v", err)
	}
	if userID != got.UserData.UserID {
		t.Errorf("token subject = %v, want %v", userID, got.UserData.UserID)
	}

	user, err := env.db.GetUserByUsername(testContext(t), "alice")
	if err != nil {
		t.Fatalf("registered user not stored: %+v", err)
	}
	if user.PasswordHash == "password1234" || user.PasswordHash == "" {
		t.Error("password stored without hashing")
	}
}

func TestRegisterDuplicate(t *testing.T) {
	env := newTestEnv(t)

	if resp := postJSON(t, env.server.URL+"/api/auth/register", registerBody("alice", "alice@example.com")); resp.StatusCode != http.StatusOK {
		t.Fatalf("first register status = %d", resp.StatusCode)
	}

	resp := postJSON(t, env.server.URL+"/api/auth/register", registerBody("alice", "other@example.com"))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("duplicate username status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestRegisterInvalidEmail(t *testing.T) {
	env := newTestEnv(t)

	for _, email := range []string{"not-an-email", "missing-domain@", "@missing-local.com", "spaces in@example.com"} {
		resp := postJSON(t, env.server.URL+"/api/auth/register", registerBody("alice", email))
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("email %q: status = %d, want %d", email, resp.StatusCode, http.StatusBadRequest)
		}
	}

	if _, err := env.db.GetUserByUsername(testContext(t), "alice"); err == nil {
		t.Error("user created despite invalid email")
	}
}

func TestRegisterMissingFields(t *testing.T) {
	env := newTestEnv(t)

	resp := postJSON(t, env.server.URL+"/api/auth/register", map[string]string{"username": "alice"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	if resp := postJSON(t, env.server.URL+"/api/auth/register", registerBody("alice", "alice@example.com")); resp.StatusCode != http.StatusOK {
		t.Fatalf("register status = %d", resp.StatusCode)
	}

	t.Run("correct_credentials", func(t *testing.T) {
		resp := postJSON(t, env.server.URL+"/api/auth/login", map[string]string{
			"username": "alice",
			"password": "password1234",
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
		}

		var got tokenResponse
		if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if _, err := auth.ValidateJWT(got.AccessToken, "testsecret"); err != nil {
			t.Errorf("issued token does not validate: %+v", err)
		}
		if !got.UserData.IsOnline {
			t.Error("login did not mark the user online")
		}
		if !env.db.isOnline(got.UserData.UserID) {
			t.Error("online flag not persisted")
		}
	})

	t.Run("wrong_password", func(t *testing.T) {
		resp := postJSON(t, env.server.URL+"/api/auth/login", map[string]string{
			"username": "alice",
			"password": "wrongpassword",
		})
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
		}
	})

	t.Run("unknown_user", func(t *testing.T) {
		resp := postJSON(t, env.server.URL+"/api/auth/login", map[string]string{
			"username": "mallory",
			"password": "password1234",
		})
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
		}
	})
}
