// Command smoketest exercises a running server end to end: two users
// register, open a chat, one listens on the stream while the other sends.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const baseURL = "http://localhost:8080"

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	UserData    struct {
		UserID uuid.UUID `json:"user_id"`
	} `json:"user_data"`
}

func main() {
	suffix := time.Now().UnixNano()

	alice := register(fmt.Sprintf("alice%d", suffix))
	bob := register(fmt.Sprintf("bob%d", suffix))

	chatID := createChat(alice, bob.UserData.UserID)
	log.Printf("chat created: %s", chatID)

	frames := make(chan string, 8)
	go listen(bob.UserData.UserID, frames)

	// Wait for the connection ack before sending.
	log.Printf("frame: %s", <-frames)

	send(alice.UserData.UserID, chatID, "hello from smoketest")
	log.Printf("frame: %s", <-frames)
}

func register(username string) tokenResponse {
	body, _ := json.Marshal(map[string]string{
		"first_name": "Smoke",
		"last_name":  "Test",
		"email":      username + "@example.com",
		"username":   username,
		"password":   "smoketest-password",
	})

	res, err := http.Post(baseURL+"/api/auth/register", "application/json", bytes.NewReader(body))
	if err != nil {
		log.Fatalf("register failed: %v", err)
	}
	defer res.Body.Close()

	var tok tokenResponse
	if err := json.NewDecoder(res.Body).Decode(&tok); err != nil {
		log.Fatalf("register: bad response: %v", err)
	}
	return tok
}

func createChat(owner tokenResponse, other uuid.UUID) uuid.UUID {
	body, _ := json.Marshal(map[string]any{"other_user_id": other})

	req, _ := http.NewRequest(http.MethodPost, baseURL+"/api/chats/create", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+owner.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("create chat failed: %v", err)
	}
	defer res.Body.Close()

	var chat struct {
		ChatID uuid.UUID `json:"chat_id"`
	}
	if err := json.NewDecoder(res.Body).Decode(&chat); err != nil {
		log.Fatalf("create chat: bad response: %v", err)
	}
	return chat.ChatID
}

func listen(user uuid.UUID, frames chan<- string) {
	res, err := http.Get(fmt.Sprintf("%s/sse/%s", baseURL, user))
	if err != nil {
		log.Fatalf("stream failed: %v", err)
	}
	defer res.Body.Close()

	scanner := bufio.NewScanner(res.Body)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			frames <- line
		}
	}
}

func send(user, chatID uuid.UUID, content string) {
	body, _ := json.Marshal(map[string]any{"chat_id": chatID, "content": content})

	res, err := http.Post(fmt.Sprintf("%s/send/%s", baseURL, user), "application/json", bytes.NewReader(body))
	if err != nil {
		log.Fatalf("send failed: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		log.Fatalf("send returned %d", res.StatusCode)
	}
}
