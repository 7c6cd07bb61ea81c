package delivery

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/zerohour-app/zerohour-api/internal/model"
)

// channelBuffer bounds each user's event queue. Overflow is treated as a
// transient delivery failure: logged, dropped for that recipient only.
const channelBuffer = 64

// ChatDirectory resolves a chat to its participant set. Satisfied by the
// store.
type ChatDirectory interface {
	FindChat(ctx context.Context, chatID uuid.UUID) (*model.Chat, error)
}

// Channel is the single-consumer event queue owned by one user's live
// connection. It stops accepting events once superseded or deregistered.
type Channel struct {
	user   uuid.UUID
	gen    uint64
	events chan Event
	done   chan struct{}
	once   sync.Once
}

// User returns the identity this channel was registered for.
func (c *Channel) User() uuid.UUID { return c.user }

// Recv returns the event stream. Exactly one goroutine may receive.
func (c *Channel) Recv() <-chan Event { return c.events }

// Done is closed when the channel is superseded by a newer connection for
// the same user, or deregistered. The consumer loop must exit on it.
func (c *Channel) Done() <-chan struct{} { return c.done }

func (c *Channel) close() {
	c.once.Do(func() { close(c.done) })
}

// trySend enqueues without blocking. Reports false if the channel is closed
// or its buffer is full.
func (c *Channel) trySend(ev Event) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.events <- ev:
		return true
	default:
		return false
	}
}

// Registry maps each user to their open delivery Channel. It is the single
// source of truth for "is this user currently reachable". Constructed once
// at process start and injected into every handler.
type Registry struct {
	directory ChatDirectory

	mu       sync.Mutex
	channels map[uuid.UUID]*Channel
	gen      uint64
}

// NewRegistry returns an empty registry that resolves fan-out targets
// through directory.
func NewRegistry(directory ChatDirectory) *Registry {
	return &Registry{
		directory: directory,
		channels:  make(map[uuid.UUID]*Channel),
	}
}

// Register installs a fresh Channel for user and returns it. If the user
// already had one, the old channel is superseded: its Done signal closes so
// the previous handler's loop exits, and the new connection wins.
func (r *Registry) Register(user uuid.UUID) *Channel {
	r.mu.Lock()
	prev := r.channels[user]
	r.gen++
	ch := &Channel{
		user:   user,
		gen:    r.gen,
		events: make(chan Event, channelBuffer),
		done:   make(chan struct{}),
	}
	r.channels[user] = ch
	r.mu.Unlock()

	if prev != nil {
		prev.close()
		log.Printf("delivery: superseded connection for user %s", user)
	}
	return ch
}

// Deregister removes the user's mapping, but only if ch is still the
// current channel. A late disconnect of a superseded connection must not
// evict the live one. Safe to call when no mapping exists.
func (r *Registry) Deregister(user uuid.UUID, ch *Channel) {
	if ch == nil {
		return
	}

	r.mu.Lock()
	if cur, ok := r.channels[user]; ok && cur == ch {
		delete(r.channels, user)
	}
	r.mu.Unlock()

	ch.close()
}

// IsRegistered reports whether user currently has an open delivery channel.
func (r *Registry) IsRegistered(user uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.channels[user]
	return ok
}

// Publish fans ev out to every registered participant of the chat.
// Participants without a channel are skipped; that is the normal
// "recipient offline" path, not an error. Enqueue failures are logged and
// swallowed so one slow recipient never fails delivery to the others.
func (r *Registry) Publish(ctx context.Context, ev Event, chatID uuid.UUID) {
	chat, err := r.directory.FindChat(ctx, chatID)
	if err != nil {
		log.Printf("delivery: failed to resolve chat %s: %v", chatID, err)
		return
	}

	for _, participant := range chat.Participants {
		r.mu.Lock()
		ch := r.channels[participant]
		r.mu.Unlock()

		if ch == nil {
			continue
		}
		if !ch.trySend(ev) {
			log.Printf("delivery: dropping event for user %s - channel full or closed", participant)
		}
	}
}
