// Package presence tracks the persisted online/offline flag tied to
// connection lifetime.
package presence

import (
	"context"
	"log"

	"github.com/google/uuid"
)

// Store is the slice of the data store presence needs.
type Store interface {
	SetUserOnline(ctx context.Context, id uuid.UUID, online bool) error
}

// Tracker marks users online at stream connect and offline at stream
// terminate. Both writes are idempotent; failures are logged and swallowed
// because presence must never take down a live stream.
type Tracker struct {
	db Store
}

// NewTracker returns a Tracker writing to db.
func NewTracker(db Store) *Tracker {
	return &Tracker{db: db}
}

// SetOnline marks user online.
func (t *Tracker) SetOnline(ctx context.Context, user uuid.UUID) {
	if err := t.db.SetUserOnline(ctx, user, true); err != nil {
		log.Printf("presence: failed to mark %s online: %v", user, err)
	}
}

// SetOffline marks user offline.
func (t *Tracker) SetOffline(ctx context.Context, user uuid.UUID) {
	if err := t.db.SetUserOnline(ctx, user, false); err != nil {
		log.Printf("presence: failed to mark %s offline: %v", user, err)
	}
}
