package room

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"hangman/game"
)

// RoomIDLength is the fixed length of a shareable room code.
const RoomIDLength = 10

const maxCodeAttempts = 64

// Registry owns session lifecycle against the store: creation with a
// guaranteed-unique code, lookup, save, and terminal deletion.
type Registry struct {
	store Store
}

func NewRegistry(store Store) *Registry {
	return &Registry{store: store}
}

// GenerateRoomID returns a 10-character uppercase hex code from a
// high-entropy source.
func GenerateRoomID() string {
	buf := make([]byte, 5)
	rand.Read(buf)
	return strings.ToUpper(hex.EncodeToString(buf))
}

// ValidRoomID rejects malformed codes before any store access.
func ValidRoomID(id string) bool {
	if len(id) != RoomIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if (c < '0' || c > '9') && (c < 'A' || c > 'F') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// Create builds a fresh session for the owner and persists it under a new
// room code. Collisions are resolved by regenerating; the existence check
// against the store is mandatory, not advisory.
func (r *Registry) Create(ctx context.Context, cfg game.Config) (string, *game.Session, error) {
	var roomID string
	for attempt := 0; ; attempt++ {
		if attempt >= maxCodeAttempts {
			return "", nil, fmt.Errorf("could not allocate a unique room code")
		}
		roomID = GenerateRoomID()
		exists, err := r.store.Exists(ctx, roomID)
		if err != nil {
			return "", nil, fmt.Errorf("room code check: %w", err)
		}
		if !exists {
			break
		}
	}

	session := game.NewSession(cfg)
	if err := r.store.Save(ctx, roomID, session); err != nil {
		return "", nil, fmt.Errorf("persisting new room: %w", err)
	}
	return roomID, session, nil
}

func (r *Registry) Load(ctx context.Context, roomID string) (*game.Session, error) {
	return r.store.Load(ctx, roomID)
}

func (r *Registry) Save(ctx context.Context, roomID string, session *game.Session) error {
	return r.store.Save(ctx, roomID, session)
}

// Delete removes the snapshot; it must be the last operation for a room.
func (r *Registry) Delete(ctx context.Context, roomID string) error {
	return r.store.Delete(ctx, roomID)
}
