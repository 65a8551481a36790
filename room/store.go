package room

import (
	"context"
	"errors"

	"hangman/game"
)

// ErrNotFound is returned when a room has no persisted snapshot.
var ErrNotFound = errors.New("room not found")

// Store is the durable snapshot store keyed by room ID. The persisted
// record is {roomID, gameState}; last write wins per room.
type Store interface {
	Load(ctx context.Context, roomID string) (*game.Session, error)
	Save(ctx context.Context, roomID string, session *game.Session) error
	Delete(ctx context.Context, roomID string) error
	Exists(ctx context.Context, roomID string) (bool, error)
}
