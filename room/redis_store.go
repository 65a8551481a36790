package room

import (
	"context"
	"encoding/json"
	"errors"

	"hangman/common/database"
	"hangman/common/log"
	"hangman/game"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "hangman:room:"

// RedisStore is the alternative snapshot store: one JSON value per room.
type RedisStore struct {
	redis *database.RedisManager
}

func NewRedisStore(redis *database.RedisManager) *RedisStore {
	return &RedisStore{redis: redis}
}

func (s *RedisStore) Load(ctx context.Context, roomID string) (*game.Session, error) {
	raw, err := s.redis.Get(ctx, redisKeyPrefix+roomID)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		log.Error("room %s load failed: %v", roomID, err)
		return nil, ErrNotFound
	}

	var session game.Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		log.Error("room %s snapshot corrupt: %v", roomID, err)
		return nil, ErrNotFound
	}
	return &session, nil
}

func (s *RedisStore) Save(ctx context.Context, roomID string, session *game.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, redisKeyPrefix+roomID, string(raw), 0); err != nil {
		log.Error("room %s save failed: %v", roomID, err)
		return err
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, roomID string) error {
	if err := s.redis.Del(ctx, redisKeyPrefix+roomID); err != nil {
		log.Error("room %s delete failed: %v", roomID, err)
		return err
	}
	return nil
}

func (s *RedisStore) Exists(ctx context.Context, roomID string) (bool, error) {
	n, err := s.redis.Exists(ctx, redisKeyPrefix+roomID)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
