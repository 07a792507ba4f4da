package history

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/chatroom/core/chat"
)

const redisKeyPrefix = "chat:history:"

// RedisStore keeps each room's history in a Redis list, newest first,
// trimmed to the configured limit on every append.
type RedisStore struct {
	client redis.UniversalClient
	limit  int
}

// NewRedisStore creates a Redis-backed store retaining up to limit messages
// per room.
func NewRedisStore(client redis.UniversalClient, limit int) *RedisStore {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &RedisStore{
		client: client,
		limit:  limit,
	}
}

func (s *RedisStore) Append(ctx context.Context, msg chat.ChatMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return errors.Join(ErrAppendFailed, err)
	}

	key := redisKeyPrefix + msg.RoomID
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, int64(s.limit)-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Join(ErrAppendFailed, err)
	}
	return nil
}

func (s *RedisStore) Recent(ctx context.Context, roomID string, limit int) ([]chat.ChatMessage, error) {
	if limit <= 0 || limit > s.limit {
		limit = s.limit
	}

	raw, err := s.client.LRange(ctx, redisKeyPrefix+roomID, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, err
	}

	// LRange returns newest first; callers expect oldest first.
	out := make([]chat.ChatMessage, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var msg chat.ChatMessage
		if err := json.Unmarshal([]byte(raw[i]), &msg); err != nil {
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

func (s *RedisStore) Drop(ctx context.Context, roomID string) error {
	return s.client.Del(ctx, redisKeyPrefix+roomID).Err()
}
