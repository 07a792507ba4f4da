package history

import (
	"context"
	"errors"

	"github.com/dmitrymomot/chatroom/core/chat"
)

// DefaultLimit is the per-room message cap applied when none is configured.
const DefaultLimit = 50

// ErrAppendFailed wraps backend failures while appending a message.
var ErrAppendFailed = errors.New("failed to append message to history")

// Store is the history backend contract. Implementations must be safe for
// concurrent use and keep at most their configured limit of messages per
// room, evicting the oldest first.
type Store interface {
	// Append records a message in its room's history.
	Append(ctx context.Context, msg chat.ChatMessage) error
	// Recent returns up to limit messages, oldest first.
	Recent(ctx context.Context, roomID string, limit int) ([]chat.ChatMessage, error)
	// Drop discards the room's history entirely.
	Drop(ctx context.Context, roomID string) error
}

// Config holds history configuration with environment variable support.
type Config struct {
	// Backend selects the store implementation: "memory" or "redis".
	Backend string `env:"HISTORY_BACKEND" envDefault:"memory"`
	// Limit caps how many messages are retained per room.
	Limit int `env:"HISTORY_LIMIT" envDefault:"50"`
	// RedisURL is required when Backend is "redis".
	RedisURL string `env:"REDIS_URL" envDefault:""`
}
