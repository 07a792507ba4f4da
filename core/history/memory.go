package history

import (
	"context"
	"sync"

	"github.com/dmitrymomot/chatroom/core/chat"
)

// MemoryStore is the default in-process history backend.
type MemoryStore struct {
	mu    sync.RWMutex
	rooms map[string][]chat.ChatMessage
	limit int
}

// NewMemoryStore creates a memory-backed store retaining up to limit
// messages per room.
func NewMemoryStore(limit int) *MemoryStore {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &MemoryStore{
		rooms: make(map[string][]chat.ChatMessage),
		limit: limit,
	}
}

func (s *MemoryStore) Append(_ context.Context, msg chat.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := append(s.rooms[msg.RoomID], msg)
	if len(msgs) > s.limit {
		msgs = msgs[len(msgs)-s.limit:]
	}
	s.rooms[msg.RoomID] = msgs
	return nil
}

func (s *MemoryStore) Recent(_ context.Context, roomID string, limit int) ([]chat.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.rooms[roomID]
	if limit <= 0 || limit > len(msgs) {
		limit = len(msgs)
	}

	out := make([]chat.ChatMessage, limit)
	copy(out, msgs[len(msgs)-limit:])
	return out, nil
}

func (s *MemoryStore) Drop(_ context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, roomID)
	return nil
}
