package chat

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage is a single chat message as it travels from the sender through
// the room's fanout to every subscriber. Immutable once constructed; the
// message id is unique per message and the timestamp is RFC3339 UTC.
type ChatMessage struct {
	RoomID    string `json:"room_id"`
	UserID    string `json:"user_id"`
	MessageID string `json:"message_id"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// NewChatMessage constructs a message with a fresh uuid and the current time.
func NewChatMessage(roomID, userID, content string) ChatMessage {
	return ChatMessage{
		RoomID:    roomID,
		UserID:    userID,
		MessageID: uuid.NewString(),
		Content:   content,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// RoomInfo is a listing entry for a single room.
type RoomInfo struct {
	RoomID     string `json:"room_id"`
	Owner      string `json:"owner"`
	UsersCount int    `json:"users_count"`
}
