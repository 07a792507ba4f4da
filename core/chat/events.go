package chat

// Wire type tags. These match the serde-style internally tagged encoding the
// clients speak: {"type":"SendMessage","room_id":"...","content":"..."}.
const (
	TypeSendMessage = "SendMessage"
	TypeLeaveRoom   = "LeaveRoom"
	TypeKickUser    = "KickUser"
	TypePing        = "Ping"

	TypeMessageBroadcast = "MessageBroadcast"
	TypeUserJoined       = "UserJoined"
	TypeUserLeft         = "UserLeft"
	TypeUserKicked       = "UserKicked"
	TypeRoomDeleted      = "RoomDeleted"
	TypePong             = "Pong"
	TypeError            = "Error"
)

// ClientMessage is the closed union of messages a client may send over the
// persistent connection.
type ClientMessage interface {
	clientMessage()
}

// SendMessage posts content to the room the sender is currently in.
type SendMessage struct {
	RoomID  string `json:"room_id"`
	Content string `json:"content"`
}

// LeaveRoom requests a voluntary exit from the room.
type LeaveRoom struct {
	RoomID string `json:"room_id"`
}

// KickUser asks to evict another user; only honored for the room owner.
type KickUser struct {
	RoomID string `json:"room_id"`
	UserID string `json:"user_id"`
}

// Ping is a connection health probe answered directly with a Pong,
// bypassing the room fanout.
type Ping struct {
	Timestamp string `json:"timestamp"`
}

func (SendMessage) clientMessage() {}
func (LeaveRoom) clientMessage()   {}
func (KickUser) clientMessage()    {}
func (Ping) clientMessage()        {}

// ServerMessage is the closed union of events the server pushes to clients.
type ServerMessage interface {
	serverMessage()
}

// MessageBroadcast carries one chat message to every room subscriber.
type MessageBroadcast struct {
	ChatMessage
}

// UserJoined announces a new member to the rest of the room.
type UserJoined struct {
	RoomID string `json:"room_id"`
	UserID string `json:"user_id"`
}

// UserLeft announces a voluntary or disconnect-driven exit.
type UserLeft struct {
	RoomID string `json:"room_id"`
	UserID string `json:"user_id"`
}

// UserKicked announces an owner-initiated eviction. It is delivered to the
// whole room, including the target, so the target's connection can terminate.
type UserKicked struct {
	RoomID string `json:"room_id"`
	UserID string `json:"user_id"`
}

// RoomDeleted tells a member its room no longer exists.
type RoomDeleted struct {
	RoomID string `json:"room_id"`
}

// Pong answers a Ping with the original timestamp echoed back.
type Pong struct {
	Timestamp string `json:"timestamp"`
}

// ErrorEvent reports a recoverable protocol-level problem to the client
// without tearing down the connection.
type ErrorEvent struct {
	ErrorMsg string `json:"error_msg"`
}

func (MessageBroadcast) serverMessage() {}
func (UserJoined) serverMessage()       {}
func (UserLeft) serverMessage()         {}
func (UserKicked) serverMessage()       {}
func (RoomDeleted) serverMessage()      {}
func (Pong) serverMessage()             {}
func (ErrorEvent) serverMessage()       {}
