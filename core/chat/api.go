package chat

// Request/response payloads for the HTTP room-management API. The identity
// field arrives already authenticated; token verification happens before any
// of these reach the core.

type CreateRoomRequest struct {
	RoomID       string `json:"room_id"`
	RoomPassword string `json:"room_password"`
	UserID       string `json:"user_id"`
}

type CreateRoomResponse struct {
	RoomID    string `json:"room_id"`
	CreatedAt string `json:"created_at"`
}

type JoinRoomRequest struct {
	RoomID       string `json:"room_id"`
	RoomPassword string `json:"room_password"`
	UserID       string `json:"user_id"`
}

type JoinRoomResponse struct {
	RoomID      string        `json:"room_id"`
	ChatHistory []ChatMessage `json:"chat_history"`
	ActiveUsers []string      `json:"active_users"`
}

type DeleteRoomRequest struct {
	UserID string `json:"user_id"`
}

type ListRoomsResponse struct {
	Rooms []RoomInfo `json:"rooms"`
}

type ListRoomUsersResponse struct {
	RoomID      string   `json:"room_id"`
	ActiveUsers []string `json:"active_users"`
}

// SuccessResponse acknowledges operations without a dedicated payload,
// such as room deletion.
type SuccessResponse struct {
	Message string `json:"message"`
}

// Error codes carried in the error_type field of ErrorResponse.
const (
	ErrorTypeRoomNotFound      = "RoomNotFound"
	ErrorTypeRoomAlreadyExists = "RoomAlreadyExists"
	ErrorTypeInvalidPassword   = "InvalidPassword"
	ErrorTypeInvalidPermission = "InvalidPermissions"
	ErrorTypeNotInRoom         = "NotInRoom"
	ErrorTypeUserAlreadyInRoom = "UserAlreadyInRoom"
	ErrorTypeUserNotFound      = "UserNotFound"
	ErrorTypeServerError       = "ServerError"
)

// ErrorResponse is the HTTP error envelope, tagged by error_type.
type ErrorResponse struct {
	ErrorType string `json:"error_type"`
	Message   string `json:"message,omitempty"`
	RoomID    string `json:"room_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
}
