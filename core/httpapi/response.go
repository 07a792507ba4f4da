package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrymomot/chatroom/core/chat"
	"github.com/dmitrymomot/chatroom/core/room"
	"github.com/dmitrymomot/chatroom/core/session"
)

// writeJSON encodes v directly to the response writer.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError maps a registry or session sentinel onto the HTTP status and
// error_type envelope. Unknown errors become a 500 ServerError without
// leaking internals.
func writeError(w http.ResponseWriter, err error, roomID, userID string) {
	var (
		status    int
		errorType string
		message   string
	)
	switch {
	case errors.Is(err, room.ErrRoomNotFound):
		status, errorType = http.StatusNotFound, chat.ErrorTypeRoomNotFound
	case errors.Is(err, room.ErrRoomExists):
		status, errorType = http.StatusConflict, chat.ErrorTypeRoomAlreadyExists
	case errors.Is(err, room.ErrInvalidPassword):
		status, errorType = http.StatusUnauthorized, chat.ErrorTypeInvalidPassword
	case errors.Is(err, room.ErrNotOwner):
		status, errorType = http.StatusForbidden, chat.ErrorTypeInvalidPermission
	case errors.Is(err, room.ErrNotInRoom), errors.Is(err, room.ErrTargetNotInRoom):
		status, errorType = http.StatusConflict, chat.ErrorTypeNotInRoom
	case errors.Is(err, session.ErrAlreadyInRoom):
		status, errorType = http.StatusConflict, chat.ErrorTypeUserAlreadyInRoom
	default:
		status, errorType = http.StatusInternalServerError, chat.ErrorTypeServerError
		message = "internal server error"
	}
	if message == "" {
		message = err.Error()
	}
	writeJSON(w, status, chat.ErrorResponse{
		ErrorType: errorType,
		Message:   message,
		RoomID:    roomID,
		UserID:    userID,
	})
}

// decode reads a JSON request body into dst.
func decode(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, chat.ErrorResponse{
		ErrorType: chat.ErrorTypeServerError,
		Message:   message,
	})
}
