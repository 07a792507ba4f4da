package room

import "errors"

var (
	// ErrRoomNotFound is returned when the room does not exist (or was
	// deleted concurrently with the operation).
	ErrRoomNotFound = errors.New("room not found")
	// ErrRoomExists is returned when creating a room whose id is taken.
	ErrRoomExists = errors.New("room already exists")
	// ErrInvalidPassword is returned when the join password does not match.
	ErrInvalidPassword = errors.New("invalid room password")
	// ErrNotOwner is returned when a non-owner attempts an owner-only
	// operation (delete, kick).
	ErrNotOwner = errors.New("operation restricted to room owner")
	// ErrNotInRoom is returned when the identity is not a member of the room.
	ErrNotInRoom = errors.New("not in room")
	// ErrTargetNotInRoom is returned when the kick target is not a member.
	ErrTargetNotInRoom = errors.New("kick target not in room")
	// ErrHashPassword wraps bcrypt failures while hashing a room password.
	ErrHashPassword = errors.New("failed to hash room password")
)
