package chat

import "errors"

var (
	// ErrMalformedMessage is returned when a frame cannot be parsed as JSON
	// or its payload does not match the declared message type.
	ErrMalformedMessage = errors.New("malformed message")
	// ErrUnknownMessageType is returned when a frame carries a type tag that
	// is not part of the protocol.
	ErrUnknownMessageType = errors.New("unknown message type")
)
