package session

import "errors"

var (
	// ErrAlreadyInRoom is returned when registering an identity that already
	// has an active session.
	ErrAlreadyInRoom = errors.New("identity already in a room")
	// ErrNoSession is returned when attaching a sink for an identity that has
	// no session.
	ErrNoSession = errors.New("no session for identity")
)
