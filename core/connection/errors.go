package connection

import "errors"

var (
	// ErrNotAuthorized is returned when a connection attaches for an
	// identity that has no session reservation (no prior join or create).
	ErrNotAuthorized = errors.New("identity has no room reservation")
	// ErrTransportFailure wraps read/write failures on the underlying
	// connection. Terminal for the connection.
	ErrTransportFailure = errors.New("transport failure")
)
