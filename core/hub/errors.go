package hub

import "errors"

var (
	// ErrTopicNotFound is returned when publishing or subscribing to a room
	// whose topic does not exist (never created, or already torn down).
	ErrTopicNotFound = errors.New("topic not found")
	// ErrTopicExists is returned when creating a topic that already exists.
	ErrTopicExists = errors.New("topic already exists")
)
