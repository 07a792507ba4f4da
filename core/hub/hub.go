package hub

import (
	"io"
	"log/slog"
	"sync"
)

// DefaultSubscriberBuffer is the default per-subscriber queue capacity.
const DefaultSubscriberBuffer = 64

// Hub fans events out to the subscribers of each room. Safe for concurrent
// use; topics never block one another.
type Hub[T any] struct {
	mu     sync.RWMutex
	topics map[string]*topic[T]

	buffer int
	notice func(missed int) T
	logger *slog.Logger
}

// Option configures a Hub.
type Option[T any] func(*Hub[T])

// WithSubscriberBuffer sets the per-subscriber queue capacity.
func WithSubscriberBuffer[T any](size int) Option[T] {
	return func(h *Hub[T]) {
		if size > 0 {
			h.buffer = size
		}
	}
}

// WithMissedNotice sets the factory that builds the event delivered to a
// subscriber after it dropped events due to a full queue. Without it, drops
// are still counted but the subscriber is not informed.
func WithMissedNotice[T any](fn func(missed int) T) Option[T] {
	return func(h *Hub[T]) {
		h.notice = fn
	}
}

// WithLogger sets a structured logger. Defaults to a discard handler.
func WithLogger[T any](logger *slog.Logger) Option[T] {
	return func(h *Hub[T]) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// New creates an empty hub.
func New[T any](opts ...Option[T]) *Hub[T] {
	h := &Hub[T]{
		topics: make(map[string]*topic[T]),
		buffer: DefaultSubscriberBuffer,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Create allocates the topic for a room. The registry calls this as part of
// room creation so the topic's lifecycle matches the room's.
func (h *Hub[T]) Create(roomID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.topics[roomID]; ok {
		return ErrTopicExists
	}
	h.topics[roomID] = newTopic[T](h)
	return nil
}

// Subscribe registers a new subscriber on the room's topic. Events published
// before Subscribe returns are not replayed.
func (h *Hub[T]) Subscribe(roomID string) (*Subscription[T], error) {
	h.mu.RLock()
	t, ok := h.topics[roomID]
	h.mu.RUnlock()
	if !ok {
		return nil, ErrTopicNotFound
	}
	return t.subscribe(h.buffer)
}

// Publish delivers the event to every subscriber currently registered on the
// room's topic. Delivery is serialized per topic, so all subscribers observe
// the same relative order.
func (h *Hub[T]) Publish(roomID string, ev T) error {
	h.mu.RLock()
	t, ok := h.topics[roomID]
	h.mu.RUnlock()
	if !ok {
		return ErrTopicNotFound
	}
	t.publish(ev)
	return nil
}

// Teardown removes the room's topic and closes every outstanding
// subscription. Subscribers drain whatever was already queued and then see
// their event channel closed. Idempotent.
func (h *Hub[T]) Teardown(roomID string) {
	h.mu.Lock()
	t, ok := h.topics[roomID]
	delete(h.topics, roomID)
	h.mu.Unlock()

	if ok {
		t.close()
		h.logger.Debug("topic torn down", slog.String("room_id", roomID))
	}
}

// Subscribers reports how many subscriptions the room's topic currently has.
func (h *Hub[T]) Subscribers(roomID string) int {
	h.mu.RLock()
	t, ok := h.topics[roomID]
	h.mu.RUnlock()
	if !ok {
		return 0
	}
	return t.len()
}
