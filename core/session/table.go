package session

import (
	"io"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/chatroom/core/chat"
)

// Sink is the outbound handle of one connection. Deliver pushes an event
// directly to the connection, bypassing the room fanout; Close forces the
// connection to terminate. Both must be non-blocking and safe to call from
// any goroutine; Close must be idempotent.
type Sink interface {
	Deliver(ev chat.ServerMessage) bool
	Close()
}

type entry struct {
	roomID string
	sink   Sink
}

// Table maps identities to their current room and attached sink.
// Safe for concurrent use.
type Table struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	logger   *slog.Logger
}

// Option configures a Table.
type Option func(*Table)

// WithLogger sets a structured logger. Defaults to a discard handler.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Table) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewTable creates an empty session table.
func NewTable(opts ...Option) *Table {
	t := &Table{
		sessions: make(map[string]*entry),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Register reserves the identity for a room. Fails with ErrAlreadyInRoom if
// the identity already has a session, regardless of the room.
func (t *Table) Register(identity, roomID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.sessions[identity]; ok {
		return ErrAlreadyInRoom
	}
	t.sessions[identity] = &entry{roomID: roomID}
	return nil
}

// Attach binds the connection's sink to an existing session and returns the
// room the identity was reserved for.
func (t *Table) Attach(identity string, sink Sink) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.sessions[identity]
	if !ok {
		return "", ErrNoSession
	}
	e.sink = sink
	return e.roomID, nil
}

// Lookup reports the room the identity is currently bound to.
func (t *Table) Lookup(identity string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, ok := t.sessions[identity]
	if !ok {
		return "", false
	}
	return e.roomID, true
}

// Unregister removes the identity's session. Idempotent.
func (t *Table) Unregister(identity string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sessions, identity)
}

// Deliver pushes an event straight to the identity's connection. Returns
// false when the identity has no session or no attached sink.
func (t *Table) Deliver(identity string, ev chat.ServerMessage) bool {
	t.mu.RLock()
	e, ok := t.sessions[identity]
	var sink Sink
	if ok {
		sink = e.sink
	}
	t.mu.RUnlock()

	if sink == nil {
		return false
	}
	return sink.Deliver(ev)
}

// ForceClose terminates the identity's connection and removes its session.
// Used by the kick and room-deletion paths so the victim's teardown does not
// depend on the victim polling anything. Idempotent.
func (t *Table) ForceClose(identity string) {
	t.mu.Lock()
	e, ok := t.sessions[identity]
	delete(t.sessions, identity)
	t.mu.Unlock()

	if ok && e.sink != nil {
		e.sink.Close()
		t.logger.Debug("session force-closed", slog.String("user_id", identity))
	}
}

// DropRoom removes every session bound to roomID and closes any attached
// sinks. Covers reservations whose socket never attached, which ForceClose
// by identity cannot reach when the room itself goes away. Idempotent.
func (t *Table) DropRoom(roomID string) {
	t.mu.Lock()
	var sinks []Sink
	for identity, e := range t.sessions {
		if e.roomID != roomID {
			continue
		}
		delete(t.sessions, identity)
		if e.sink != nil {
			sinks = append(sinks, e.sink)
		}
	}
	t.mu.Unlock()

	for _, sink := range sinks {
		sink.Close()
	}
}

// Len reports the number of active sessions.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sessions)
}
