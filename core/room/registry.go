package room

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/chatroom/core/chat"
	"github.com/dmitrymomot/chatroom/core/history"
	"github.com/dmitrymomot/chatroom/core/hub"
	"github.com/dmitrymomot/chatroom/core/session"
)

// Registry is the authoritative room table. It owns each room's hub topic
// lifecycle and is the only writer of room membership.
//
// Lock order is registry -> room -> (session table | hub topic); nothing
// takes a room lock while holding a topic lock, so publishing from inside a
// room's critical section is safe and keeps membership events in the same
// order as the mutations that caused them.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*room

	hub      *hub.Hub[chat.ServerMessage]
	sessions *session.Table
	history  history.Store

	bcryptCost   int
	historyLimit int
	logger       *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets a structured logger. Defaults to a discard handler.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithBcryptCost overrides the bcrypt cost used for room passwords.
// Tests use bcrypt.MinCost to stay fast.
func WithBcryptCost(cost int) Option {
	return func(r *Registry) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			r.bcryptCost = cost
		}
	}
}

// WithHistoryLimit caps how many history messages Authorize returns.
func WithHistoryLimit(limit int) Option {
	return func(r *Registry) {
		if limit > 0 {
			r.historyLimit = limit
		}
	}
}

// NewRegistry creates an empty registry wired to its collaborators.
func NewRegistry(h *hub.Hub[chat.ServerMessage], sessions *session.Table, hist history.Store, opts ...Option) *Registry {
	r := &Registry{
		rooms:        make(map[string]*room),
		hub:          h,
		sessions:     sessions,
		history:      hist,
		bcryptCost:   bcrypt.DefaultCost,
		historyLimit: history.DefaultLimit,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create registers a new room owned by owner, allocates its fanout topic,
// and reserves the owner's session so its upcoming connection lands in the
// room. The owner is not a member until that connection attaches.
func (r *Registry) Create(ctx context.Context, roomID, owner, password string) (time.Time, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), r.bcryptCost)
	if err != nil {
		return time.Time{}, errors.Join(ErrHashPassword, err)
	}

	if err := r.sessions.Register(owner, roomID); err != nil {
		return time.Time{}, err
	}

	r.mu.Lock()
	if _, exists := r.rooms[roomID]; exists {
		r.mu.Unlock()
		r.sessions.Unregister(owner)
		return time.Time{}, ErrRoomExists
	}
	rm := newRoom(roomID, owner, hash)
	r.rooms[roomID] = rm
	_ = r.hub.Create(roomID)
	r.mu.Unlock()

	r.logger.InfoContext(ctx, "room created",
		slog.String("room_id", roomID), slog.String("owner", owner))
	return rm.createdAt, nil
}

// Authorize performs the HTTP-side half of a join: it atomically verifies
// the password against the bcrypt hash and reserves the identity's session
// for the room, returning the current member snapshot and recent history for
// client seeding. Membership itself is granted by Join once the persistent
// connection attaches.
func (r *Registry) Authorize(ctx context.Context, roomID, identity, password string) ([]string, []chat.ChatMessage, error) {
	rm, err := r.lookup(roomID)
	if err != nil {
		return nil, nil, err
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.closed {
		return nil, nil, ErrRoomNotFound
	}
	if bcrypt.CompareHashAndPassword(rm.passwordHash, []byte(password)) != nil {
		return nil, nil, ErrInvalidPassword
	}
	if err := r.sessions.Register(identity, roomID); err != nil {
		return nil, nil, err
	}

	members := rm.memberList()
	hist, err := r.history.Recent(ctx, roomID, r.historyLimit)
	if err != nil {
		r.logger.WarnContext(ctx, "failed to load history",
			slog.String("room_id", roomID), slog.Any("error", err))
		hist = nil
	}
	return members, hist, nil
}

// Join inserts the identity into the room's member set and announces
// UserJoined to the rest of the room. The caller must hold a session
// reservation from Authorize or Create; the announcement reaches current
// subscribers only, so the joiner does not see its own join.
func (r *Registry) Join(ctx context.Context, roomID, identity string) error {
	rm, err := r.lookup(roomID)
	if err != nil {
		return err
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.closed {
		return ErrRoomNotFound
	}
	if reserved, ok := r.sessions.Lookup(identity); !ok || reserved != roomID {
		return ErrNotInRoom
	}
	if _, dup := rm.members[identity]; dup {
		return nil
	}
	rm.members[identity] = struct{}{}
	_ = r.hub.Publish(roomID, chat.UserJoined{RoomID: roomID, UserID: identity})

	r.logger.InfoContext(ctx, "user joined",
		slog.String("room_id", roomID), slog.String("user_id", identity))
	return nil
}

// Leave removes the identity from the room and announces UserLeft to the
// remaining members. Safe to call from racing teardown paths: the second
// call reports ErrNotInRoom and changes nothing.
func (r *Registry) Leave(ctx context.Context, roomID, identity string) error {
	rm, err := r.lookup(roomID)
	if err != nil {
		return ErrNotInRoom
	}

	rm.mu.Lock()
	if rm.closed {
		rm.mu.Unlock()
		return ErrNotInRoom
	}
	if _, ok := rm.members[identity]; !ok {
		rm.mu.Unlock()
		return ErrNotInRoom
	}
	delete(rm.members, identity)
	_ = r.hub.Publish(roomID, chat.UserLeft{RoomID: roomID, UserID: identity})
	rm.mu.Unlock()

	r.sessions.Unregister(identity)
	r.logger.InfoContext(ctx, "user left",
		slog.String("room_id", roomID), slog.String("user_id", identity))
	return nil
}

// Kick evicts target from the room. Only the owner may kick. UserKicked is
// announced to the whole room, the target included, so the target's
// connection can terminate on its own; the session force-close right after
// guarantees it terminates even if it cannot.
func (r *Registry) Kick(ctx context.Context, roomID, requester, target string) error {
	rm, err := r.lookup(roomID)
	if err != nil {
		return err
	}

	rm.mu.Lock()
	if rm.closed {
		rm.mu.Unlock()
		return ErrRoomNotFound
	}
	if rm.owner != requester {
		rm.mu.Unlock()
		return ErrNotOwner
	}
	if _, ok := rm.members[target]; !ok {
		rm.mu.Unlock()
		return ErrTargetNotInRoom
	}
	delete(rm.members, target)
	_ = r.hub.Publish(roomID, chat.UserKicked{RoomID: roomID, UserID: target})
	rm.mu.Unlock()

	r.sessions.ForceClose(target)
	r.logger.InfoContext(ctx, "user kicked",
		slog.String("room_id", roomID), slog.String("user_id", target),
		slog.String("requester", requester))
	return nil
}

// Delete unregisters the room, tears down its fanout topic, and notifies
// every member captured in the removal snapshot with RoomDeleted before
// force-closing their sessions. The room disappears from the table before
// any notification goes out, so no new join can race in.
func (r *Registry) Delete(ctx context.Context, roomID, requester string) error {
	r.mu.Lock()
	rm, ok := r.rooms[roomID]
	if !ok {
		r.mu.Unlock()
		return ErrRoomNotFound
	}

	rm.mu.Lock()
	if rm.owner != requester {
		rm.mu.Unlock()
		r.mu.Unlock()
		return ErrNotOwner
	}
	members := rm.memberList()
	rm.closed = true
	clear(rm.members)
	delete(r.rooms, roomID)
	rm.mu.Unlock()
	r.mu.Unlock()

	r.hub.Teardown(roomID)
	if err := r.history.Drop(ctx, roomID); err != nil {
		r.logger.WarnContext(ctx, "failed to drop history",
			slog.String("room_id", roomID), slog.Any("error", err))
	}

	for _, m := range members {
		r.sessions.Deliver(m, chat.RoomDeleted{RoomID: roomID})
		r.sessions.ForceClose(m)
	}
	// Sweep the sessions ForceClose by identity cannot reach: the owner's
	// reservation and any authorized identity whose socket never attached.
	// Without this, those identities stay bound to a dead room and every
	// later Authorize fails with ErrAlreadyInRoom.
	r.sessions.DropRoom(roomID)

	r.logger.InfoContext(ctx, "room deleted",
		slog.String("room_id", roomID), slog.Int("members", len(members)))
	return nil
}

// Say validates that identity is currently a member of the room, records the
// message in history, and fans it out. The membership check and the publish
// share the room's critical section, so a kicked or departed member can
// never slip a message into the room.
func (r *Registry) Say(ctx context.Context, roomID, identity, content string) (chat.ChatMessage, error) {
	rm, err := r.lookup(roomID)
	if err != nil {
		return chat.ChatMessage{}, err
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.closed {
		return chat.ChatMessage{}, ErrRoomNotFound
	}
	if _, ok := rm.members[identity]; !ok {
		return chat.ChatMessage{}, ErrNotInRoom
	}

	msg := chat.NewChatMessage(roomID, identity, content)
	if err := r.history.Append(ctx, msg); err != nil {
		r.logger.WarnContext(ctx, "failed to append history",
			slog.String("room_id", roomID), slog.Any("error", err))
	}
	_ = r.hub.Publish(roomID, chat.MessageBroadcast{ChatMessage: msg})
	return msg, nil
}

// Members returns a read-only snapshot of the room's member set.
func (r *Registry) Members(roomID string) ([]string, error) {
	rm, err := r.lookup(roomID)
	if err != nil {
		return nil, err
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.closed {
		return nil, ErrRoomNotFound
	}
	return rm.memberList(), nil
}

// List snapshots all rooms, optionally filtered to those with at least one
// member currently connected.
func (r *Registry) List(onlyActive bool) []chat.RoomInfo {
	r.mu.RLock()
	rooms := make([]*room, 0, len(r.rooms))
	for _, rm := range r.rooms {
		rooms = append(rooms, rm)
	}
	r.mu.RUnlock()

	out := make([]chat.RoomInfo, 0, len(rooms))
	for _, rm := range rooms {
		rm.mu.Lock()
		info := chat.RoomInfo{RoomID: rm.id, Owner: rm.owner, UsersCount: len(rm.members)}
		closed := rm.closed
		rm.mu.Unlock()

		if closed || (onlyActive && info.UsersCount == 0) {
			continue
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoomID < out[j].RoomID })
	return out
}

func (r *Registry) lookup(roomID string) (*room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return rm, nil
}
