package connection

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/chatroom/core/chat"
	"github.com/dmitrymomot/chatroom/core/hub"
	"github.com/dmitrymomot/chatroom/core/room"
	"github.com/dmitrymomot/chatroom/core/session"
	"github.com/dmitrymomot/chatroom/pkg/async"
)

// Transport is the already-framed duplex channel to one client. ReadMessage
// blocks until a frame arrives or the transport fails; Close unblocks any
// pending read and must be idempotent.
type Transport interface {
	ReadMessage(ctx context.Context) ([]byte, error)
	WriteMessage(ctx context.Context, data []byte) error
	Close() error
}

const (
	// directBuffer sizes the queue for events pushed straight to this
	// connection (pong replies, room-deletion notices).
	directBuffer = 32
	// flushTimeout bounds how long teardown waits for the outbound duty to
	// flush pending events before the transport is closed underneath it.
	flushTimeout = 5 * time.Second
)

// Actor is the per-connection unit of concurrency. It implements
// session.Sink so the kick and room-deletion paths can reach the connection
// without its cooperation.
type Actor struct {
	identity  string
	roomID    string
	transport Transport

	registry *room.Registry
	sessions *session.Table
	events   *hub.Hub[chat.ServerMessage]

	sub       *hub.Subscription[chat.ServerMessage]
	direct    chan chat.ServerMessage
	closing   chan struct{}
	closeOnce sync.Once

	logger *slog.Logger
}

// Option configures an Actor.
type Option func(*Actor)

// WithLogger sets a structured logger. Defaults to a discard handler.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Actor) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New creates an actor for one identity's connection.
func New(identity string, transport Transport, registry *room.Registry, sessions *session.Table, events *hub.Hub[chat.ServerMessage], opts ...Option) *Actor {
	a := &Actor{
		identity:  identity,
		transport: transport,
		registry:  registry,
		sessions:  sessions,
		events:    events,
		direct:    make(chan chat.ServerMessage, directBuffer),
		closing:   make(chan struct{}),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Deliver implements session.Sink. Non-blocking; reports whether the event
// was queued.
func (a *Actor) Deliver(ev chat.ServerMessage) bool {
	select {
	case a.direct <- ev:
		return true
	default:
		return false
	}
}

// Close implements session.Sink. Signals both duties to stop; the outbound
// duty flushes queued events before the transport goes away. Idempotent and
// safe from any goroutine.
func (a *Actor) Close() {
	a.closeOnce.Do(func() {
		close(a.closing)
	})
}

// Run drives the connection until it terminates, then unwinds membership,
// subscription, and session exactly once. The returned error is nil for a
// clean exit (leave, kick, room deletion) and non-nil for refused admission
// or transport failure.
func (a *Actor) Run(ctx context.Context) error {
	roomID, err := a.sessions.Attach(a.identity, a)
	if err != nil {
		a.writeEvent(ctx, chat.ErrorEvent{ErrorMsg: "you must join a room before connecting"})
		_ = a.transport.Close()
		return errors.Join(ErrNotAuthorized, err)
	}
	a.roomID = roomID

	log := a.logger.With(slog.String("room_id", roomID), slog.String("user_id", a.identity))

	if err := a.registry.Join(ctx, roomID, a.identity); err != nil {
		a.writeEvent(ctx, chat.ErrorEvent{ErrorMsg: "room no longer exists"})
		a.sessions.Unregister(a.identity)
		_ = a.transport.Close()
		return err
	}

	sub, err := a.events.Subscribe(roomID)
	if err != nil {
		// Room deleted between join and subscribe. The deletion snapshot
		// already evicted us; surface anything delivered directly (the
		// RoomDeleted notice) and go away.
		a.flush(ctx, nil)
		a.sessions.Unregister(a.identity)
		_ = a.transport.Close()
		return err
	}
	a.sub = sub

	log.InfoContext(ctx, "connection joined")

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	inbound := async.Exec(runCtx, struct{}{}, a.readLoop)
	outbound := async.Exec(runCtx, struct{}{}, a.writeLoop)

	// Whichever duty stops first drives the teardown; everything below is
	// safe to race with a concurrent kick or room deletion.
	_, _ = async.ExecAny(inbound, outbound)
	a.Close()
	if err := outbound.AwaitWithTimeout(flushTimeout); err != nil && errors.Is(err, async.ErrTimeout) {
		log.WarnContext(ctx, "outbound duty did not flush in time")
	}
	a.sub.Close()
	_ = a.transport.Close()
	cancel()
	runErr := async.ExecAll(inbound, outbound)

	cleanupCtx := context.WithoutCancel(ctx)
	if err := a.registry.Leave(cleanupCtx, roomID, a.identity); err != nil &&
		!errors.Is(err, room.ErrNotInRoom) && !errors.Is(err, room.ErrRoomNotFound) {
		log.ErrorContext(ctx, "failed to leave room", slog.Any("error", err))
	}
	a.sessions.Unregister(a.identity)

	log.InfoContext(ctx, "connection closed")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

// readLoop is the inbound duty: one decoded client command at a time.
// Recoverable protocol problems are answered on the direct queue; only a
// transport failure or a voluntary leave ends the loop.
func (a *Actor) readLoop(ctx context.Context, _ struct{}) error {
	for {
		data, err := a.transport.ReadMessage(ctx)
		if err != nil {
			if a.closingRequested() || ctx.Err() != nil {
				return nil
			}
			return errors.Join(ErrTransportFailure, err)
		}

		msg, err := chat.DecodeClientMessage(data)
		if err != nil {
			a.Deliver(chat.ErrorEvent{ErrorMsg: "protocol error: " + err.Error()})
			continue
		}

		switch m := msg.(type) {
		case chat.SendMessage:
			if m.RoomID != a.roomID {
				a.Deliver(chat.ErrorEvent{ErrorMsg: "cannot send to a room you are not in"})
				continue
			}
			if _, err := a.registry.Say(ctx, m.RoomID, a.identity, m.Content); err != nil {
				a.Deliver(chat.ErrorEvent{ErrorMsg: "message rejected: " + err.Error()})
			}
		case chat.LeaveRoom:
			if m.RoomID != a.roomID {
				a.Deliver(chat.ErrorEvent{ErrorMsg: "cannot leave a room you are not in"})
				continue
			}
			return nil
		case chat.KickUser:
			if err := a.registry.Kick(ctx, m.RoomID, a.identity, m.UserID); err != nil {
				a.Deliver(chat.ErrorEvent{ErrorMsg: "kick rejected: " + err.Error()})
			}
		case chat.Ping:
			a.Deliver(chat.Pong{Timestamp: m.Timestamp})
		}
	}
}

// writeLoop is the outbound duty: it relays hub events and direct
// deliveries to the transport, in arrival order, and recognizes the events
// that end this connection.
func (a *Actor) writeLoop(ctx context.Context, _ struct{}) error {
	events := a.sub.Events()
	for {
		select {
		case <-ctx.Done():
			a.flush(ctx, events)
			return ctx.Err()
		case <-a.closing:
			a.flush(ctx, events)
			return nil
		case ev, ok := <-events:
			if !ok {
				// Topic torn down. The RoomDeleted notice arrives on the
				// direct queue; keep draining it.
				events = nil
				continue
			}
			done, err := a.forward(ctx, ev)
			if err != nil || done {
				return err
			}
		case ev := <-a.direct:
			done, err := a.forward(ctx, ev)
			if err != nil || done {
				return err
			}
		}
	}
}

// forward writes one event and reports whether it terminates the connection.
func (a *Actor) forward(ctx context.Context, ev chat.ServerMessage) (bool, error) {
	if err := a.writeEvent(ctx, ev); err != nil {
		return false, err
	}
	return a.isTerminal(ev), nil
}

func (a *Actor) isTerminal(ev chat.ServerMessage) bool {
	switch e := ev.(type) {
	case chat.RoomDeleted:
		return true
	case chat.UserKicked:
		return e.UserID == a.identity
	default:
		return false
	}
}

// flush drains whatever is already queued on the subscription and the direct
// queue and writes it out, without blocking on new events. Write errors are
// swallowed: the connection is going away either way.
func (a *Actor) flush(ctx context.Context, events <-chan chat.ServerMessage) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			_, _ = a.forward(ctx, ev)
		case ev := <-a.direct:
			_, _ = a.forward(ctx, ev)
		default:
			return
		}
	}
}

func (a *Actor) writeEvent(ctx context.Context, ev chat.ServerMessage) error {
	data, err := chat.EncodeServerMessage(ev)
	if err != nil {
		return err
	}
	if err := a.transport.WriteMessage(ctx, data); err != nil {
		return errors.Join(ErrTransportFailure, err)
	}
	return nil
}

func (a *Actor) closingRequested() bool {
	select {
	case <-a.closing:
		return true
	default:
		return false
	}
}
