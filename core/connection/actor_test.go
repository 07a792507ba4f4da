package connection_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/chatroom/core/chat"
	"github.com/dmitrymomot/chatroom/core/connection"
	"github.com/dmitrymomot/chatroom/core/history"
	"github.com/dmitrymomot/chatroom/core/hub"
	"github.com/dmitrymomot/chatroom/core/room"
	"github.com/dmitrymomot/chatroom/core/session"
)

// fakeTransport is an in-memory duplex frame channel standing in for a
// websocket connection.
type fakeTransport struct {
	in        chan []byte
	out       chan []byte
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		in:     make(chan []byte, 16),
		out:    make(chan []byte, 64),
		closed: make(chan struct{}),
	}
}

func (t *fakeTransport) ReadMessage(ctx context.Context) ([]byte, error) {
	select {
	case data, ok := <-t.in:
		if !ok {
			return nil, io.EOF
		}
		return data, nil
	case <-t.closed:
		return nil, net.ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *fakeTransport) WriteMessage(_ context.Context, data []byte) error {
	select {
	case t.out <- data:
		return nil
	case <-t.closed:
		return net.ErrClosed
	}
}

func (t *fakeTransport) Close() error {
	t.closeOnce.Do(func() { close(t.closed) })
	return nil
}

func (t *fakeTransport) isClosed() bool {
	select {
	case <-t.closed:
		return true
	default:
		return false
	}
}

// send feeds a client frame into the transport.
func (t *fakeTransport) send(tb testing.TB, frame string) {
	tb.Helper()
	select {
	case t.in <- []byte(frame):
	case <-time.After(time.Second):
		tb.Fatal("transport inbound queue stuck")
	}
}

// expect reads the next server frame and asserts its type tag, returning the
// decoded payload.
func (t *fakeTransport) expect(tb testing.TB, wantType string) map[string]any {
	tb.Helper()
	select {
	case data := <-t.out:
		var out map[string]any
		require.NoError(tb, json.Unmarshal(data, &out))
		require.Equal(tb, wantType, out["type"], "frame: %s", data)
		return out
	case <-time.After(2 * time.Second):
		tb.Fatalf("timed out waiting for %s frame", wantType)
		return nil
	}
}

type world struct {
	registry *room.Registry
	sessions *session.Table
	hub      *hub.Hub[chat.ServerMessage]
}

func newWorld(t *testing.T) *world {
	t.Helper()

	h := hub.New[chat.ServerMessage](
		hub.WithMissedNotice[chat.ServerMessage](func(n int) chat.ServerMessage {
			return chat.ErrorEvent{ErrorMsg: fmt.Sprintf("missed %d messages", n)}
		}),
	)
	sessions := session.NewTable()
	registry := room.NewRegistry(h, sessions, history.NewMemoryStore(50),
		room.WithBcryptCost(bcrypt.MinCost))
	return &world{registry: registry, sessions: sessions, hub: h}
}

// connect spins up an actor for an identity whose session is already
// reserved, returning its transport and a channel with Run's result.
func (w *world) connect(t *testing.T, identity string) (*fakeTransport, <-chan error) {
	t.Helper()

	tr := newFakeTransport()
	actor := connection.New(identity, tr, w.registry, w.sessions, w.hub)
	done := make(chan error, 1)
	go func() {
		done <- actor.Run(context.Background())
	}()

	// Admission is asynchronous; wait until the member set reflects it.
	require.Eventually(t, func() bool {
		roomID, ok := w.sessions.Lookup(identity)
		if !ok {
			return false
		}
		members, err := w.registry.Members(roomID)
		if err != nil {
			return false
		}
		for _, m := range members {
			if m == identity {
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond, "actor for %s never joined", identity)

	return tr, done
}

func waitClosed(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("actor did not terminate")
		return nil
	}
}

func TestActorAdmission(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("refused without a reservation", func(t *testing.T) {
		t.Parallel()
		w := newWorld(t)

		tr := newFakeTransport()
		actor := connection.New("ghost", tr, w.registry, w.sessions, w.hub)
		err := actor.Run(ctx)
		require.ErrorIs(t, err, connection.ErrNotAuthorized)

		tr.expect(t, "Error")
		assert.True(t, tr.isClosed())
	})

	t.Run("refused when the room vanished after authorize", func(t *testing.T) {
		t.Parallel()
		w := newWorld(t)

		_, err := w.registry.Create(ctx, "general", "alice", "pw")
		require.NoError(t, err)
		_, _, err = w.registry.Authorize(ctx, "general", "bob", "pw")
		require.NoError(t, err)
		require.NoError(t, w.registry.Delete(ctx, "general", "alice"))

		tr := newFakeTransport()
		actor := connection.New("bob", tr, w.registry, w.sessions, w.hub)
		err = actor.Run(ctx)
		require.Error(t, err)

		tr.expect(t, "Error")
		assert.True(t, tr.isClosed())
		_, ok := w.sessions.Lookup("bob")
		assert.False(t, ok)
	})
}

func TestActorMessaging(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("chat scenario: join, broadcast, kick", func(t *testing.T) {
		t.Parallel()
		w := newWorld(t)

		_, err := w.registry.Create(ctx, "general", "alice", "pw1")
		require.NoError(t, err)
		alice, _ := w.connect(t, "alice")

		members, _, err := w.registry.Authorize(ctx, "general", "bob", "pw1")
		require.NoError(t, err)
		assert.Equal(t, []string{"alice"}, members)

		bob, bobDone := w.connect(t, "bob")

		joined := alice.expect(t, "UserJoined")
		assert.Equal(t, "bob", joined["user_id"])

		// alice broadcasts; both subscribers see the same message first.
		alice.send(t, `{"type":"SendMessage","room_id":"general","content":"hi"}`)
		for _, tr := range []*fakeTransport{alice, bob} {
			bc := tr.expect(t, "MessageBroadcast")
			assert.Equal(t, "general", bc["room_id"])
			assert.Equal(t, "alice", bc["user_id"])
			assert.Equal(t, "hi", bc["content"])
			assert.NotEmpty(t, bc["message_id"])
		}

		// Owner kicks bob: both hear it, bob's connection dies for real.
		alice.send(t, `{"type":"KickUser","room_id":"general","user_id":"bob"}`)
		kicked := alice.expect(t, "UserKicked")
		assert.Equal(t, "bob", kicked["user_id"])
		kicked = bob.expect(t, "UserKicked")
		assert.Equal(t, "bob", kicked["user_id"])

		require.NoError(t, waitClosed(t, bobDone))
		assert.True(t, bob.isClosed())

		// bob is gone from membership and sessions; his send path is dead.
		got, err := w.registry.Members("general")
		require.NoError(t, err)
		assert.Equal(t, []string{"alice"}, got)
		_, ok := w.sessions.Lookup("bob")
		assert.False(t, ok)
		_, err = w.registry.Say(ctx, "general", "bob", "still here?")
		assert.ErrorIs(t, err, room.ErrNotInRoom)
	})

	t.Run("ping is answered directly", func(t *testing.T) {
		t.Parallel()
		w := newWorld(t)

		_, err := w.registry.Create(ctx, "general", "alice", "pw")
		require.NoError(t, err)
		alice, _ := w.connect(t, "alice")

		alice.send(t, `{"type":"Ping","timestamp":"t-123"}`)
		pong := alice.expect(t, "Pong")
		assert.Equal(t, "t-123", pong["timestamp"])
	})

	t.Run("protocol errors do not close the connection", func(t *testing.T) {
		t.Parallel()
		w := newWorld(t)

		_, err := w.registry.Create(ctx, "general", "alice", "pw")
		require.NoError(t, err)
		alice, _ := w.connect(t, "alice")

		alice.send(t, `not even json`)
		alice.expect(t, "Error")

		alice.send(t, `{"type":"Teleport"}`)
		alice.expect(t, "Error")

		alice.send(t, `{"type":"SendMessage","room_id":"other","content":"x"}`)
		alice.expect(t, "Error")

		// Still alive and functional.
		alice.send(t, `{"type":"Ping","timestamp":"still-here"}`)
		pong := alice.expect(t, "Pong")
		assert.Equal(t, "still-here", pong["timestamp"])
	})

	t.Run("non-owner kick is rejected but harmless", func(t *testing.T) {
		t.Parallel()
		w := newWorld(t)

		_, err := w.registry.Create(ctx, "general", "alice", "pw")
		require.NoError(t, err)
		alice, _ := w.connect(t, "alice")
		_, _, err = w.registry.Authorize(ctx, "general", "bob", "pw")
		require.NoError(t, err)
		bob, _ := w.connect(t, "bob")
		alice.expect(t, "UserJoined")

		bob.send(t, `{"type":"KickUser","room_id":"general","user_id":"alice"}`)
		bob.expect(t, "Error")

		got, err := w.registry.Members("general")
		require.NoError(t, err)
		assert.Equal(t, []string{"alice", "bob"}, got)
	})
}

func TestActorExit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("voluntary leave announces UserLeft to the rest", func(t *testing.T) {
		t.Parallel()
		w := newWorld(t)

		_, err := w.registry.Create(ctx, "general", "alice", "pw")
		require.NoError(t, err)
		alice, _ := w.connect(t, "alice")
		_, _, err = w.registry.Authorize(ctx, "general", "bob", "pw")
		require.NoError(t, err)
		bob, bobDone := w.connect(t, "bob")
		alice.expect(t, "UserJoined")

		bob.send(t, `{"type":"LeaveRoom","room_id":"general"}`)
		require.NoError(t, waitClosed(t, bobDone))

		left := alice.expect(t, "UserLeft")
		assert.Equal(t, "bob", left["user_id"])

		got, err := w.registry.Members("general")
		require.NoError(t, err)
		assert.Equal(t, []string{"alice"}, got)
		_, ok := w.sessions.Lookup("bob")
		assert.False(t, ok)
	})

	t.Run("transport failure cleans up like a leave", func(t *testing.T) {
		t.Parallel()
		w := newWorld(t)

		_, err := w.registry.Create(ctx, "general", "alice", "pw")
		require.NoError(t, err)
		alice, _ := w.connect(t, "alice")
		_, _, err = w.registry.Authorize(ctx, "general", "bob", "pw")
		require.NoError(t, err)
		bob, bobDone := w.connect(t, "bob")
		alice.expect(t, "UserJoined")

		// Simulate the peer dropping the socket.
		close(bob.in)
		err = waitClosed(t, bobDone)
		require.ErrorIs(t, err, connection.ErrTransportFailure)

		left := alice.expect(t, "UserLeft")
		assert.Equal(t, "bob", left["user_id"])
		_, ok := w.sessions.Lookup("bob")
		assert.False(t, ok)
	})

	t.Run("room deletion reaches every member exactly once", func(t *testing.T) {
		t.Parallel()
		w := newWorld(t)

		_, err := w.registry.Create(ctx, "general", "alice", "pw")
		require.NoError(t, err)
		alice, aliceDone := w.connect(t, "alice")
		_, _, err = w.registry.Authorize(ctx, "general", "bob", "pw")
		require.NoError(t, err)
		bob, bobDone := w.connect(t, "bob")
		alice.expect(t, "UserJoined")

		require.NoError(t, w.registry.Delete(ctx, "general", "alice"))

		deleted := alice.expect(t, "RoomDeleted")
		assert.Equal(t, "general", deleted["room_id"])
		deleted = bob.expect(t, "RoomDeleted")
		assert.Equal(t, "general", deleted["room_id"])

		require.NoError(t, waitClosed(t, aliceDone))
		require.NoError(t, waitClosed(t, bobDone))

		// No residual state anywhere, and the room id is joinable as new.
		assert.Zero(t, w.sessions.Len())
		_, _, err = w.registry.Authorize(ctx, "general", "carol", "pw")
		assert.ErrorIs(t, err, room.ErrRoomNotFound)
		_, err = w.registry.Create(ctx, "general", "carol", "pw")
		assert.NoError(t, err)
	})
}

func TestActorSinkContract(t *testing.T) {
	t.Parallel()

	w := newWorld(t)
	tr := newFakeTransport()
	actor := connection.New("alice", tr, w.registry, w.sessions, w.hub)

	// Deliver is non-blocking even with nobody draining.
	for range 100 {
		actor.Deliver(chat.Pong{Timestamp: "x"})
	}

	// Close is idempotent and safe before Run.
	actor.Close()
	actor.Close()

	_, err := w.registry.Create(context.Background(), "general", "alice", "pw")
	require.NoError(t, err)

	// A pre-closed actor terminates immediately after admission.
	done := make(chan error, 1)
	go func() { done <- actor.Run(context.Background()) }()
	err = waitClosed(t, done)
	assert.True(t, err == nil || errors.Is(err, connection.ErrTransportFailure))
}
