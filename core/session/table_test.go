package session_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/chatroom/core/chat"
	"github.com/dmitrymomot/chatroom/core/session"
)

type fakeSink struct {
	mu        sync.Mutex
	delivered []chat.ServerMessage
	closed    int
}

func (s *fakeSink) Deliver(ev chat.ServerMessage) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delivered = append(s.delivered, ev)
	return true
}

func (s *fakeSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
}

func TestRegister(t *testing.T) {
	t.Parallel()

	t.Run("second registration conflicts", func(t *testing.T) {
		t.Parallel()

		tbl := session.NewTable()
		require.NoError(t, tbl.Register("alice", "general"))

		assert.ErrorIs(t, tbl.Register("alice", "general"), session.ErrAlreadyInRoom)
		assert.ErrorIs(t, tbl.Register("alice", "other"), session.ErrAlreadyInRoom)
	})

	t.Run("lookup reflects registration", func(t *testing.T) {
		t.Parallel()

		tbl := session.NewTable()
		require.NoError(t, tbl.Register("alice", "general"))

		room, ok := tbl.Lookup("alice")
		require.True(t, ok)
		assert.Equal(t, "general", room)

		_, ok = tbl.Lookup("bob")
		assert.False(t, ok)
	})

	t.Run("only one concurrent registration wins", func(t *testing.T) {
		t.Parallel()

		tbl := session.NewTable()

		const attempts = 16
		errs := make(chan error, attempts)
		var wg sync.WaitGroup
		for range attempts {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- tbl.Register("alice", "general")
			}()
		}
		wg.Wait()
		close(errs)

		wins := 0
		for err := range errs {
			if err == nil {
				wins++
			} else {
				assert.ErrorIs(t, err, session.ErrAlreadyInRoom)
			}
		}
		assert.Equal(t, 1, wins)
	})
}

func TestAttach(t *testing.T) {
	t.Parallel()

	t.Run("returns reserved room", func(t *testing.T) {
		t.Parallel()

		tbl := session.NewTable()
		require.NoError(t, tbl.Register("alice", "general"))

		room, err := tbl.Attach("alice", &fakeSink{})
		require.NoError(t, err)
		assert.Equal(t, "general", room)
	})

	t.Run("without session", func(t *testing.T) {
		t.Parallel()

		tbl := session.NewTable()
		_, err := tbl.Attach("ghost", &fakeSink{})
		assert.ErrorIs(t, err, session.ErrNoSession)
	})
}

func TestDeliver(t *testing.T) {
	t.Parallel()

	tbl := session.NewTable()
	require.NoError(t, tbl.Register("alice", "general"))

	// Reserved but not attached: nothing to deliver to.
	assert.False(t, tbl.Deliver("alice", chat.RoomDeleted{RoomID: "general"}))

	sink := &fakeSink{}
	_, err := tbl.Attach("alice", sink)
	require.NoError(t, err)

	assert.True(t, tbl.Deliver("alice", chat.RoomDeleted{RoomID: "general"}))
	assert.Equal(t, []chat.ServerMessage{chat.RoomDeleted{RoomID: "general"}}, sink.delivered)

	assert.False(t, tbl.Deliver("ghost", chat.Pong{}))
}

func TestUnregister(t *testing.T) {
	t.Parallel()

	tbl := session.NewTable()
	require.NoError(t, tbl.Register("alice", "general"))

	tbl.Unregister("alice")
	tbl.Unregister("alice") // idempotent

	_, ok := tbl.Lookup("alice")
	assert.False(t, ok)
	assert.Zero(t, tbl.Len())

	// Identity can rejoin after unregister.
	assert.NoError(t, tbl.Register("alice", "other"))
}

func TestDropRoom(t *testing.T) {
	t.Parallel()

	t.Run("removes every session bound to the room", func(t *testing.T) {
		t.Parallel()

		tbl := session.NewTable()
		require.NoError(t, tbl.Register("alice", "general"))
		sink := &fakeSink{}
		_, err := tbl.Attach("alice", sink)
		require.NoError(t, err)
		require.NoError(t, tbl.Register("bob", "general")) // reserved, never attached
		require.NoError(t, tbl.Register("carol", "other"))

		tbl.DropRoom("general")

		assert.Equal(t, 1, sink.closed)
		_, ok := tbl.Lookup("alice")
		assert.False(t, ok)
		_, ok = tbl.Lookup("bob")
		assert.False(t, ok)

		// Sessions for other rooms are untouched.
		reserved, ok := tbl.Lookup("carol")
		require.True(t, ok)
		assert.Equal(t, "other", reserved)

		// Dropped identities are free to reserve again.
		assert.NoError(t, tbl.Register("bob", "other"))
	})

	t.Run("idempotent and safe on unknown room", func(t *testing.T) {
		t.Parallel()

		tbl := session.NewTable()
		tbl.DropRoom("nope")
		require.NoError(t, tbl.Register("alice", "general"))
		tbl.DropRoom("general")
		tbl.DropRoom("general")
		assert.Zero(t, tbl.Len())
	})
}

func TestForceClose(t *testing.T) {
	t.Parallel()

	t.Run("closes sink and removes session", func(t *testing.T) {
		t.Parallel()

		tbl := session.NewTable()
		require.NoError(t, tbl.Register("alice", "general"))
		sink := &fakeSink{}
		_, err := tbl.Attach("alice", sink)
		require.NoError(t, err)

		tbl.ForceClose("alice")

		assert.Equal(t, 1, sink.closed)
		_, ok := tbl.Lookup("alice")
		assert.False(t, ok)
	})

	t.Run("safe without sink or session", func(t *testing.T) {
		t.Parallel()

		tbl := session.NewTable()
		require.NoError(t, tbl.Register("alice", "general"))

		tbl.ForceClose("alice") // no sink attached
		tbl.ForceClose("alice") // no session at all
	})
}
