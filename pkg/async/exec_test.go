package async_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/chatroom/pkg/async"
)

func TestExec(t *testing.T) {
	t.Parallel()

	t.Run("returns function error", func(t *testing.T) {
		t.Parallel()

		wantErr := errors.New("boom")
		f := async.Exec(context.Background(), 0, func(context.Context, int) error {
			return wantErr
		})
		assert.ErrorIs(t, f.Await(), wantErr)
	})

	t.Run("nil error on success", func(t *testing.T) {
		t.Parallel()

		f := async.Exec(context.Background(), "param", func(_ context.Context, p string) error {
			assert.Equal(t, "param", p)
			return nil
		})
		assert.NoError(t, f.Await())
	})

	t.Run("pre-canceled context skips the function", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		called := false
		f := async.Exec(ctx, 0, func(context.Context, int) error {
			called = true
			return nil
		})
		assert.ErrorIs(t, f.Await(), context.Canceled)
		assert.False(t, called)
	})

	t.Run("await with timeout", func(t *testing.T) {
		t.Parallel()

		block := make(chan struct{})
		f := async.Exec(context.Background(), 0, func(context.Context, int) error {
			<-block
			return nil
		})

		assert.ErrorIs(t, f.AwaitWithTimeout(10*time.Millisecond), async.ErrTimeout)
		assert.False(t, f.IsComplete())

		close(block)
		assert.NoError(t, f.AwaitWithTimeout(time.Second))
		assert.True(t, f.IsComplete())
	})
}

func TestExecAll(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("second failed")
	ok := async.Exec(context.Background(), 0, func(context.Context, int) error { return nil })
	bad := async.Exec(context.Background(), 0, func(context.Context, int) error { return wantErr })

	assert.ErrorIs(t, async.ExecAll(ok, bad), wantErr)
	assert.NoError(t, async.ExecAll(ok))
}

func TestExecAny(t *testing.T) {
	t.Parallel()

	t.Run("returns the first completed future", func(t *testing.T) {
		t.Parallel()

		block := make(chan struct{})
		defer close(block)

		slow := async.Exec(context.Background(), 0, func(context.Context, int) error {
			<-block
			return nil
		})
		fast := async.Exec(context.Background(), 0, func(context.Context, int) error {
			return nil
		})

		idx, err := async.ExecAny(slow, fast)
		require.NoError(t, err)
		assert.Equal(t, 1, idx)
	})

	t.Run("no futures", func(t *testing.T) {
		t.Parallel()

		idx, err := async.ExecAny()
		assert.Equal(t, -1, idx)
		assert.ErrorIs(t, err, async.ErrNoFutures)
	})
}
