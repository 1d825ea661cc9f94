package background

import (
	"context"
	"testing"
	"time"

	"conduit/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ctxKey string

func TestRunner_DetachOutlivesParent(t *testing.T) {
	r := New(nil)
	parent, cancel := context.WithCancel(context.WithValue(context.Background(), ctxKey("k"), "v"))

	release := make(chan struct{})
	task := r.Detach(parent, "sync", func(ctx context.Context) error {
		<-release
		assert.NoError(t, ctx.Err())
		assert.Equal(t, "v", ctx.Value(ctxKey("k")))

		return nil
	})

	cancel()
	close(release)

	select {
	case <-task.Done():
	case <-time.After(time.Second):
		t.Fatal("task did not finish")
	}
	assert.NoError(t, task.Err())
}

func TestRunner_ErrorsAndPanicsAreCaptured(t *testing.T) {
	r := New(nil)

	failing := r.Detach(context.Background(), "fail", func(context.Context) error {
		return errors.New("boom")
	})
	panicking := r.Detach(context.Background(), "panic", func(context.Context) error {
		panic("kaboom")
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, r.Wait(ctx))

	<-failing.Done()
	assert.EqualError(t, failing.Err(), "boom")
	<-panicking.Done()
	assert.Contains(t, panicking.Err().Error(), "kaboom")
}

func TestRunner_WaitHonoursDeadline(t *testing.T) {
	r := New(nil)
	release := make(chan struct{})
	defer close(release)

	r.Detach(context.Background(), "slow", func(context.Context) error {
		<-release

		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.Wait(ctx), context.DeadlineExceeded)
}
