package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/aria-bots/pkg/logging"
)

func TestDispatcherRunsTasksAndReportsErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	d := NewDispatcher(logging.Discard(), WithWorkerCount(2), WithQueueSize(8))
	d.Start(ctx)

	var ran atomic.Int32
	for i := 0; i < 3; i++ {
		require.NoError(t, d.Submit(Task{Name: "ok", Run: func(context.Context) error {
			ran.Add(1)
			return nil
		}}))
	}
	require.NoError(t, d.Submit(Task{Name: "voice", Key: "+1", Run: func(context.Context) error {
		return errors.New("completion failed")
	}}))

	select {
	case taskErr := <-d.Errors():
		assert.Equal(t, "voice", taskErr.Task)
		assert.Equal(t, "+1", taskErr.Key)
		assert.EqualError(t, taskErr.Unwrap(), "completion failed")
	case <-time.After(2 * time.Second):
		t.Fatal("expected task error")
	}

	cancel()
	d.Wait()
	assert.EqualValues(t, 3, ran.Load())
	assert.ErrorIs(t, d.Submit(Task{Name: "late", Run: func(context.Context) error { return nil }}), ErrStopped)
}

func TestDispatcherRecoversPanics(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d := NewDispatcher(logging.Discard(), WithWorkerCount(1))
	d.Start(ctx)

	require.NoError(t, d.Submit(Task{Name: "boom", Run: func(context.Context) error { panic("bad") }}))

	select {
	case taskErr := <-d.Errors():
		assert.Contains(t, taskErr.Error(), "panic: bad")
	case <-time.After(2 * time.Second):
		t.Fatal("expected panic to surface as error")
	}
}

func TestDispatcherTaskTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d := NewDispatcher(logging.Discard(), WithWorkerCount(1), WithTaskTimeout(20*time.Millisecond))
	d.Start(ctx)

	require.NoError(t, d.Submit(Task{Name: "slow", Run: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}))

	select {
	case taskErr := <-d.Errors():
		assert.ErrorIs(t, taskErr, context.DeadlineExceeded)
	case <-time.After(2 * time.Second):
		t.Fatal("expected timeout error")
	}
}

func TestDispatcherQueueFull(t *testing.T) {
	d := NewDispatcher(logging.Discard(), WithQueueSize(1))
	noop := Task{Name: "noop", Run: func(context.Context) error { return nil }}

	require.NoError(t, d.Submit(noop))
	assert.ErrorIs(t, d.Submit(noop), ErrQueueFull)
	assert.Error(t, d.Submit(Task{Name: "empty"}))
}
