package memhost

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/napi-host/host"
)

func TestLoop_InvokeAsyncRunsDoneOnDrainer(t *testing.T) {
	loop := NewLoop(2, nil)
	defer loop.Close()

	var worked atomic.Int32
	var completed int
	for i := 0; i < 10; i++ {
		require.NoError(t, loop.InvokeAsync(func() { worked.Add(1) }, func() { completed++ }))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, loop.Drain(ctx))

	assert.Equal(t, int32(10), worked.Load())
	assert.Equal(t, 10, completed)
	assert.Equal(t, 0, loop.Pending())
}

func TestLoop_WorkerLimit(t *testing.T) {
	loop := NewLoop(1, nil)
	defer loop.Close()

	var running, peak atomic.Int32
	work := func() {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
	}
	for i := 0; i < 5; i++ {
		require.NoError(t, loop.InvokeAsync(work, nil))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, loop.Drain(ctx))
	assert.Equal(t, int32(1), peak.Load())
}

func TestLoop_PostOrder(t *testing.T) {
	loop := NewLoop(1, nil)
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		require.NoError(t, loop.Post(func() { order = append(order, i) }))
	}
	require.NoError(t, loop.Drain(context.Background()))
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestLoop_Closed(t *testing.T) {
	loop := NewLoop(1, nil)
	require.NoError(t, loop.Close())

	assert.ErrorIs(t, loop.Post(func() {}), host.ErrClosed)
	assert.ErrorIs(t, loop.InvokeAsync(func() {}, func() {}), host.ErrClosed)
}

func TestLoop_FinalizerPostedToLoop(t *testing.T) {
	loop := NewLoop(1, nil)
	rt := New(WithPoster(loop))

	// collected is what the GC cleanup invokes; call it directly.
	var ran bool
	rt.NewExternal("x", func() { ran = true })
	rt.collected(1)

	assert.False(t, ran)
	require.NoError(t, loop.Drain(context.Background()))
	assert.True(t, ran)
	assert.Equal(t, 0, rt.PendingFinalizers())
}
