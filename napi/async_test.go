package napi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/napi-host/host"
)

func TestAsyncWork_Complete(t *testing.T) {
	env, inv := newTestEnv(t)

	var executed bool
	var status Status = -1
	var work AsyncWork
	work, st := env.CreateAsyncWork(nil, "job",
		func(e *Env, data any) {
			assert.Same(t, env, e)
			executed = true
		},
		func(e *Env, s Status, data any) {
			status = s
			assert.Equal(t, StatusOK, e.DeleteAsyncWork(work))
		},
		nil)
	require.Equal(t, StatusOK, st)
	require.Equal(t, StatusOK, env.QueueAsyncWork(work))

	inv.RunPending()
	assert.True(t, executed)
	assert.Equal(t, StatusOK, status)
	assert.Equal(t, StatusInvalidArg, env.DeleteAsyncWork(work))
}

func TestAsyncWork_Cancel(t *testing.T) {
	env, inv := newTestEnv(t)

	var executed bool
	var status Status = -1
	work, st := env.CreateAsyncWork(nil, "job",
		func(*Env, any) { executed = true },
		func(_ *Env, s Status, _ any) { status = s },
		nil)
	require.Equal(t, StatusOK, st)
	require.Equal(t, StatusOK, env.QueueAsyncWork(work))
	require.Equal(t, StatusOK, env.CancelAsyncWork(work))

	inv.RunPending()
	assert.False(t, executed)
	assert.Equal(t, StatusCancelled, status)
	assert.Equal(t, StatusGenericFailure, env.CancelAsyncWork(work))
}

func TestAsyncWork_UnknownHandle(t *testing.T) {
	env, _ := newTestEnv(t)
	assert.Equal(t, StatusInvalidArg, env.QueueAsyncWork(AsyncWork(12345)))
	assert.Equal(t, StatusInvalidArg, env.CancelAsyncWork(AsyncWork(12345)))

	_, st := env.CreateAsyncWork(nil, "job", nil, nil, nil)
	assert.Equal(t, StatusInvalidArg, st)
}

func TestMakeCallback(t *testing.T) {
	env, _ := newTestEnv(t)

	ctx, st := env.AsyncInit(nil, "resource")
	require.Equal(t, StatusOK, st)

	ok, _ := env.CreateFunction("ok", func(*Env, *CallbackInfo) host.Value { return host.Number(1) }, nil)
	v, st := env.MakeCallback(ctx, host.Undefined{}, ok)
	require.Equal(t, StatusOK, st)
	assert.Equal(t, host.Number(1), v)

	fail, _ := env.CreateFunction("fail", func(e *Env, _ *CallbackInfo) host.Value {
		e.ThrowError("", "bad")
		return nil
	}, nil)
	_, st = env.MakeCallback(ctx, host.Undefined{}, fail)
	assert.Equal(t, StatusPendingException, st)
	assert.True(t, env.IsExceptionPending())

	assert.Equal(t, StatusInvalidArg, env.AsyncDestroy(ctx), "context was destroyed by the exception")
}
