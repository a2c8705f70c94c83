package napi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/napi-host/async"
	"github.com/wippyai/napi-host/host"
	"github.com/wippyai/napi-host/host/memhost"
)

func newTestEnv(t *testing.T) (*Env, *host.QueueInvoker) {
	t.Helper()
	rt := memhost.New()
	inv := &host.QueueInvoker{}
	sched := async.NewScheduler()
	ec := &EngineContext{Runtime: rt, Invoker: inv, Scheduler: sched}
	t.Cleanup(func() {
		ec.Close()
		_ = sched.Close()
		_ = rt.Close()
	})
	env, err := ec.NewEnv(DefaultModuleAPIVersion)
	require.NoError(t, err)
	return env, inv
}

func TestValidAPIVersion(t *testing.T) {
	tests := []struct {
		version int32
		valid   bool
	}{
		{0, false},
		{1, true},
		{8, true},
		{10, true},
		{11, false},
		{-1, false},
		{ExperimentalAPIVersion, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.valid, ValidAPIVersion(tt.version), "version %d", tt.version)
	}
}

func TestEngineContext_NewEnvRejectsVersion(t *testing.T) {
	ec := &EngineContext{Runtime: memhost.New()}
	_, err := ec.NewEnv(42)
	assert.Error(t, err)

	env, err := ec.NewEnv(ExperimentalAPIVersion)
	require.NoError(t, err)
	assert.Equal(t, ExperimentalAPIVersion, env.ModuleAPIVersion())
	assert.Len(t, ec.Envs(), 1)
}

func TestEnv_GetVersion(t *testing.T) {
	env, _ := newTestEnv(t)
	v, st := env.GetVersion()
	assert.Equal(t, StatusOK, st)
	assert.Equal(t, uint32(Version), v)

	_, st = env.GetNodeVersion()
	assert.Equal(t, StatusGenericFailure, st)
	assert.Equal(t, StatusGenericFailure, env.LastStatus())
}

func TestEnv_Properties(t *testing.T) {
	env, _ := newTestEnv(t)

	obj, st := env.CreateObject()
	require.Equal(t, StatusOK, st)
	num, _ := env.CreateInt32(42)
	require.Equal(t, StatusOK, env.SetNamedProperty(obj, "answer", num))

	got, st := env.GetNamedProperty(obj, "answer")
	require.Equal(t, StatusOK, st)
	n, st := env.GetValueInt32(got)
	assert.Equal(t, StatusOK, st)
	assert.Equal(t, int32(42), n)

	missing, st := env.GetNamedProperty(obj, "nope")
	assert.Equal(t, StatusOK, st)
	assert.Equal(t, host.KindUndefined, missing.Kind())

	assert.Equal(t, StatusObjectExpected, env.SetNamedProperty(host.Number(1), "x", num))
	_, st = env.GetValueInt32(host.String("42"))
	assert.Equal(t, StatusNumberExpected, st)
	_, st = env.GetValueStringUTF8(host.Number(1))
	assert.Equal(t, StatusStringExpected, st)
}

func TestEnv_FunctionRoundTrip(t *testing.T) {
	env, _ := newTestEnv(t)

	fn, st := env.CreateFunction("double", func(env *Env, info *CallbackInfo) host.Value {
		v, _ := env.GetValueDouble(info.Args[0])
		out, _ := env.CreateDouble(v * 2)
		return out
	}, nil)
	require.Equal(t, StatusOK, st)

	out, st := env.CallFunction(host.Undefined{}, fn, host.Number(21))
	require.Equal(t, StatusOK, st)
	assert.Equal(t, host.Number(42), out)
}

func TestEnv_ThrowPropagates(t *testing.T) {
	env, _ := newTestEnv(t)

	fn, _ := env.CreateFunction("fail", func(env *Env, info *CallbackInfo) host.Value {
		env.ThrowError("E_FAIL", "nope")
		return nil
	}, nil)

	_, st := env.CallFunction(host.Undefined{}, fn)
	assert.Equal(t, StatusPendingException, st)
	assert.True(t, env.IsExceptionPending())

	_, st = env.CallFunction(host.Undefined{}, fn)
	assert.Equal(t, StatusPendingException, st, "calls are refused while an exception is pending")

	exc, st := env.GetAndClearLastException()
	require.Equal(t, StatusOK, st)
	assert.False(t, env.IsExceptionPending())

	obj := exc.(host.Object)
	code, _ := obj.Get("code")
	msg, _ := obj.Get("message")
	assert.Equal(t, host.String("E_FAIL"), code)
	assert.Equal(t, host.String("nope"), msg)
}

func TestEnv_External(t *testing.T) {
	env, _ := newTestEnv(t)

	var finalized []any
	ext, st := env.CreateExternal("data", func(_ *Env, data, hint any) {
		finalized = append(finalized, data, hint)
	}, "hint")
	require.Equal(t, StatusOK, st)

	data, st := env.GetValueExternal(ext)
	require.Equal(t, StatusOK, st)
	assert.Equal(t, "data", data)

	_, st = env.GetValueExternal(host.Number(1))
	assert.Equal(t, StatusInvalidArg, st)

	require.NoError(t, env.Runtime().(*memhost.Runtime).Close())
	assert.Equal(t, []any{"data", "hint"}, finalized)
}

func TestFatalError(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	prev := Logger()
	SetLogger(zap.New(core, zap.WithFatalHook(zapcore.WriteThenPanic)))
	defer SetLogger(prev)

	assert.Panics(t, func() { FatalError("addon.cc:12", "invariant broken") })

	entries := logs.FilterMessage("FATAL ERROR").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "addon.cc:12", fields["location"])
	assert.Equal(t, "invariant broken", fields["message"])
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "ok", StatusOK.String())
	assert.Equal(t, "cancelled", StatusCancelled.String())
	assert.Equal(t, Status(11), StatusCancelled)
	assert.Equal(t, "napi: invalid_arg", StatusInvalidArg.Error())
	assert.Equal(t, "status(99)", Status(99).String())
}
