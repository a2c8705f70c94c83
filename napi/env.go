package napi

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wippyai/napi-host/async"
	"github.com/wippyai/napi-host/errors"
	"github.com/wippyai/napi-host/host"
)

// Exported symbol names looked up in addon libraries.
const (
	SymbolRegisterModuleV1 = "napi_register_module_v1"
	SymbolGetAPIVersionV1  = "node_api_module_get_api_version_v1"
)

// API versions.
const (
	// Version is the highest API version this host implements.
	Version int32 = 10
	// DefaultModuleAPIVersion is assumed for addons that do not export
	// their version.
	DefaultModuleAPIVersion int32 = 8
	// ExperimentalAPIVersion opts an addon into unreleased features.
	ExperimentalAPIVersion int32 = 2147483647
)

// ValidAPIVersion reports whether an addon may declare version v.
func ValidAPIVersion(v int32) bool {
	return (v >= 1 && v <= Version) || v == ExperimentalAPIVersion
}

// RegisterFunc initializes an addon in an environment and returns its
// exports. Returning nil keeps the exports object passed in.
type RegisterFunc func(env *Env, exports host.Value) host.Value

// APIVersionFunc reports the API version an addon was built against.
type APIVersionFunc func() int32

// EngineContext is what the host knows about one script engine.
type EngineContext struct {
	Runtime   host.Runtime
	Invoker   host.TaskInvoker
	Scheduler *async.Scheduler

	mu   sync.Mutex
	envs []*Env
}

// NewEnv creates a native environment for an addon declaring version.
// The engine's invoker is registered with the scheduler for the new env.
func (ec *EngineContext) NewEnv(version int32) (*Env, error) {
	if ec.Runtime == nil {
		return nil, errors.InvalidInput(errors.PhaseInstantiate, "engine context has no runtime")
	}
	if !ValidAPIVersion(version) {
		return nil, errors.New(errors.PhaseInstantiate, errors.KindInvalidInput).
			Value(version).
			Detail("unsupported module API version %d", version).
			Build()
	}
	env := &Env{
		id:      uuid.NewString(),
		version: version,
		ec:      ec,
	}
	if ec.Scheduler != nil && ec.Invoker != nil {
		ec.Scheduler.SetInvoker(env, ec.Invoker)
	}

	ec.mu.Lock()
	ec.envs = append(ec.envs, env)
	ec.mu.Unlock()

	Logger().Debug("env created",
		zap.String("env", env.id),
		zap.String("engine", ec.Runtime.ID()),
		zap.Int32("version", version))
	return env, nil
}

// Envs returns the environments created so far.
func (ec *EngineContext) Envs() []*Env {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	out := make([]*Env, len(ec.envs))
	copy(out, ec.envs)
	return out
}

// Close detaches every environment from the scheduler.
func (ec *EngineContext) Close() {
	ec.mu.Lock()
	envs := ec.envs
	ec.envs = nil
	ec.mu.Unlock()
	for _, env := range envs {
		env.close()
	}
}

// Env is the per-addon native environment handed to registration and
// callback functions. It is bound to one engine and must only be used on
// that engine's script thread, except where noted.
type Env struct {
	id      string
	version int32
	ec      *EngineContext

	pending    host.Value
	hasPending bool
	lastStatus Status
	instance   any
	closed     bool
}

// ID uniquely identifies the environment.
func (e *Env) ID() string { return e.id }

// ModuleAPIVersion returns the version the addon declared.
func (e *Env) ModuleAPIVersion() int32 { return e.version }

// Runtime returns the engine the environment is bound to.
func (e *Env) Runtime() host.Runtime { return e.ec.Runtime }

// Context returns the engine context the environment belongs to.
func (e *Env) Context() *EngineContext { return e.ec }

// GetVersion returns the highest API version the host supports.
func (e *Env) GetVersion() (uint32, Status) {
	return uint32(Version), e.status(StatusOK)
}

// NodeVersion describes the embedding runtime.
type NodeVersion struct {
	Major, Minor, Patch uint32
	Release             string
}

// GetNodeVersion is unsupported; the host is not Node.js.
func (e *Env) GetNodeVersion() (*NodeVersion, Status) {
	return nil, e.status(StatusGenericFailure)
}

// LastStatus returns the status of the most recent call.
func (e *Env) LastStatus() Status { return e.lastStatus }

// SetInstanceData attaches addon-wide data to the environment.
func (e *Env) SetInstanceData(data any) Status {
	e.instance = data
	return e.status(StatusOK)
}

// GetInstanceData returns the data set by SetInstanceData.
func (e *Env) GetInstanceData() (any, Status) {
	return e.instance, e.status(StatusOK)
}

// ThrowError sets a pending exception with an error object carrying
// message and, when non-empty, code.
func (e *Env) ThrowError(code, message string) Status {
	errObj := e.ec.Runtime.NewError(message)
	if code != "" {
		_ = errObj.Set("code", host.String(code))
	}
	return e.Throw(errObj)
}

// Throw sets v as the pending exception.
func (e *Env) Throw(v host.Value) Status {
	if v == nil {
		return e.status(StatusInvalidArg)
	}
	if e.hasPending {
		return e.status(StatusPendingException)
	}
	e.pending = v
	e.hasPending = true
	return e.status(StatusOK)
}

// IsExceptionPending reports whether an exception is waiting to propagate.
func (e *Env) IsExceptionPending() bool { return e.hasPending }

// GetAndClearLastException returns and clears the pending exception.
// It returns undefined when nothing is pending.
func (e *Env) GetAndClearLastException() (host.Value, Status) {
	if !e.hasPending {
		return host.Undefined{}, e.status(StatusOK)
	}
	v := e.pending
	e.pending = nil
	e.hasPending = false
	return v, e.status(StatusOK)
}

func (e *Env) status(s Status) Status {
	e.lastStatus = s
	return s
}

func (e *Env) close() {
	if e.closed {
		return
	}
	e.closed = true
	if e.ec.Scheduler != nil {
		e.ec.Scheduler.RemoveInvoker(e)
	}
}
