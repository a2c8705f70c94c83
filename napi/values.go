package napi

import (
	"math"

	"github.com/wippyai/napi-host/host"
)

// CallbackInfo describes one invocation of a native function.
type CallbackInfo struct {
	This host.Value
	Args []host.Value
	Data any
}

// Callback implements a script function natively. A nil return means
// undefined. A pending exception set on env is thrown to the caller.
type Callback func(env *Env, info *CallbackInfo) host.Value

// Finalize releases native data when its script wrapper is reclaimed.
type Finalize func(env *Env, data any, hint any)

func (e *Env) GetUndefined() (host.Value, Status) { return host.Undefined{}, e.status(StatusOK) }
func (e *Env) GetNull() (host.Value, Status)      { return host.Null{}, e.status(StatusOK) }

func (e *Env) GetGlobal() (host.Value, Status) {
	return e.ec.Runtime.Global(), e.status(StatusOK)
}

func (e *Env) GetBoolean(b bool) (host.Value, Status) {
	return host.Boolean(b), e.status(StatusOK)
}

func (e *Env) CreateObject() (host.Value, Status) {
	return e.ec.Runtime.NewObject(), e.status(StatusOK)
}

func (e *Env) CreateStringUTF8(s string) (host.Value, Status) {
	return host.String(s), e.status(StatusOK)
}

func (e *Env) CreateInt32(v int32) (host.Value, Status) {
	return host.Number(v), e.status(StatusOK)
}

func (e *Env) CreateUint32(v uint32) (host.Value, Status) {
	return host.Number(v), e.status(StatusOK)
}

func (e *Env) CreateDouble(v float64) (host.Value, Status) {
	return host.Number(v), e.status(StatusOK)
}

// CreateError creates an error object without throwing it.
func (e *Env) CreateError(code, message host.Value) (host.Value, Status) {
	msg, ok := message.(host.String)
	if !ok {
		return nil, e.status(StatusStringExpected)
	}
	errObj := e.ec.Runtime.NewError(string(msg))
	if !host.IsNullish(code) {
		c, ok := code.(host.String)
		if !ok {
			return nil, e.status(StatusStringExpected)
		}
		_ = errObj.Set("code", c)
	}
	return errObj, e.status(StatusOK)
}

// CreateFunction wraps cb as a script function.
func (e *Env) CreateFunction(name string, cb Callback, data any) (host.Value, Status) {
	if cb == nil {
		return nil, e.status(StatusInvalidArg)
	}
	fn := e.ec.Runtime.NewFunction(name, func(this host.Value, args []host.Value) (host.Value, error) {
		result := cb(e, &CallbackInfo{This: this, Args: args, Data: data})
		if e.hasPending {
			exc, _ := e.GetAndClearLastException()
			return nil, &host.Exception{Value: exc}
		}
		if result == nil {
			return host.Undefined{}, nil
		}
		return result, nil
	})
	return fn, e.status(StatusOK)
}

// CallFunction calls fn with recv as this. A thrown exception becomes the
// env's pending exception and StatusPendingException is returned.
func (e *Env) CallFunction(recv, fn host.Value, args ...host.Value) (host.Value, Status) {
	if e.hasPending {
		return nil, e.status(StatusPendingException)
	}
	f, ok := fn.(host.Function)
	if !ok {
		return nil, e.status(StatusFunctionExpected)
	}
	v, err := f.Call(recv, args...)
	if err != nil {
		exc, ok := err.(*host.Exception)
		if !ok {
			exc = &host.Exception{Value: e.ec.Runtime.NewError(err.Error())}
		}
		e.pending = exc.Value
		e.hasPending = true
		return nil, e.status(StatusPendingException)
	}
	return v, e.status(StatusOK)
}

func (e *Env) TypeOf(v host.Value) (host.Kind, Status) {
	if v == nil {
		return 0, e.status(StatusInvalidArg)
	}
	return v.Kind(), e.status(StatusOK)
}

func (e *Env) GetValueInt32(v host.Value) (int32, Status) {
	n, ok := v.(host.Number)
	if !ok {
		return 0, e.status(StatusNumberExpected)
	}
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, e.status(StatusOK)
	}
	return int32(int64(f)), e.status(StatusOK)
}

func (e *Env) GetValueUint32(v host.Value) (uint32, Status) {
	n, ok := v.(host.Number)
	if !ok {
		return 0, e.status(StatusNumberExpected)
	}
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, e.status(StatusOK)
	}
	return uint32(int64(f)), e.status(StatusOK)
}

func (e *Env) GetValueDouble(v host.Value) (float64, Status) {
	n, ok := v.(host.Number)
	if !ok {
		return 0, e.status(StatusNumberExpected)
	}
	return float64(n), e.status(StatusOK)
}

func (e *Env) GetValueBool(v host.Value) (bool, Status) {
	b, ok := v.(host.Boolean)
	if !ok {
		return false, e.status(StatusBooleanExpected)
	}
	return bool(b), e.status(StatusOK)
}

func (e *Env) GetValueStringUTF8(v host.Value) (string, Status) {
	s, ok := v.(host.String)
	if !ok {
		return "", e.status(StatusStringExpected)
	}
	return string(s), e.status(StatusOK)
}

func (e *Env) SetNamedProperty(obj host.Value, name string, v host.Value) Status {
	o, ok := obj.(host.Object)
	if !ok {
		return e.status(StatusObjectExpected)
	}
	if v == nil {
		return e.status(StatusInvalidArg)
	}
	if err := o.Set(name, v); err != nil {
		return e.status(StatusGenericFailure)
	}
	return e.status(StatusOK)
}

// GetNamedProperty returns undefined for a missing property.
func (e *Env) GetNamedProperty(obj host.Value, name string) (host.Value, Status) {
	o, ok := obj.(host.Object)
	if !ok {
		return nil, e.status(StatusObjectExpected)
	}
	v, ok := o.Get(name)
	if !ok {
		return host.Undefined{}, e.status(StatusOK)
	}
	return v, e.status(StatusOK)
}

func (e *Env) HasNamedProperty(obj host.Value, name string) (bool, Status) {
	o, ok := obj.(host.Object)
	if !ok {
		return false, e.status(StatusObjectExpected)
	}
	return o.Has(name), e.status(StatusOK)
}

// CreateExternal wraps data. finalize, if set, runs when the wrapper is
// reclaimed by the engine.
func (e *Env) CreateExternal(data any, finalize Finalize, hint any) (host.Value, Status) {
	var fin func()
	if finalize != nil {
		fin = func() { finalize(e, data, hint) }
	}
	return e.ec.Runtime.NewExternal(data, fin), e.status(StatusOK)
}

func (e *Env) GetValueExternal(v host.Value) (any, Status) {
	ext, ok := v.(host.External)
	if !ok {
		return nil, e.status(StatusInvalidArg)
	}
	return ext.Data(), e.status(StatusOK)
}
