package engine

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/napi-host/host"
	"github.com/wippyai/napi-host/napi"
)

// library is an instantiated wasm addon. Calls into the module are
// serialized because a module instance has one stack and one memory.
type library struct {
	path string
	mu   sync.Mutex
	mod  api.Module
}

func (l *library) Path() string { return l.path }

// Symbol adapts the v1 registration exports into their napi function
// types. Any other exported function is returned as an api.Function. A v1
// export with the wrong wasm signature is returned as a *SignatureError.
func (l *library) Symbol(name string) (any, bool) {
	fn := l.mod.ExportedFunction(name)
	if fn == nil {
		return nil, false
	}
	switch name {
	case napi.SymbolRegisterModuleV1:
		if !callSig.matches(fn) {
			return l.signatureError(name, callSig, fn), true
		}
		return l.registerFunc(name), true
	case napi.SymbolGetAPIVersionV1:
		if !versionSig.matches(fn) {
			return l.signatureError(name, versionSig, fn), true
		}
		return l.apiVersionFunc(fn), true
	default:
		return fn, true
	}
}

func (l *library) Close() error {
	return l.mod.Close(context.Background())
}

func (l *library) call(ctx context.Context, fn api.Function, params ...uint64) ([]uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn.Call(ctx, params...)
}

// export looks up a (env, value) -> value export, throwing into env when
// it is missing or has another signature.
func (l *library) export(env *napi.Env, name string) api.Function {
	fn := l.mod.ExportedFunction(name)
	if fn == nil {
		env.ThrowError("", fmt.Sprintf("%s: export %q not found", l.path, name))
		return nil
	}
	if !callSig.matches(fn) {
		err := l.signatureError(name, callSig, fn)
		Logger().Warn("export has wrong signature", zap.String("path", l.path), zap.Error(err))
		env.ThrowError("", err.Error())
		return nil
	}
	return fn
}

// invoke calls fn with (0, arg) in scope s and returns the value behind the
// returned handle.
func (l *library) invoke(env *napi.Env, s *scope, name string, fn api.Function, arg Handle) host.Value {
	results, err := l.call(withScope(context.Background(), s), fn, 0, uint64(arg))
	if err != nil {
		Logger().Warn("addon function trapped",
			zap.String("path", l.path), zap.String("export", name), zap.Error(err))
		env.ThrowError("", err.Error())
		return nil
	}
	if len(results) == 0 {
		env.ThrowError("", fmt.Sprintf("%s: export %q returned no value", l.path, name))
		return nil
	}
	v, _ := s.get(Handle(results[0]))
	return v
}

// registerFunc adapts an export of type (env i32, exports i32) -> i32. The
// export is looked up on each call so registrations made while the module
// is still initializing resolve once it is ready.
func (l *library) registerFunc(export string) napi.RegisterFunc {
	return func(env *napi.Env, exports host.Value) host.Value {
		fn := l.export(env, export)
		if fn == nil {
			return nil
		}
		s := newScope(env, nil)
		return l.invoke(env, s, export, fn, s.put(exports))
	}
}

func (l *library) apiVersionFunc(fn api.Function) napi.APIVersionFunc {
	return func() int32 {
		results, err := l.call(context.Background(), fn)
		if err != nil || len(results) == 0 {
			Logger().Warn("api version function failed", zap.String("path", l.path), zap.Error(err))
			return 0
		}
		return int32(results[0])
	}
}

// callback adapts an export of type (env i32, info i32) -> i32 into a
// native function callback.
func (l *library) callback(export string) napi.Callback {
	return func(env *napi.Env, info *napi.CallbackInfo) host.Value {
		fn := l.export(env, export)
		if fn == nil {
			return nil
		}
		return l.invoke(env, newScope(env, info), export, fn, 0)
	}
}

// SignatureError reports an addon export whose wasm type does not match
// the ABI.
type SignatureError struct {
	Path   string
	Export string
	Want   string
	Got    string
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("%s: export %q has signature %s, want %s", e.Path, e.Export, e.Got, e.Want)
}

func (l *library) signatureError(name string, want signature, fn api.Function) *SignatureError {
	def := fn.Definition()
	return &SignatureError{
		Path:   l.path,
		Export: name,
		Want:   want.String(),
		Got:    signature{def.ParamTypes(), def.ResultTypes()}.String(),
	}
}

type signature struct {
	params  []api.ValueType
	results []api.ValueType
}

var (
	callSig    = signature{[]api.ValueType{i32, i32}, []api.ValueType{i32}}
	versionSig = signature{nil, []api.ValueType{i32}}
)

func (s signature) matches(fn api.Function) bool {
	def := fn.Definition()
	return slices.Equal(def.ParamTypes(), s.params) && slices.Equal(def.ResultTypes(), s.results)
}

func (s signature) String() string {
	return "(" + typeNames(s.params) + ") -> (" + typeNames(s.results) + ")"
}

func typeNames(types []api.ValueType) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = api.ValueTypeName(t)
	}
	return strings.Join(names, ", ")
}
