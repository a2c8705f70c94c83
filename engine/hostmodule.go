package engine

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/napi-host/host"
	"github.com/wippyai/napi-host/napi"
)

// HostModuleName is the import module addons link their ABI against.
const HostModuleName = "napi"

var (
	i32 = api.ValueTypeI32
	f64 = api.ValueTypeF64
)

type hostFunc struct {
	name    string
	fn      api.GoModuleFunc
	params  []api.ValueType
	results []api.ValueType
}

// hostFuncs lists the napi host module. Value-producing functions return a
// handle, 0 on failure; the rest return a napi status.
func (l *Loader) hostFuncs() []hostFunc {
	return []hostFunc{
		{"get_undefined", withEnv(0, func(_ context.Context, s *scope, _ api.Module, stack []uint64) {
			v, _ := s.env.GetUndefined()
			stack[0] = api.EncodeU32(s.put(v))
		}), nil, []api.ValueType{i32}},
		{"get_global", withEnv(0, func(_ context.Context, s *scope, _ api.Module, stack []uint64) {
			v, _ := s.env.GetGlobal()
			stack[0] = api.EncodeU32(s.put(v))
		}), nil, []api.ValueType{i32}},
		{"create_object", withEnv(0, func(_ context.Context, s *scope, _ api.Module, stack []uint64) {
			v, _ := s.env.CreateObject()
			stack[0] = api.EncodeU32(s.put(v))
		}), nil, []api.ValueType{i32}},
		{"create_string_utf8", withEnv(0, func(_ context.Context, s *scope, mod api.Module, stack []uint64) {
			str, ok := readString(mod, stack[0], stack[1])
			if !ok {
				stack[0] = 0
				return
			}
			v, _ := s.env.CreateStringUTF8(str)
			stack[0] = api.EncodeU32(s.put(v))
		}), []api.ValueType{i32, i32}, []api.ValueType{i32}},
		{"create_int32", withEnv(0, func(_ context.Context, s *scope, _ api.Module, stack []uint64) {
			v, _ := s.env.CreateInt32(api.DecodeI32(stack[0]))
			stack[0] = api.EncodeU32(s.put(v))
		}), []api.ValueType{i32}, []api.ValueType{i32}},
		{"create_double", withEnv(0, func(_ context.Context, s *scope, _ api.Module, stack []uint64) {
			v, _ := s.env.CreateDouble(api.DecodeF64(stack[0]))
			stack[0] = api.EncodeU32(s.put(v))
		}), []api.ValueType{f64}, []api.ValueType{i32}},
		{"get_value_int32", withEnv(0, func(_ context.Context, s *scope, _ api.Module, stack []uint64) {
			v, _ := s.get(api.DecodeU32(stack[0]))
			n, _ := s.env.GetValueInt32(v)
			stack[0] = api.EncodeI32(n)
		}), []api.ValueType{i32}, []api.ValueType{i32}},
		{"get_value_double", withEnv(0, func(_ context.Context, s *scope, _ api.Module, stack []uint64) {
			v, _ := s.get(api.DecodeU32(stack[0]))
			n, _ := s.env.GetValueDouble(v)
			stack[0] = api.EncodeF64(n)
		}), []api.ValueType{i32}, []api.ValueType{f64}},
		{"set_named_property", withEnv(invalidArg, func(_ context.Context, s *scope, mod api.Module, stack []uint64) {
			obj, _ := s.get(api.DecodeU32(stack[0]))
			name, ok := readString(mod, stack[1], stack[2])
			val, _ := s.get(api.DecodeU32(stack[3]))
			if !ok || val == nil {
				stack[0] = statusResult(napi.StatusInvalidArg)
				return
			}
			stack[0] = statusResult(s.env.SetNamedProperty(obj, name, val))
		}), []api.ValueType{i32, i32, i32, i32}, []api.ValueType{i32}},
		{"get_named_property", withEnv(0, func(_ context.Context, s *scope, mod api.Module, stack []uint64) {
			obj, _ := s.get(api.DecodeU32(stack[0]))
			name, ok := readString(mod, stack[1], stack[2])
			if !ok {
				stack[0] = 0
				return
			}
			v, st := s.env.GetNamedProperty(obj, name)
			if st != napi.StatusOK {
				stack[0] = 0
				return
			}
			stack[0] = api.EncodeU32(s.put(v))
		}), []api.ValueType{i32, i32, i32}, []api.ValueType{i32}},
		{"create_function", withEnv(0, func(ctx context.Context, s *scope, mod api.Module, stack []uint64) {
			name, ok1 := readString(mod, stack[0], stack[1])
			export, ok2 := readString(mod, stack[2], stack[3])
			lib := l.libraryOf(ctx, mod)
			if !ok1 || !ok2 || lib == nil {
				stack[0] = 0
				return
			}
			v, st := s.env.CreateFunction(name, lib.callback(export), nil)
			if st != napi.StatusOK {
				stack[0] = 0
				return
			}
			stack[0] = api.EncodeU32(s.put(v))
		}), []api.ValueType{i32, i32, i32, i32}, []api.ValueType{i32}},
		{"get_argc", withEnv(0, func(_ context.Context, s *scope, _ api.Module, stack []uint64) {
			if s.info == nil {
				stack[0] = 0
				return
			}
			stack[0] = api.EncodeU32(uint32(len(s.info.Args)))
		}), nil, []api.ValueType{i32}},
		{"get_arg", withEnv(0, func(_ context.Context, s *scope, _ api.Module, stack []uint64) {
			i := int(api.DecodeU32(stack[0]))
			if s.info == nil || i >= len(s.info.Args) {
				v, _ := s.env.GetUndefined()
				stack[0] = api.EncodeU32(s.put(v))
				return
			}
			stack[0] = api.EncodeU32(s.put(s.info.Args[i]))
		}), []api.ValueType{i32}, []api.ValueType{i32}},
		{"get_this", withEnv(0, func(_ context.Context, s *scope, _ api.Module, stack []uint64) {
			var this host.Value = host.Undefined{}
			if s.info != nil && s.info.This != nil {
				this = s.info.This
			}
			stack[0] = api.EncodeU32(s.put(this))
		}), nil, []api.ValueType{i32}},
		{"throw_error", withEnv(invalidArg, func(_ context.Context, s *scope, mod api.Module, stack []uint64) {
			msg, ok := readString(mod, stack[0], stack[1])
			if !ok {
				stack[0] = statusResult(napi.StatusInvalidArg)
				return
			}
			stack[0] = statusResult(s.env.ThrowError("", msg))
		}), []api.ValueType{i32, i32}, []api.ValueType{i32}},
		{"create_buffer_copy", withEnv(0, func(_ context.Context, s *scope, mod api.Module, stack []uint64) {
			data, ok := readBytes(mod, stack[0], stack[1])
			if !ok {
				stack[0] = 0
				return
			}
			_, v, st := s.env.CreateBufferCopy(data)
			if st != napi.StatusOK {
				stack[0] = 0
				return
			}
			stack[0] = api.EncodeU32(s.put(v))
		}), []api.ValueType{i32, i32}, []api.ValueType{i32}},
		{"module_register", l.moduleRegister, []api.ValueType{i32, i32}, []api.ValueType{i32}},
	}
}

// moduleRegister records a legacy registration naming an exported
// (env, exports) -> exports function. It returns 1 when accepted.
func (l *Loader) moduleRegister(ctx context.Context, mod api.Module, stack []uint64) {
	export, ok := readString(mod, stack[0], stack[1])
	lib := l.libraryOf(ctx, mod)
	handler := l.legacyHandler()
	if !ok || lib == nil || handler == nil {
		Logger().Warn("module_register ignored",
			zap.String("export", export), zap.Bool("handler", handler != nil))
		stack[0] = 0
		return
	}
	if fn := mod.ExportedFunction(export); fn == nil || !callSig.matches(fn) {
		Logger().Warn("module_register names an unusable export",
			zap.String("path", lib.path), zap.String("export", export))
		stack[0] = 0
		return
	}
	owner := ""
	if ls := loadFrom(ctx); ls != nil {
		owner = ls.path
	}
	if handler(lib.registerFunc(export), export, owner) {
		stack[0] = 1
	} else {
		stack[0] = 0
	}
}

func (l *Loader) instantiateHostModule(ctx context.Context, r wazero.Runtime) error {
	builder := r.NewHostModuleBuilder(HostModuleName)
	for _, hf := range l.hostFuncs() {
		builder = builder.NewFunctionBuilder().
			WithGoModuleFunction(hf.fn, hf.params, hf.results).
			Export(hf.name)
	}
	_, err := builder.Instantiate(ctx)
	return err
}

var invalidArg = statusResult(napi.StatusInvalidArg)

// withEnv runs fn with the active call scope. Outside a call the result is
// fail.
func withEnv(fail uint64, fn func(ctx context.Context, s *scope, mod api.Module, stack []uint64)) api.GoModuleFunc {
	return func(ctx context.Context, mod api.Module, stack []uint64) {
		s := scopeFrom(ctx)
		if s == nil || s.env == nil {
			Logger().Debug("napi host call outside of a scope")
			if len(stack) > 0 {
				stack[0] = fail
			}
			return
		}
		fn(ctx, s, mod, stack)
	}
}

func statusResult(s napi.Status) uint64 {
	return api.EncodeI32(int32(s))
}

func readBytes(mod api.Module, ptr, length uint64) ([]byte, bool) {
	mem := mod.Memory()
	if mem == nil {
		return nil, false
	}
	return mem.Read(api.DecodeU32(ptr), api.DecodeU32(length))
}

func readString(mod api.Module, ptr, length uint64) (string, bool) {
	b, ok := readBytes(mod, ptr, length)
	if !ok {
		return "", false
	}
	return string(b), true
}
