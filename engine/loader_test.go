package engine

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wippyai/napi-host/async"
	"github.com/wippyai/napi-host/dynlib"
	"github.com/wippyai/napi-host/errors"
	"github.com/wippyai/napi-host/host"
	"github.com/wippyai/napi-host/host/memhost"
	"github.com/wippyai/napi-host/napi"
	"github.com/wippyai/napi-host/registry"
)

var (
	sigI32toI32 = sig{[]byte{valI32}, []byte{valI32}}
	sigI32x2    = sig{[]byte{valI32, valI32}, []byte{valI32}}
	sigI32x4    = sig{[]byte{valI32, valI32, valI32, valI32}, []byte{valI32}}
	sigToI32    = sig{nil, []byte{valI32}}
	sigVoid     = sig{}
)

const v1Data = "answer" + "greet" + "fail" + "boom"

func at(s string) int32 { return int32(strings.Index(v1Data, s)) }

// v1Addon exports napi_register_module_v1, which sets exports.answer = 42,
// exports.greet (returns its first argument plus one) and exports.fail
// (throws "boom"). Its API version is 9.
func v1Addon() []byte {
	const (
		createInt32 = iota
		setNamed
		createString
		createFunction
		getArg
		getInt32
		throwError
	)
	imports := []wasmImport{
		{"create_int32", sigI32toI32},
		{"set_named_property", sigI32x4},
		{"create_string_utf8", sigI32x2},
		{"create_function", sigI32x4},
		{"get_arg", sigI32toI32},
		{"get_value_int32", sigI32toI32},
		{"throw_error", sigI32x2},
	}
	setFunction := func(name string) []byte {
		n := int32(len(name))
		return code(localGet(1), i32c(at(name)), i32c(n),
			i32c(at(name)), i32c(n), i32c(at(name)), i32c(n), call(createFunction),
			call(setNamed), []byte{opDrop})
	}
	funcs := []wasmFunc{
		{napi.SymbolRegisterModuleV1, sigI32x2, code(
			localGet(1), i32c(at("answer")), i32c(6), i32c(42), call(createInt32), call(setNamed), []byte{opDrop},
			setFunction("greet"),
			setFunction("fail"),
			localGet(1),
		)},
		{napi.SymbolGetAPIVersionV1, sigToI32, i32c(9)},
		{"greet", sigI32x2, code(
			i32c(0), call(getArg), call(getInt32), i32c(1), []byte{opI32Add}, call(createInt32),
		)},
		{"fail", sigI32x2, code(
			i32c(at("boom")), i32c(4), call(throwError), []byte{opDrop}, i32c(0),
		)},
	}
	return buildModule(imports, funcs, v1Data)
}

// legacyAddon registers its "init" export from _initialize. init sets
// exports.v = 7.
func legacyAddon() []byte {
	const (
		moduleRegister = iota
		createInt32
		setNamed
	)
	imports := []wasmImport{
		{"module_register", sigI32x2},
		{"create_int32", sigI32toI32},
		{"set_named_property", sigI32x4},
	}
	funcs := []wasmFunc{
		{"_initialize", sigVoid, code(i32c(0), i32c(4), call(moduleRegister), []byte{opDrop})},
		{"init", sigI32x2, code(
			localGet(1), i32c(4), i32c(1), i32c(7), call(createInt32), call(setNamed), []byte{opDrop},
			localGet(1),
		)},
	}
	return buildModule(imports, funcs, "init"+"v")
}

func newLoader(t *testing.T, cfg *Config) *Loader {
	t.Helper()
	l, err := NewLoader(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewLoader failed: %v", err)
	}
	t.Cleanup(func() { _ = l.Close(context.Background()) })
	return l
}

func newEnv(t *testing.T) (*napi.Env, *napi.EngineContext) {
	t.Helper()
	rt := memhost.New()
	sched := async.NewScheduler()
	ec := &napi.EngineContext{Runtime: rt, Invoker: &host.QueueInvoker{}, Scheduler: sched}
	t.Cleanup(func() {
		ec.Close()
		_ = sched.Close()
		_ = rt.Close()
	})
	env, err := ec.NewEnv(napi.DefaultModuleAPIVersion)
	if err != nil {
		t.Fatalf("NewEnv failed: %v", err)
	}
	return env, ec
}

func TestLoadBytes_V1Registration(t *testing.T) {
	l := newLoader(t, nil)
	lib, err := l.LoadBytes(context.Background(), "v1.wasm", v1Addon())
	if err != nil {
		t.Fatalf("LoadBytes failed: %v", err)
	}
	if lib.Path() != "v1.wasm" {
		t.Errorf("Path() = %q", lib.Path())
	}

	sym, ok := lib.Symbol(napi.SymbolGetAPIVersionV1)
	if !ok {
		t.Fatal("version symbol missing")
	}
	if v := sym.(napi.APIVersionFunc)(); v != 9 {
		t.Errorf("api version = %d, want 9", v)
	}

	sym, ok = lib.Symbol(napi.SymbolRegisterModuleV1)
	if !ok {
		t.Fatal("register symbol missing")
	}
	env, ec := newEnv(t)
	exports := ec.Runtime.NewObject()
	result := sym.(napi.RegisterFunc)(env, exports)
	if result != exports {
		t.Fatalf("register returned %v, want the exports object", result)
	}
	if env.IsExceptionPending() {
		t.Fatal("unexpected pending exception")
	}

	answer, _ := exports.Get("answer")
	if answer != host.Number(42) {
		t.Errorf("answer = %v, want 42", answer)
	}

	greetV, _ := exports.Get("greet")
	greet, ok := greetV.(host.Function)
	if !ok {
		t.Fatalf("greet is %T", greetV)
	}
	got, err := greet.Call(nil, host.Number(4))
	if err != nil {
		t.Fatalf("greet failed: %v", err)
	}
	if got != host.Number(5) {
		t.Errorf("greet(4) = %v, want 5", got)
	}

	failV, _ := exports.Get("fail")
	_, err = failV.(host.Function).Call(nil)
	var exc *host.Exception
	if !stderrors.As(err, &exc) {
		t.Fatalf("fail error = %v, want exception", err)
	}
	if !strings.Contains(exc.Error(), "boom") {
		t.Errorf("exception = %q, want boom", exc.Error())
	}
}

func TestLoadBytes_UnknownSymbol(t *testing.T) {
	l := newLoader(t, nil)
	lib, err := l.LoadBytes(context.Background(), "v1.wasm", v1Addon())
	if err != nil {
		t.Fatalf("LoadBytes failed: %v", err)
	}
	if _, ok := lib.Symbol("napi_register_module_v2"); ok {
		t.Error("unexpected symbol")
	}
	if _, ok := lib.Symbol("greet"); !ok {
		t.Error("plain exports should be visible")
	}
}

func TestLoadBytes_LegacyRegistration(t *testing.T) {
	var (
		gotCallback napi.RegisterFunc
		gotSymbol   string
		gotOwner    string
	)
	l := newLoader(t, &Config{LegacyHandler: func(cb napi.RegisterFunc, symbol, owner string) bool {
		gotCallback, gotSymbol, gotOwner = cb, symbol, owner
		return true
	}})

	if _, err := l.LoadBytes(context.Background(), "legacy.wasm", legacyAddon()); err != nil {
		t.Fatalf("LoadBytes failed: %v", err)
	}
	if gotCallback == nil {
		t.Fatal("module_register was not reported")
	}
	if gotSymbol != "init" || gotOwner != "legacy.wasm" {
		t.Errorf("symbol=%q owner=%q", gotSymbol, gotOwner)
	}

	env, ec := newEnv(t)
	exports := ec.Runtime.NewObject()
	gotCallback(env, exports)
	v, _ := exports.Get("v")
	if v != host.Number(7) {
		t.Errorf("v = %v, want 7", v)
	}
}

func TestLoadBytes_LegacyWithoutHandler(t *testing.T) {
	l := newLoader(t, nil)
	if _, err := l.LoadBytes(context.Background(), "legacy.wasm", legacyAddon()); err != nil {
		t.Fatalf("LoadBytes failed: %v", err)
	}
}

func TestLoadBytes_InvalidBinary(t *testing.T) {
	l := newLoader(t, nil)
	if _, err := l.LoadBytes(context.Background(), "bad.wasm", []byte("not wasm")); err == nil {
		t.Error("expected compile error")
	}
}

func TestLoad_Missing(t *testing.T) {
	l := newLoader(t, nil)
	_, err := l.Load(context.Background(), filepath.Join(t.TempDir(), "absent.wasm"))
	if !stderrors.Is(err, dynlib.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestLoad_AfterClose(t *testing.T) {
	l, err := NewLoader(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Close(context.Background()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := l.Close(context.Background()); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	if _, err := l.LoadBytes(context.Background(), "v1.wasm", v1Addon()); err == nil {
		t.Error("expected error after close")
	}
}

func TestLoad_CloseDuringInstantiate(t *testing.T) {
	ctx := context.Background()
	l, err := NewLoader(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	loaded, err := l.LoadBytes(ctx, "v1.wasm", v1Addon())
	if err != nil {
		t.Fatalf("LoadBytes failed: %v", err)
	}
	lib := loaded.(*library)

	if err := l.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	// the module finished instantiating after Close took the index away
	if err := l.index(ctx, lib); err == nil {
		t.Fatal("expected index to fail once the loader is closed")
	}
	if got := l.libraryOf(ctx, lib.mod); got != nil {
		t.Errorf("closed loader still resolves %q", got.path)
	}
}

func TestLoader_CompilationCacheDir(t *testing.T) {
	dir := t.TempDir()
	l := newLoader(t, &Config{CacheDir: dir, MemoryLimitPages: 16})
	if _, err := l.LoadBytes(context.Background(), "v1.wasm", v1Addon()); err != nil {
		t.Fatalf("LoadBytes failed: %v", err)
	}
}

func TestRegistry_WasmAddons(t *testing.T) {
	dir := t.TempDir()
	layout := dynlib.Layout{Dir: dir, Format: dynlib.FormatWasm}
	write := func(pkg, subpath string, wasm []byte) {
		if err := os.WriteFile(layout.LibraryPath(pkg, subpath), wasm, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("calc", "./v1.node", v1Addon())
	write("old", "./legacy.node", legacyAddon())

	l := newLoader(t, &Config{EnableWASI: true})
	reg := registry.New(l, registry.WithLayout(layout))
	l.SetLegacyHandler(reg.HandleLegacyRegistration)
	_, ec := newEnv(t)
	ctx := context.Background()

	addon, err := reg.LoadAddon(ctx, "calc", "./v1.node")
	if err != nil {
		t.Fatalf("LoadAddon v1 failed: %v", err)
	}
	if addon.APIVersion != 9 {
		t.Errorf("APIVersion = %d, want 9", addon.APIVersion)
	}
	exports, err := instantiate(ctx, reg, ec, addon)
	if err != nil {
		t.Fatalf("instantiate v1 failed: %v", err)
	}
	answer, _ := exports.(host.Object).Get("answer")
	if answer != host.Number(42) {
		t.Errorf("answer = %v", answer)
	}

	legacy, err := reg.LoadAddon(ctx, "old", "./legacy.node")
	if err != nil {
		t.Fatalf("LoadAddon legacy failed: %v", err)
	}
	exports, err = instantiate(ctx, reg, ec, legacy)
	if err != nil {
		t.Fatalf("instantiate legacy failed: %v", err)
	}
	v, _ := exports.(host.Object).Get("v")
	if v != host.Number(7) {
		t.Errorf("v = %v, want 7", v)
	}
}

func instantiate(ctx context.Context, reg *registry.Registry, ec *napi.EngineContext, addon *registry.Addon) (host.Value, error) {
	desc, err := reg.InstantiateAddonInRuntime(ctx, ec, addon)
	if err != nil {
		return nil, err
	}
	return registry.DescriptorExports(desc)
}

var sigI32x2Void = sig{[]byte{valI32, valI32}, nil}

func TestLoadBytes_WrongSignatures(t *testing.T) {
	funcs := []wasmFunc{
		{napi.SymbolRegisterModuleV1, sigI32x2Void, code()},
		{napi.SymbolGetAPIVersionV1, sigI32toI32, localGet(0)},
	}
	wasm := buildModule(nil, funcs, "")

	l := newLoader(t, nil)
	lib, err := l.LoadBytes(context.Background(), "odd.wasm", wasm)
	if err != nil {
		t.Fatalf("LoadBytes failed: %v", err)
	}
	for _, name := range []string{napi.SymbolRegisterModuleV1, napi.SymbolGetAPIVersionV1} {
		sym, ok := lib.Symbol(name)
		if !ok {
			t.Fatalf("%s missing", name)
		}
		var sigErr *SignatureError
		if err, isErr := sym.(error); !isErr || !stderrors.As(err, &sigErr) {
			t.Fatalf("%s = %T, want *SignatureError", name, sym)
		}
		if sigErr.Export != name {
			t.Errorf("Export = %q, want %q", sigErr.Export, name)
		}
	}

	dir := t.TempDir()
	layout := dynlib.Layout{Dir: dir, Format: dynlib.FormatWasm}
	if err := os.WriteFile(layout.LibraryPath("odd", "./addon.node"), wasm, 0o644); err != nil {
		t.Fatal(err)
	}
	reg := registry.New(l, registry.WithLayout(layout))
	_, err = reg.LoadAddon(context.Background(), "odd", "./addon.node")
	if !errors.Is(err, errors.ErrLoadFailure) {
		t.Fatalf("LoadAddon err = %v, want load failure", err)
	}
	if !strings.Contains(err.Error(), "has signature") {
		t.Errorf("error %q does not name the signature", err)
	}
}

func TestCallback_WrongSignature(t *testing.T) {
	const (
		createFunction = iota
		setNamed
	)
	imports := []wasmImport{
		{"create_function", sigI32x4},
		{"set_named_property", sigI32x4},
	}
	funcs := []wasmFunc{
		{napi.SymbolRegisterModuleV1, sigI32x2, code(
			localGet(1), i32c(0), i32c(3),
			i32c(0), i32c(3), i32c(0), i32c(3), call(createFunction),
			call(setNamed), []byte{opDrop},
			localGet(1),
		)},
		{"bad", sigI32x2Void, code()},
	}

	l := newLoader(t, nil)
	lib, err := l.LoadBytes(context.Background(), "bad.wasm", buildModule(imports, funcs, "bad"))
	if err != nil {
		t.Fatalf("LoadBytes failed: %v", err)
	}
	sym, _ := lib.Symbol(napi.SymbolRegisterModuleV1)
	env, ec := newEnv(t)
	exports := ec.Runtime.NewObject()
	sym.(napi.RegisterFunc)(env, exports)
	if env.IsExceptionPending() {
		t.Fatal("unexpected pending exception during registration")
	}

	badV, ok := exports.Get("bad")
	if !ok {
		t.Fatal("bad was not exported")
	}
	_, err = badV.(host.Function).Call(nil)
	var exc *host.Exception
	if !stderrors.As(err, &exc) {
		t.Fatalf("call error = %v, want exception", err)
	}
	if !strings.Contains(exc.Error(), "has signature") {
		t.Errorf("exception = %q", exc.Error())
	}
}

func TestLegacyRegistration_WrongSignature(t *testing.T) {
	imports := []wasmImport{{"module_register", sigI32x2}}
	funcs := []wasmFunc{
		{"_initialize", sigVoid, code(i32c(0), i32c(4), call(0), []byte{opDrop})},
		{"init", sigI32x2Void, code()},
	}
	called := false
	l := newLoader(t, &Config{LegacyHandler: func(napi.RegisterFunc, string, string) bool {
		called = true
		return true
	}})
	if _, err := l.LoadBytes(context.Background(), "legacy.wasm", buildModule(imports, funcs, "init")); err != nil {
		t.Fatalf("LoadBytes failed: %v", err)
	}
	if called {
		t.Error("a register export with the wrong signature was reported")
	}
}
