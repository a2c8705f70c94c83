package engine

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"sync/atomic"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	"github.com/wippyai/napi-host/dynlib"
	"github.com/wippyai/napi-host/napi"
)

// LegacyHandler receives registrations made by module initializers through
// napi.module_register. registry.Registry.HandleLegacyRegistration has
// this signature.
type LegacyHandler func(callback napi.RegisterFunc, symbol, owner string) bool

// Config holds configuration for loader creation
type Config struct {
	// MemoryLimitPages sets the maximum memory per addon in pages (64KB each).
	// 0 means default (65536 pages = 4GB).
	MemoryLimitPages uint32

	// CacheDir persists compiled modules across processes. Empty keeps the
	// compilation cache in memory.
	CacheDir string

	// EnableWASI links wasi_snapshot_preview1 for addons built with a WASI
	// toolchain.
	EnableWASI bool

	// LegacyHandler receives module_register calls. It can also be set
	// later with SetLegacyHandler.
	LegacyHandler LegacyHandler
}

// Loader implements dynlib.Loader for WebAssembly addons. All addons share
// one wazero runtime and compilation cache.
type Loader struct {
	runtime wazero.Runtime
	cache   wazero.CompilationCache
	legacy  atomic.Pointer[LegacyHandler]

	mu       sync.RWMutex
	byModule map[api.Module]*library
	closed   bool
}

var _ dynlib.Loader = (*Loader)(nil)

// NewLoader creates a loader and links the napi host module.
func NewLoader(ctx context.Context, cfg *Config) (*Loader, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	var cache wazero.CompilationCache
	if cfg.CacheDir != "" {
		c, err := wazero.NewCompilationCacheWithDir(cfg.CacheDir)
		if err != nil {
			return nil, fmt.Errorf("open compilation cache: %w", err)
		}
		cache = c
	} else {
		cache = wazero.NewCompilationCache()
	}

	runtimeCfg := wazero.NewRuntimeConfig().WithCompilationCache(cache)
	if cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	r := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)

	l := &Loader{
		runtime:  r,
		cache:    cache,
		byModule: make(map[api.Module]*library),
	}
	if cfg.LegacyHandler != nil {
		l.SetLegacyHandler(cfg.LegacyHandler)
	}

	if err := l.instantiateHostModule(ctx, r); err != nil {
		_ = r.Close(ctx)
		return nil, fmt.Errorf("instantiate %s host module: %w", HostModuleName, err)
	}
	if cfg.EnableWASI {
		if _, err := wasi_snapshot_preview1.Instantiate(ctx, r); err != nil {
			_ = r.Close(ctx)
			return nil, fmt.Errorf("instantiate WASI: %w", err)
		}
	}
	return l, nil
}

// SetLegacyHandler installs the receiver for module_register calls.
func (l *Loader) SetLegacyHandler(h LegacyHandler) {
	if h == nil {
		l.legacy.Store(nil)
		return
	}
	l.legacy.Store(&h)
}

func (l *Loader) legacyHandler() LegacyHandler {
	if p := l.legacy.Load(); p != nil {
		return *p
	}
	return nil
}

// Load reads, compiles and instantiates the addon at path.
func (l *Loader) Load(ctx context.Context, path string) (dynlib.Library, error) {
	wasmBytes, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", dynlib.ErrNotFound, path)
		}
		return nil, err
	}
	return l.LoadBytes(ctx, path, wasmBytes)
}

// LoadBytes instantiates an addon from memory. path identifies the
// library for legacy registration and logging.
//
// An exported _initialize function runs during instantiation, and may
// call module_register.
func (l *Loader) LoadBytes(ctx context.Context, path string, wasmBytes []byte) (dynlib.Library, error) {
	l.mu.RLock()
	closed := l.closed
	l.mu.RUnlock()
	if closed {
		return nil, fmt.Errorf("load %s: loader closed", path)
	}

	compiled, err := l.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", path, err)
	}

	lib := &library{path: path}
	modCfg := wazero.NewModuleConfig().
		WithName("").
		WithStartFunctions("_initialize")

	mod, err := l.runtime.InstantiateModule(withLoad(ctx, &loadState{path: path, lib: lib}), compiled, modCfg)
	if err != nil {
		return nil, fmt.Errorf("instantiate %s: %w", path, err)
	}
	lib.mod = mod
	if err := l.index(ctx, lib); err != nil {
		return nil, err
	}

	Logger().Debug("wasm addon instantiated",
		zap.String("path", path),
		zap.Int("exports", len(compiled.ExportedFunctions())))
	return lib, nil
}

// index makes lib findable from host calls. A Close that raced with the
// instantiation wins: the module is closed and the load fails.
func (l *Loader) index(ctx context.Context, lib *library) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		_ = lib.mod.Close(ctx)
		return fmt.Errorf("load %s: loader closed", lib.path)
	}
	l.byModule[lib.mod] = lib
	l.mu.Unlock()
	return nil
}

// libraryOf finds the library a host call came from. During
// instantiation the module is not yet indexed, so the load state is used.
func (l *Loader) libraryOf(ctx context.Context, mod api.Module) *library {
	if ls := loadFrom(ctx); ls != nil {
		if ls.lib.mod == nil {
			ls.lib.mod = mod
		}
		return ls.lib
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.byModule[mod]
}

// Close releases every addon and the compilation cache.
func (l *Loader) Close(ctx context.Context) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.byModule = nil
	l.mu.Unlock()

	err := l.runtime.Close(ctx)
	if cerr := l.cache.Close(ctx); err == nil {
		err = cerr
	}
	return err
}
