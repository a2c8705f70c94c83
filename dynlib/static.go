package dynlib

import (
	"context"
	"fmt"
	"sync"
)

// StaticLibrary describes a library compiled into the host binary.
type StaticLibrary struct {
	// Symbols maps C symbol names to Go values.
	Symbols map[string]any
	// Init runs each time the library is opened, like a shared object's
	// static constructors. It may call back into the host.
	Init func(path string)
}

// StaticLoader serves libraries registered in-process under a path.
type StaticLoader struct {
	mu    sync.Mutex
	libs  map[string]StaticLibrary
	opens map[string]int
}

// NewStaticLoader creates an empty static loader.
func NewStaticLoader() *StaticLoader {
	return &StaticLoader{
		libs:  make(map[string]StaticLibrary),
		opens: make(map[string]int),
	}
}

// Register makes lib loadable at path, replacing any earlier entry.
func (l *StaticLoader) Register(path string, lib StaticLibrary) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.libs[path] = lib
}

// Load opens the library registered at path and runs its Init hook.
func (l *StaticLoader) Load(ctx context.Context, path string) (Library, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	lib, ok := l.libs[path]
	if ok {
		l.opens[path]++
	}
	l.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	// Init runs unlocked: it may register legacy modules that call back
	// into the registry, which may in turn consult this loader.
	if lib.Init != nil {
		lib.Init(path)
	}
	return &staticHandle{path: path, symbols: lib.Symbols}, nil
}

// Opens returns how many times path was opened.
func (l *StaticLoader) Opens(path string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.opens[path]
}

type staticHandle struct {
	path    string
	symbols map[string]any
}

func (h *staticHandle) Path() string { return h.path }

func (h *staticHandle) Symbol(name string) (any, bool) {
	sym, ok := h.symbols[name]
	return sym, ok
}

func (h *staticHandle) Close() error { return nil }
