package dynlib

import (
	"context"
	"fmt"
	"os"
	"plugin"
	"strings"
	"sync"
	"unicode"
)

// PluginLoader opens Go plugins built with -buildmode=plugin.
//
// Go plugins export Go identifiers, so a C-style symbol such as
// napi_register_module_v1 is looked up as NapiRegisterModuleV1 first and
// under its literal name second.
type PluginLoader struct {
	mu   sync.Mutex
	libs map[string]*pluginLibrary
}

// NewPluginLoader creates a plugin loader.
func NewPluginLoader() *PluginLoader {
	return &PluginLoader{libs: make(map[string]*pluginLibrary)}
}

// Load opens the plugin at path. Opening the same path twice returns the
// same library; the Go runtime never loads a plugin twice.
func (l *PluginLoader) Load(ctx context.Context, path string) (Library, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if lib, ok := l.libs[path]; ok {
		return lib, nil
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}
	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open plugin %s: %w", path, err)
	}
	lib := &pluginLibrary{path: path, p: p}
	l.libs[path] = lib
	return lib, nil
}

type pluginLibrary struct {
	path string
	p    *plugin.Plugin
}

func (l *pluginLibrary) Path() string { return l.path }

func (l *pluginLibrary) Symbol(name string) (any, bool) {
	for _, candidate := range []string{ExportName(name), name} {
		if sym, err := l.p.Lookup(candidate); err == nil {
			return sym, true
		}
	}
	return nil, false
}

func (l *pluginLibrary) Close() error { return nil }

// ExportName converts a snake_case C symbol into an exported Go identifier.
func ExportName(symbol string) string {
	var b strings.Builder
	upper := true
	for _, r := range symbol {
		if r == '_' {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
