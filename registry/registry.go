package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/napi-host/dynlib"
	"github.com/wippyai/napi-host/errors"
	"github.com/wippyai/napi-host/host"
	"github.com/wippyai/napi-host/metrics"
	"github.com/wippyai/napi-host/napi"
)

// Registry is the process-wide table of native addons. Lookups are
// concurrent; loading and registration reconciliation run one at a time.
type Registry struct {
	loader         dynlib.Loader
	layout         dynlib.Layout
	defaultVersion int32
	recorder       metrics.Recorder

	mu     sync.RWMutex
	addons map[string]*Addon

	// loadMu serializes the open-and-reconcile sequence.
	loadMu sync.Mutex

	// legacyMu guards the pending legacy record. It is separate from
	// loadMu because library initializers call HandleLegacyRegistration
	// while a load holds loadMu.
	legacyMu    sync.Mutex
	pending     *LegacyRecord
	loadSeq     uint64
	currentLoad uint64
}

// Option configures a Registry.
type Option func(*Registry)

// WithLayout sets how addon identities map to library paths.
func WithLayout(l dynlib.Layout) Option {
	return func(r *Registry) { r.layout = l }
}

// WithDefaultAPIVersion sets the version assumed for addons that do not
// export one.
func WithDefaultAPIVersion(v int32) Option {
	return func(r *Registry) { r.defaultVersion = v }
}

// WithRecorder reports load and instantiation outcomes to rec.
func WithRecorder(rec metrics.Recorder) Option {
	return func(r *Registry) {
		if rec != nil {
			r.recorder = rec
		}
	}
}

// New creates a registry opening libraries through loader.
func New(loader dynlib.Loader, opts ...Option) *Registry {
	r := &Registry{
		loader:         loader,
		defaultVersion: napi.DefaultModuleAPIVersion,
		recorder:       metrics.Nop{},
		addons:         make(map[string]*Addon),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Layout returns the path layout in use.
func (r *Registry) Layout() dynlib.Layout { return r.layout }

// LoadAddon returns the addon for packageName and subpath, opening its
// library on first use. A failed load leaves the addon unloaded so a later
// call tries again.
func (r *Registry) LoadAddon(ctx context.Context, packageName, subpath string) (*Addon, error) {
	key := Key(packageName, subpath)

	r.mu.RLock()
	addon, ok := r.addons[key]
	r.mu.RUnlock()
	if ok && addon.IsLoaded() {
		r.recorder.AddonLoad(metrics.LoadCached)
		return addon, nil
	}

	if !ok {
		r.mu.Lock()
		// Double-check: another goroutine may have created it meanwhile
		if addon, ok = r.addons[key]; !ok {
			addon = &Addon{PackageName: packageName, Subpath: subpath}
			r.addons[key] = addon
		}
		r.mu.Unlock()
	}

	r.loadMu.Lock()
	defer r.loadMu.Unlock()
	if addon.IsLoaded() {
		r.recorder.AddonLoad(metrics.LoadCached)
		return addon, nil
	}

	path := r.layout.LibraryPath(packageName, subpath)
	if err := r.tryLoad(ctx, addon, path); err != nil {
		r.recorder.AddonLoad(metrics.LoadFailed)
		Logger().Warn("addon load failed",
			zap.String("addon", key), zap.String("path", path), zap.Error(err))
		return nil, err
	}
	r.recorder.AddonLoad(metrics.LoadLoaded)
	Logger().Info("addon loaded",
		zap.String("addon", key),
		zap.String("path", path),
		zap.Int32("api_version", addon.APIVersion))
	return addon, nil
}

// tryLoad opens path and resolves the registration function. It must be
// called with loadMu held.
func (r *Registry) tryLoad(ctx context.Context, addon *Addon, path string) error {
	seq := r.beginLoad()
	defer r.endLoad()

	lib, err := r.loader.Load(ctx, path)
	if err != nil {
		return errors.LoadFailure(addon.PackageName, addon.Subpath, "open library "+path, err)
	}

	register, version, err := r.resolveRegistration(lib, path, seq)
	if err == nil && register == nil {
		err = errors.LoadFailure(addon.PackageName, addon.Subpath,
			"library "+path+" exports no registration function", nil)
	}
	if err == nil && !napi.ValidAPIVersion(version) {
		err = errors.New(errors.PhaseLoad, errors.KindLoadFailure).
			Addon(addon.PackageName, addon.Subpath).
			Value(version).
			Detail("unsupported module API version %d", version).
			Build()
	}
	if err != nil {
		if cerr := lib.Close(); cerr != nil {
			Logger().Debug("close after failed load", zap.String("path", path), zap.Error(cerr))
		}
		if e, ok := err.(*errors.Error); ok && e.Package == "" {
			e.Package, e.Subpath = addon.PackageName, addon.Subpath
		}
		return err
	}

	addon.LoadedFilePath = path
	addon.Library = lib
	addon.Register = register
	addon.APIVersion = version
	addon.loaded.Store(true)
	return nil
}

// resolveRegistration prefers the v1 export and falls back to whatever
// legacy registration the library's initializer recorded.
func (r *Registry) resolveRegistration(lib dynlib.Library, path string, seq uint64) (napi.RegisterFunc, int32, error) {
	version := r.defaultVersion

	if sym, ok := lib.Symbol(napi.SymbolRegisterModuleV1); ok {
		register, err := asRegisterFunc(sym)
		if err != nil {
			return nil, 0, err
		}
		if vsym, ok := lib.Symbol(napi.SymbolGetAPIVersionV1); ok {
			getVersion, err := asAPIVersionFunc(vsym)
			if err != nil {
				return nil, 0, err
			}
			version = getVersion()
		}
		if rec := r.takePending(); rec != nil {
			Logger().Debug("ignoring legacy registration, library exports v1 entry point",
				zap.String("path", path), zap.String("symbol", rec.Symbol))
		}
		return register, version, nil
	}

	rec := r.takePending()
	if rec == nil {
		return nil, 0, nil
	}
	if !attributable(rec, lib, path, seq) {
		Logger().Warn("discarding legacy registration not attributable to library",
			zap.String("path", path),
			zap.String("symbol", rec.Symbol),
			zap.String("owner", rec.Owner))
		return nil, 0, nil
	}
	return rec.Callback, version, nil
}

// Addons returns a snapshot of every known addon, sorted by identity.
func (r *Registry) Addons() []Info {
	r.mu.RLock()
	out := make([]Info, 0, len(r.addons))
	for _, a := range r.addons {
		out = append(out, a.info())
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].FullPath < out[j].FullPath })
	return out
}

// Lookup returns the addon for an identity if it has been requested.
func (r *Registry) Lookup(packageName, subpath string) (*Addon, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.addons[Key(packageName, subpath)]
	return a, ok
}

func asRegisterFunc(sym any) (napi.RegisterFunc, error) {
	switch f := sym.(type) {
	case napi.RegisterFunc:
		return f, nil
	case func(*napi.Env, host.Value) host.Value:
		return f, nil
	case *napi.RegisterFunc:
		return *f, nil
	case *func(*napi.Env, host.Value) host.Value:
		return *f, nil
	case error:
		return nil, errors.New(errors.PhaseLoad, errors.KindLoadFailure).
			Cause(f).
			Detail("%s is unusable", napi.SymbolRegisterModuleV1).
			Build()
	}
	return nil, errors.New(errors.PhaseLoad, errors.KindLoadFailure).
		Detail("%s has unexpected type %T", napi.SymbolRegisterModuleV1, sym).
		Build()
}

func asAPIVersionFunc(sym any) (napi.APIVersionFunc, error) {
	switch f := sym.(type) {
	case napi.APIVersionFunc:
		return f, nil
	case func() int32:
		return f, nil
	case *napi.APIVersionFunc:
		return *f, nil
	case *func() int32:
		return *f, nil
	case error:
		return nil, errors.New(errors.PhaseLoad, errors.KindLoadFailure).
			Cause(f).
			Detail("%s is unusable", napi.SymbolGetAPIVersionV1).
			Build()
	}
	return nil, errors.New(errors.PhaseLoad, errors.KindLoadFailure).
		Detail("%s has unexpected type %T", napi.SymbolGetAPIVersionV1, sym).
		Build()
}

func (r *Registry) String() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return fmt.Sprintf("Registry{addons: %d}", len(r.addons))
}
