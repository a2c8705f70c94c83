package resolver

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/napi-host/errors"
	"github.com/wippyai/napi-host/host"
	"github.com/wippyai/napi-host/metrics"
	"github.com/wippyai/napi-host/napi"
	"github.com/wippyai/napi-host/registry"
)

// Addons loads and instantiates addons. *registry.Registry implements it.
type Addons interface {
	LoadAddon(ctx context.Context, packageName, subpath string) (*registry.Addon, error)
	InstantiateAddonInRuntime(ctx context.Context, ec *napi.EngineContext, addon *registry.Addon) (host.Value, error)
}

// Resolver turns specifiers into addon exports for one engine.
type Resolver struct {
	addons    Addons
	ec        *napi.EngineContext
	prefixes  *HandlerTable
	overrides *HandlerTable
	cache     *Cache
	recorder  metrics.Recorder
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithRecorder reports cache hits and misses to rec.
func WithRecorder(rec metrics.Recorder) Option {
	return func(r *Resolver) {
		if rec != nil {
			r.recorder = rec
		}
	}
}

// New creates a resolver for the engine described by ec.
func New(addons Addons, ec *napi.EngineContext, opts ...Option) *Resolver {
	r := &Resolver{
		addons:    addons,
		ec:        ec,
		prefixes:  NewHandlerTable("prefix"),
		overrides: NewHandlerTable("package override"),
		cache:     NewCache(),
		recorder:  metrics.Nop{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Prefixes returns the prefix handler table ("node" for "node:fs").
func (r *Resolver) Prefixes() *HandlerTable { return r.prefixes }

// Overrides returns the package override table.
func (r *Resolver) Overrides() *HandlerTable { return r.overrides }

// Cache returns the engine's require cache.
func (r *Resolver) Cache() *Cache { return r.cache }

// Resolve returns the exports for requiredPath as required by the module
// requiredFrom inside package requiredPackageName.
//
// A "prefix:rest" specifier goes to the prefix handler, a package with an
// override goes to its handler, and anything else is resolved relative to
// requiredFrom, which must stay inside the package root.
func (r *Resolver) Resolve(ctx context.Context, requiredPath, requiredPackageName, requiredFrom string) (host.Value, error) {
	if !IsModulePathLike(requiredPath) {
		return nil, errors.InvalidSpecifier("requiredPath", requiredPath)
	}
	if !IsModulePathLike(requiredFrom) {
		return nil, errors.InvalidSpecifier("requiredFrom", requiredFrom)
	}

	prefix, stripped := RPartition(requiredPath, ':')
	if prefix != "" {
		h, ok := r.prefixes.Lookup(prefix)
		if !ok {
			return nil, errors.UnsupportedPrefix(prefix)
		}
		Logger().Debug("dispatching to prefix handler",
			zap.String("prefix", prefix), zap.String("path", stripped))
		return h(ctx, r.ec.Runtime, stripped, prefix, requiredFrom)
	}

	if h, ok := r.overrides.Lookup(requiredPackageName); ok {
		Logger().Debug("dispatching to package override",
			zap.String("package", requiredPackageName), zap.String("path", stripped))
		return h(ctx, r.ec.Runtime, stripped, requiredPackageName, requiredFrom)
	}

	return r.ResolveSubpath(ctx, requiredPackageName, Merge(requiredFrom, stripped))
}

// ResolveSubpath loads and instantiates the addon at a package-relative
// subpath, consulting the engine's require cache first.
func (r *Resolver) ResolveSubpath(ctx context.Context, packageName, subpath string) (host.Value, error) {
	if !IsModulePathLike(subpath) {
		return nil, errors.InvalidSpecifier("subpath", subpath)
	}
	if !strings.HasPrefix(subpath, "./") {
		return nil, errors.RootEscape(packageName, subpath)
	}

	if v, ok := r.cache.Lookup(packageName, subpath); ok {
		r.recorder.RequireCache(true)
		return v, nil
	}
	r.recorder.RequireCache(false)

	addon, err := r.addons.LoadAddon(ctx, packageName, subpath)
	if err != nil {
		return nil, err
	}
	desc, err := r.addons.InstantiateAddonInRuntime(ctx, r.ec, addon)
	if err != nil {
		return nil, err
	}
	exports, err := registry.DescriptorExports(desc)
	if err != nil {
		return nil, err
	}
	r.cache.Store(packageName, subpath, exports)
	return exports, nil
}

// AliasHandler returns a prefix handler that resolves "prefix:rest" as
// "./rest" inside packageName.
func (r *Resolver) AliasHandler(packageName string) Handler {
	return func(ctx context.Context, _ host.Runtime, strippedPath, _, _ string) (host.Value, error) {
		return r.ResolveSubpath(ctx, packageName, Rebase(strippedPath))
	}
}
