package runtime

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wippyai/napi-host/async"
	"github.com/wippyai/napi-host/errors"
	"github.com/wippyai/napi-host/host"
	"github.com/wippyai/napi-host/host/memhost"
	"github.com/wippyai/napi-host/metrics"
	"github.com/wippyai/napi-host/napi"
	"github.com/wippyai/napi-host/registry"
	"github.com/wippyai/napi-host/resolver"
	"github.com/wippyai/napi-host/resource"
)

// Runtime is one script engine instance with its own addon instances and
// require cache. Addon libraries are shared through the registry.
type Runtime struct {
	id       string
	registry *registry.Registry
	host     host.Runtime
	loop     *memhost.Loop
	sched    *async.Scheduler
	ec       *napi.EngineContext
	resolver *resolver.Resolver
	logger   *zap.Logger
	ownsHost bool
}

type options struct {
	host     host.Runtime
	invoker  host.TaskInvoker
	workers  int64
	recorder metrics.Recorder
	aliases  map[string]string
	logger   *zap.Logger
}

// Option configures a Runtime.
type Option func(*options)

// WithHost runs addons on an existing engine instead of an in-memory one.
// inv runs async work for that engine.
func WithHost(rt host.Runtime, inv host.TaskInvoker) Option {
	return func(o *options) {
		o.host = rt
		o.invoker = inv
	}
}

// WithWorkers bounds concurrent async execute phases on the default loop.
func WithWorkers(n int64) Option {
	return func(o *options) { o.workers = n }
}

// WithRecorder reports cache and async metrics to rec. A recorder that is
// also a resource.Observer tracks the async handle table.
func WithRecorder(rec metrics.Recorder) Option {
	return func(o *options) { o.recorder = rec }
}

// WithAliases maps specifier prefixes to packages, so "prefix:rest"
// resolves as "./rest" inside the package.
func WithAliases(aliases map[string]string) Option {
	return func(o *options) { o.aliases = aliases }
}

// WithLogger sets the logger used by the default loop and runtime.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New creates an engine instance that loads addons through reg.
func New(ctx context.Context, reg *registry.Registry, opts ...Option) (*Runtime, error) {
	if reg == nil {
		return nil, errors.InvalidInput(errors.PhaseConfig, "registry is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	o := options{workers: memhost.DefaultWorkers, recorder: metrics.Nop{}, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.host != nil && o.invoker == nil {
		return nil, errors.InvalidInput(errors.PhaseConfig, "custom host requires a task invoker")
	}

	r := &Runtime{id: uuid.NewString(), registry: reg, logger: o.logger}
	if o.host == nil {
		r.loop = memhost.NewLoop(o.workers, o.logger)
		r.host = memhost.New(memhost.WithPoster(r.loop), memhost.WithLogger(o.logger), memhost.WithID(r.id))
		o.invoker = r.loop
		r.ownsHost = true
	} else {
		r.host = o.host
	}

	schedOpts := []async.Option{async.WithRecorder(o.recorder)}
	if obs, ok := o.recorder.(resource.Observer); ok {
		schedOpts = append(schedOpts, async.WithObserver(obs))
	}
	r.sched = async.NewScheduler(schedOpts...)
	r.ec = &napi.EngineContext{Runtime: r.host, Invoker: o.invoker, Scheduler: r.sched}
	r.resolver = resolver.New(reg, r.ec, resolver.WithRecorder(o.recorder))

	for prefix, pkg := range o.aliases {
		if err := r.resolver.Prefixes().Register(prefix, r.resolver.AliasHandler(pkg)); err != nil {
			_ = r.Close()
			return nil, err
		}
	}

	r.logger.Debug("engine instance created", zap.String("engine", r.host.ID()))
	return r, nil
}

// ID identifies the engine instance.
func (r *Runtime) ID() string { return r.host.ID() }

// Host returns the engine's host runtime.
func (r *Runtime) Host() host.Runtime { return r.host }

// Loop returns the default event loop, or nil with a custom host.
func (r *Runtime) Loop() *memhost.Loop { return r.loop }

// Context returns the engine context handed to addons.
func (r *Runtime) Context() *napi.EngineContext { return r.ec }

// Resolver returns the engine's resolver.
func (r *Runtime) Resolver() *resolver.Resolver { return r.resolver }

// Require resolves requiredPath as required from the module requiredFrom
// inside packageName and returns the addon's exports.
func (r *Runtime) Require(ctx context.Context, requiredPath, packageName, requiredFrom string) (host.Value, error) {
	return r.resolver.Resolve(ctx, requiredPath, packageName, requiredFrom)
}

// RegisterPrefix routes "prefix:rest" specifiers to h.
func (r *Runtime) RegisterPrefix(prefix string, h resolver.Handler) error {
	return r.resolver.Prefixes().Register(prefix, h)
}

// RegisterPackageOverride routes every specifier required from inside
// packageName to h.
func (r *Runtime) RegisterPackageOverride(packageName string, h resolver.Handler) error {
	return r.resolver.Overrides().Register(packageName, h)
}

// Close releases the engine's environments, async jobs and, for the
// default host, its loop and finalizers. It does not unload addons.
func (r *Runtime) Close() error {
	r.ec.Close()
	var errs []error
	if err := r.sched.Close(); err != nil {
		errs = append(errs, err)
	}
	if r.ownsHost {
		if err := r.loop.Close(); err != nil {
			errs = append(errs, err)
		}
		if c, ok := r.host.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close engine %s: %v", r.id, errs)
	}
	return nil
}
