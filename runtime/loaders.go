package runtime

import (
	"context"

	"github.com/wippyai/napi-host/dynlib"
	"github.com/wippyai/napi-host/engine"
	"github.com/wippyai/napi-host/metrics"
	"github.com/wippyai/napi-host/registry"
)

// RegistryConfig describes how addon libraries are found and opened.
type RegistryConfig struct {
	Layout            dynlib.Layout
	DefaultAPIVersion int32
	Recorder          metrics.Recorder

	// Native opens non-wasm libraries. Nil uses Go plugins.
	Native dynlib.Loader

	// Wasm configures the wazero loader used for ".wasm" libraries.
	Wasm *engine.Config
}

// Loaders owns the library loaders behind a registry.
type Loaders struct {
	Registry *registry.Registry
	Wasm     *engine.Loader
}

// NewRegistry builds a registry whose loader dispatches ".wasm" paths to
// wazero and everything else to cfg.Native. The new registry becomes the
// process-wide default that registry.ModuleRegister reports to, and the
// wasm loader reports legacy registrations to it as well.
func NewRegistry(ctx context.Context, cfg RegistryConfig) (*Loaders, error) {
	wasm, err := engine.NewLoader(ctx, cfg.Wasm)
	if err != nil {
		return nil, err
	}

	native := cfg.Native
	if native == nil {
		native = dynlib.NewPluginLoader()
	}
	chain := dynlib.NewChain(native)
	chain.Handle(".wasm", wasm)

	opts := []registry.Option{registry.WithLayout(cfg.Layout)}
	if cfg.DefaultAPIVersion != 0 {
		opts = append(opts, registry.WithDefaultAPIVersion(cfg.DefaultAPIVersion))
	}
	if cfg.Recorder != nil {
		opts = append(opts, registry.WithRecorder(cfg.Recorder))
	}
	reg := registry.New(chain, opts...)
	wasm.SetLegacyHandler(reg.HandleLegacyRegistration)
	registry.SetDefault(reg)

	return &Loaders{Registry: reg, Wasm: wasm}, nil
}

// Close releases the wasm runtime and uninstalls the default registry.
// Native libraries stay mapped.
func (l *Loaders) Close(ctx context.Context) error {
	registry.ReleaseDefault(l.Registry)
	return l.Wasm.Close(ctx)
}
