package registry

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/napi-host/errors"
	"github.com/wippyai/napi-host/host"
	"github.com/wippyai/napi-host/napi"
)

// InternalRegistryKey is the global property holding per-engine addon
// descriptors. Each descriptor is an object {env, exports} stored under
// the addon's full path.
const InternalRegistryKey = "$NodeApiHost"

// InstantiateAddonInRuntime runs a loaded addon's registration function
// in the engine described by ec, stores the {env, exports} descriptor in
// the engine's $NodeApiHost table and returns the stored descriptor. Use
// DescriptorExports to reach the exports. Instantiating an addon that is
// not loaded is a fatal error.
//
// The function must be called on the engine's script thread.
func (r *Registry) InstantiateAddonInRuntime(ctx context.Context, ec *napi.EngineContext, addon *Addon) (host.Value, error) {
	if addon == nil || !addon.IsLoaded() {
		name := "<nil>"
		if addon != nil {
			name = addon.FullPath()
		}
		napi.FatalError("registry.InstantiateAddonInRuntime", "addon "+name+" is not loaded")
		return nil, errors.FatalABI("registry.InstantiateAddonInRuntime", "addon "+name+" is not loaded")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rt := ec.Runtime
	fqap := addon.FullPath()

	env, err := ec.NewEnv(addon.APIVersion)
	if err != nil {
		r.recorder.Instantiation(false)
		return nil, errors.Instantiation(addon.PackageName, addon.Subpath, err)
	}

	exports := rt.NewObject()
	result := addon.Register(env, exports)
	if env.IsExceptionPending() {
		exc, _ := env.GetAndClearLastException()
		r.recorder.Instantiation(false)
		return nil, errors.Instantiation(addon.PackageName, addon.Subpath, errors.PendingException(exc))
	}
	if result == nil || host.IsNullish(result) {
		result = exports
	}

	descriptor := rt.NewObject()
	if err := descriptor.Set("env", rt.NewExternal(env, nil)); err != nil {
		return nil, errors.Instantiation(addon.PackageName, addon.Subpath, err)
	}
	if err := descriptor.Set("exports", result); err != nil {
		return nil, errors.Instantiation(addon.PackageName, addon.Subpath, err)
	}

	table, err := hostTable(rt)
	if err != nil {
		return nil, errors.Instantiation(addon.PackageName, addon.Subpath, err)
	}
	if err := table.Set(fqap, descriptor); err != nil {
		return nil, errors.Instantiation(addon.PackageName, addon.Subpath, err)
	}

	r.recorder.Instantiation(true)
	Logger().Debug("addon instantiated",
		zap.String("addon", fqap), zap.String("engine", rt.ID()), zap.String("env", env.ID()))

	return StoredDescriptor(rt, fqap)
}

// StoredDescriptor returns the {env, exports} descriptor stored for an
// instantiated addon, or undefined when the engine has none.
func StoredDescriptor(rt host.Runtime, fullPath string) (host.Value, error) {
	tv, ok := rt.Global().Get(InternalRegistryKey)
	if !ok {
		return host.Undefined{}, nil
	}
	table, ok := tv.(host.Object)
	if !ok {
		return nil, errors.TypeMismatch(errors.PhaseInstantiate, []string{InternalRegistryKey}, "object", tv.Kind().String())
	}
	dv, ok := table.Get(fullPath)
	if !ok {
		return host.Undefined{}, nil
	}
	return dv, nil
}

// DescriptorExports returns the exports field of a descriptor produced by
// InstantiateAddonInRuntime.
func DescriptorExports(descriptor host.Value) (host.Value, error) {
	desc, ok := descriptor.(host.Object)
	if !ok {
		return nil, errors.TypeMismatch(errors.PhaseInstantiate, []string{"descriptor"}, "object", kindName(descriptor))
	}
	exports, ok := desc.Get("exports")
	if !ok {
		return nil, errors.NotFound(errors.PhaseInstantiate, "descriptor field", "exports")
	}
	return exports, nil
}

// DescriptorEnv returns the environment recorded in a descriptor.
func DescriptorEnv(descriptor host.Value) (*napi.Env, bool) {
	desc, ok := descriptor.(host.Object)
	if !ok {
		return nil, false
	}
	ev, ok := desc.Get("env")
	if !ok {
		return nil, false
	}
	ext, ok := ev.(host.External)
	if !ok {
		return nil, false
	}
	env, ok := ext.Data().(*napi.Env)
	return env, ok
}

// StoredExports reads the exports of an instantiated addon back from the
// engine's descriptor table.
func StoredExports(rt host.Runtime, fullPath string) (host.Value, error) {
	desc, err := StoredDescriptor(rt, fullPath)
	if err != nil {
		return nil, err
	}
	if _, ok := desc.(host.Undefined); ok {
		return nil, errors.NotFound(errors.PhaseInstantiate, "addon descriptor", fullPath)
	}
	return DescriptorExports(desc)
}

// StoredEnv returns the environment an addon was instantiated with.
func StoredEnv(rt host.Runtime, fullPath string) (*napi.Env, bool) {
	desc, err := StoredDescriptor(rt, fullPath)
	if err != nil {
		return nil, false
	}
	return DescriptorEnv(desc)
}

func kindName(v host.Value) string {
	if v == nil {
		return host.KindUndefined.String()
	}
	return v.Kind().String()
}

func hostTable(rt host.Runtime) (host.Object, error) {
	global := rt.Global()
	if v, ok := global.Get(InternalRegistryKey); ok {
		if obj, ok := v.(host.Object); ok {
			return obj, nil
		}
		return nil, errors.TypeMismatch(errors.PhaseInstantiate, []string{InternalRegistryKey}, "object", v.Kind().String())
	}
	obj := rt.NewObject()
	if err := global.Set(InternalRegistryKey, obj); err != nil {
		return nil, err
	}
	return obj, nil
}
