// Package registry keeps the process-wide table of native addons.
//
// An addon is identified by its package name and subpath. The first
// LoadAddon for an identity opens the library at the Layout's path and
// resolves its registration function: the napi_register_module_v1 export
// if present, otherwise a legacy registration recorded while the library's
// initializer ran. Later calls return the cached addon.
//
// Legacy registrations arrive through HandleLegacyRegistration (or the
// package-level ModuleRegister, which targets the Default registry). A
// record is accepted only when it can be attributed to the library being
// loaded, by owner path, by exported symbol, or by having been made during
// that load. Anything else is discarded.
//
// InstantiateAddonInRuntime runs a loaded addon in one engine and stores
// {env, exports} under the engine's global $NodeApiHost table. It returns
// that stored descriptor; it is not idempotent, so callers keep their own
// per-engine cache of the exports.
package registry
