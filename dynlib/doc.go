// Package dynlib opens the libraries addons are shipped in.
//
// Loaders implement a single method, Load, returning a Library whose
// symbols are looked up by their C names. Three loaders are provided:
//
//   - PluginLoader opens Go plugins (.so built with -buildmode=plugin)
//   - StaticLoader serves libraries linked into the host binary
//   - Chain dispatches to another loader by file extension
//
// The wasm loader lives in package engine.
//
// Layout computes where a library is expected for an addon identity,
// following each platform's conventions.
package dynlib
