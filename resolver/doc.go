// Package resolver maps module specifiers to addon exports.
//
// Resolution never touches the filesystem. A specifier is validated
// against a small character set, then dispatched in order to:
//
//  1. a prefix handler, for "prefix:rest" specifiers
//  2. a package override handler, for packages registered in Overrides
//  3. default resolution, which joins the specifier onto the directory of
//     the requiring module with the path algebra in this package and
//     rejects results that leave the package root
//
// Default resolution consults a per-engine Cache before asking the addon
// registry to load and instantiate, so each addon is instantiated at most
// once per engine.
package resolver
