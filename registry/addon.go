package registry

import (
	"strings"
	"sync/atomic"

	"github.com/wippyai/napi-host/dynlib"
	"github.com/wippyai/napi-host/napi"
)

// Addon is one native library identified by package name and subpath.
// It is created on first request and stays in the registry for the life
// of the process; fields are written once, before Loaded reports true.
type Addon struct {
	PackageName string
	Subpath     string

	LoadedFilePath string
	Library        dynlib.Library
	Register       napi.RegisterFunc
	APIVersion     int32

	loaded atomic.Bool
}

// FullPath is the addon's identity: the package name followed by the
// subpath without its leading dot.
func (a *Addon) FullPath() string {
	return Key(a.PackageName, a.Subpath)
}

// IsLoaded reports whether a registration function has been resolved.
func (a *Addon) IsLoaded() bool {
	return a.loaded.Load()
}

// Key returns the registry key for an addon identity.
//
//	Key("pkg", "./addon.node") == "pkg/addon.node"
func Key(packageName, subpath string) string {
	return packageName + strings.TrimPrefix(subpath, ".")
}

// Info is a snapshot of an addon for listing.
type Info struct {
	PackageName    string
	Subpath        string
	FullPath       string
	LoadedFilePath string
	APIVersion     int32
	Loaded         bool
}

func (a *Addon) info() Info {
	loaded := a.IsLoaded()
	i := Info{
		PackageName: a.PackageName,
		Subpath:     a.Subpath,
		FullPath:    a.FullPath(),
		Loaded:      loaded,
	}
	if loaded {
		i.LoadedFilePath = a.LoadedFilePath
		i.APIVersion = a.APIVersion
	}
	return i
}
