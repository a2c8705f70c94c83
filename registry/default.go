package registry

import (
	"sync"

	"github.com/wippyai/napi-host/napi"
)

var (
	defaultMu  sync.RWMutex
	defaultReg *Registry
)

// SetDefault installs r as the process-wide registry used by
// ModuleRegister. Passing nil tears the default down.
func SetDefault(r *Registry) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultReg = r
}

// ReleaseDefault uninstalls r if it is still the process-wide registry.
func ReleaseDefault(r *Registry) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultReg == r {
		defaultReg = nil
	}
}

// Default returns the process-wide registry, or nil if none is installed.
func Default() *Registry {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultReg
}

// ModuleRegister is the legacy registration entry point called from
// library initializers. It records fn with the default registry.
func ModuleRegister(fn napi.RegisterFunc) bool {
	r := Default()
	if r == nil {
		napi.FatalError("napi_module_register", "no addon registry installed")
		return false
	}
	return r.HandleLegacyRegistration(fn, "", "")
}
