package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/napi-host/dynlib"
	"github.com/wippyai/napi-host/errors"
	"github.com/wippyai/napi-host/host"
	"github.com/wippyai/napi-host/napi"
)

func legacyInit(env *napi.Env, exports host.Value) host.Value {
	v, _ := env.CreateStringUTF8("legacy")
	env.SetNamedProperty(exports, "kind", v)
	return nil
}

func otherInit(env *napi.Env, exports host.Value) host.Value { return nil }

func TestLegacy_RegisteredDuringLoad(t *testing.T) {
	loader := dynlib.NewStaticLoader()
	reg := New(loader, WithLayout(linux))
	loader.Register("liblegacy.so", dynlib.StaticLibrary{
		Init: func(string) { reg.HandleLegacyRegistration(legacyInit, "", "") },
	})

	addon, err := reg.LoadAddon(context.Background(), "legacy", "")
	require.NoError(t, err)
	require.True(t, addon.IsLoaded())
	assert.Equal(t, napi.DefaultModuleAPIVersion, addon.APIVersion)

	_, pending := reg.Pending()
	assert.False(t, pending, "the pending record is consumed by the load")

	exports := instantiate(t, reg, addon)
	kind, _ := exports.(host.Object).Get("kind")
	assert.Equal(t, host.String("legacy"), kind)
}

func TestLegacy_OwnerMismatchDiscarded(t *testing.T) {
	loader := dynlib.NewStaticLoader()
	reg := New(loader, WithLayout(linux))
	loader.Register("libmine.so", dynlib.StaticLibrary{
		Init: func(string) { reg.HandleLegacyRegistration(legacyInit, "", "libsomeoneelse.so") },
	})

	_, err := reg.LoadAddon(context.Background(), "mine", "")
	assert.ErrorIs(t, err, errors.ErrLoadFailure)
	_, pending := reg.Pending()
	assert.False(t, pending)
}

func TestLegacy_OwnerMatch(t *testing.T) {
	loader := dynlib.NewStaticLoader()
	reg := New(loader, WithLayout(linux))
	loader.Register("libmine.so", dynlib.StaticLibrary{
		Init: func(path string) { reg.HandleLegacyRegistration(legacyInit, "", path) },
	})

	addon, err := reg.LoadAddon(context.Background(), "mine", "")
	require.NoError(t, err)
	assert.True(t, addon.IsLoaded())
}

func TestLegacy_SymbolMatch(t *testing.T) {
	loader := dynlib.NewStaticLoader()
	reg := New(loader, WithLayout(linux))
	// The initializer hides the load sequence so only the exported symbol
	// can attribute the record.
	loader.Register("libsym.so", dynlib.StaticLibrary{
		Symbols: map[string]any{"legacy_init": napi.RegisterFunc(legacyInit)},
		Init: func(string) {
			reg.legacyMu.Lock()
			reg.currentLoad = 0
			reg.legacyMu.Unlock()
			reg.HandleLegacyRegistration(legacyInit, "legacy_init", "")
		},
	})

	addon, err := reg.LoadAddon(context.Background(), "sym", "")
	require.NoError(t, err)
	assert.True(t, addon.IsLoaded())
}

func TestLegacy_SymbolMismatchDiscarded(t *testing.T) {
	loader := dynlib.NewStaticLoader()
	reg := New(loader, WithLayout(linux))
	loader.Register("libsym.so", dynlib.StaticLibrary{
		Symbols: map[string]any{"legacy_init": napi.RegisterFunc(otherInit)},
		Init: func(string) {
			reg.legacyMu.Lock()
			reg.currentLoad = 0
			reg.legacyMu.Unlock()
			reg.HandleLegacyRegistration(legacyInit, "legacy_init", "")
		},
	})

	_, err := reg.LoadAddon(context.Background(), "sym", "")
	assert.ErrorIs(t, err, errors.ErrLoadFailure)
}

func TestLegacy_StaleRecordDiscarded(t *testing.T) {
	loader := dynlib.NewStaticLoader()
	loader.Register("libplain.so", dynlib.StaticLibrary{})
	reg := New(loader, WithLayout(linux))

	require.True(t, reg.HandleLegacyRegistration(legacyInit, "", ""))
	rec, ok := reg.Pending()
	require.True(t, ok)
	assert.Equal(t, uint64(0), rec.LoadSeq)

	_, err := reg.LoadAddon(context.Background(), "plain", "")
	assert.ErrorIs(t, err, errors.ErrLoadFailure, "a record made outside the load is not used")
}

func TestLegacy_V1WinsOverLegacy(t *testing.T) {
	loader := dynlib.NewStaticLoader()
	reg := New(loader, WithLayout(linux))
	loader.Register("libboth.so", dynlib.StaticLibrary{
		Symbols: map[string]any{napi.SymbolRegisterModuleV1: napi.RegisterFunc(exportsAnswer)},
		Init:    func(string) { reg.HandleLegacyRegistration(legacyInit, "", "") },
	})

	addon, err := reg.LoadAddon(context.Background(), "both", "")
	require.NoError(t, err)
	exports := instantiate(t, reg, addon)
	assert.True(t, exports.(host.Object).Has("answer"))
	assert.False(t, exports.(host.Object).Has("kind"))

	_, pending := reg.Pending()
	assert.False(t, pending)
}

func TestLegacy_SecondRecordRejected(t *testing.T) {
	reg := New(dynlib.NewStaticLoader())
	assert.True(t, reg.HandleLegacyRegistration(legacyInit, "", ""))
	assert.False(t, reg.HandleLegacyRegistration(otherInit, "", ""))

	rec, ok := reg.Pending()
	require.True(t, ok)
	assert.Contains(t, rec.Symbol, "legacyInit")
}

func TestModuleRegister_UsesDefault(t *testing.T) {
	loader := dynlib.NewStaticLoader()
	reg := New(loader, WithLayout(linux))
	SetDefault(reg)
	defer SetDefault(nil)

	loader.Register("libglobal.so", dynlib.StaticLibrary{
		Init: func(string) { ModuleRegister(legacyInit) },
	})

	addon, err := reg.LoadAddon(context.Background(), "global", "")
	require.NoError(t, err)
	assert.True(t, addon.IsLoaded())
	assert.Same(t, reg, Default())
}

func TestReleaseDefault(t *testing.T) {
	a := New(dynlib.NewStaticLoader())
	b := New(dynlib.NewStaticLoader())
	SetDefault(a)
	defer SetDefault(nil)

	ReleaseDefault(b)
	assert.Same(t, a, Default(), "releasing another registry keeps the default")

	ReleaseDefault(a)
	assert.Nil(t, Default())
}
