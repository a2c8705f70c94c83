// Package runtime ties the addon registry, resolver and async scheduler
// into one script engine instance.
//
// # Quick Start
//
//	ctx := context.Background()
//	loaders, err := runtime.NewRegistry(ctx, runtime.RegistryConfig{
//	    Layout: dynlib.Layout{Dir: "addons", Format: dynlib.FormatWasm},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer loaders.Close(ctx)
//
//	rt, err := runtime.New(ctx, loaders.Registry)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close()
//
//	exports, err := rt.Require(ctx, "./addon.node", "my-pkg", "./index")
//
// # Engines
//
// Each Runtime owns its environments, async jobs and require cache, so an
// addon required from two engines is instantiated twice while its library
// is opened once. By default the engine is an in-memory host driven by a
// memhost.Loop; WithHost plugs in another engine.
//
// InstallGlobal exposes resolution to scripts as
//
//	requireNodeAddon(requiredPath, packageName, requiredFrom)
package runtime
