// Package napihost hosts Node-API style native addons inside an embedded
// script engine.
//
// The module loads addon libraries once per process, instantiates them once
// per engine instance, resolves module specifiers the way a script's require
// call would, and runs addon async work across the script thread and a
// worker pool.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	napihost/
//	├── runtime/         Per-engine facade: Require, prefix handlers, requireNodeAddon global
//	├── registry/        Process-wide addon registry, legacy registration, instantiation
//	├── resolver/        Specifier validation, path algebra, prefix and package handlers, require cache
//	├── dynlib/          Library loaders (Go plugins, static, extension chain) and library naming
//	├── engine/          WebAssembly addons on wazero with a handle based "napi" host module
//	├── napi/            Env, status codes, values, buffers, async wrappers, fatal errors
//	├── async/           Async work and async context state machines
//	├── host/            Script engine contract, with an in-memory engine in host/memhost
//	├── resource/        Generational handle tables
//	├── metrics/         Prometheus collectors
//	├── config/          Viper backed configuration
//	├── errors/          Structured error types for debugging
//	└── cmd/napihost/    Command line host
//
// # Quick Start
//
//	ctx := context.Background()
//	loaders, err := runtime.NewRegistry(ctx, runtime.RegistryConfig{
//	    Layout: dynlib.Layout{Dir: "addons"},
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
//	exports, err := rt.Require(ctx, "./build/addon.node", "my-pkg", "./lib/index")
//
// # Addon Registration
//
// An addon exports napi_register_module_v1 and, optionally,
// node_api_module_get_api_version_v1. Addons that predate those symbols
// register from a module constructor instead: registry.ModuleRegister for
// Go addons, or an imported napi.module_register call from a wasm start
// function. Such a registration is attributed to the library being loaded
// when it arrives.
//
// # Thread Safety
//
// The registry is safe for concurrent use by any number of engines. A
// Runtime, its environments and its require cache belong to the engine's
// script thread. Async execute callbacks run on worker goroutines and must
// not touch script values.
package napihost
