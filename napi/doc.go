// Package napi is the native-facing API surface of the addon host.
//
// An addon receives an *Env when its registration function runs and uses
// it for every interaction with the script engine: creating values,
// reading and writing properties, throwing exceptions, scheduling async
// work and exchanging binary buffers. Each call returns a Status whose
// numbering matches Node-API, and the most recent one is kept as
// LastStatus.
//
// Environments are created per addon per engine through
// EngineContext.NewEnv, which also wires the engine's task invoker into
// the async scheduler.
//
// FatalError logs and terminates the process. Tests can install a logger
// built with zap.WithFatalHook(zapcore.WriteThenPanic) to observe it.
package napi
