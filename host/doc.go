// Package host defines the contract between the addon host and a script
// engine.
//
// The addon host never implements a script engine itself. It talks to one
// through the Runtime interface (object, function and buffer creation) and
// defers work through a TaskInvoker supplied per engine. Primitive values
// (Undefined, Null, Boolean, Number, String) are plain Go types shared by
// every engine; objects, functions and buffers are engine-owned.
//
// Runtime methods are not safe for concurrent use. Callers must stay on the
// engine's script thread, which is the goroutine the engine designates for
// script execution.
//
// Package memhost provides an in-process engine used by tests and the
// command-line tool.
package host
