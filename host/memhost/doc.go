// Package memhost is an in-process script engine for the addon host.
//
// It keeps objects as ordered Go maps, exposes Go callbacks as script
// functions, and provides Loop, an event loop whose Drain and Run methods
// turn the calling goroutine into the script thread. Loop satisfies both
// host.TaskInvoker and host.Poster.
//
//	loop := memhost.NewLoop(4, logger)
//	rt := memhost.New(memhost.WithPoster(loop))
//	defer rt.Close()
//
// Finalizers for externals and external array buffers run when the Go
// collector reclaims the value, or on Close for whatever is left.
package memhost
