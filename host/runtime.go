package host

import "errors"

// ErrClosed is returned by engines and invokers after shutdown.
var ErrClosed = errors.New("host: closed")

// Runtime is one script engine instance.
// All methods must be called on the engine's script thread.
type Runtime interface {
	// ID uniquely identifies the engine instance within the process.
	ID() string

	// Global returns the global object.
	Global() Object

	NewObject() Object
	NewFunction(name string, fn NativeFunc) Function

	// NewError creates an error object with the given message.
	NewError(message string) Object

	// NewArrayBuffer allocates a zero-filled buffer of length bytes.
	NewArrayBuffer(length int) (ArrayBuffer, error)

	// NewExternalArrayBuffer wraps caller-owned memory without copying.
	// finalize runs once the engine reclaims the buffer; timing is not specified.
	NewExternalArrayBuffer(data []byte, finalize func()) (ArrayBuffer, error)

	// NewTypedArray creates a view of length elements starting at byteOffset.
	NewTypedArray(typ TypedArrayType, buf ArrayBuffer, byteOffset, length int) (TypedArray, error)

	// NewExternal wraps an opaque Go value. finalize may be nil.
	NewExternal(data any, finalize func()) External
}

// TaskInvoker schedules deferred work on behalf of native code.
type TaskInvoker interface {
	// InvokeAsync runs work later, possibly off the script thread, and then
	// runs done on the script thread.
	InvokeAsync(work func(), done func()) error
}

// Poster queues a callback onto the script thread.
type Poster interface {
	Post(fn func()) error
}
