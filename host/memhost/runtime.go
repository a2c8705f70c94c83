package memhost

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wippyai/napi-host/host"
)

// Runtime is an in-memory script engine. It stores plain Go maps for
// objects and never executes script source; functions are Go callbacks.
type Runtime struct {
	id     string
	global *object
	poster host.Poster
	logger *zap.Logger

	finMu      sync.Mutex
	finalizers map[uint64]*pendingFinalizer
	nextFin    uint64
	closed     bool
}

type pendingFinalizer struct {
	fn      func()
	cleanup runtime.Cleanup
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithPoster routes finalizers onto the script thread through p.
// Without a poster finalizers run on the collector's goroutine.
func WithPoster(p host.Poster) Option {
	return func(r *Runtime) { r.poster = p }
}

// WithLogger sets the logger used for finalizer diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runtime) { r.logger = l }
}

// WithID overrides the generated engine id.
func WithID(id string) Option {
	return func(r *Runtime) { r.id = id }
}

// New creates an engine with an empty global object.
func New(opts ...Option) *Runtime {
	r := &Runtime{
		id:         uuid.NewString(),
		global:     newObject("global"),
		logger:     zap.NewNop(),
		finalizers: make(map[uint64]*pendingFinalizer),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runtime) ID() string { return r.id }

func (r *Runtime) Global() host.Object { return r.global }

func (r *Runtime) NewObject() host.Object { return newObject("Object") }

func (r *Runtime) NewFunction(name string, fn host.NativeFunc) host.Function {
	return &function{object: newObject("Function"), rt: r, name: name, fn: fn}
}

func (r *Runtime) NewError(message string) host.Object {
	o := newObject("Error")
	_ = o.Set("message", host.String(message))
	return o
}

func (r *Runtime) NewArrayBuffer(length int) (host.ArrayBuffer, error) {
	if length < 0 {
		return nil, fmt.Errorf("invalid array buffer length %d", length)
	}
	return &arrayBuffer{object: newObject("ArrayBuffer"), data: make([]byte, length)}, nil
}

func (r *Runtime) NewExternalArrayBuffer(data []byte, finalize func()) (host.ArrayBuffer, error) {
	buf := &arrayBuffer{object: newObject("ArrayBuffer"), data: data, external: true}
	if finalize != nil {
		if err := r.track(buf, finalize); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func (r *Runtime) NewTypedArray(typ host.TypedArrayType, buf host.ArrayBuffer, byteOffset, length int) (host.TypedArray, error) {
	ab, ok := buf.(*arrayBuffer)
	if !ok {
		return nil, fmt.Errorf("array buffer %T does not belong to this engine", buf)
	}
	size := typ.ElementSize()
	if byteOffset < 0 || length < 0 || byteOffset%size != 0 {
		return nil, fmt.Errorf("invalid typed array offset %d", byteOffset)
	}
	if byteOffset+length*size > len(ab.data) {
		return nil, fmt.Errorf("typed array of %d elements at offset %d exceeds buffer of %d bytes",
			length, byteOffset, len(ab.data))
	}
	return &typedArray{object: newObject("TypedArray"), typ: typ, buf: ab, offset: byteOffset, length: length}, nil
}

func (r *Runtime) NewExternal(data any, finalize func()) host.External {
	ext := &external{data: data}
	if finalize != nil {
		if err := r.track(ext, finalize); err != nil {
			r.logger.Warn("external created after close, finalizer runs now")
			finalize()
		}
	}
	return ext
}

// PendingFinalizers returns the number of finalizers not yet run.
func (r *Runtime) PendingFinalizers() int {
	r.finMu.Lock()
	defer r.finMu.Unlock()
	return len(r.finalizers)
}

// Close runs every outstanding finalizer on the calling goroutine.
// The engine must not be used afterwards.
func (r *Runtime) Close() error {
	r.finMu.Lock()
	if r.closed {
		r.finMu.Unlock()
		return nil
	}
	r.closed = true
	pending := r.finalizers
	r.finalizers = nil
	r.finMu.Unlock()

	for _, p := range pending {
		p.cleanup.Stop()
		p.fn()
	}
	r.logger.Debug("engine closed", zap.String("engine", r.id), zap.Int("finalized", len(pending)))
	return nil
}

func addCleanup[T any](r *Runtime, ptr *T, id uint64) runtime.Cleanup {
	return runtime.AddCleanup(ptr, r.collected, id)
}

func (r *Runtime) track(v any, finalize func()) error {
	r.finMu.Lock()
	defer r.finMu.Unlock()
	if r.closed {
		return host.ErrClosed
	}
	r.nextFin++
	id := r.nextFin
	p := &pendingFinalizer{fn: finalize}
	switch x := v.(type) {
	case *arrayBuffer:
		p.cleanup = addCleanup(r, x, id)
	case *external:
		p.cleanup = addCleanup(r, x, id)
	default:
		return fmt.Errorf("cannot track %T", v)
	}
	r.finalizers[id] = p
	return nil
}

// collected runs on the runtime's cleanup goroutine.
func (r *Runtime) collected(id uint64) {
	r.finMu.Lock()
	p, ok := r.finalizers[id]
	if ok {
		delete(r.finalizers, id)
	}
	r.finMu.Unlock()
	if !ok {
		return
	}
	if r.poster != nil {
		if err := r.poster.Post(p.fn); err == nil {
			return
		}
	}
	p.fn()
}
