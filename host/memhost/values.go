package memhost

import (
	"fmt"

	"github.com/wippyai/napi-host/host"
)

type object struct {
	props map[string]host.Value
	keys  []string
	class string
}

func newObject(class string) *object {
	return &object{props: make(map[string]host.Value), class: class}
}

func (o *object) Kind() host.Kind { return host.KindObject }

func (o *object) Get(key string) (host.Value, bool) {
	v, ok := o.props[key]
	return v, ok
}

func (o *object) Set(key string, v host.Value) error {
	if v == nil {
		v = host.Undefined{}
	}
	if _, exists := o.props[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.props[key] = v
	return nil
}

func (o *object) Has(key string) bool {
	_, ok := o.props[key]
	return ok
}

func (o *object) Keys() []string {
	keys := make([]string, len(o.keys))
	copy(keys, o.keys)
	return keys
}

// Class returns the constructor-like tag of the object ("Object", "Error").
func (o *object) Class() string { return o.class }

func (o *object) String() string { return "[object " + o.class + "]" }

type function struct {
	*object
	rt   *Runtime
	name string
	fn   host.NativeFunc
}

func (f *function) Kind() host.Kind { return host.KindFunction }
func (f *function) Name() string    { return f.name }

func (f *function) Call(this host.Value, args ...host.Value) (host.Value, error) {
	if this == nil {
		this = host.Undefined{}
	}
	v, err := f.fn(this, args)
	if err != nil {
		if exc, ok := err.(*host.Exception); ok {
			return nil, exc
		}
		return nil, &host.Exception{Value: f.rt.NewError(err.Error())}
	}
	if v == nil {
		v = host.Undefined{}
	}
	return v, nil
}

func (f *function) String() string { return "function " + f.name + "() { [native code] }" }

type arrayBuffer struct {
	*object
	data     []byte
	external bool
}

func (b *arrayBuffer) Kind() host.Kind  { return host.KindArrayBuffer }
func (b *arrayBuffer) Bytes() []byte    { return b.data }
func (b *arrayBuffer) ByteLength() int  { return len(b.data) }
func (b *arrayBuffer) IsExternal() bool { return b.external }

func (b *arrayBuffer) String() string {
	return fmt.Sprintf("ArrayBuffer { byteLength: %d }", len(b.data))
}

type typedArray struct {
	*object
	typ    host.TypedArrayType
	buf    *arrayBuffer
	offset int
	length int
}

func (a *typedArray) Kind() host.Kind               { return host.KindTypedArray }
func (a *typedArray) Type() host.TypedArrayType     { return a.typ }
func (a *typedArray) Buffer() host.ArrayBuffer      { return a.buf }
func (a *typedArray) ByteOffset() int               { return a.offset }
func (a *typedArray) Len() int                      { return a.length }

func (a *typedArray) Bytes() []byte {
	end := a.offset + a.length*a.typ.ElementSize()
	return a.buf.data[a.offset:end:end]
}

func (a *typedArray) String() string {
	return fmt.Sprintf("TypedArray(%d) [%d elements]", a.typ, a.length)
}

type external struct {
	data any
}

func (e *external) Kind() host.Kind { return host.KindExternal }
func (e *external) Data() any       { return e.data }
func (e *external) String() string  { return "[External]" }
