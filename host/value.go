package host

import "fmt"

// Kind identifies the type of a script value
type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindBoolean
	KindNumber
	KindString
	KindObject
	KindFunction
	KindExternal
	KindArrayBuffer
	KindTypedArray
)

var kindNames = [...]string{
	KindUndefined:   "undefined",
	KindNull:        "null",
	KindBoolean:     "boolean",
	KindNumber:      "number",
	KindString:      "string",
	KindObject:      "object",
	KindFunction:    "function",
	KindExternal:    "external",
	KindArrayBuffer: "arraybuffer",
	KindTypedArray:  "typedarray",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// Value is any script value owned by a host engine
type Value interface {
	Kind() Kind
}

// Primitive values are engine-independent.
type (
	Undefined struct{}
	Null      struct{}
	Boolean   bool
	Number    float64
	String    string
)

func (Undefined) Kind() Kind { return KindUndefined }
func (Null) Kind() Kind      { return KindNull }
func (Boolean) Kind() Kind   { return KindBoolean }
func (Number) Kind() Kind    { return KindNumber }
func (String) Kind() Kind    { return KindString }

// Object is a script object with string-keyed properties
type Object interface {
	Value
	Get(key string) (Value, bool)
	Set(key string, v Value) error
	Has(key string) bool
	// Keys returns own property names in insertion order.
	Keys() []string
}

// NativeFunc implements a script-callable function in Go.
// Returning an error throws it into the calling script.
type NativeFunc func(this Value, args []Value) (Value, error)

// Function is a callable script object
type Function interface {
	Object
	Name() string
	Call(this Value, args ...Value) (Value, error)
}

// ArrayBuffer is a fixed-length binary buffer
type ArrayBuffer interface {
	Object
	// Bytes returns the backing memory, not a copy.
	Bytes() []byte
	ByteLength() int
}

// TypedArrayType is the element type of a typed array view
type TypedArrayType uint8

const (
	Int8Array TypedArrayType = iota
	Uint8Array
	Uint8ClampedArray
	Int16Array
	Uint16Array
	Int32Array
	Uint32Array
	Float32Array
	Float64Array
	BigInt64Array
	BigUint64Array
)

// ElementSize returns the size of one element in bytes
func (t TypedArrayType) ElementSize() int {
	switch t {
	case Int8Array, Uint8Array, Uint8ClampedArray:
		return 1
	case Int16Array, Uint16Array:
		return 2
	case Int32Array, Uint32Array, Float32Array:
		return 4
	default:
		return 8
	}
}

// TypedArray is a numeric view over an ArrayBuffer
type TypedArray interface {
	Object
	Type() TypedArrayType
	Buffer() ArrayBuffer
	ByteOffset() int
	// Len returns the number of elements.
	Len() int
	// Bytes returns the viewed region of the backing buffer, not a copy.
	Bytes() []byte
}

// External wraps an opaque Go value
type External interface {
	Value
	Data() any
}

// Exception carries a value thrown by script code
type Exception struct {
	Value Value
}

func (e *Exception) Error() string {
	if o, ok := e.Value.(Object); ok {
		if msg, ok := o.Get("message"); ok {
			if s, ok := msg.(String); ok {
				return "uncaught exception: " + string(s)
			}
		}
	}
	return fmt.Sprintf("uncaught exception: %v", e.Value)
}

// IsNullish reports whether v is nil, undefined or null
func IsNullish(v Value) bool {
	if v == nil {
		return true
	}
	k := v.Kind()
	return k == KindUndefined || k == KindNull
}
