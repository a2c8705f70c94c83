package napi

import (
	"go.uber.org/zap"

	"github.com/wippyai/napi-host/host"
)

// Buffers are emulated with an ArrayBuffer plus a Uint8Array view over the
// whole of it. The byte slices returned below alias engine memory.

// CreateBuffer allocates a zero-filled buffer of length bytes.
func (e *Env) CreateBuffer(length int) ([]byte, host.Value, Status) {
	if length <= 0 {
		return nil, nil, e.status(StatusInvalidArg)
	}
	ab, err := e.ec.Runtime.NewArrayBuffer(length)
	if err != nil {
		Logger().Debug("buffer allocation failed", zap.Int("length", length), zap.Error(err))
		return nil, nil, e.status(StatusGenericFailure)
	}
	return e.viewBuffer(ab)
}

// CreateBufferCopy allocates a buffer holding a copy of src.
func (e *Env) CreateBufferCopy(src []byte) ([]byte, host.Value, Status) {
	data, v, st := e.CreateBuffer(len(src))
	if st != StatusOK {
		return nil, nil, st
	}
	copy(data, src)
	return data, v, st
}

// CreateExternalBuffer exposes data to script without copying. finalize
// runs with data and hint when the engine reclaims the buffer.
func (e *Env) CreateExternalBuffer(data []byte, finalize Finalize, hint any) (host.Value, Status) {
	if data == nil {
		return nil, e.status(StatusInvalidArg)
	}
	var fin func()
	if finalize != nil {
		fin = func() { finalize(e, data, hint) }
	}
	ab, err := e.ec.Runtime.NewExternalArrayBuffer(data, fin)
	if err != nil {
		Logger().Debug("external buffer creation failed", zap.Error(err))
		return nil, e.status(StatusGenericFailure)
	}
	_, v, st := e.viewBuffer(ab)
	return v, st
}

// IsBuffer reports whether v is a binary buffer or a typed view over one.
func (e *Env) IsBuffer(v host.Value) (bool, Status) {
	switch v.(type) {
	case host.ArrayBuffer, host.TypedArray:
		return true, e.status(StatusOK)
	}
	return false, e.status(StatusOK)
}

// GetBufferInfo returns the bytes behind v. Values that are not buffers
// yield nil with StatusOK.
func (e *Env) GetBufferInfo(v host.Value) ([]byte, Status) {
	switch b := v.(type) {
	case host.TypedArray:
		return b.Bytes(), e.status(StatusOK)
	case host.ArrayBuffer:
		return b.Bytes(), e.status(StatusOK)
	}
	return nil, e.status(StatusOK)
}

func (e *Env) viewBuffer(ab host.ArrayBuffer) ([]byte, host.Value, Status) {
	view, err := e.ec.Runtime.NewTypedArray(host.Uint8Array, ab, 0, ab.ByteLength())
	if err != nil {
		Logger().Debug("buffer view creation failed", zap.Error(err))
		return nil, nil, e.status(StatusGenericFailure)
	}
	return view.Bytes(), view, e.status(StatusOK)
}
