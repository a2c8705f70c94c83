package engine

import (
	"context"

	"github.com/wippyai/napi-host/host"
	"github.com/wippyai/napi-host/napi"
)

// Handle refers to a script value for the duration of one call into a
// module. Handle 0 never refers to a value.
type Handle = uint32

// scope maps handles to values for one call from the host into a module.
type scope struct {
	env    *napi.Env
	info   *napi.CallbackInfo
	values []host.Value
}

func newScope(env *napi.Env, info *napi.CallbackInfo) *scope {
	return &scope{env: env, info: info, values: make([]host.Value, 1, 8)}
}

func (s *scope) put(v host.Value) Handle {
	if v == nil {
		return 0
	}
	s.values = append(s.values, v)
	return Handle(len(s.values) - 1)
}

func (s *scope) get(h Handle) (host.Value, bool) {
	if h == 0 || int(h) >= len(s.values) {
		return nil, false
	}
	return s.values[h], true
}

type scopeKey struct{}

func withScope(ctx context.Context, s *scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

func scopeFrom(ctx context.Context) *scope {
	s, _ := ctx.Value(scopeKey{}).(*scope)
	return s
}

// loadState is carried in the context while a module is instantiated so
// initializers calling module_register can be attributed.
type loadState struct {
	path string
	lib  *library
}

type loadKey struct{}

func withLoad(ctx context.Context, ls *loadState) context.Context {
	return context.WithValue(ctx, loadKey{}, ls)
}

func loadFrom(ctx context.Context) *loadState {
	ls, _ := ctx.Value(loadKey{}).(*loadState)
	return ls
}
