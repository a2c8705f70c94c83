package runtime

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/napi-host/host"
)

// GlobalRequireName is the global function InstallGlobal defines.
const GlobalRequireName = "requireNodeAddon"

// InstallGlobal defines requireNodeAddon(requiredPath, packageName,
// requiredFrom) on the engine's global object. Any other arity, or a
// non-string argument, throws.
func (r *Runtime) InstallGlobal() error {
	fn := r.host.NewFunction(GlobalRequireName, func(_ host.Value, args []host.Value) (host.Value, error) {
		if len(args) != 3 {
			return nil, r.throw(fmt.Sprintf("%s expects 3 arguments, got %d", GlobalRequireName, len(args)))
		}
		strs := make([]string, 3)
		for i, a := range args {
			s, ok := a.(host.String)
			if !ok {
				return nil, r.throw(fmt.Sprintf("%s: argument %d must be a string, got %s", GlobalRequireName, i, kindOf(a)))
			}
			strs[i] = string(s)
		}

		v, err := r.Require(context.Background(), strs[0], strs[1], strs[2])
		if err != nil {
			if exc, ok := err.(*host.Exception); ok {
				return nil, exc
			}
			r.logger.Debug("require failed",
				zap.String("path", strs[0]), zap.String("package", strs[1]), zap.Error(err))
			return nil, r.throw(err.Error())
		}
		return v, nil
	})
	return r.host.Global().Set(GlobalRequireName, fn)
}

func (r *Runtime) throw(msg string) error {
	return &host.Exception{Value: r.host.NewError(msg)}
}

func kindOf(v host.Value) string {
	if v == nil {
		return host.KindUndefined.String()
	}
	return v.Kind().String()
}
