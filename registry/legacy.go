package registry

import (
	"reflect"
	"runtime"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/napi-host/dynlib"
	"github.com/wippyai/napi-host/napi"
)

// LegacyRecord is a registration made from a library initializer rather
// than through the v1 export.
type LegacyRecord struct {
	Callback napi.RegisterFunc
	// Symbol is the name the callback is exported under, if known.
	Symbol string
	// Owner is the path of the library that registered, if known.
	Owner string
	// LoadSeq is the load that was in progress when the record was made,
	// or 0 if none was.
	LoadSeq uint64
}

// HandleLegacyRegistration records callback as the pending legacy
// registration. symbol and owner help attribute the record to the library
// being loaded and may be empty. It returns false if a record is already
// pending; a nil callback is a fatal error.
func (r *Registry) HandleLegacyRegistration(callback napi.RegisterFunc, symbol, owner string) bool {
	if callback == nil {
		napi.FatalError("napi_module_register", "module registration function is null")
		return false
	}
	if symbol == "" {
		symbol = funcName(callback)
	}

	r.legacyMu.Lock()
	defer r.legacyMu.Unlock()
	if r.pending != nil {
		Logger().Warn("legacy registration already pending",
			zap.String("pending", r.pending.Symbol), zap.String("rejected", symbol))
		return false
	}
	r.pending = &LegacyRecord{
		Callback: callback,
		Symbol:   symbol,
		Owner:    owner,
		LoadSeq:  r.currentLoad,
	}
	Logger().Debug("legacy registration recorded",
		zap.String("symbol", symbol), zap.String("owner", owner), zap.Uint64("load", r.currentLoad))
	return true
}

// Pending returns a copy of the pending legacy record, if any.
func (r *Registry) Pending() (LegacyRecord, bool) {
	r.legacyMu.Lock()
	defer r.legacyMu.Unlock()
	if r.pending == nil {
		return LegacyRecord{}, false
	}
	return *r.pending, true
}

func (r *Registry) beginLoad() uint64 {
	r.legacyMu.Lock()
	defer r.legacyMu.Unlock()
	if r.pending != nil {
		Logger().Warn("discarding legacy registration made outside any load",
			zap.String("symbol", r.pending.Symbol))
		r.pending = nil
	}
	r.loadSeq++
	r.currentLoad = r.loadSeq
	return r.loadSeq
}

func (r *Registry) endLoad() {
	r.legacyMu.Lock()
	defer r.legacyMu.Unlock()
	r.pending = nil
	r.currentLoad = 0
}

func (r *Registry) takePending() *LegacyRecord {
	r.legacyMu.Lock()
	defer r.legacyMu.Unlock()
	rec := r.pending
	r.pending = nil
	return rec
}

// attributable decides whether rec was made by lib. An explicit owner
// wins, then a matching exported symbol, then the load sequence.
func attributable(rec *LegacyRecord, lib dynlib.Library, path string, seq uint64) bool {
	if rec.Owner != "" {
		return rec.Owner == path || rec.Owner == lib.Path()
	}
	if rec.Symbol != "" {
		if sym, ok := lib.Symbol(rec.Symbol); ok {
			if fn, err := asRegisterFunc(sym); err == nil && sameFunc(fn, rec.Callback) {
				return true
			}
		}
	}
	return rec.LoadSeq == seq
}

func sameFunc(a, b napi.RegisterFunc) bool {
	if a == nil || b == nil {
		return false
	}
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

func funcName(fn napi.RegisterFunc) string {
	f := runtime.FuncForPC(reflect.ValueOf(fn).Pointer())
	if f == nil {
		return ""
	}
	name := f.Name()
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	return name
}
