package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wippyai/napi-host/host"
)

const maxDepth = 3

// formatValue renders v in a script-like notation.
func formatValue(v host.Value) string {
	var b strings.Builder
	writeValue(&b, v, 0)
	return b.String()
}

func writeValue(b *strings.Builder, v host.Value, depth int) {
	switch x := v.(type) {
	case nil, host.Undefined:
		b.WriteString("undefined")
	case host.Null:
		b.WriteString("null")
	case host.Boolean:
		b.WriteString(strconv.FormatBool(bool(x)))
	case host.Number:
		b.WriteString(strconv.FormatFloat(float64(x), 'g', -1, 64))
	case host.String:
		b.WriteString(strconv.Quote(string(x)))
	case host.Function:
		fmt.Fprintf(b, "[Function %s]", x.Name())
	case host.TypedArray:
		fmt.Fprintf(b, "TypedArray(%d) %x", x.Len(), x.Bytes())
	case host.ArrayBuffer:
		fmt.Fprintf(b, "ArrayBuffer(%d)", x.ByteLength())
	case host.External:
		fmt.Fprintf(b, "[External %T]", x.Data())
	case host.Object:
		keys := x.Keys()
		if depth >= maxDepth {
			fmt.Fprintf(b, "[Object %d keys]", len(keys))
			return
		}
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(k)
			b.WriteString(": ")
			pv, _ := x.Get(k)
			writeValue(b, pv, depth+1)
		}
		b.WriteByte('}')
	default:
		fmt.Fprintf(b, "<%s>", v.Kind())
	}
}

// parseArg reads a command-line argument as a number, boolean, null or,
// failing those, a string. Quoted input is always a string.
func parseArg(s string) host.Value {
	s = strings.TrimSpace(s)
	switch s {
	case "true":
		return host.Boolean(true)
	case "false":
		return host.Boolean(false)
	case "null":
		return host.Null{}
	case "undefined", "":
		return host.Undefined{}
	}
	if unq, err := strconv.Unquote(s); err == nil {
		return host.String(unq)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return host.Number(f)
	}
	return host.String(s)
}

func parseArgs(s string) []host.Value {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	args := make([]host.Value, len(parts))
	for i, p := range parts {
		args[i] = parseArg(p)
	}
	return args
}

// functions lists the callable properties of exports, or exports itself
// under its own name when it is a function.
func functions(exports host.Value) []string {
	if fn, ok := exports.(host.Function); ok {
		name := fn.Name()
		if name == "" {
			name = "default"
		}
		return []string{name}
	}
	obj, ok := exports.(host.Object)
	if !ok {
		return nil
	}
	var names []string
	for _, k := range obj.Keys() {
		if v, _ := obj.Get(k); v != nil {
			if _, ok := v.(host.Function); ok {
				names = append(names, k)
			}
		}
	}
	return names
}

func lookupFunction(exports host.Value, name string) (host.Function, bool) {
	if fn, ok := exports.(host.Function); ok {
		return fn, true
	}
	obj, ok := exports.(host.Object)
	if !ok {
		return nil, false
	}
	v, _ := obj.Get(name)
	fn, ok := v.(host.Function)
	return fn, ok
}
