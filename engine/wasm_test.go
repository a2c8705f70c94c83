package engine

// A minimal WebAssembly binary encoder for building test addons.

const (
	valI32 byte = 0x7f
	valF64 byte = 0x7c

	opLocalGet byte = 0x20
	opI32Const byte = 0x41
	opCall     byte = 0x10
	opDrop     byte = 0x1a
	opI32Add   byte = 0x6a
	opEnd      byte = 0x0b
)

type sig struct {
	params  []byte
	results []byte
}

type wasmImport struct {
	name string
	sig  sig
}

type wasmFunc struct {
	export string
	sig    sig
	body   []byte
}

func uleb(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

func sleb(v int32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

func wname(s string) []byte {
	return append(uleb(uint32(len(s))), s...)
}

func section(id byte, count int, entries ...[]byte) []byte {
	content := uleb(uint32(count))
	for _, e := range entries {
		content = append(content, e...)
	}
	out := append([]byte{id}, uleb(uint32(len(content)))...)
	return append(out, content...)
}

// i32c encodes i32.const v.
func i32c(v int32) []byte {
	return append([]byte{opI32Const}, sleb(v)...)
}

func call(idx uint32) []byte {
	return append([]byte{opCall}, uleb(idx)...)
}

func localGet(idx uint32) []byte {
	return append([]byte{opLocalGet}, uleb(idx)...)
}

func code(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// buildModule encodes a module importing funcs from the napi host module,
// defining funcs, and exporting one page of memory initialized with data.
func buildModule(imports []wasmImport, funcs []wasmFunc, data string) []byte {
	out := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

	var types [][]byte
	for _, im := range imports {
		types = append(types, encodeSig(im.sig))
	}
	for _, f := range funcs {
		types = append(types, encodeSig(f.sig))
	}
	out = append(out, section(1, len(types), types...)...)

	var imps [][]byte
	for i, im := range imports {
		e := append(wname(HostModuleName), wname(im.name)...)
		e = append(e, 0x00)
		imps = append(imps, append(e, uleb(uint32(i))...))
	}
	out = append(out, section(2, len(imps), imps...)...)

	var fidx [][]byte
	for i := range funcs {
		fidx = append(fidx, uleb(uint32(len(imports)+i)))
	}
	out = append(out, section(3, len(fidx), fidx...)...)

	out = append(out, section(5, 1, []byte{0x00, 0x01})...)

	exports := [][]byte{append(wname("memory"), 0x02, 0x00)}
	for i, f := range funcs {
		if f.export == "" {
			continue
		}
		e := append(wname(f.export), 0x00)
		exports = append(exports, append(e, uleb(uint32(len(imports)+i))...))
	}
	out = append(out, section(7, len(exports), exports...)...)

	var bodies [][]byte
	for _, f := range funcs {
		body := append([]byte{0x00}, f.body...)
		body = append(body, opEnd)
		bodies = append(bodies, append(uleb(uint32(len(body))), body...))
	}
	out = append(out, section(10, len(bodies), bodies...)...)

	if data != "" {
		seg := append([]byte{0x00}, i32c(0)...)
		seg = append(seg, opEnd)
		seg = append(seg, wname(data)...)
		out = append(out, section(11, 1, seg)...)
	}
	return out
}

func encodeSig(s sig) []byte {
	out := []byte{0x60}
	out = append(out, uleb(uint32(len(s.params)))...)
	out = append(out, s.params...)
	out = append(out, uleb(uint32(len(s.results)))...)
	return append(out, s.results...)
}
