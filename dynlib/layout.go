package dynlib

import (
	"path/filepath"
	"runtime"
	"strings"
)

// Format selects the binary format addons are shipped in.
type Format string

const (
	FormatNative Format = "native"
	FormatWasm   Format = "wasm"
)

// Layout maps addon identities to library paths.
type Layout struct {
	// GOOS selects the platform naming scheme; empty means runtime.GOOS.
	GOOS string
	// Dir is prepended to every library path when set.
	Dir string
	// Format overrides the platform scheme for non-native addons.
	Format Format
}

// Sanitize turns an addon path component into a library-safe name: a
// trailing ".node" is dropped and every non-alphanumeric byte becomes '-'.
func Sanitize(name string) string {
	name = strings.TrimSuffix(name, ".node")
	b := []byte(name)
	for i, c := range b {
		if !isAlnum(c) {
			b[i] = '-'
		}
	}
	return string(b)
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// LibraryName returns the platform-neutral library name for an addon.
func LibraryName(packageName, subpath string) string {
	return Sanitize(packageName) + Sanitize(subpath)
}

// LibraryPath returns where the library for an addon is expected.
//
//	darwin, ios   @rpath/<name>.framework/<name>
//	windows       <name>.dll
//	others        lib<name>.so
//	wasm format   <name>.wasm
func (l Layout) LibraryPath(packageName, subpath string) string {
	name := LibraryName(packageName, subpath)

	if l.Format == FormatWasm {
		return l.join(name + ".wasm")
	}

	goos := l.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	switch goos {
	case "darwin", "ios":
		rel := name + ".framework/" + name
		if l.Dir == "" {
			return "@rpath/" + rel
		}
		return filepath.Join(l.Dir, rel)
	case "windows":
		return l.join(name + ".dll")
	default:
		return l.join("lib" + name + ".so")
	}
}

func (l Layout) join(file string) string {
	if l.Dir == "" {
		return file
	}
	return filepath.Join(l.Dir, file)
}
