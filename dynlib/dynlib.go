package dynlib

import (
	"context"
	stderrors "errors"
)

// ErrNotFound is returned when no library exists at a path.
var ErrNotFound = stderrors.New("dynlib: library not found")

// Library is an opened native library.
type Library interface {
	// Path is the path the library was opened from.
	Path() string

	// Symbol looks up an exported symbol by its C name. A loader that
	// finds the symbol but cannot adapt it returns an error value.
	Symbol(name string) (any, bool)

	// Close releases the library. Native shared objects cannot be
	// unloaded, so for them Close only drops bookkeeping.
	Close() error
}

// Loader opens libraries by path.
type Loader interface {
	Load(ctx context.Context, path string) (Library, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, path string) (Library, error)

func (f LoaderFunc) Load(ctx context.Context, path string) (Library, error) {
	return f(ctx, path)
}
