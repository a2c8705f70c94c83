// Package errors provides structured error types for the addon host.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the addon identity when one is involved, a field path,
// and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseLoad, errors.KindLoadFailure).
//		Addon("my-pkg", "./native.node").
//		Detail("no registration function exported").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.UnsupportedPrefix("node")
//	err := errors.RootEscape("my-pkg", "../outside")
//
// Sentinels such as ErrInvalidSpecifier match with errors.Is on Phase and Kind.
// A root escape also matches ErrInvalidSpecifier.
package errors
