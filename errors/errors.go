package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseResolve     Phase = "resolve"     // specifier validation and dispatch
	PhaseLoad        Phase = "load"        // dynamic library loading
	PhaseInstantiate Phase = "instantiate" // registration function invocation
	PhaseAsync       Phase = "async"       // async work scheduling
	PhaseBuffer      Phase = "buffer"      // buffer shim
	PhaseABI         Phase = "abi"         // native ABI contract
	PhaseHost        Phase = "host"        // host engine primitives
	PhaseConfig      Phase = "config"      // configuration loading
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidSpecifier  Kind = "invalid_specifier"
	KindRootEscape        Kind = "root_escape"
	KindUnsupportedPrefix Kind = "unsupported_prefix"
	KindLoadFailure       Kind = "load_failure"
	KindInvalidHandle     Kind = "invalid_handle"
	KindStateConflict     Kind = "state_conflict"
	KindFatalABI          Kind = "fatal_abi"
	KindInvalidInput      Kind = "invalid_input"
	KindNotFound          Kind = "not_found"
	KindTypeMismatch      Kind = "type_mismatch"
	KindRegistration      Kind = "registration"
	KindInstantiation     Kind = "instantiation"
	KindPendingException  Kind = "pending_exception"
)

// Sentinels for errors.Is. Matching compares Phase and Kind only.
var (
	ErrInvalidSpecifier  = &Error{Phase: PhaseResolve, Kind: KindInvalidSpecifier}
	ErrRootEscape        = &Error{Phase: PhaseResolve, Kind: KindRootEscape}
	ErrUnsupportedPrefix = &Error{Phase: PhaseResolve, Kind: KindUnsupportedPrefix}
	ErrLoadFailure       = &Error{Phase: PhaseLoad, Kind: KindLoadFailure}
	ErrInvalidHandle     = &Error{Phase: PhaseAsync, Kind: KindInvalidHandle}
	ErrStateConflict     = &Error{Phase: PhaseAsync, Kind: KindStateConflict}
	ErrFatalABI          = &Error{Phase: PhaseABI, Kind: KindFatalABI}
	ErrPendingException  = &Error{Phase: PhaseHost, Kind: KindPendingException}
)

// Error is the structured error type used throughout the module
type Error struct {
	Value   any
	Cause   error
	Phase   Phase
	Kind    Kind
	Package string
	Subpath string
	Detail  string
	Path    []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Package != "" || e.Subpath != "" {
		b.WriteString(": addon ")
		b.WriteString(e.Package)
		if e.Subpath != "" {
			b.WriteByte(' ')
			b.WriteString(e.Subpath)
		}
	}

	if e.Detail != "" {
		if e.Package != "" || e.Subpath != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// A root escape is also an invalid specifier.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Phase == t.Phase && e.Kind == t.Kind {
		return true
	}
	return e.Kind == KindRootEscape && t.Kind == KindInvalidSpecifier && e.Phase == t.Phase
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Addon sets the addon identity
func (b *Builder) Addon(packageName, subpath string) *Builder {
	b.err.Package = packageName
	b.err.Subpath = subpath
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// InvalidSpecifier creates an invalid specifier error for the named argument
func InvalidSpecifier(field, value string) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindInvalidSpecifier,
		Path:   []string{field},
		Value:  value,
		Detail: fmt.Sprintf("invalid characters in %q, only ASCII alphanumerics and _-./: are allowed", value),
	}
}

// RootEscape creates an error for a subpath that leaves its package root
func RootEscape(packageName, subpath string) *Error {
	return &Error{
		Phase:   PhaseResolve,
		Kind:    KindRootEscape,
		Package: packageName,
		Value:   subpath,
		Detail:  fmt.Sprintf("subpath %q must be relative and cannot leave its package root", subpath),
	}
}

// UnsupportedPrefix creates an error for a prefix without a registered handler
func UnsupportedPrefix(prefix string) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindUnsupportedPrefix,
		Value:  prefix,
		Detail: fmt.Sprintf("unsupported protocol or prefix %q, have you registered it?", prefix),
	}
}

// LoadFailure creates a retryable load failure for an addon identity
func LoadFailure(packageName, subpath, detail string, cause error) *Error {
	return &Error{
		Phase:   PhaseLoad,
		Kind:    KindLoadFailure,
		Package: packageName,
		Subpath: subpath,
		Detail:  detail,
		Cause:   cause,
	}
}

// InvalidHandle creates an error for an unknown or stale async handle
func InvalidHandle(what string, handle any) *Error {
	return &Error{
		Phase:  PhaseAsync,
		Kind:   KindInvalidHandle,
		Value:  handle,
		Detail: fmt.Sprintf("%s handle %v is unknown or stale", what, handle),
	}
}

// StateConflict creates an error for an illegal lifecycle transition
func StateConflict(op, state string) *Error {
	return &Error{
		Phase:  PhaseAsync,
		Kind:   KindStateConflict,
		Value:  state,
		Detail: fmt.Sprintf("cannot %s work in state %s", op, state),
	}
}

// FatalABI creates an ABI contract violation error
func FatalABI(location, message string) *Error {
	return &Error{
		Phase:  PhaseABI,
		Kind:   KindFatalABI,
		Path:   []string{location},
		Detail: message,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// TypeMismatch creates an error for a host value of the wrong kind
func TypeMismatch(phase Phase, path []string, want, got string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		Path:   path,
		Detail: fmt.Sprintf("expected %s, got %s", want, got),
	}
}

// Registration creates a handler registration error
func Registration(phase Phase, table, name string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindRegistration,
		Detail: fmt.Sprintf("register %s %q", table, name),
		Cause:  cause,
	}
}

// Instantiation creates an instantiation error for an addon
func Instantiation(packageName, subpath string, cause error) *Error {
	return &Error{
		Phase:   PhaseInstantiate,
		Kind:    KindInstantiation,
		Package: packageName,
		Subpath: subpath,
		Detail:  "instantiate addon",
		Cause:   cause,
	}
}

// PendingException wraps a value thrown by script code
func PendingException(thrown any) *Error {
	return &Error{
		Phase:  PhaseHost,
		Kind:   KindPendingException,
		Value:  thrown,
		Detail: fmt.Sprintf("uncaught exception: %v", thrown),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}
