package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseEncode  Phase = "encode"  // Go to MAT
	PhaseDecode  Phase = "decode"  // MAT to Go
	PhaseParse   Phase = "parse"   // MAT container parsing
	PhaseWrite   Phase = "write"   // MAT container serialization
	PhaseSession Phase = "session" // subprocess operations
)

// Kind categorizes the error
type Kind string

const (
	KindUnsupportedValue  Kind = "unsupported_value"
	KindMalformedResponse Kind = "malformed_response"
	KindRemoteError       Kind = "remote_error"
	KindInvalidData       Kind = "invalid_data"
	KindTypeMismatch      Kind = "type_mismatch"
	KindNotFound          Kind = "not_found"
	KindOverflow          Kind = "overflow"
	KindProcess           Kind = "process"
	KindTimeout           Kind = "timeout"
)

// Error is the structured error type used throughout the library
type Error struct {
	Value   any
	Cause   error
	Phase   Phase
	Kind    Kind
	GoType  string
	MatType string
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

	if e.GoType != "" || e.MatType != "" {
		b.WriteString(": ")
		if e.GoType != "" && e.MatType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", MAT type ")
			b.WriteString(e.MatType)
		} else if e.GoType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		} else {
			b.WriteString("MAT type ")
			b.WriteString(e.MatType)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.MatType != "" {
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

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
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

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// MatType sets the MAT class or element type name
func (b *Builder) MatType(t string) *Builder {
	b.err.MatType = t
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

// Unsupported creates an unsupported-value error for encode-time rejections
func Unsupported(path []string, goType, detail string) *Error {
	return &Error{
		Phase:  PhaseEncode,
		Kind:   KindUnsupportedValue,
		Path:   path,
		GoType: goType,
		Detail: detail,
	}
}

// Malformed creates a malformed-response error for decode-time failures
func Malformed(path []string, detail string) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindMalformedResponse,
		Path:   path,
		Detail: detail,
	}
}

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, goType, matType string) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindTypeMismatch,
		Path:    path,
		GoType:  goType,
		MatType: matType,
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

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, path []string, value any, targetType string) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindOverflow,
		Path:    path,
		MatType: targetType,
		Detail:  fmt.Sprintf("value %v overflows %s", value, targetType),
		Value:   value,
	}
}

// Process creates a subprocess lifecycle error
func Process(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseSession,
		Kind:   KindProcess,
		Detail: detail,
		Cause:  cause,
	}
}

// Timeout creates a timeout error
func Timeout(detail string) *Error {
	return &Error{
		Phase:  PhaseSession,
		Kind:   KindTimeout,
		Detail: detail,
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

// StackFrame is one entry of an Octave error call stack.
type StackFrame struct {
	Name   string
	Line   int
	Column int // zero when the interpreter did not report one
}

// String formats the frame as "<name> at line <line>[, column <column>]".
func (f StackFrame) String() string {
	if f.Column > 0 {
		return fmt.Sprintf("%s at line %d, column %d", f.Name, f.Line, f.Column)
	}
	return fmt.Sprintf("%s at line %d", f.Name, f.Line)
}

// RemoteError is returned when the interpreter reports a failure in the
// response file. It carries the interpreter's message plus the call
// stack it reported, one line per frame. The final frame is the
// evaluation shim itself and is omitted from the rendered message.
type RemoteError struct {
	Message string
	Stack   []StackFrame
}

func (e *RemoteError) Error() string {
	if len(e.Stack) == 0 {
		return e.Message
	}

	var b strings.Builder
	b.WriteString(e.Message)

	frames := e.Stack[:len(e.Stack)-1]
	for _, f := range frames {
		b.WriteString("\n    ")
		b.WriteString(f.String())
	}
	return b.String()
}

// Is reports whether target matches this error type
func (e *RemoteError) Is(target error) bool {
	_, ok := target.(*RemoteError)
	return ok
}
