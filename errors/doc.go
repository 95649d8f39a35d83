// Package errors provides structured error types for the octmat library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: value path, Go/MAT type names, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseEncode, errors.KindUnsupportedValue).
//		Path("args", "2").
//		GoType("octave.FuncPtr").
//		Detail("cannot write Octave functions").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Unsupported(path, "chan int", "no MAT representation")
//	err := errors.Malformed(path, "expected variable absent from response")
//
// RemoteError is distinct: it represents a failure reported by the Octave
// interpreter itself, with the message and call stack it returned.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
