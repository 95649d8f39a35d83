// Package octave converts between Go values and the binary container
// format exchanged with a GNU Octave subprocess.
//
// # Value conversion
//
// The Encoder and Decoder are symmetric, synchronous and pure: one
// turns a Go value graph into container arrays, the other rebuilds
// type-faithful Go values from arrays read back from a response file.
//
//	┌────────────────────────────────────────────────────────┐
//	│ Go values ←→ [Encoder/Decoder] ←→ mat.Array ←→ .mat    │
//	└────────────────────────────────────────────────────────┘
//
// Axis order inverts at the boundary: Go data is row-major, the
// container is column-major, and a round trip restores the original
// element order. Trailing size-1 axes are compressed on decode, so a
// (3,1,1,1) array comes back as (3,).
//
// # Containers
//
//	Struct       - ordered string-keyed mapping, Octave struct
//	Cell         - ordered heterogeneous aggregate, Octave cell array
//	StructArray  - records sharing one field set, Octave struct array
//	NDArray      - rank-N homogeneous numeric array
//	Sparse       - 2-D compressed sparse column matrix
//
// # Narrowing contract
//
// Some conversions are lossy on purpose and kept as documented
// behavior: nil encodes as NaN (and decodes back as NaN, not nil),
// bools narrow to int8 or widen to float64 depending on
// ConvertToFloat, plain int always widens to float64, and complex data
// whose imaginary parts are all zero gets a 1e-9 imaginary part so the
// interpreter keeps treating it as complex.
//
// Values with no container representation, such as function handles,
// are rejected with an unsupported_value error and leave no partial
// file state.
//
// # Envelope
//
// WriteRequest, WriteVars, ReadVars and ReadResponse implement the
// file-based request/response cycle. A process-wide lock serializes
// writes; reading assumes the collaborator already signalled
// completion, and a missing or truncated response file surfaces as a
// malformed_response error rather than a partial result.
package octave
