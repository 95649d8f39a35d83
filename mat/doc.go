// Package mat reads and writes Level 5 MAT-File containers, the binary
// exchange format used to move values to and from an Octave process.
//
// The package deals only in the container's own terms: named top-level
// bindings whose values are Array records holding column-major data.
// Conversion between Arrays and Go values, including axis-order
// inversion, lives in the octave package.
//
//	┌──────────────────────────────────────────────────┐
//	│ octave.Encoder/Decoder ←→ mat.Array ←→ .mat file │
//	└──────────────────────────────────────────────────┘
//
// The writer emits the uncompressed layout Octave's "save -v6" produces.
// The reader additionally inflates zlib-compressed elements, so files
// written by "save -v7" load as well.
package mat
