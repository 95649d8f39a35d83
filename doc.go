// Package octmat exchanges values with GNU Octave through MAT files.
//
// The library converts Go values to the MAT Level 5 container format
// and back with exact type and shape fidelity, and runs an Octave
// subprocess to evaluate code against those values.
//
// # Architecture Overview
//
//	octmat/
//	├── octave/     Go value model and the Encoder/Decoder pair
//	├── mat/        MAT Level 5 container reading and writing
//	├── session/    Octave subprocess lifecycle and Feval/Push/Pull/Eval
//	├── errors/     Structured error types, including remote errors
//	└── cmd/octmat/ MAT file inspector and interactive session
//
// # Quick Start
//
// Call an Octave function and get a typed result back:
//
//	sess, err := session.New(session.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer sess.Close()
//
//	out, err := sess.Feval(ctx, "sqrt", 1, 2.0)
//	fmt.Println(out) // 1.4142135623730951
//
// Or convert values without a subprocess:
//
//	arr, err := octave.NewEncoder().Encode([]float64{1, 2, 3})
//	err = mat.WriteFile("data.mat", []mat.Var{{Name: "x", Value: arr}}, mat.WriteOptions{})
//
// # Conversion Rules
//
// Numeric arrays round-trip with their element type and squeezed shape
// preserved. Aggregates map both ways:
//
//   - octave.Struct      <-> scalar struct
//   - octave.StructArray <-> struct array
//   - octave.Cell        <-> cell array
//   - octave.Sparse      <-> sparse double matrix
//   - string / []string  <-> char matrix
//
// A few conversions are deliberately one-way: nil becomes NaN, plain
// int becomes float64, and all-real complex data keeps a tiny
// imaginary part so it stays complex remotely. These are part of the
// library's contract, not accidents of the container format.
package octmat
