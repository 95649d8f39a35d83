// Package session runs a GNU Octave subprocess and exchanges values
// with it through MAT files.
//
//	┌──────────┐  stdin/stdout   ┌───────────────┐
//	│ Session  │ ──────────────► │  octave-cli   │
//	│          │  req/resp .mat  │  octmat_eval  │
//	└──────────┘ ◄────────────── └───────────────┘
//
// Each evaluation is wrapped in a try/catch that echoes an end marker,
// so the stdout reader always resynchronizes even for commands that
// print nothing or fail. Function calls go through an installed shim
// that loads the request envelope, runs feval, and saves the response
// envelope; errors raised remotely come back as *errors.RemoteError
// with the interpreter's stack frames attached.
//
// The session is deliberately thin: process lifecycle, the marker
// protocol, and Feval/Push/Pull/Eval. Value conversion lives in the
// octave package.
package session
