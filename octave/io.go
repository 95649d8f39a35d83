package octave

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/blink1073/octmat/errors"
	"github.com/blink1073/octmat/mat"
)

// writeLock serializes encode-and-write cycles. The collaborator process
// model allows one in-flight request per session, and sessions sharing a
// temp directory must not interleave writes into one file.
var writeLock sync.Mutex

// NoValue is the sentinel the evaluation shim stores when a call
// produced no meaningful return. A size-1 cell holding it decodes to nil.
const NoValue = "__no_value__"

// Request is the envelope written before invoking the interpreter.
type Request struct {
	FuncName string
	FuncArgs []any
	Dname    string // directory hint for the evaluation shim
	Nout     int
	StoreAs  string // workspace name for the result, empty to return it
	// RefIndices marks, 1-based, which arguments are remote-variable
	// addresses rather than values.
	RefIndices []int
}

// Response is the envelope read back after the interpreter completes.
type Response struct {
	Result any
	Err    *errors.RemoteError
}

// WriteRequest encodes the request envelope to a MAT file. All fields
// are written as top-level bindings so the shim can load them by name.
func WriteRequest(path string, req *Request, enc *Encoder) error {
	if enc == nil {
		enc = NewEncoder()
	}
	args := make([]any, len(req.FuncArgs))
	copy(args, req.FuncArgs)
	for i, arg := range args {
		if ptr, ok := arg.(VarPtr); ok {
			args[i] = ptr.Address
		}
	}
	refs := make([]any, len(req.RefIndices))
	for i, idx := range req.RefIndices {
		refs[i] = idx
	}

	envelope := StructOf(
		"func_name", req.FuncName,
		"func_args", Tuple(args),
		"dname", req.Dname,
		"nout", req.Nout,
		"store_as", req.StoreAs,
		"ref_indices", refs,
	)

	writeLock.Lock()
	defer writeLock.Unlock()

	vars := make([]mat.Var, 0, envelope.Len())
	for _, name := range envelope.Fields() {
		v, _ := envelope.Get(name)
		encoded, err := enc.encode(v, []string{name})
		if err != nil {
			return err
		}
		vars = append(vars, mat.Var{Name: name, Value: encoded})
	}
	Logger().Debug("write request",
		zap.String("path", path),
		zap.String("func", req.FuncName),
		zap.Int("nargs", len(args)))
	return mat.WriteFile(path, vars, mat.WriteOptions{})
}

// WriteVars encodes values to a MAT file under the given names. Absent
// names are auto-generated in ASCII-incrementing order starting at "A".
// It returns the bound names and a command fragment naming them, ready
// to splice into an interpreter expression.
func WriteVars(path string, values []any, names []string, enc *Encoder) ([]string, string, error) {
	if enc == nil {
		enc = NewEncoder()
	}
	bound := make([]string, len(values))
	for i := range values {
		if i < len(names) && names[i] != "" {
			bound[i] = names[i]
		} else {
			bound[i] = InputName(i)
		}
	}

	writeLock.Lock()
	defer writeLock.Unlock()

	vars := make([]mat.Var, len(values))
	for i, v := range values {
		encoded, err := enc.encode(v, []string{bound[i]})
		if err != nil {
			return nil, "", err
		}
		vars[i] = mat.Var{Name: bound[i], Value: encoded}
	}
	Logger().Debug("write vars", zap.String("path", path), zap.Strings("names", bound))
	if err := mat.WriteFile(path, vars, mat.WriteOptions{}); err != nil {
		return nil, "", err
	}
	return bound, strings.Join(bound, ", "), nil
}

// InputName returns the i-th auto-generated input binding name:
// "A", "B", "C", ... in ASCII order.
func InputName(i int) string {
	return string(rune('A' + i))
}

// OutputName returns the i-th auto-generated output binding name:
// "a__", "b__", ... in ASCII order.
func OutputName(i int) string {
	return string(rune('a'+i)) + "__"
}

// OutputNames returns the first n output binding names and a command
// fragment naming them.
func OutputNames(n int) ([]string, string) {
	names := make([]string, n)
	for i := range names {
		names[i] = OutputName(i)
	}
	return names, strings.Join(names, ", ")
}

// ReadVars loads the named variables from a MAT file and decodes each.
// A missing variable is a malformed response: decoding must never be
// attempted against a file the interpreter did not finish writing.
func ReadVars(path string, names []string, dec *Decoder) (map[string]any, error) {
	if dec == nil {
		dec = NewDecoder()
	}
	if _, err := os.Stat(path); err != nil {
		return nil, errors.New(errors.PhaseDecode, errors.KindMalformedResponse).
			Detail("response file absent: %s", path).
			Cause(err).
			Build()
	}
	vars, err := mat.ReadFile(path)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(names))
	for _, name := range names {
		raw, ok := mat.Lookup(vars, name)
		if !ok {
			return nil, errors.Malformed([]string{name}, "expected variable absent from response file")
		}
		value, err := dec.decode(raw, []string{name})
		if err != nil {
			return nil, err
		}
		out[name] = value
	}
	Logger().Debug("read vars", zap.String("path", path), zap.Strings("names", names))
	return out, nil
}

// ReadResponse loads and interprets the response envelope. A populated
// err record is always surfaced as a RemoteError; the result is never
// partially returned alongside one.
func ReadResponse(path string, dec *Decoder) (*Response, error) {
	if dec == nil {
		dec = NewDecoder()
	}
	if _, err := os.Stat(path); err != nil {
		return nil, errors.New(errors.PhaseDecode, errors.KindMalformedResponse).
			Detail("response file absent: %s", path).
			Cause(err).
			Build()
	}
	vars, err := mat.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if raw, ok := mat.Lookup(vars, "err"); ok {
		decoded, err := dec.decode(raw, []string{"err"})
		if err != nil {
			return nil, err
		}
		if remote := asRemoteError(decoded); remote != nil {
			return nil, remote
		}
	}

	raw, ok := mat.Lookup(vars, "result")
	if !ok {
		return nil, errors.Malformed([]string{"result"}, "expected variable absent from response file")
	}
	result, err := dec.decode(raw, []string{"result"})
	if err != nil {
		return nil, err
	}
	return &Response{Result: unwrapSentinel(result)}, nil
}

// unwrapSentinel maps the shim's no-value marker to nil.
func unwrapSentinel(result any) any {
	cell, ok := result.(*Cell)
	if !ok || cell.Len() != 1 {
		return result
	}
	if s, ok := cell.At(0).(string); ok && s == NoValue {
		return nil
	}
	return result
}

// asRemoteError converts a decoded err record into a RemoteError, or
// nil when the record carries no message.
func asRemoteError(decoded any) *errors.RemoteError {
	s, ok := decoded.(*Struct)
	if !ok {
		return nil
	}
	msgVal, ok := s.Get("message")
	if !ok {
		return nil
	}
	msg, _ := msgVal.(string)
	if msg == "" {
		return nil
	}
	remote := &errors.RemoteError{Message: msg}

	stackVal, ok := s.Get("stack")
	if !ok {
		return remote
	}
	switch stack := stackVal.(type) {
	case *Struct:
		remote.Stack = append(remote.Stack, stackFrame(stack))
	case *StructArray:
		for i := 0; i < stack.Len(); i++ {
			remote.Stack = append(remote.Stack, stackFrame(stack.Index(i)))
		}
	}
	return remote
}

func stackFrame(s *Struct) errors.StackFrame {
	frame := errors.StackFrame{}
	if v, ok := s.Get("name"); ok {
		frame.Name = fmt.Sprint(v)
	}
	if v, ok := s.Get("line"); ok {
		frame.Line = intFrom(v)
	}
	if v, ok := s.Get("column"); ok {
		frame.Column = intFrom(v)
	}
	return frame
}

func intFrom(v any) int {
	switch x := v.(type) {
	case float64:
		return int(x)
	case float32:
		return int(x)
	case int:
		return x
	case int8:
		return int(x)
	case int16:
		return int(x)
	case int32:
		return int(x)
	case int64:
		return int(x)
	case uint8:
		return int(x)
	case uint16:
		return int(x)
	case uint32:
		return int(x)
	case uint64:
		return int(x)
	}
	return 0
}
