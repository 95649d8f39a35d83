package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:   PhaseEncode,
				Kind:    KindTypeMismatch,
				Path:    []string{"user", "address", "zip"},
				GoType:  "string",
				MatType: "double",
				Detail:  "cannot convert",
			},
			contains: []string{"[encode]", "type_mismatch", "user.address.zip", "string", "double", "cannot convert"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseDecode,
				Kind:  KindMalformedResponse,
			},
			contains: []string{"[decode]", "malformed_response"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseSession,
				Kind:   KindProcess,
				Detail: "interpreter exited",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[session]", "process", "interpreter exited", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseEncode,
		Kind:  KindInvalidData,
		Cause: cause,
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is did not see the cause")
	}
	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseEncode,
		Kind:  KindUnsupportedValue,
		Path:  []string{"foo"},
	}

	if !errors.Is(err, &Error{Phase: PhaseEncode, Kind: KindUnsupportedValue}) {
		t.Error("expected match on phase and kind")
	}
	if errors.Is(err, &Error{Phase: PhaseDecode, Kind: KindUnsupportedValue}) {
		t.Error("unexpected match across phases")
	}
	if errors.Is(err, &Error{Phase: PhaseEncode, Kind: KindOverflow}) {
		t.Error("unexpected match across kinds")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("inner")
	err := New(PhaseDecode, KindInvalidData).
		Path("result", "x").
		GoType("[]float64").
		MatType("int32").
		Value(42).
		Cause(cause).
		Detail("mismatched %s", "storage").
		Build()

	if err.Phase != PhaseDecode || err.Kind != KindInvalidData {
		t.Fatalf("phase/kind = %s/%s", err.Phase, err.Kind)
	}
	if len(err.Path) != 2 || err.Path[1] != "x" {
		t.Errorf("path = %v", err.Path)
	}
	if err.Detail != "mismatched storage" {
		t.Errorf("detail = %q", err.Detail)
	}
	if !errors.Is(err, cause) {
		t.Error("cause not wrapped")
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name  string
		err   *Error
		phase Phase
		kind  Kind
	}{
		{"unsupported", Unsupported([]string{"f"}, "chan int", "no representation"), PhaseEncode, KindUnsupportedValue},
		{"malformed", Malformed([]string{"result"}, "missing variable"), PhaseDecode, KindMalformedResponse},
		{"type mismatch", TypeMismatch(PhaseDecode, nil, "bool", "double"), PhaseDecode, KindTypeMismatch},
		{"not found", NotFound(PhaseSession, "workspace variable", "x"), PhaseSession, KindNotFound},
		{"invalid data", InvalidData(PhaseParse, nil, "bad dims"), PhaseParse, KindInvalidData},
		{"overflow", Overflow(PhaseDecode, nil, int64(1) << 60, "int32"), PhaseDecode, KindOverflow},
		{"process", Process("spawn failed", errors.New("exec")), PhaseSession, KindProcess},
		{"timeout", Timeout("call exceeded deadline"), PhaseSession, KindTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Phase != tt.phase {
				t.Errorf("phase = %s, want %s", tt.err.Phase, tt.phase)
			}
			if tt.err.Kind != tt.kind {
				t.Errorf("kind = %s, want %s", tt.err.Kind, tt.kind)
			}
		})
	}
}

func TestStackFrame_String(t *testing.T) {
	tests := []struct {
		name  string
		frame StackFrame
		want  string
	}{
		{"line only", StackFrame{Name: "foo", Line: 10}, "foo at line 10"},
		{"line and column", StackFrame{Name: "bar", Line: 3, Column: 7}, "bar at line 3, column 7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.frame.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRemoteError(t *testing.T) {
	err := &RemoteError{
		Message: "'undefined_fn' undefined",
		Stack: []StackFrame{
			{Name: "foo", Line: 10},
			{Name: "bar", Line: 22, Column: 4},
		},
	}

	msg := err.Error()
	if !strings.Contains(msg, "'undefined_fn' undefined") {
		t.Errorf("message missing from %q", msg)
	}
	// The last frame is the evaluation harness itself and is omitted.
	if !strings.Contains(msg, "foo at line 10") {
		t.Errorf("first frame missing from %q", msg)
	}
	if strings.Contains(msg, "bar at line 22") {
		t.Errorf("last frame should be omitted, got %q", msg)
	}
}

func TestRemoteError_SingleFrame(t *testing.T) {
	err := &RemoteError{
		Message: "division by zero",
		Stack:   []StackFrame{{Name: "harness", Line: 1}},
	}
	if strings.Contains(err.Error(), "harness") {
		t.Errorf("lone frame should be omitted, got %q", err.Error())
	}
}

func TestRemoteError_Is(t *testing.T) {
	var err error = &RemoteError{Message: "boom"}
	if !errors.Is(err, &RemoteError{}) {
		t.Error("expected match by type")
	}
}
