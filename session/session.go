package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/blink1073/octmat/errors"
	"github.com/blink1073/octmat/octave"
)

// Remote pointer types, re-exported so callers holding only a Session
// need not import the value package for them.
type (
	VarPtr  = octave.VarPtr
	FuncPtr = octave.FuncPtr
)

// Stream markers bracketing each evaluation. The interpreter echoes
// markerDone after the wrapped commands complete and markerFail after
// the catch branch runs, so the reader always knows where a response
// ends even when the commands print nothing.
const (
	markerDone = "\x03"
	markerFail = "\x15"
)

// Config holds session creation options.
type Config struct {
	// Executable is the interpreter binary, resolved via PATH.
	Executable string

	// TempDir hosts the exchange files and the evaluation shim.
	// Empty means a fresh os.MkdirTemp directory removed on Close.
	TempDir string

	// Timeout bounds each evaluation. 0 means no bound beyond the
	// caller's context.
	Timeout time.Duration

	// OnedAs orients rank-1 data: "row" or "column".
	OnedAs string

	// ConvertToFloat widens integer and bool inputs to double.
	ConvertToFloat bool
}

// DefaultConfig returns the stock configuration: octave-cli from PATH,
// row orientation, integer widening on.
func DefaultConfig() Config {
	return Config{
		Executable:     "octave-cli",
		OnedAs:         "row",
		ConvertToFloat: true,
	}
}

// Session is a live interpreter subprocess exchanging values through
// MAT files. Methods are safe for concurrent use; evaluations are
// serialized because the subprocess handles one command at a time.
type Session struct {
	cfg     Config
	tempDir string
	ownDir  bool

	cmd   *exec.Cmd
	stdin io.WriteCloser
	lines chan string

	enc *octave.Encoder
	dec *octave.Decoder

	mu     sync.Mutex
	closed bool
	broken bool

	classMu sync.RWMutex
	classes map[string]octave.ClassFactory
}

// New starts an interpreter subprocess and installs the evaluation
// shim. The returned session must be closed to reap the process and
// remove its temp directory.
func New(cfg Config) (*Session, error) {
	if cfg.Executable == "" {
		cfg.Executable = "octave-cli"
	}
	if cfg.OnedAs == "" {
		cfg.OnedAs = "row"
	}
	path, err := exec.LookPath(cfg.Executable)
	if err != nil {
		return nil, errors.Process(fmt.Sprintf("interpreter %q not found", cfg.Executable), err)
	}

	tempDir := cfg.TempDir
	ownDir := false
	if tempDir == "" {
		tempDir, err = os.MkdirTemp("", "octmat-")
		if err != nil {
			return nil, errors.Process("create session temp dir", err)
		}
		ownDir = true
	}
	shimPath := filepath.Join(tempDir, shimName+".m")
	if err := os.WriteFile(shimPath, []byte(shimSource), 0o644); err != nil {
		if ownDir {
			os.RemoveAll(tempDir)
		}
		return nil, errors.Process("install evaluation shim", err)
	}

	s := &Session{
		cfg:     cfg,
		tempDir: tempDir,
		ownDir:  ownDir,
		enc:     octave.NewEncoder(),
		dec:     octave.NewDecoder(),
		classes: make(map[string]octave.ClassFactory),
	}
	s.enc.ConvertToFloat = cfg.ConvertToFloat
	s.enc.OnedAs = cfg.OnedAs
	s.enc.Resolver = varResolver{s}
	s.dec.Resolver = classResolver{s}

	if err := s.start(path); err != nil {
		if ownDir {
			os.RemoveAll(tempDir)
		}
		return nil, err
	}
	return s, nil
}

func (s *Session) start(path string) error {
	cmd := exec.Command(path, "--norc", "--silent", "--no-gui", "--no-history")
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return errors.Process("open interpreter stdin", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errors.Process("open interpreter stdout", err)
	}
	cmd.Stderr = cmd.Stdout
	if err := cmd.Start(); err != nil {
		return errors.Process("start interpreter", err)
	}

	s.cmd = cmd
	s.stdin = stdin
	s.lines = make(chan string, 64)
	go func() {
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		for scanner.Scan() {
			s.lines <- scanner.Text()
		}
		close(s.lines)
	}()

	Logger().Debug("session started",
		zap.String("executable", path),
		zap.String("temp_dir", s.tempDir),
		zap.Int("pid", cmd.Process.Pid))

	setup := fmt.Sprintf("more off; page_screen_output(0); addpath(%q);", s.tempDir)
	_, err = s.evaluate(context.Background(), setup)
	return err
}

// Close terminates the subprocess and removes session-owned files.
// Safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	fmt.Fprintln(s.stdin, "exit")
	s.stdin.Close()

	done := make(chan error, 1)
	go func() { done <- s.cmd.Wait() }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		s.cmd.Process.Kill()
		<-done
	}

	if s.ownDir {
		os.RemoveAll(s.tempDir)
	}
	Logger().Debug("session closed", zap.String("temp_dir", s.tempDir))
	return nil
}

// RegisterClass associates an interpreter class name with a factory
// producing domain values from decoded class payloads.
func (s *Session) RegisterClass(name string, factory octave.ClassFactory) {
	s.classMu.Lock()
	defer s.classMu.Unlock()
	s.classes[name] = factory
}

// Feval calls the named function with the given arguments and returns
// its outputs: nil for nout 0, the single value for nout 1, and a
// []any for larger nout. Errors raised by the call come back as
// *errors.RemoteError with the interpreter's stack attached.
func (s *Session) Feval(ctx context.Context, name string, nout int, args ...any) (any, error) {
	return s.feval(ctx, name, nout, "", args)
}

// FevalInto is Feval with the first output assigned to a workspace
// variable instead of being returned.
func (s *Session) FevalInto(ctx context.Context, storeAs, name string, nout int, args ...any) error {
	_, err := s.feval(ctx, name, nout, storeAs, args)
	return err
}

func (s *Session) feval(ctx context.Context, name string, nout int, storeAs string, args []any) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.Process("session closed", nil)
	}

	refs := make([]int, 0)
	for i, arg := range args {
		if _, ok := arg.(octave.VarPtr); ok {
			refs = append(refs, i+1)
		}
	}
	req := &octave.Request{
		FuncName:   name,
		FuncArgs:   args,
		Nout:       nout,
		StoreAs:    storeAs,
		RefIndices: refs,
	}

	reqPath := filepath.Join(s.tempDir, "req.mat")
	respPath := filepath.Join(s.tempDir, "resp.mat")
	os.Remove(respPath)
	if err := octave.WriteRequest(reqPath, req, s.enc); err != nil {
		return nil, err
	}

	cmd := fmt.Sprintf("%s(%q, %q);", shimName, reqPath, respPath)
	if _, err := s.evaluate(ctx, cmd); err != nil {
		return nil, err
	}

	resp, err := octave.ReadResponse(respPath, s.dec)
	if err != nil {
		return nil, err
	}
	return flattenOutputs(resp.Result, nout), nil
}

// flattenOutputs reshapes the response cell by arity: nout<=1 yields
// the lone element, larger arities yield a flat []any.
func flattenOutputs(result any, nout int) any {
	cell, ok := result.(*octave.Cell)
	if !ok {
		return result
	}
	if nout <= 1 {
		if cell.Len() == 1 {
			return cell.At(0)
		}
		return result
	}
	out := make([]any, cell.Len())
	copy(out, cell.Items())
	return out
}

// Eval sends raw interpreter commands and returns the printed output.
// A caught interpreter error surfaces as *errors.RemoteError.
func (s *Session) Eval(ctx context.Context, cmds string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", errors.Process("session closed", nil)
	}
	return s.evaluate(ctx, cmds)
}

// Push binds values to workspace variables. Names starting with an
// underscore are reserved.
func (s *Session) Push(ctx context.Context, names []string, values []any) error {
	if len(names) != len(values) {
		return errors.InvalidData(errors.PhaseSession, nil,
			fmt.Sprintf("%d names for %d values", len(names), len(values)))
	}
	for _, name := range names {
		if strings.HasPrefix(name, "_") {
			return errors.InvalidData(errors.PhaseSession, []string{name},
				"workspace names starting with underscore are reserved")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.Process("session closed", nil)
	}

	inPath := filepath.Join(s.tempDir, "in.mat")
	bound, _, err := octave.WriteVars(inPath, values, names, s.enc)
	if err != nil {
		return err
	}
	cmd := fmt.Sprintf("load(\"-v6\", %q%s);", inPath, quoteArgs(bound))
	_, err = s.evaluate(ctx, cmd)
	return err
}

// Pull retrieves workspace variables by name. One name yields the bare
// value; several yield a []any in name order.
func (s *Session) Pull(ctx context.Context, names ...string) (any, error) {
	if len(names) == 0 {
		return nil, errors.InvalidData(errors.PhaseSession, nil, "no names to pull")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pullLocked(ctx, names)
}

// pullLocked is Pull with s.mu already held. The encoder's variable
// resolver uses it mid-evaluation, where taking the lock again would
// self-deadlock.
func (s *Session) pullLocked(ctx context.Context, names []string) (any, error) {
	if s.closed {
		return nil, errors.Process("session closed", nil)
	}

	for _, name := range names {
		out, err := s.evaluate(ctx, fmt.Sprintf("disp(exist(%q))", name))
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(out) == "0" {
			return nil, errors.NotFound(errors.PhaseSession, "workspace variable", name)
		}
	}

	outPath := filepath.Join(s.tempDir, "out.mat")
	os.Remove(outPath)
	cmd := fmt.Sprintf("save(\"-v6\", %q%s);", outPath, quoteArgs(names))
	if _, err := s.evaluate(ctx, cmd); err != nil {
		return nil, err
	}

	vars, err := octave.ReadVars(outPath, names, s.dec)
	if err != nil {
		return nil, err
	}
	if len(names) == 1 {
		return vars[names[0]], nil
	}
	out := make([]any, len(names))
	for i, name := range names {
		out[i] = vars[name]
	}
	return out, nil
}

// GetPointer returns a reference to a workspace variable. Encoding the
// pointer in a later call substitutes the variable itself.
func (s *Session) GetPointer(name string) octave.VarPtr {
	return octave.VarPtr{Name: name, Address: name}
}

// evaluate runs commands wrapped in a try/catch that echoes a marker
// either way, and gathers the printed output up to the marker. Callers
// hold s.mu.
func (s *Session) evaluate(ctx context.Context, cmds string) (string, error) {
	if s.broken {
		return "", errors.Process("session out of sync after interrupted evaluation", nil)
	}
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	Logger().Debug("evaluate", zap.String("cmds", cmds))
	wrapped := fmt.Sprintf("try\n%s\ndisp(char(3))\ncatch\ndisp(lasterr())\ndisp(char(21))\nend\n", cmds)
	if _, err := io.WriteString(s.stdin, wrapped); err != nil {
		return "", errors.Process("write to interpreter", err)
	}

	var out strings.Builder
	for {
		select {
		case line, ok := <-s.lines:
			if !ok {
				err := s.cmd.Wait()
				return "", errors.Process("interpreter exited mid-evaluation", err)
			}
			if idx := strings.Index(line, markerDone); idx >= 0 {
				out.WriteString(line[:idx])
				return strings.TrimRight(out.String(), "\n"), nil
			}
			if idx := strings.Index(line, markerFail); idx >= 0 {
				out.WriteString(line[:idx])
				msg := strings.TrimSpace(out.String())
				if msg == "" {
					msg = "evaluation failed"
				}
				return "", &errors.RemoteError{Message: msg}
			}
			out.WriteString(line)
			out.WriteByte('\n')
		case <-ctx.Done():
			// best-effort interrupt so the subprocess returns to its prompt
			if s.cmd != nil && s.cmd.Process != nil {
				s.cmd.Process.Signal(os.Interrupt)
			}
			s.resync()
			return "", errors.Timeout(fmt.Sprintf("evaluation exceeded deadline: %s", firstLine(cmds)))
		}
	}
}

// resyncWait bounds how long an interrupted evaluation waits for the
// subprocess to flush the pending marker.
var resyncWait = 2 * time.Second

// resync discards output the interrupted command still had queued, up
// to and including its closing marker. Skipping this would leave the
// stale marker for the next evaluation to consume, answering it with
// the previous command's outcome. When the marker never arrives the
// session is marked broken and further evaluations fail instead of
// silently desynchronizing.
func (s *Session) resync() {
	deadline := time.After(resyncWait)
	for {
		select {
		case line, ok := <-s.lines:
			if !ok {
				s.broken = true
				return
			}
			if strings.Contains(line, markerDone) || strings.Contains(line, markerFail) {
				return
			}
		case <-deadline:
			s.broken = true
			return
		}
	}
}

func quoteArgs(names []string) string {
	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, ", %q", name)
	}
	return b.String()
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

// varResolver materializes remote variable references during encoding
// by pulling their current workspace values.
type varResolver struct {
	s *Session
}

func (r varResolver) ResolveVar(address string) (any, error) {
	return r.s.pullLocked(context.Background(), []string{address})
}

// classResolver exposes the session's registered class factories to
// the decoder.
type classResolver struct {
	s *Session
}

func (r classResolver) ResolveClass(name string) (octave.ClassFactory, bool) {
	r.s.classMu.RLock()
	defer r.s.classMu.RUnlock()
	factory, ok := r.s.classes[name]
	return factory, ok
}
