package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/blink1073/octmat/mat"
	"github.com/blink1073/octmat/octave"
	"github.com/blink1073/octmat/session"
)

func main() {
	var (
		matFile     = flag.String("file", "", "MAT file to inspect")
		evalCmds    = flag.String("eval", "", "Octave commands to run in a one-shot session")
		executable  = flag.String("exec", "", "Interpreter executable (default octave-cli)")
		timeout     = flag.Duration("timeout", 0, "Per-evaluation timeout")
		interactive = flag.Bool("i", false, "Interactive session with TUI")
	)
	flag.Parse()

	if *matFile == "" && *evalCmds == "" && !*interactive {
		fmt.Fprintln(os.Stderr, "Usage: octmat -file <data.mat>          inspect a MAT file")
		fmt.Fprintln(os.Stderr, "       octmat -eval '<commands>'       run commands and exit")
		fmt.Fprintln(os.Stderr, "       octmat -i                       interactive session")
		os.Exit(1)
	}

	cfg := session.DefaultConfig()
	if *executable != "" {
		cfg.Executable = *executable
	}
	cfg.Timeout = *timeout

	switch {
	case *matFile != "":
		if err := inspect(*matFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case *interactive:
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	default:
		if err := evalOnce(cfg, *evalCmds, *timeout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
}

var (
	nameStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#98FB98"))
	classStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

// inspect dumps the variables of a MAT file: container metadata from
// the raw arrays, plus the Go value each one decodes to.
func inspect(path string) error {
	vars, err := mat.ReadFile(path)
	if err != nil {
		return err
	}

	fmt.Printf("File: %s\n", path)
	fmt.Printf("Variables: %d\n\n", len(vars))

	dec := octave.NewDecoder()
	for _, v := range vars {
		dims := make([]string, len(v.Value.Dims))
		for i, d := range v.Value.Dims {
			dims[i] = fmt.Sprintf("%d", d)
		}
		fmt.Printf("%s  %s %s\n",
			nameStyle.Render(v.Name),
			classStyle.Render(v.Value.Class.String()),
			dimStyle.Render(strings.Join(dims, "x")))

		value, err := dec.Decode(v.Value)
		if err != nil {
			fmt.Printf("  <%v>\n", err)
			continue
		}
		fmt.Printf("  %v\n", preview(value))
	}
	return nil
}

// preview keeps single-line value renderings short enough for a listing.
func preview(value any) string {
	s := fmt.Sprintf("%v", value)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx] + " ..."
	}
	if len(s) > 120 {
		s = s[:117] + "..."
	}
	return s
}

func evalOnce(cfg session.Config, cmds string, timeout time.Duration) error {
	s, err := session.New(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	out, err := s.Eval(ctx, cmds)
	if err != nil {
		return err
	}
	if out != "" {
		fmt.Println(out)
	}
	return nil
}
