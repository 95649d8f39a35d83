package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/blink1073/octmat/errors"
	"github.com/blink1073/octmat/session"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	outputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const historyLimit = 20

type entry struct {
	cmd    string
	output string
	err    error
}

type interactiveModel struct {
	cfg     session.Config
	sess    *session.Session
	input   textinput.Model
	history []entry
	err     error
	busy    bool
}

func newInteractiveModel(cfg session.Config) *interactiveModel {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render("octave> ")
	ti.Placeholder = "x = magic(4)"
	ti.Width = 72
	ti.Focus()
	return &interactiveModel{cfg: cfg, input: ti}
}

type startedMsg struct {
	sess *session.Session
	err  error
}

type evalDoneMsg struct {
	cmd    string
	output string
	err    error
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.startSession
}

func (m *interactiveModel) startSession() tea.Msg {
	sess, err := session.New(m.cfg)
	return startedMsg{sess: sess, err: err}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "ctrl+d":
			if m.sess != nil {
				m.sess.Close()
			}
			return m, tea.Quit

		case "esc":
			m.input.Reset()
			return m, nil

		case "enter":
			cmd := strings.TrimSpace(m.input.Value())
			if cmd == "" || m.busy || m.sess == nil {
				return m, nil
			}
			m.input.Reset()
			m.busy = true
			return m, m.evalCmd(cmd)
		}

	case startedMsg:
		m.sess = msg.sess
		m.err = msg.err
		return m, nil

	case evalDoneMsg:
		m.busy = false
		m.history = append(m.history, entry{cmd: msg.cmd, output: msg.output, err: msg.err})
		if len(m.history) > historyLimit {
			m.history = m.history[len(m.history)-historyLimit:]
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *interactiveModel) evalCmd(cmd string) tea.Cmd {
	sess := m.sess
	return func() tea.Msg {
		out, err := sess.Eval(context.Background(), cmd)
		return evalDoneMsg{cmd: cmd, output: out, err: err}
	}
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("octmat"))
	b.WriteString(" ")
	b.WriteString(helpStyle.Render(m.cfg.Executable))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("ctrl+c quit"))
		return b.String()
	}
	if m.sess == nil {
		b.WriteString("Starting session...\n")
		return b.String()
	}

	for _, e := range m.history {
		b.WriteString(promptStyle.Render("octave> "))
		b.WriteString(e.cmd)
		b.WriteString("\n")
		if e.err != nil {
			if remote, ok := e.err.(*errors.RemoteError); ok {
				b.WriteString(errorStyle.Render(remote.Message))
			} else {
				b.WriteString(errorStyle.Render(e.err.Error()))
			}
			b.WriteString("\n")
		} else if e.output != "" {
			b.WriteString(outputStyle.Render(e.output))
			b.WriteString("\n")
		}
	}

	if m.busy {
		b.WriteString(helpStyle.Render("evaluating..."))
		b.WriteString("\n")
	} else {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter evaluate • esc clear • ctrl+c quit"))
	return b.String()
}

func runInteractive(cfg session.Config) error {
	p := tea.NewProgram(newInteractiveModel(cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
