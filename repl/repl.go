// Package repl is an interactive prompt that evaluates template snippets
// against the Lua state of a site.
package repl

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"
)

// Evaluator runs template source. *engine.Session implements it.
type Evaluator interface {
	EvalTemplate(src string) string
	GlobalNames() []string
}

const (
	evalPrompt    = "asg> "
	maxCandidates = 8
	defaultWidth  = 80
)

func helpMessage() string {
	return `
Commands:

  :help     Print this help
  :globals  List global names
  :quit     Exit

Usage:
  Type an expression to print its value: 1 + 1, posts
  Lines containing {{ }} or {% %} are evaluated as templates:
    {% x = 3 %}{{ x * 2 }}
  Press Tab to cycle through completions of global names
  Use Up/Down arrows for history navigation
  Press Ctrl+C on empty line or Ctrl+D to exit
`
}

// Styles.
var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	inputStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
)

// model is the Bubble Tea model for the REPL.
type model struct {
	ev    Evaluator
	diag  *bytes.Buffer // diagnostics written by the evaluator, may be nil
	input textinput.Model
	names []string

	history []string
	histIdx int

	matches   fuzzy.Matches
	suggIdx   int
	tabActive bool
	wordStart int
	preTab    string // input before tab-cycling began
	preCursor int

	width    int
	quitting bool
}

// Run starts the REPL. Diagnostics the evaluator writes to diag are shown
// after the result of each line.
func Run(ctx context.Context, ev Evaluator, diag *bytes.Buffer) error {
	p := tea.NewProgram(newModel(ev, diag), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}

	return err
}

func newModel(ev Evaluator, diag *bytes.Buffer) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(evalPrompt)
	ti.Focus()
	ti.CharLimit = 4096
	ti.Width = defaultWidth

	return model{
		ev:    ev,
		diag:  diag,
		input: ti,
		names: ev.GlobalNames(),
		width: defaultWidth,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tea.Println(hintStyle.Render("Type :help for help.")))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - len(evalPrompt) - 2

		return m, nil
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteString("\n")

	switch {
	case strings.TrimSpace(m.input.Value()) == "":
		b.WriteString(hintStyle.Render("Type an expression, a template, or :help"))
	case len(m.matches) > 0:
		b.WriteString(renderCandidates(m.matches, m.suggIdx, m.tabActive, m.width))
	}
	b.WriteString("\n")

	return b.String()
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")
		m.tabActive = false
		m.matches = nil

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyEnter:
		return m.executeInput()

	case tea.KeyTab:
		return m.handleTab(), nil

	case tea.KeyUp:
		return m.historyMove(-1), nil

	case tea.KeyDown:
		return m.historyMove(1), nil
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)
	m.tabActive = false
	m.refreshMatches()

	return m, cmd
}

func (m model) executeInput() (model, tea.Cmd) {
	line := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")
	m.tabActive = false
	m.matches = nil

	if line == "" {
		return m, nil
	}

	m.history = append(m.history, line)
	m.histIdx = len(m.history)

	out, quit := m.evaluate(line)
	echo := promptStyle.Render(evalPrompt) + inputStyle.Render(line)

	if quit {
		m.quitting = true

		return m, tea.Sequence(tea.Println(echo), tea.Quit)
	}

	return m, tea.Println(echo + "\n" + out)
}

// evaluate runs one line and returns the text to print.
func (m *model) evaluate(line string) (out string, quit bool) {
	switch line {
	case ":quit", ":q", ":exit":
		return "", true
	case ":help":
		return hintStyle.Render(helpMessage()), false
	case ":globals":
		return strings.Join(m.names, " "), false
	}

	src := line
	if !strings.Contains(line, "{{") && !strings.Contains(line, "{%") {
		src = "{{ " + line + " }}"
	}

	result := resultStyle.Render(m.ev.EvalTemplate(src))
	// evaluation can define new globals
	m.names = m.ev.GlobalNames()

	if m.diag != nil && m.diag.Len() > 0 {
		result += "\n" + errorStyle.Render(strings.TrimRight(m.diag.String(), "\n"))
		m.diag.Reset()
	}

	return result, false
}

func (m model) historyMove(delta int) model {
	if len(m.history) == 0 {
		return m
	}

	m.histIdx += delta
	switch {
	case m.histIdx < 0:
		m.histIdx = 0
	case m.histIdx >= len(m.history):
		m.histIdx = len(m.history)
		m.input.SetValue("")

		return m
	}

	m.input.SetValue(m.history[m.histIdx])
	m.input.CursorEnd()

	return m
}
