package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/napi-host/host"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateSelectFunc modelState = iota
	stateInputArgs
	stateShowResult
)

// interactiveModel browses an addon's exported functions and calls them
// with arguments typed in by the user. Calls and loop drains happen on
// the command goroutine, one at a time.
type interactiveModel struct {
	err       error
	session   *session
	exports   host.Value
	specifier string
	summary   string
	result    string
	funcs     []string
	input     textinput.Model
	selected  int
	state     modelState
}

type callResultMsg struct {
	err    error
	result string
}

func newInteractiveModel(s *session, specifier string, exports host.Value) *interactiveModel {
	return &interactiveModel{
		session:   s,
		exports:   exports,
		specifier: specifier,
		summary:   formatValue(exports),
		funcs:     functions(exports),
		state:     stateSelectFunc,
	}
}

func (m *interactiveModel) Init() tea.Cmd { return nil }

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.state != stateInputArgs {
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateSelectFunc && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectFunc && m.selected < len(m.funcs)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectFunc:
				if len(m.funcs) == 0 {
					return m, nil
				}
				m.prepareInput()
				m.state = stateInputArgs
				return m, textinput.Blink

			case stateInputArgs:
				return m, m.callFunction

			case stateShowResult:
				m.state = stateSelectFunc
				m.result = ""
				m.err = nil
			}
			return m, nil

		case "esc":
			switch m.state {
			case stateInputArgs, stateShowResult:
				m.state = stateSelectFunc
				m.result = ""
				m.err = nil
			}
			return m, nil
		}

	case callResultMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = stateShowResult
		return m, nil
	}

	if m.state == stateInputArgs {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *interactiveModel) prepareInput() {
	ti := textinput.New()
	ti.Placeholder = `1, "two", true`
	ti.Prompt = "args: "
	ti.Width = 60
	ti.Focus()
	m.input = ti
}

func (m *interactiveModel) callFunction() tea.Msg {
	name := m.funcs[m.selected]
	fn, ok := lookupFunction(m.exports, name)
	if !ok {
		return callResultMsg{err: fmt.Errorf("%s is not a function", name)}
	}

	v, err := fn.Call(m.exports, parseArgs(m.input.Value())...)
	if err != nil {
		return callResultMsg{err: err}
	}
	if err := m.session.drain(context.Background()); err != nil {
		return callResultMsg{err: err}
	}
	return callResultMsg{result: formatValue(v)}
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("napihost"))
	b.WriteString(" ")
	b.WriteString(m.specifier)
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectFunc:
		b.WriteString(valueStyle.Render(m.summary))
		b.WriteString("\n\n")
		if len(m.funcs) == 0 {
			b.WriteString("The addon exports no functions.\n\n")
			b.WriteString(helpStyle.Render("q quit"))
			break
		}
		b.WriteString("Select a function to call:\n\n")
		for i, f := range m.funcs {
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + f))
			} else {
				b.WriteString("  " + funcStyle.Render(f))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter call • q quit"))

	case stateInputArgs:
		fmt.Fprintf(&b, "Calling %s\n\n", funcStyle.Render(m.funcs[m.selected]))
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("comma separated • enter call • esc back"))

	case stateShowResult:
		fmt.Fprintf(&b, "Result of %s:\n\n", funcStyle.Render(m.funcs[m.selected]))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func runInteractive(s *session, specifier string, exports host.Value) error {
	p := tea.NewProgram(newInteractiveModel(s, specifier, exports), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
