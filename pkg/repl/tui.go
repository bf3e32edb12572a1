package repl

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mwantia/bowl/pkg/value"
	"github.com/mwantia/bowl/pkg/vm"
)

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tea.SetWindowTitle("bowl"))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit

		case tea.KeyEnter:
			return m.handleEnter()

		case tea.KeyUp:
			return m.navigateHistory(-1), nil

		case tea.KeyDown:
			return m.navigateHistory(1), nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	src := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")
	if src == "" {
		return m, nil
	}

	m.history = append(m.history, src)
	m.histPos = len(m.history)
	m.output = append(m.output, line{kind: outputEcho, text: "> " + src})

	if src == "quit" || src == "exit" {
		m.quitting = true
		return m, tea.Quit
	}

	m.evaluate(src)
	return m, nil
}

// evaluate tokenizes and executes one line against the console's own frame,
// appending a transcript line describing the outcome: the value now on top
// of the datastack, or the raised exception's message.
func (m *Model) evaluate(src string) {
	program, exc := Tokenize(m.vm, src)
	if exc != vm.NullRef {
		m.output = append(m.output, line{kind: outputError, text: value.Show(m.vm, exc)})
		return
	}

	if exc := vm.Execute(m.vm, m.f, program); exc != vm.NullRef {
		m.output = append(m.output, line{kind: outputError, text: value.Show(m.vm, exc)})
		return
	}

	top, exc := vm.Peek(m.vm, m.f.Datastack, "console")
	if exc != vm.NullRef {
		m.output = append(m.output, line{kind: outputInfo, text: "(stack empty)"})
		return
	}
	m.output = append(m.output, line{kind: outputResult, text: value.Show(m.vm, top)})
}

func (m Model) navigateHistory(dir int) Model {
	if len(m.history) == 0 {
		return m
	}
	pos := m.histPos + dir
	if pos < 0 {
		pos = 0
	}
	if pos > len(m.history) {
		pos = len(m.history)
	}
	m.histPos = pos
	if pos == len(m.history) {
		m.input.SetValue("")
	} else {
		m.input.SetValue(m.history[pos])
	}
	m.input.CursorEnd()
	return m
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	start := 0
	if max := m.height - 4; max > 0 && len(m.output) > max {
		start = len(m.output) - max
	}
	for _, l := range m.output[start:] {
		switch l.kind {
		case outputEcho:
			b.WriteString(historyCommandStyle.Render(l.text))
		case outputResult:
			b.WriteString(resultStyle.Render(l.text))
		case outputError:
			b.WriteString(errorStyle.Render(l.text))
		default:
			b.WriteString(infoStyle.Render(l.text))
		}
		b.WriteByte('\n')
	}

	b.WriteString(promptStyle.Render(m.input.View()))
	b.WriteByte('\n')
	b.WriteString(m.renderStatusBar())
	return b.String()
}

func (m Model) renderStatusBar() string {
	depth := 0
	for cur := m.f.Datastack.Ref; cur != vm.NullRef; cur = value.ListTail(m.vm, cur) {
		depth++
	}
	status := fmt.Sprintf(" stack:%d  dict:%d  heap:%d/%d ",
		depth, value.MapLength(m.vm, m.vm.Dictionary()), m.vm.HeapOccupied(), m.vm.HeapCapacity())
	if w := lipgloss.Width(status); m.width > w {
		status += strings.Repeat(" ", m.width-w)
	}
	return statusBarStyle.Render(status)
}
