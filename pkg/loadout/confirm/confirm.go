// Package confirm provides the interactive confirmation prompt used
// before destructive operations. It is a pure collaborator: it blocks
// the main flow until answered and touches nothing on disk.
package confirm

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	questionStyle = lipgloss.NewStyle().Bold(true)
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	dangerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// confirmWord is what the user must type to proceed.
const confirmWord = "yes"

// Interactive reports whether stdin is a terminal. Non-interactive
// callers must pass --force instead of being prompted.
func Interactive() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// Prompt asks the user to type "yes" before a destructive operation.
// Any other input, escape, or interrupt declines.
func Prompt(question string) (bool, error) {
	ti := textinput.New()
	ti.Placeholder = confirmWord
	ti.CharLimit = 8
	ti.Width = 12
	ti.Focus()

	m := model{question: question, input: ti}
	final, err := tea.NewProgram(m).Run()
	if err != nil {
		return false, fmt.Errorf("running confirmation prompt: %w", err)
	}

	result, ok := final.(model)
	if !ok {
		return false, nil
	}
	return result.confirmed, nil
}

type model struct {
	question  string
	input     textinput.Model
	confirmed bool
	done      bool
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			m.confirmed = strings.EqualFold(strings.TrimSpace(m.input.Value()), confirmWord)
			m.done = true
			return m, tea.Quit
		case tea.KeyEsc, tea.KeyCtrlC:
			m.confirmed = false
			m.done = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s\n%s %s\n%s\n",
		questionStyle.Render(m.question),
		dangerStyle.Render("»"),
		m.input.View(),
		hintStyle.Render(`type "yes" to continue, esc to abort`),
	)
}
