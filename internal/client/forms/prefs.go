package forms

import (
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Bold(true)
	itemStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
)

// Toggle is one boolean option.
type Toggle struct {
	Label string
	On    bool
}

// ToggleForm edits a list of boolean options with space and saves with enter.
type ToggleForm struct {
	title     string
	items     []Toggle
	cursor    int
	submitted bool
}

// NewToggleForm builds a toggle list.
func NewToggleForm(title string, items []Toggle) ToggleForm {
	return ToggleForm{title: title, items: append([]Toggle(nil), items...)}
}

func (f ToggleForm) Init() tea.Cmd { return nil }

func (f ToggleForm) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return f, nil
	}
	switch key.String() {
	case "ctrl+c", "esc", "q":
		return f, tea.Quit
	case "up", "k":
		if f.cursor > 0 {
			f.cursor--
		}
	case "down", "j":
		if f.cursor < len(f.items)-1 {
			f.cursor++
		}
	case " ", "x":
		if len(f.items) > 0 {
			f.items[f.cursor].On = !f.items[f.cursor].On
		}
	case "enter":
		f.submitted = true
		return f, tea.Quit
	}
	return f, nil
}

func (f ToggleForm) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(f.title))
	b.WriteString("\n\n")
	for i, item := range f.items {
		mark := "[ ]"
		if item.On {
			mark = "[x]"
		}
		line := fmt.Sprintf("%s %s", mark, item.Label)
		if i == f.cursor {
			b.WriteString(cursorStyle.Render("> " + line))
		} else {
			b.WriteString(itemStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}
	b.WriteString(hintStyle.Render("space: toggle • enter: save • esc: cancel"))
	b.WriteString("\n")
	return b.String()
}

// Items returns the current option values.
func (f ToggleForm) Items() []Toggle {
	return append([]Toggle(nil), f.items...)
}

// RunToggles displays the toggle list and returns the saved values.
func RunToggles(form ToggleForm, in io.Reader, out io.Writer) ([]Toggle, error) {
	final, err := tea.NewProgram(form, tea.WithInput(in), tea.WithOutput(out)).Run()
	if err != nil {
		return nil, fmt.Errorf("run form: %w", err)
	}
	done, ok := final.(ToggleForm)
	if !ok || !done.submitted {
		return nil, ErrCancelled
	}
	return done.Items(), nil
}
