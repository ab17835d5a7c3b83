// Package forms holds the interactive terminal forms used by the CLI.
package forms

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrCancelled is returned when the user leaves a form with esc or ctrl+c.
var ErrCancelled = errors.New("form cancelled")

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213")).Padding(0, 1)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("110"))
	hintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).MarginTop(1)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// Field describes one text input.
type Field struct {
	Label       string
	Placeholder string
	Secret      bool
	Value       string
}

// Form is a vertical list of text inputs submitted with enter on the last field.
type Form struct {
	title    string
	labels   []string
	inputs   []textinput.Model
	focus    int
	validate func([]string) error

	err       string
	submitted bool
	cancelled bool
}

// NewForm builds a form with the first field focused. validate may be nil.
func NewForm(title string, fields []Field, validate func([]string) error) Form {
	f := Form{title: title, validate: validate}
	for i, field := range fields {
		in := textinput.New()
		in.Placeholder = field.Placeholder
		in.Prompt = "> "
		in.SetValue(field.Value)
		if field.Secret {
			in.EchoMode = textinput.EchoPassword
			in.EchoCharacter = '•'
		}
		if i == 0 {
			in.Focus()
		}
		f.labels = append(f.labels, field.Label)
		f.inputs = append(f.inputs, in)
	}
	return f
}

func (f Form) Init() tea.Cmd {
	return textinput.Blink
}

func (f Form) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return f.updateInput(msg)
	}

	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		f.cancelled = true
		return f, tea.Quit
	case tea.KeyTab, tea.KeyDown:
		return f.moveFocus(1), nil
	case tea.KeyShiftTab, tea.KeyUp:
		return f.moveFocus(-1), nil
	case tea.KeyEnter:
		if f.focus < len(f.inputs)-1 {
			return f.moveFocus(1), nil
		}
		if f.validate != nil {
			if err := f.validate(f.Values()); err != nil {
				f.err = err.Error()
				return f, nil
			}
		}
		f.submitted = true
		return f, tea.Quit
	}
	return f.updateInput(msg)
}

func (f Form) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if len(f.inputs) == 0 {
		return f, nil
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd
}

func (f Form) moveFocus(delta int) Form {
	if len(f.inputs) == 0 {
		return f
	}
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + delta + len(f.inputs)) % len(f.inputs)
	f.inputs[f.focus].Focus()
	return f
}

func (f Form) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(f.title))
	b.WriteString("\n\n")
	for i, in := range f.inputs {
		b.WriteString(labelStyle.Render(f.labels[i]))
		b.WriteString("\n")
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	if f.err != "" {
		b.WriteString(errorStyle.Render(f.err))
		b.WriteString("\n")
	}
	b.WriteString(hintStyle.Render("tab: next field • enter: submit • esc: cancel"))
	b.WriteString("\n")
	return b.String()
}

// Values returns the trimmed field values in declaration order.
func (f Form) Values() []string {
	out := make([]string, len(f.inputs))
	for i, in := range f.inputs {
		out[i] = strings.TrimSpace(in.Value())
	}
	return out
}

// Submitted reports whether the form ended with a successful submit.
func (f Form) Submitted() bool {
	return f.submitted
}

// Cancelled reports whether the user left the form without submitting.
func (f Form) Cancelled() bool {
	return f.cancelled
}

// Run displays the form on the terminal and returns its values.
func Run(form Form, in io.Reader, out io.Writer) ([]string, error) {
	final, err := tea.NewProgram(form, tea.WithInput(in), tea.WithOutput(out)).Run()
	if err != nil {
		return nil, fmt.Errorf("run form: %w", err)
	}
	done, ok := final.(Form)
	if !ok || !done.submitted {
		return nil, ErrCancelled
	}
	return done.Values(), nil
}
