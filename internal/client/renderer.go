package client

import (
	"fmt"
	"hash/fnv"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

const (
	promptText = "> "
	bell       = "\a"
	clearSeq   = "\033[H\033[2J"
)

var userPalette = []lipgloss.Color{
	lipgloss.Color("45"),
	lipgloss.Color("81"),
	lipgloss.Color("141"),
	lipgloss.Color("98"),
	lipgloss.Color("63"),
	lipgloss.Color("135"),
	lipgloss.Color("32"),
}

// Renderer prints chat output to a terminal and keeps the input prompt on the last line.
type Renderer struct {
	out io.Writer
	mu  sync.Mutex

	username lipgloss.Style
	body     lipgloss.Style
	info     lipgloss.Style
	errStyle lipgloss.Style
	question lipgloss.Style
	prompt   lipgloss.Style
}

// NewRenderer builds a renderer writing to out. Colors are dropped when out is not a terminal.
func NewRenderer(out io.Writer) *Renderer {
	lg := lipgloss.NewRenderer(out)
	return &Renderer{
		out:      out,
		username: lg.NewStyle().Bold(true),
		body:     lg.NewStyle().Foreground(lipgloss.Color("253")),
		info:     lg.NewStyle().Foreground(lipgloss.Color("214")).Italic(true),
		errStyle: lg.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		question: lg.NewStyle().Foreground(lipgloss.Color("110")).Bold(true),
		prompt:   lg.NewStyle().Foreground(lipgloss.Color("213")),
	}
}

func (r *Renderer) colorFor(name string) lipgloss.Color {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return userPalette[h.Sum32()%uint32(len(userPalette))]
}

// Message prints a chat line from username.
func (r *Renderer) Message(username, text string) {
	name := r.username.Copy().Foreground(r.colorFor(username)).Render("<" + username + ">")
	r.line(name + " " + r.body.Render(text))
}

// Info prints a server or local notice.
func (r *Renderer) Info(text string) {
	r.line(r.info.Render(text))
}

// Error prints an error line.
func (r *Renderer) Error(text string) {
	r.line(r.errStyle.Render(text))
}

// Ask prints a question in place of the regular prompt.
func (r *Renderer) Ask(question string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprint(r.out, "\r"+r.question.Render(question)+" ")
}

// ResetPrompt redraws the input prompt.
func (r *Renderer) ResetPrompt() {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprint(r.out, r.prompt.Render(promptText))
}

// Bell rings the terminal bell.
func (r *Renderer) Bell() {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprint(r.out, bell)
}

// Clear wipes the screen and redraws the prompt.
func (r *Renderer) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprint(r.out, clearSeq+r.prompt.Render(promptText))
}

// line clears the current prompt, prints s and redraws the prompt below it.
func (r *Renderer) line(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprint(r.out, "\r"+s+"\n"+r.prompt.Render(promptText))
}
