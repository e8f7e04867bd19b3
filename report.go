package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	faintStyle = lipgloss.NewStyle().Faint(true)
)

// report collects one command's styled summary.
type report struct {
	b strings.Builder
}

func (r *report) title(format string, args ...interface{}) {
	r.b.WriteString(titleStyle.Render(fmt.Sprintf(format, args...)))
	r.b.WriteString("\n")
}

func (r *report) field(name string, value string) {
	r.b.WriteString(headerStyle.Render(name + ": "))
	r.b.WriteString(valueStyle.Render(value))
	r.b.WriteString("\n")
}

func (r *report) section(format string, args ...interface{}) {
	r.b.WriteString("\n")
	r.b.WriteString(headerStyle.Render(fmt.Sprintf(format, args...)))
	r.b.WriteString("\n")
}

func (r *report) item(name string, detail string) {
	r.b.WriteString("  • ")
	r.b.WriteString(name)

	if detail != "" {
		r.b.WriteString(faintStyle.Render(" " + detail))
	}

	r.b.WriteString("\n")
}

func (r *report) failure(name string, err error) {
	r.b.WriteString("  • ")
	r.b.WriteString(name)
	r.b.WriteString(" ")
	r.b.WriteString(failStyle.Render(err.Error()))
	r.b.WriteString("\n")
}

func (r *report) writeTo(out io.Writer) error {
	_, err := io.WriteString(out, r.b.String())
	return err
}
