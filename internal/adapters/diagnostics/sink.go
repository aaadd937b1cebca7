// Package diagnostics provides the diagnostic sink that reports resolver warnings.
package diagnostics

import (
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/lipgloss"
)

// warningColor is ANSI yellow.
const warningColor = lipgloss.Color("3")

// Sink records warning lines in order and echoes each one, styled in yellow,
// to its writer. Colour is dropped automatically when the writer is not a terminal.
type Sink struct {
	out   io.Writer
	style lipgloss.Style
	lines []string
}

// NewSink creates a Sink writing to out. A nil out only records lines.
func NewSink(out io.Writer) *Sink {
	if out == nil {
		out = io.Discard
	}
	renderer := lipgloss.NewRenderer(out)
	return &Sink{
		out:   out,
		style: renderer.NewStyle().Foreground(warningColor),
	}
}

// Warn appends line and writes it to the sink's writer.
func (s *Sink) Warn(line string) {
	s.lines = append(s.lines, line)
	// Best-effort: a failed stderr write has no recovery action.
	_, _ = fmt.Fprintln(s.out, s.style.Render(line))
}

// recorded returns the warnings in the order they were reported.
func (s *Sink) recorded() []string {
	return slices.Clone(s.lines)
}
