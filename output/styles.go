// Package output provides styling helpers for terminal output.
package output

import (
	"io"

	"github.com/muesli/termenv"
)

// Styles provides styled output helpers for the CLI and reports. Colors are
// dropped automatically when the writer is not a terminal.
type Styles struct {
	output *termenv.Output
}

// NewStyles creates a new Styles instance for the given writer.
func NewStyles(w io.Writer) *Styles {
	return &Styles{
		output: termenv.NewOutput(w),
	}
}

func (s *Styles) color(text, color string, bold bool) string {
	style := s.output.String(text).Foreground(s.output.Color(color))
	if bold {
		style = style.Bold()
	}
	return style.String()
}

// Success returns a styled success string (green + bold).
func (s *Styles) Success(text string) string { return s.color(text, "2", true) }

// Error returns a styled error string (red + bold).
func (s *Styles) Error(text string) string { return s.color(text, "1", true) }

// Warning returns a styled warning (yellow + bold).
func (s *Styles) Warning(text string) string { return s.color(text, "3", true) }

// FilePath returns a styled file path (cyan).
func (s *Styles) FilePath(text string) string { return s.color(text, "6", false) }

// Asset returns a styled asset identifier (yellow).
func (s *Styles) Asset(text string) string { return s.color(text, "3", false) }

// Amount returns a styled amount (magenta).
func (s *Styles) Amount(text string) string { return s.color(text, "5", false) }

// Taxable marks the taxable part of a spend (red).
func (s *Styles) Taxable(text string) string { return s.color(text, "1", false) }

// TaxFree marks the tax free part of a spend (green).
func (s *Styles) TaxFree(text string) string { return s.color(text, "2", false) }

// Incomplete flags a cost basis the acquisition history could not fully back.
func (s *Styles) Incomplete(text string) string { return s.color(text, "3", true) }

// Keyword returns a styled keyword (bold).
func (s *Styles) Keyword(text string) string {
	return s.output.String(text).Bold().String()
}

// Dim returns dimmed text (for secondary information).
func (s *Styles) Dim(text string) string {
	return s.output.String(text).Faint().String()
}

// Timing returns a timing string, red for slow operations and dimmed otherwise.
func (s *Styles) Timing(text string, isSlowOperation bool) string {
	if isSlowOperation {
		return s.color(text, "1", false)
	}
	return s.Dim(text)
}

// Output returns the underlying termenv Output for advanced usage.
func (s *Styles) Output() *termenv.Output {
	return s.output
}
