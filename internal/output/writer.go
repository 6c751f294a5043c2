// Package output provides consistent CLI output formatting, with color
// gated on whether the destination is a real terminal.
package output

import (
	"fmt"
	"io"

	"github.com/deepseeker/deepseeker/internal/cliutil"
)

// Writer formats status lines for CLI commands.
type Writer struct {
	out      io.Writer
	useColor bool
}

// New creates a Writer, auto-detecting color support from out.
func New(out io.Writer) *Writer {
	return &Writer{out: out, useColor: cliutil.UseColor(out)}
}

// Status prints a status message with an icon.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "  %s\n", msg)
	}
}

// Statusf prints a formatted status message with an icon.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

func (w *Writer) color(code, s string) string {
	if !w.useColor {
		return s
	}
	return "\033[" + code + "m" + s + "\033[0m"
}

// Success prints a green checkmark status line.
func (w *Writer) Success(msg string) {
	w.Status(w.color("32", "✓"), msg)
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a yellow warning status line.
func (w *Writer) Warning(msg string) {
	w.Status(w.color("33", "!"), msg)
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints a red error status line.
func (w *Writer) Error(msg string) {
	w.Status(w.color("31", "✗"), msg)
}

// Errorf prints a formatted error message.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}
