// Package cliutil provides small terminal-detection helpers shared by the
// deepseeker CLI's output formatting.
package cliutil

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// IsTTY reports whether w is a terminal file descriptor.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// NoColorRequested reports whether the NO_COLOR environment variable is set,
// per the https://no-color.org convention.
func NoColorRequested() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// UseColor reports whether w should receive ANSI color codes: a real
// terminal, with colors not suppressed via NO_COLOR.
func UseColor(w io.Writer) bool {
	return IsTTY(w) && !NoColorRequested()
}
