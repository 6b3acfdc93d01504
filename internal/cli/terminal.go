package cli

import (
	"io"
	"log/slog"

	"golang.org/x/term"
)

// TerminalDetector defines the interface for terminal detection
type TerminalDetector interface {
	IsTerminal(fd int) bool
}

// DefaultTerminalDetector is the default implementation using golang.org/x/term
type DefaultTerminalDetector struct{}

// IsTerminal implements TerminalDetector interface
func (d *DefaultTerminalDetector) IsTerminal(fd int) bool {
	isTerminal := term.IsTerminal(fd)
	slog.Debug("terminal detection result", "fd", fd, "is_terminal", isTerminal)
	return isTerminal
}

// fdWriter is satisfied by *os.File
type fdWriter interface {
	Fd() uintptr
}

// isInteractiveTerminal reports whether w is a terminal. Writers without a
// file descriptor never are.
func (c *CLI) isInteractiveTerminal(w io.Writer) bool {
	f, ok := w.(fdWriter)
	if !ok {
		return false
	}
	if c.terminalDetector == nil {
		c.terminalDetector = &DefaultTerminalDetector{}
	}
	return c.terminalDetector.IsTerminal(int(f.Fd()))
}
