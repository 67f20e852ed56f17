package logger

import "github.com/mattn/go-isatty"

// isTerminal reports whether fd is attached to a terminal.
func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
