package ui

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// ShouldUseColor reports whether ANSI colours should be written to f.
// NO_COLOR and CLICOLOR=0 disable colour, CLICOLOR_FORCE=1 forces it,
// otherwise colour follows whether f is a terminal.
func ShouldUseColor(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if strings.TrimSpace(os.Getenv("CLICOLOR_FORCE")) == "1" {
		return true
	}
	if strings.TrimSpace(os.Getenv("CLICOLOR")) == "0" {
		return false
	}
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// Setup disables colour unless it should be used on stdout.
func Setup(disable bool) {
	if disable || !ShouldUseColor(os.Stdout) {
		ForceNoColor()
	}
}
