// Package ui renders CLI output with optional ANSI colour.
package ui

import (
	"fmt"
	"strings"

	"github.com/alfredjeanlab/invtrack/internal/idformat"
)

// ANSI256 colour codes.
const (
	colorAccent = 74  // blue
	colorCmd    = 250 // light gray
	colorMuted  = 245 // medium gray
	colorOK     = 108 // green
	colorFail   = 167 // red
)

// segmentColors cycle over the parts of a custom id.
var segmentColors = []int{74, 179, 108, 139, 173}

var noColor bool

func paint(code int, s string) string {
	if noColor || s == "" {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// RenderAccent returns s in the accent colour.
func RenderAccent(s string) string { return paint(colorAccent, s) }

// RenderMuted returns s in the muted colour.
func RenderMuted(s string) string { return paint(colorMuted, s) }

// RenderCommand returns s styled as a command name.
func RenderCommand(s string) string { return paint(colorCmd, s) }

// RenderVerdict renders a validation outcome.
func RenderVerdict(ok bool) string {
	if ok {
		return paint(colorOK, "valid")
	}
	return paint(colorFail, "invalid")
}

// RenderCustomID colours each segment's part of id in turn. When the
// boundaries do not cover id it is rendered in the accent colour.
func RenderCustomID(id string, boundaries []int) string {
	if noColor || len(boundaries) == 0 {
		return RenderAccent(id)
	}
	parts, err := idformat.Split(id, boundaries)
	if err != nil {
		return RenderAccent(id)
	}
	var b strings.Builder
	for i, p := range parts {
		b.WriteString(paint(segmentColors[i%len(segmentColors)], p))
	}
	return b.String()
}

// ForceNoColor disables colour output globally.
func ForceNoColor() {
	noColor = true
}
