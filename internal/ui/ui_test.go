package ui

import (
	"os"
	"strings"
	"testing"
)

func withColor(t *testing.T, on bool) {
	t.Helper()
	prev := noColor
	noColor = !on
	t.Cleanup(func() { noColor = prev })
}

func TestRenderCustomID(t *testing.T) {
	withColor(t, true)

	got := RenderCustomID("INV-007", []int{4, 3})
	if !strings.Contains(got, "\x1b[38;5;74mINV-\x1b[0m") {
		t.Errorf("first segment not coloured: %q", got)
	}
	if !strings.Contains(got, "\x1b[38;5;179m007\x1b[0m") {
		t.Errorf("second segment not coloured: %q", got)
	}

	// Boundaries that do not cover the id fall back to a single colour.
	if got := RenderCustomID("INV-007", []int{2}); got != RenderAccent("INV-007") {
		t.Errorf("mismatched boundaries = %q", got)
	}
}

func TestNoColor(t *testing.T) {
	withColor(t, false)

	for _, got := range []string{
		RenderAccent("x"),
		RenderMuted("x"),
		RenderCommand("x"),
		RenderCustomID("x", []int{1}),
	} {
		if got != "x" {
			t.Errorf("got %q, want plain text", got)
		}
	}
	if RenderVerdict(false) != "invalid" {
		t.Errorf("RenderVerdict(false) = %q", RenderVerdict(false))
	}
}

func TestShouldUseColor(t *testing.T) {
	for _, tc := range []struct {
		name string
		env  map[string]string
		want bool
	}{
		{"NoColorWins", map[string]string{"NO_COLOR": "1", "CLICOLOR_FORCE": "1"}, false},
		{"Forced", map[string]string{"CLICOLOR_FORCE": "1"}, true},
		{"Disabled", map[string]string{"CLICOLOR": "0"}, false},
		{"NotATerminal", map[string]string{}, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			for _, k := range []string{"NO_COLOR", "CLICOLOR_FORCE", "CLICOLOR"} {
				t.Setenv(k, tc.env[k])
			}
			f, err := os.CreateTemp(t.TempDir(), "out")
			if err != nil {
				t.Fatal(err)
			}
			defer f.Close()
			if got := ShouldUseColor(f); got != tc.want {
				t.Errorf("ShouldUseColor = %v, want %v", got, tc.want)
			}
		})
	}
}
