package main

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/invtrack/internal/ui"
)

// helpRule restyles every match of re in cobra's help text.
type helpRule struct {
	re    *regexp.Regexp
	apply func(groups []string) string
}

var helpRules = []helpRule{
	// Section headers such as "Custom ids:" or "Flags:".
	{
		re:    regexp.MustCompile(`(?m)^([A-Z][^\n]*:)\s*$`),
		apply: func(g []string) string { return ui.RenderAccent(strings.TrimSpace(g[0])) },
	},
	// Command names in the command list.
	{
		re:    regexp.MustCompile(`(?m)^(  )(\S+)(  )`),
		apply: func(g []string) string { return g[1] + ui.RenderCommand(g[2]) + g[3] },
	},
	// Flag value types.
	{
		re:    regexp.MustCompile(`(--?\S+\s+)(string|int|int64|duration|stringSlice|stringArray)\b`),
		apply: func(g []string) string { return g[1] + ui.RenderMuted(g[2]) },
	},
	{
		re:    regexp.MustCompile(`\(default [^)]*\)`),
		apply: func(g []string) string { return ui.RenderMuted(g[0]) },
	},
}

// colorizedHelpFunc renders cobra's usage text through helpRules when
// colour is enabled.
func colorizedHelpFunc() func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if noColor || !ui.ShouldUseColor(os.Stdout) {
			_ = cmd.Usage()
			return
		}
		var buf bytes.Buffer
		cmd.SetOut(&buf)
		_ = cmd.Usage()
		cmd.SetOut(out)
		fmt.Fprint(out, colorizeHelp(buf.String()))
	}
}

func colorizeHelp(s string) string {
	for _, r := range helpRules {
		s = r.re.ReplaceAllStringFunc(s, func(match string) string {
			return r.apply(r.re.FindStringSubmatch(match))
		})
	}
	return s
}
