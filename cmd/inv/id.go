package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/invtrack/internal/idformat"
	"github.com/alfredjeanlab/invtrack/internal/ui"
)

var idCmd = &cobra.Command{
	Use:         "id",
	Short:       "Preview and validate custom ids",
	GroupID:     "ids",
	Annotations: map[string]string{needsStore: ""},
}

var idPreviewCmd = &cobra.Command{
	Use:   "preview <inventory-id>",
	Short: "Show the id the next item would receive",
	Long: `Show the id the next item would receive, rendered against the current
sequence counters. No counter moves, and concurrent writers may claim the
previewed value first.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := svc.PreviewID(cmd.Context(), actor, args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"id":         res.ID,
				"boundaries": idformat.FormatBoundaries(res.Boundaries),
			})
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderCustomID(res.ID, res.Boundaries))
		return nil
	},
}

var idValidateCmd = &cobra.Command{
	Use:   "validate <inventory-id> <id>",
	Short: "Check an id against an inventory's current format",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ok, err := svc.ValidateID(cmd.Context(), actor, args[0], args[1])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]any{"id": args[1], "valid": ok})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", args[1], ui.RenderVerdict(ok))
		if !ok {
			return errInvalidID
		}
		return nil
	},
}

func init() {
	idCmd.AddCommand(idPreviewCmd, idValidateCmd)
}
