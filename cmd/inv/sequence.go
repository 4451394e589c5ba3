package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var sequenceCmd = &cobra.Command{
	Use:         "sequence",
	Short:       "Inspect sequence counters",
	GroupID:     "ids",
	Annotations: map[string]string{needsStore: ""},
}

var sequenceListCmd = &cobra.Command{
	Use:   "list <inventory-id>",
	Short: "List the last value of every sequence segment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		counters, err := svc.ListSequences(cmd.Context(), actor, args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), counters)
		}
		if len(counters) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No sequence has handed out a value yet.")
			return nil
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "SEGMENT\tLAST VALUE\tUPDATED")
		for _, c := range counters {
			fmt.Fprintf(tw, "%s\t%d\t%s\n", c.SegmentID, c.LastValue, c.UpdatedAt.Format("2006-01-02 15:04:05"))
		}
		return tw.Flush()
	},
}

func init() {
	sequenceCmd.AddCommand(sequenceListCmd)
}
