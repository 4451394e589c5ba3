package main

import (
	"bufio"
	"os"

	"github.com/spf13/cobra"

	invsync "github.com/alfredjeanlab/invtrack/internal/sync"
)

var exportCmd = &cobra.Command{
	Use:         "export",
	Short:       "Write every inventory and item as JSONL",
	GroupID:     "system",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{needsStore: ""},
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("output")

		out := cmd.OutOrStdout()
		if path != "" && path != "-" {
			f, err := os.Create(path)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}

		w := bufio.NewWriter(out)
		if err := invsync.ExportJSONL(cmd.Context(), st, w); err != nil {
			return err
		}
		return w.Flush()
	},
}

func init() {
	exportCmd.Flags().StringP("output", "o", "-", "output file (- for stdout)")
}
