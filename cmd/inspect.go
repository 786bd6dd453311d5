package cmd

import (
	"github.com/signalnine/ultramerge/internal/report"
	"github.com/spf13/cobra"
)

var flagFormat string

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect PATH...",
		Short: "Print the statistics of summary files",
		Long:  "Parse and validate summary files, or every matching file under a directory, and print one row per summary.",
		Args:  cobra.MinimumNArgs(1),
		RunE: run(func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			rows, err := report.Collect(args, cfg.Pattern)
			if err != nil {
				return err
			}
			return report.Generate(rows, flagFormat, cmd.OutOrStdout())
		}),
	}
	cmd.Flags().StringVar(&flagFormat, "format", "table", "output format (table, markdown, json)")
	return cmd
}
