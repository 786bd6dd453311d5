package cmd

import (
	"fmt"

	"github.com/signalnine/ultramerge/internal/signature"
	"github.com/signalnine/ultramerge/internal/summary"
	"github.com/spf13/cobra"
)

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify FILE...",
		Short: "Check the checksum embedded in summary files",
		Args:  cobra.MinimumNArgs(1),
		RunE: run(func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				data, err := summary.ReadFile(path)
				if err == nil {
					err = signature.Verify(data)
				}
				if err != nil {
					failed++
					fmt.Fprintf(cmd.OutOrStdout(), "FAIL  %s: %v\n", path, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "OK    %s\n", path)
			}
			if failed > 0 {
				return summary.Errorf(summary.ErrFormat, "", "checksum",
					"%d of %d files failed signature verification", failed, len(args))
			}
			return nil
		}),
	}
}
