package cmd

import (
	"fmt"

	"github.com/signalnine/ultramerge/internal/artifact"
	"github.com/signalnine/ultramerge/internal/batch"
	"github.com/signalnine/ultramerge/internal/config"
	"github.com/signalnine/ultramerge/internal/merge"
	"github.com/spf13/cobra"
)

var (
	flagParallel     int
	flagPattern      string
	flagNoClobber    bool
	flagVerifyInputs bool
)

func newMergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge A B OUT",
		Short: "Merge two summaries, or two directories of summaries",
		Long: "Merge summary A with summary B into OUT. Runs of B are renumbered after the runs of A.\n\n" +
			"When A and B are directories, every file name found in both is merged into the OUT directory " +
			"and names found in only one are copied unchanged.",
		Args: cobra.ExactArgs(3),
		RunE: run(runMerge),
	}
	cmd.Flags().IntVar(&flagParallel, "parallel", 1, "max concurrent merges in directory mode")
	cmd.Flags().StringVar(&flagPattern, "pattern", config.DefaultPattern, "file name pattern in directory mode")
	cmd.Flags().BoolVar(&flagNoClobber, "no-clobber", false, "refuse to replace existing output files")
	cmd.Flags().BoolVar(&flagVerifyInputs, "verify-inputs", false, "reject inputs whose embedded checksum does not match")
	return cmd
}

func runMerge(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyMergeFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return usageError(fmt.Errorf("invalid flags: %w", err))
	}

	a, b, out := args[0], args[1], args[2]
	dirA, err := artifact.IsDir(a)
	if err != nil {
		return err
	}
	dirB, err := artifact.IsDir(b)
	if err != nil {
		return err
	}
	opts := merge.Options{VerifyInputs: cfg.VerifyInputs, NoClobber: cfg.NoClobber}

	switch {
	case dirA && dirB:
		stats, err := batch.Dirs(cmd.Context(), a, b, out, batch.Options{
			Parallel: cfg.Parallel,
			Pattern:  cfg.Pattern,
			Merge:    opts,
			Verbose:  flagVerbose,
		})
		if stats != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "merged %d, copied %d, total %d\n", stats.Merged, stats.Copied, stats.Total)
			if stats.Failed > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "%d of %d files failed\n", stats.Failed, stats.Total)
			}
		}
		return err
	case !dirA && !dirB:
		outDir, err := artifact.IsDir(out)
		if err != nil {
			return err
		}
		if outDir {
			return usageError(fmt.Errorf("output %s is a directory; merging two files needs an output file path", out))
		}
		if err := merge.Files(a, b, out, opts); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Merged file written: %s\n", out)
		return nil
	default:
		return usageError(fmt.Errorf("%s and %s must both be files or both be directories", a, b))
	}
}

func applyMergeFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("parallel") {
		cfg.Parallel = flagParallel
	}
	if cmd.Flags().Changed("pattern") {
		cfg.Pattern = flagPattern
	}
	if cmd.Flags().Changed("no-clobber") {
		cfg.NoClobber = flagNoClobber
	}
	if cmd.Flags().Changed("verify-inputs") {
		cfg.VerifyInputs = flagVerifyInputs
	}
}
