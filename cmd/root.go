package cmd

import (
	"errors"

	"github.com/signalnine/ultramerge/internal/config"
	"github.com/signalnine/ultramerge/internal/summary"
	"github.com/spf13/cobra"
)

// Process exit codes.
const (
	ExitOK         = 0
	ExitUsage      = 1
	ExitInvalid    = 2
	ExitUnexpected = 3
)

var (
	cfgFile     string
	flagVerbose bool
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ultramerge",
		Short:         "Merge and sign evolutionary-run summary files",
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log every processed file")
	root.AddCommand(newMergeCmd())
	root.AddCommand(newVerifyCmd())
	root.AddCommand(newInspectCmd())
	return root
}

// failure marks errors raised while running a command, as opposed to
// command-line parsing errors reported by cobra.
type failure struct {
	err   error
	usage bool
}

func (f *failure) Error() string { return f.err.Error() }
func (f *failure) Unwrap() error { return f.err }

func usageError(err error) error {
	return &failure{err: err, usage: true}
}

// run adapts a command body so that its errors can be told apart from
// cobra's own.
func run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		err := fn(cmd, args)
		if err == nil {
			return nil
		}
		var f *failure
		if errors.As(err, &f) {
			return err
		}
		return &failure{err: err}
	}
}

// ExitCode maps an error returned by Execute to the process exit code:
// 1 for usage errors, 2 for invalid inputs or I/O failures, 3 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var f *failure
	if !errors.As(err, &f) || f.usage {
		return ExitUsage
	}
	var se *summary.Error
	if errors.As(err, &se) {
		return ExitInvalid
	}
	return ExitUnexpected
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	explicit := false
	if f := cmd.Flag("config"); f != nil {
		explicit = f.Changed
	}
	cfg, err := config.LoadOptional(cfgFile, explicit)
	if err != nil {
		return nil, usageError(err)
	}
	return cfg, nil
}
