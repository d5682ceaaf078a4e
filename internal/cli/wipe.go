package cli

import (
	"github.com/spf13/cobra"
)

// WipeOptions holds flags for the wipe command.
type WipeOptions struct {
	*RootOptions
	Yes bool
}

// NewWipeCommand creates the wipe command.
func NewWipeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WipeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Delete all entries and the PIN",
		Long: `Delete the whole journal and the PIN digest from this machine.

This cannot be undone. It does not need the PIN, so it is also the way
to start over after forgetting it. Pass --yes to confirm.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWipe(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Yes, "yes", false, "confirm deletion")

	return cmd
}

func runWipe(opts *WipeOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	if !opts.Yes {
		return f.Fail(ExitCommandError, ErrCodeNotConfirmed, "refusing to wipe without --yes", nil)
	}

	s, err := openSession(opts.RootOptions, f)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.records.Wipe(cmd.Context()); err != nil {
		return f.Fail(ExitFailure, ErrCodeStorage, "wipe failed", err)
	}

	if f.Format == "json" {
		return f.Success(map[string]bool{"wiped": true})
	}
	return f.Success("Local journal data deleted.")
}
