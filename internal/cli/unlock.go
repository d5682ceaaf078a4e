package cli

import (
	"github.com/spf13/cobra"
)

// NewUnlockCommand creates the unlock command.
func NewUnlockCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unlock",
		Short: "Unlock the journal (sets a PIN on first run)",
		Long: `Run the PIN gate and report whether it opened.

On a terminal this shows the lock screen. With --pin (or WORRYLOG_PIN)
the PIN is checked directly; if no PIN is configured yet, that PIN
becomes the journal PIN.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUnlock(rootOpts, cmd)
		},
	}
	return cmd
}

func runUnlock(opts *RootOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	s, err := openUnlocked(cmd, opts, f)
	if err != nil {
		return err
	}
	defer s.Close()

	if f.Format == "json" {
		return f.Success(map[string]bool{"unlocked": true})
	}
	return f.Success("Journal unlocked.")
}
