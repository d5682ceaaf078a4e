package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/roach88/worrylog/internal/pin"
	"github.com/roach88/worrylog/internal/tui"
)

// PINOptions holds flags for the pin subcommands.
type PINOptions struct {
	*RootOptions
	New string
}

// PINStatus is the output of pin status.
type PINStatus struct {
	Configured bool `json:"configured"`
}

// NewPINCommand creates the pin command group.
func NewPINCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pin",
		Short: "Manage the journal PIN",
		Long: `Manage the 4-digit PIN that protects the journal.

Only a SHA-256 digest of the PIN is stored. A forgotten PIN cannot be
recovered; "worrylog wipe --yes" deletes the journal and the PIN.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newPINStatusCommand(rootOpts))
	cmd.AddCommand(newPINSetCommand(rootOpts))
	cmd.AddCommand(newPINChangeCommand(rootOpts))

	return cmd
}

func newPINStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "status",
		Short:         "Report whether a PIN is configured",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)

			s, err := openSession(rootOpts, f)
			if err != nil {
				return err
			}
			defer s.Close()

			_, ok, err := s.records.PINDigest(cmd.Context())
			if err != nil {
				return f.Fail(ExitFailure, ErrCodeStorage, "failed to read PIN", err)
			}

			if f.Format == "json" {
				return f.Success(PINStatus{Configured: ok})
			}
			if ok {
				return f.Success("PIN is set.")
			}
			return f.Success("No PIN set.")
		},
	}
}

func newPINSetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PINOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set the first PIN",
		Long: `Set the journal PIN when none is configured.

With --new the PIN is stored directly. Otherwise the lock screen asks for
it twice.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPINSet(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.New, "new", "", "new 4-digit PIN")

	return cmd
}

func runPINSet(opts *PINOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	s, err := openSession(opts.RootOptions, f)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	gate, err := pin.NewGate(ctx, s.records)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeStorage, "failed to read PIN", err)
	}
	if gate.HasPIN() {
		return f.Fail(ExitFailure, ErrCodePINExists, "a PIN is already set; use pin change", nil)
	}

	switch {
	case opts.New != "":
		err = pin.Change(ctx, s.records, "", opts.New)
	case opts.interactive():
		err = tui.RunLock(ctx, gate, opts.input(), cmd.OutOrStdout())
	default:
		return f.Fail(ExitCommandError, ErrCodePINRequired, "PIN required: pass --new", nil)
	}

	switch {
	case err == nil:
	case errors.Is(err, pin.ErrInvalidPIN):
		return f.Fail(ExitCommandError, ErrCodeInvalidPIN, "PIN must be 4 digits", nil)
	case errors.Is(err, tui.ErrAborted):
		return f.Fail(ExitFailure, ErrCodeLocked, "PIN was not set", nil)
	default:
		return f.Fail(ExitFailure, ErrCodeStorage, "failed to set PIN", err)
	}

	opts.Logger().Info("pin set")
	if f.Format == "json" {
		return f.Success(PINStatus{Configured: true})
	}
	return f.Success("PIN set.")
}

func newPINChangeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PINOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "change",
		Short: "Change the PIN",
		Long: `Replace the PIN. The current PIN is taken from --pin (or
WORRYLOG_PIN) and must match.

Example:
  worrylog pin change --pin 1234 --new 5678`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPINChange(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.New, "new", "", "new 4-digit PIN")
	_ = cmd.MarkFlagRequired("new")

	return cmd
}

func runPINChange(opts *PINOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	s, err := openSession(opts.RootOptions, f)
	if err != nil {
		return err
	}
	defer s.Close()

	err = pin.Change(cmd.Context(), s.records, opts.PIN, opts.New)
	switch {
	case err == nil:
	case errors.Is(err, pin.ErrIncorrectPIN):
		return f.Fail(ExitFailure, ErrCodeIncorrectPIN, "Current PIN is incorrect.", nil)
	case errors.Is(err, pin.ErrInvalidPIN):
		return f.Fail(ExitCommandError, ErrCodeInvalidPIN, "New PIN must be 4 digits.", nil)
	default:
		return f.Fail(ExitFailure, ErrCodeStorage, "failed to change PIN", err)
	}

	opts.Logger().Info("pin changed")
	if f.Format == "json" {
		return f.Success(PINStatus{Configured: true})
	}
	return f.Success("PIN updated.")
}
