package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/roach88/worrylog/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Database string
	PIN      string
	Style    string // Glamour style for show

	// In is read by the lock screen. Defaults to os.Stdin.
	In io.Reader

	// Interactive reports whether the lock screen can be shown.
	// Defaults to checking that stdin and stdout are terminals.
	Interactive func() bool

	logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command, reading defaults from .env and
// the environment.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWithConfig(config.New())
}

// NewRootCommandWithConfig creates the root command with flag defaults
// taken from cfg.
func NewRootCommandWithConfig(cfg *config.Config) *cobra.Command {
	opts := &RootOptions{Style: cfg.Style}

	cmd := &cobra.Command{
		Use:   "worrylog",
		Short: "worrylog - a private anxiety journal",
		Long: `A local, PIN-protected journal for working through worries.

Each entry records the worry, the scenarios you fear with their probability
and a coping plan, possible benefits, evidence for and against, one tiny
action and a reset. Entries are kept in a local SQLite file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				f := &OutputFormatter{Format: "text", Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr()}
				return f.Fail(ExitCommandError, ErrCodeUsage,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats), nil)
			}
			opts.logger = newLogger(cmd.ErrOrStderr(), opts.Verbose)
			slog.SetDefault(opts.logger)
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", cfg.Format, "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", cfg.DBPath, "path to SQLite database")
	cmd.PersistentFlags().StringVar(&opts.PIN, "pin", cfg.PIN, "PIN for non-interactive use (or WORRYLOG_PIN)")

	// Add subcommands
	cmd.AddCommand(NewUnlockCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewEditCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewPINCommand(opts))
	cmd.AddCommand(NewWipeCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// newLogger builds the process logger: text on stderr, debug when verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	})
	return slog.New(handler)
}

// Logger returns the logger configured for this invocation.
func (o *RootOptions) Logger() *slog.Logger {
	if o.logger == nil {
		return slog.Default()
	}
	return o.logger
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

func (o *RootOptions) input() io.Reader {
	if o.In != nil {
		return o.In
	}
	return os.Stdin
}

func (o *RootOptions) interactive() bool {
	if o.Interactive != nil {
		return o.Interactive()
	}
	return terminalCheck()
}

// terminalCheck is replaced in tests so the lock screen never starts.
var terminalCheck = terminalAttached

func terminalAttached() bool {
	in, out := os.Stdin.Fd(), os.Stdout.Fd()
	return (isatty.IsTerminal(in) || isatty.IsCygwinTerminal(in)) &&
		(isatty.IsTerminal(out) || isatty.IsCygwinTerminal(out))
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
