package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/worrylog/internal/pin"
	"github.com/roach88/worrylog/internal/records"
	"github.com/roach88/worrylog/internal/store"
	"github.com/roach88/worrylog/internal/tui"
)

// session is an open journal database for one command.
type session struct {
	opts    *RootOptions
	store   *store.Store
	records *records.Store
}

// openSession opens (creating if needed) the database named by --db.
func openSession(opts *RootOptions, f *OutputFormatter) (*session, error) {
	if opts.Database == "" {
		return nil, f.Fail(ExitCommandError, ErrCodeDatabase, "no database path (use --db or WORRYLOG_DB)", nil)
	}
	if opts.Database != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(opts.Database), 0o700); err != nil {
			return nil, f.Fail(ExitCommandError, ErrCodeDatabase, "failed to create database directory", err)
		}
	}

	opts.Logger().Debug("opening database", "path", opts.Database)
	st, err := store.Open(opts.Database)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeDatabase, "failed to open database", err)
	}

	return &session{
		opts:    opts,
		store:   st,
		records: records.New(st, records.WithLogger(opts.Logger())),
	}, nil
}

func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		s.opts.Logger().Error("error closing database", "error", err)
	}
}

// unlock passes the PIN gate. With --pin the PIN is entered directly; when
// no PIN is configured yet it is entered twice, which sets it. Without
// --pin the lock screen is shown on a terminal.
func (s *session) unlock(ctx context.Context, cmd *cobra.Command, f *OutputFormatter) (*pin.Gate, error) {
	gate, err := pin.NewGate(ctx, s.records)
	if err != nil {
		return nil, f.Fail(ExitFailure, ErrCodeStorage, "failed to read PIN", err)
	}

	switch {
	case s.opts.PIN != "":
		err = enterPIN(ctx, gate, s.opts.PIN)
	case s.opts.interactive():
		err = tui.RunLock(ctx, gate, s.opts.input(), cmd.OutOrStdout())
	default:
		return nil, f.Fail(ExitCommandError, ErrCodePINRequired, "PIN required: pass --pin or set WORRYLOG_PIN", nil)
	}

	switch {
	case err == nil:
	case errors.Is(err, pin.ErrInvalidPIN):
		return nil, f.Fail(ExitCommandError, ErrCodeInvalidPIN, "PIN must be 4 digits", nil)
	case errors.Is(err, tui.ErrAborted):
		return nil, f.Fail(ExitFailure, ErrCodeLocked, "journal is locked", nil)
	default:
		return nil, f.Fail(ExitFailure, ErrCodeStorage, "failed to unlock", err)
	}

	if !gate.IsOpen() {
		msg := gate.State().Err
		if msg == "" {
			msg = pin.MsgIncorrect
		}
		return nil, f.Fail(ExitFailure, ErrCodeIncorrectPIN, msg, nil)
	}

	s.opts.Logger().Debug("journal unlocked")
	return gate, nil
}

// enterPIN drives the gate with a PIN given up front.
func enterPIN(ctx context.Context, gate *pin.Gate, p string) error {
	if _, err := gate.Enter(ctx, p); err != nil {
		return err
	}
	if gate.State().Stage == pin.StageSet2 {
		if _, err := gate.Enter(ctx, p); err != nil {
			return fmt.Errorf("confirm pin: %w", err)
		}
	}
	return nil
}

// openUnlocked opens the database and passes the gate.
func openUnlocked(cmd *cobra.Command, opts *RootOptions, f *OutputFormatter) (*session, error) {
	s, err := openSession(opts, f)
	if err != nil {
		return nil, err
	}
	if _, err := s.unlock(cmd.Context(), cmd, f); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}
