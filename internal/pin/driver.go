package pin

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/worrylog/internal/digest"
)

var (
	// ErrInvalidPIN is returned for a PIN that is not exactly four digits.
	ErrInvalidPIN = errors.New("pin: PIN must be 4 digits")

	// ErrIncorrectPIN is returned when a PIN does not match the stored digest.
	ErrIncorrectPIN = errors.New("pin: incorrect PIN")
)

// DigestStore persists the PIN digest.
type DigestStore interface {
	PINDigest(ctx context.Context) (string, bool, error)
	SetPINDigest(ctx context.Context, digest string) error
}

// Gate runs the state machine against a DigestStore.
// A Gate is used by one caller at a time.
type Gate struct {
	store  DigestStore
	stored string
	state  State
}

// NewGate reads the stored digest and starts the gate.
func NewGate(ctx context.Context, store DigestStore) (*Gate, error) {
	stored, _, err := store.PINDigest(ctx)
	if err != nil {
		return nil, fmt.Errorf("start gate: %w", err)
	}
	return &Gate{store: store, stored: stored, state: Start(stored)}, nil
}

// State returns the current state.
func (g *Gate) State() State { return g.state }

// IsOpen reports whether the gate has been passed.
func (g *Gate) IsOpen() bool { return g.state.Stage == StageOpen }

// HasPIN reports whether a PIN was configured when the gate started or has
// been set through it since.
func (g *Gate) HasPIN() bool { return g.stored != "" }

// Press applies one keypad event. When the transition sets a new PIN the
// digest is written before the state advances; if that write fails the
// state is left as it was and the error returned.
func (g *Gate) Press(ctx context.Context, ev Event) (State, error) {
	next, eff := Step(g.state, ev, g.stored)
	if eff.Persist != "" {
		if err := g.store.SetPINDigest(ctx, eff.Persist); err != nil {
			return g.state, fmt.Errorf("set pin: %w", err)
		}
		g.stored = eff.Persist
	}
	g.state = next
	return g.state, nil
}

// Enter types a whole PIN and confirms it, starting from an empty buffer.
// The returned state tells whether the gate opened, advanced to the
// confirmation stage, or reported an error.
func (g *Gate) Enter(ctx context.Context, p string) (State, error) {
	if !Valid(p) {
		return g.state, ErrInvalidPIN
	}
	g.state.Buffer = ""
	for _, r := range p {
		if _, err := g.Press(ctx, Digit(r)); err != nil {
			return g.state, err
		}
	}
	return g.Press(ctx, Confirm)
}

// Verify reports whether p matches the stored PIN.
// It returns false when no PIN is configured.
func Verify(ctx context.Context, store DigestStore, p string) (bool, error) {
	stored, ok, err := store.PINDigest(ctx)
	if err != nil {
		return false, fmt.Errorf("verify pin: %w", err)
	}
	if !ok {
		return false, nil
	}
	return digest.Matches(p, stored), nil
}

// Change replaces the PIN. next must be four digits. When a PIN is
// already configured, current must match it.
func Change(ctx context.Context, store DigestStore, current, next string) error {
	if !Valid(next) {
		return ErrInvalidPIN
	}

	_, has, err := store.PINDigest(ctx)
	if err != nil {
		return fmt.Errorf("change pin: %w", err)
	}
	if has {
		ok, err := Verify(ctx, store, current)
		if err != nil {
			return fmt.Errorf("change pin: %w", err)
		}
		if !ok {
			return ErrIncorrectPIN
		}
	}

	if err := store.SetPINDigest(ctx, digest.Sum(next)); err != nil {
		return fmt.Errorf("change pin: %w", err)
	}
	return nil
}
