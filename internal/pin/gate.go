// Package pin implements the PIN gate that guards the journal.
//
// The gate is a small state machine. With a stored digest it starts in
// StageUnlock and opens when the entered PIN matches. Without one it starts
// in StageSet1, asks for the PIN twice (StageSet2) and opens after storing
// the digest of a matching pair.
//
// Step is a pure transition function over an explicit State; Gate wraps it
// with persistence.
package pin

import (
	"github.com/roach88/worrylog/internal/digest"
)

// Length is the number of digits in a PIN.
const Length = 4

// Stage is the gate's position in the state machine.
type Stage string

const (
	StageUnset  Stage = "unset"  // not started; Step starts it
	StageSet1   Stage = "set1"   // choosing a new PIN
	StageSet2   Stage = "set2"   // confirming the new PIN
	StageUnlock Stage = "unlock" // entering the existing PIN
	StageOpen   Stage = "open"   // terminal: access granted
)

// Messages shown after a failed confirm.
const (
	MsgIncorrect = "Incorrect PIN. Try again."
	MsgMismatch  = "PINs do not match. Start over."
)

// State is the complete gate state. The zero value is StageUnset.
type State struct {
	Stage     Stage  `json:"stage" yaml:"stage"`
	Buffer    string `json:"buffer" yaml:"buffer"`
	FirstHash string `json:"-" yaml:"-"`
	Err       string `json:"error,omitempty" yaml:"error,omitempty"`
}

// CanConfirm reports whether a confirm event would be acted on.
func (s State) CanConfirm() bool {
	return s.Stage != StageOpen && len(s.Buffer) == Length
}

// EventKind identifies a key press on the gate's keypad.
type EventKind int

const (
	EventDigit EventKind = iota + 1
	EventDelete
	EventClear
	EventConfirm
)

// Event is one keypad input. Digit is only meaningful for EventDigit.
type Event struct {
	Kind  EventKind
	Digit rune
}

// Digit returns the event for pressing digit key r.
func Digit(r rune) Event { return Event{Kind: EventDigit, Digit: r} }

var (
	Delete  = Event{Kind: EventDelete}
	Clear   = Event{Kind: EventClear}
	Confirm = Event{Kind: EventConfirm}
)

// Effect tells the caller what a transition requires beyond the new state.
type Effect struct {
	// Persist, when non-empty, is a digest that must be stored as the PIN.
	Persist string
	// Opened is true on the transition into StageOpen.
	Opened bool
}

// Start returns the entry state for a gate whose stored digest is stored
// ("" when no PIN is configured). The buffer and error are always empty.
func Start(stored string) State {
	if stored != "" {
		return State{Stage: StageUnlock}
	}
	return State{Stage: StageSet1}
}

// Step applies ev to s. stored is the persisted digest ("" if none).
// Step does not mutate its inputs.
func Step(s State, ev Event, stored string) (State, Effect) {
	if s.Stage == StageUnset || s.Stage == "" {
		s = Start(stored)
	}
	if s.Stage == StageOpen {
		return s, Effect{}
	}

	switch ev.Kind {
	case EventDigit:
		if ev.Digit >= '0' && ev.Digit <= '9' && len(s.Buffer) < Length {
			s.Buffer += string(ev.Digit)
		}
		return s, Effect{}

	case EventDelete:
		if n := len(s.Buffer); n > 0 {
			s.Buffer = s.Buffer[:n-1]
		}
		return s, Effect{}

	case EventClear:
		s.Buffer = ""
		s.Err = ""
		return s, Effect{}

	case EventConfirm:
		if !s.CanConfirm() {
			return s, Effect{}
		}
		return confirm(s, stored)
	}

	return s, Effect{}
}

func confirm(s State, stored string) (State, Effect) {
	entered := digest.Sum(s.Buffer)
	s.Buffer = ""

	switch s.Stage {
	case StageUnlock:
		if stored != "" && digest.Equal(entered, stored) {
			return State{Stage: StageOpen}, Effect{Opened: true}
		}
		s.Err = MsgIncorrect
		return s, Effect{}

	case StageSet1:
		s.FirstHash = entered
		s.Stage = StageSet2
		s.Err = ""
		return s, Effect{}

	case StageSet2:
		if !digest.Equal(entered, s.FirstHash) {
			return State{Stage: StageSet1, Err: MsgMismatch}, Effect{}
		}
		return State{Stage: StageOpen}, Effect{Persist: entered, Opened: true}
	}

	return s, Effect{}
}

// Valid reports whether p is exactly Length ASCII digits.
func Valid(p string) bool {
	if len(p) != Length {
		return false
	}
	for i := 0; i < len(p); i++ {
		if p[i] < '0' || p[i] > '9' {
			return false
		}
	}
	return true
}
