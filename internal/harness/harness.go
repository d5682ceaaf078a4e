package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/roach88/worrylog/internal/digest"
	"github.com/roach88/worrylog/internal/journal"
	"github.com/roach88/worrylog/internal/pin"
	"github.com/roach88/worrylog/internal/records"
	"github.com/roach88/worrylog/internal/store"
	"github.com/roach88/worrylog/internal/testutil"
)

// errLocked is reported for journal steps taken before the gate opens.
var errLocked = errors.New("journal is locked")

// Harness executes one scenario against its own store.
type Harness struct {
	records *records.Store
	digests *countingDigests
	gate    *pin.Gate
	logger  *slog.Logger
}

// countingDigests counts PIN digest writes so the trace can show which
// step persisted a PIN.
type countingDigests struct {
	*records.Store
	writes int
}

func (c *countingDigests) SetPINDigest(ctx context.Context, d string) error {
	if err := c.Store.SetPINDigest(ctx, d); err != nil {
		return err
	}
	c.writes++
	return nil
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database with sequential entry
// ids and a fixed clock. Expect clauses and assertions that fail are
// collected in Result.Errors; the returned error is reserved for a
// scenario that cannot be set up.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()
	st.SetClock(testutil.NewClock(time.Second).Now)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rs := records.New(st,
		records.WithIDGenerator(testutil.NewSequentialIDs("entry")),
		records.WithLogger(logger),
	)

	ctx := context.Background()
	if err := seed(ctx, rs, scenario); err != nil {
		return nil, fmt.Errorf("failed to seed scenario: %w", err)
	}

	digests := &countingDigests{Store: rs}
	gate, err := pin.NewGate(ctx, digests)
	if err != nil {
		return nil, fmt.Errorf("failed to start gate: %w", err)
	}

	h := &Harness{
		records: rs,
		digests: digests,
		gate:    gate,
		logger:  logger,
	}

	result := NewResult()
	for i, step := range scenario.Flow {
		ev := h.executeStep(ctx, step)
		result.AddTrace(ev)
		for _, msg := range checkExpect(i, ev, step.Expect) {
			result.AddError(msg)
		}
	}

	actx := &AssertionContext{
		Ctx:     ctx,
		Records: rs,
		Gate:    gate,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

func seed(ctx context.Context, rs *records.Store, scenario *Scenario) error {
	if scenario.StoredPIN != "" {
		if err := rs.SetPINDigest(ctx, digest.Sum(scenario.StoredPIN)); err != nil {
			return err
		}
	}
	if len(scenario.Entries) > 0 {
		doc := journal.NewDocument()
		for _, e := range scenario.Entries {
			doc.Entries = append(doc.Entries, journal.Normalize(e))
		}
		if err := doc.Validate(); err != nil {
			return err
		}
		if err := rs.Save(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}

// executeStep performs one step and records what it observably did.
func (h *Harness) executeStep(ctx context.Context, step Step) TraceEvent {
	wasOpen := h.gate.IsOpen()
	writes := h.digests.writes

	ev := TraceEvent{Op: step.Op()}
	var err error

	switch ev.Op {
	case OpPress:
		ev.Input = maskKeys(step.Press)
		for _, key := range step.Press {
			var e pin.Event
			if e, err = parseKey(key); err != nil {
				break
			}
			if _, err = h.gate.Press(ctx, e); err != nil {
				break
			}
		}

	case OpEnter:
		ev.Input = strings.Repeat("*", len(step.Enter))
		_, err = h.gate.Enter(ctx, step.Enter)

	case OpAdd:
		ev.Input = step.Add.Title
		if err = h.requireOpen(); err == nil {
			var stored journal.Entry
			stored, err = h.records.Upsert(ctx, *step.Add)
			ev.Input = stored.ID
		}

	case OpDelete:
		ev.Input = step.Delete
		if err = h.requireOpen(); err == nil {
			err = h.records.Delete(ctx, step.Delete)
		}

	case OpImport:
		ev.Input = fmt.Sprintf("%d bytes", len(step.Import))
		if err = h.requireOpen(); err == nil {
			_, err = h.records.Import(ctx, strings.NewReader(step.Import))
		}
	}

	if err != nil {
		ev.Failure = failureText(err)
		h.logger.Debug("step failed", "op", ev.Op, "error", err)
	}

	s := h.gate.State()
	ev.Stage = string(s.Stage)
	ev.Filled = len(s.Buffer)
	ev.Error = s.Err
	ev.Persisted = h.digests.writes > writes
	ev.Opened = !wasOpen && h.gate.IsOpen()
	ev.Entries = len(h.records.Load(ctx).Entries)
	return ev
}

func (h *Harness) requireOpen() error {
	if !h.gate.IsOpen() {
		return errLocked
	}
	return nil
}

// failureText maps errors to stable trace text.
func failureText(err error) string {
	switch {
	case errors.Is(err, errLocked):
		return "locked"
	case errors.Is(err, pin.ErrInvalidPIN):
		return "invalid pin"
	case errors.Is(err, records.ErrEntryNotFound):
		return "not found"
	case errors.Is(err, records.ErrInvalidImport):
		return "invalid import"
	case errors.Is(err, journal.ErrDuplicateID):
		return "duplicate id"
	}
	return err.Error()
}

// maskKeys hides digits so traces never contain a PIN.
func maskKeys(keys []string) string {
	out := make([]string, len(keys))
	for i, k := range keys {
		if len(k) == 1 && k[0] >= '0' && k[0] <= '9' {
			out[i] = "*"
		} else {
			out[i] = k
		}
	}
	return strings.Join(out, " ")
}

// checkExpect compares a step's outcome with its expect clause.
func checkExpect(index int, ev TraceEvent, exp *Expect) []string {
	if exp == nil {
		if ev.Failure != "" {
			return []string{fmt.Sprintf("flow[%d]: %s failed: %s", index, ev.Op, ev.Failure)}
		}
		return nil
	}

	var errs []string
	if exp.Fails && ev.Failure == "" {
		errs = append(errs, fmt.Sprintf("flow[%d]: expected %s to fail", index, ev.Op))
	}
	if !exp.Fails && ev.Failure != "" {
		errs = append(errs, fmt.Sprintf("flow[%d]: %s failed: %s", index, ev.Op, ev.Failure))
	}
	if exp.Stage != "" && exp.Stage != ev.Stage {
		errs = append(errs, fmt.Sprintf("flow[%d]: expected stage %q, got %q", index, exp.Stage, ev.Stage))
	}
	if exp.Filled != nil && *exp.Filled != ev.Filled {
		errs = append(errs, fmt.Sprintf("flow[%d]: expected %d digits, got %d", index, *exp.Filled, ev.Filled))
	}
	if exp.Error != nil && *exp.Error != ev.Error {
		errs = append(errs, fmt.Sprintf("flow[%d]: expected error %q, got %q", index, *exp.Error, ev.Error))
	}
	if exp.Entries != nil && *exp.Entries != ev.Entries {
		errs = append(errs, fmt.Sprintf("flow[%d]: expected %d entries, got %d", index, *exp.Entries, ev.Entries))
	}
	return errs
}
