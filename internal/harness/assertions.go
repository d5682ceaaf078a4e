package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/worrylog/internal/pin"
	"github.com/roach88/worrylog/internal/records"
)

// AssertionError is returned when an assertion fails.
// It includes the trace to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s -> %s", ev.Seq, ev.Op, ev.Input, ev.Stage)
			if ev.Failure != "" {
				fmt.Fprintf(&buf, " (%s)", ev.Failure)
			}
			buf.WriteString("\n")
		}
	}

	return buf.String()
}

// AssertionContext gives assertions access to the end state.
type AssertionContext struct {
	Ctx     context.Context
	Records *records.Store
	Gate    *pin.Gate
}

func assertFinalStage(trace []TraceEvent, gate *pin.Gate, a Assertion) error {
	got := string(gate.State().Stage)
	if got == a.Stage {
		return nil
	}
	return &AssertionError{
		Type:     AssertFinalStage,
		Expected: fmt.Sprintf("stage %q", a.Stage),
		Actual:   fmt.Sprintf("stage %q", got),
		Trace:    trace,
	}
}

func assertPINMatches(ctx context.Context, trace []TraceEvent, rs *records.Store, a Assertion) error {
	ok, err := pin.Verify(ctx, rs, a.PIN)
	if err != nil {
		return err
	}
	if ok == a.Matches {
		return nil
	}
	return &AssertionError{
		Type:     AssertPINMatches,
		Expected: fmt.Sprintf("stored PIN matches=%t", a.Matches),
		Actual:   fmt.Sprintf("matches=%t", ok),
		Trace:    trace,
	}
}

func assertEntryCount(ctx context.Context, trace []TraceEvent, rs *records.Store, a Assertion) error {
	got := len(rs.Load(ctx).Entries)
	if got == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertEntryCount,
		Expected: fmt.Sprintf("%d entries", a.Count),
		Actual:   fmt.Sprintf("%d entries", got),
		Trace:    trace,
	}
}

func assertEntryTitles(ctx context.Context, trace []TraceEvent, rs *records.Store, a Assertion) error {
	entries := rs.Load(ctx).Entries
	got := make([]string, len(entries))
	for i, e := range entries {
		got[i] = e.Title
	}
	if slices.Equal(got, a.Titles) {
		return nil
	}
	return &AssertionError{
		Type:     AssertEntryTitles,
		Expected: fmt.Sprintf("%q", a.Titles),
		Actual:   fmt.Sprintf("%q", got),
		Trace:    trace,
	}
}

func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if ev.Op == a.Op {
			count++
		}
	}
	if count == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceCount,
		Expected: fmt.Sprintf("%s appears %d times", a.Op, a.Count),
		Actual:   fmt.Sprintf("%s appears %d times", a.Op, count),
		Trace:    trace,
	}
}

func assertPersistCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if ev.Persisted {
			count++
		}
	}
	if count == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertPersistCount,
		Expected: fmt.Sprintf("PIN persisted %d times", a.Count),
		Actual:   fmt.Sprintf("PIN persisted %d times", count),
		Trace:    trace,
	}
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// State assertions need actx; trace assertions only need the result.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	needsState := func(i int, typ string) error {
		if actx == nil || actx.Records == nil || actx.Gate == nil {
			return fmt.Errorf("assertion[%d]: %s requires store context", i, typ)
		}
		return nil
	}

	for i, a := range assertions {
		var err error

		switch a.Type {
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertPersistCount:
			err = assertPersistCount(result.Trace, a)
		case AssertFinalStage:
			if err = needsState(i, a.Type); err == nil {
				err = assertFinalStage(result.Trace, actx.Gate, a)
			}
		case AssertPINMatches:
			if err = needsState(i, a.Type); err == nil {
				err = assertPINMatches(actx.Ctx, result.Trace, actx.Records, a)
			}
		case AssertEntryCount:
			if err = needsState(i, a.Type); err == nil {
				err = assertEntryCount(actx.Ctx, result.Trace, actx.Records, a)
			}
		case AssertEntryTitles:
			if err = needsState(i, a.Type); err == nil {
				err = assertEntryTitles(actx.Ctx, result.Trace, actx.Records, a)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
