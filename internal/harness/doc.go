// Package harness runs scripted journal sessions against a fresh in-memory
// store and checks the outcome.
//
// A scenario drives the PIN gate with keypad presses and whole-PIN entries,
// then edits the journal through the record store. Journal steps are
// refused until the gate is open, the same rule the CLI enforces.
//
// # Scenario Format
//
//	name: set_pin_then_add
//	description: "First run sets a PIN, then adds an entry"
//	stored_pin: ""            # optional: PIN configured before the run
//	entries: []               # optional: journal entries seeded before the run
//	flow:
//	  - press: ["1", "2", "3", "4", "confirm"]
//	    expect: { stage: set2 }
//	  - enter: "1234"
//	    expect: { stage: open }
//	  - add: { title: "Flight", date: "2026-05-01" }
//	    expect: { entries: 1 }
//	assertions:
//	  - type: final_stage
//	    stage: open
//	  - type: pin_matches
//	    pin: "1234"
//	    matches: true
//
// # Assertion Types
//
//   - final_stage: the gate ends in the given stage
//   - pin_matches: the stored digest does (or does not) match a PIN
//   - entry_count: the journal holds exactly N entries
//   - entry_titles: the stored entry titles, in document order
//   - trace_count: the trace holds exactly N events of an op
//   - persist_count: the PIN digest was written exactly N times
//
// # Determinism
//
// Each run uses an in-memory SQLite store, sequential entry ids
// ("entry-1", "entry-2", ...) and a fixed clock, so the trace of a scenario
// is byte-identical across runs and can be compared with a golden file.
package harness
