package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/worrylog/internal/journal"
	"github.com/roach88/worrylog/internal/pin"
)

// Scenario is a scripted journal session.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario checks.
	Description string `yaml:"description"`

	// StoredPIN, when set, is configured before the run starts.
	StoredPIN string `yaml:"stored_pin,omitempty"`

	// Entries are saved as the journal document before the run starts.
	Entries []journal.Entry `yaml:"entries,omitempty"`

	// Flow is executed in order. Each step performs exactly one op.
	Flow []Step `yaml:"flow"`

	// Assertions are evaluated after the flow.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one flow step. Exactly one of Press, Enter, Add, Delete or Import
// is set.
type Step struct {
	// Press lists keypad keys: "0" to "9", "delete", "clear", "confirm".
	Press []string `yaml:"press,omitempty"`

	// Enter types a whole PIN and confirms it.
	Enter string `yaml:"enter,omitempty"`

	// Add upserts an entry. An entry without an id gets the next
	// sequential id.
	Add *journal.Entry `yaml:"add,omitempty"`

	// Delete removes the entry with this id.
	Delete string `yaml:"delete,omitempty"`

	// Import replaces the journal with this JSON payload.
	Import string `yaml:"import,omitempty"`

	// Expect is checked against the state after the step.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Op names the operation a step performs.
func (s Step) Op() string {
	switch {
	case len(s.Press) > 0:
		return OpPress
	case s.Enter != "":
		return OpEnter
	case s.Add != nil:
		return OpAdd
	case s.Delete != "":
		return OpDelete
	case s.Import != "":
		return OpImport
	}
	return ""
}

func (s Step) opCount() int {
	n := 0
	for _, set := range []bool{len(s.Press) > 0, s.Enter != "", s.Add != nil, s.Delete != "", s.Import != ""} {
		if set {
			n++
		}
	}
	return n
}

// Expect describes the state after a step. Unset fields are not checked.
type Expect struct {
	Stage   string  `yaml:"stage,omitempty"`
	Filled  *int    `yaml:"filled,omitempty"`
	Error   *string `yaml:"error,omitempty"`
	Entries *int    `yaml:"entries,omitempty"`

	// Fails expects the step's operation to return an error.
	Fails bool `yaml:"fails,omitempty"`
}

// Assertion types.
const (
	AssertFinalStage   = "final_stage"
	AssertPINMatches   = "pin_matches"
	AssertEntryCount   = "entry_count"
	AssertEntryTitles  = "entry_titles"
	AssertTraceCount   = "trace_count"
	AssertPersistCount = "persist_count"
)

// Assertion validates the end state or the trace.
type Assertion struct {
	Type string `yaml:"type"`

	// Stage is used by final_stage.
	Stage string `yaml:"stage,omitempty"`

	// PIN and Matches are used by pin_matches.
	PIN     string `yaml:"pin,omitempty"`
	Matches bool   `yaml:"matches,omitempty"`

	// Count is used by entry_count, trace_count and persist_count.
	Count int `yaml:"count,omitempty"`

	// Op is used by trace_count.
	Op string `yaml:"op,omitempty"`

	// Titles is used by entry_titles.
	Titles []string `yaml:"titles,omitempty"`
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates scenario YAML. Unknown fields are
// rejected to catch typos.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.StoredPIN != "" && !pin.Valid(s.StoredPIN) {
		return fmt.Errorf("stored_pin must be %d digits", pin.Length)
	}

	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Flow {
		if n := step.opCount(); n != 1 {
			return fmt.Errorf("flow[%d]: exactly one of press, enter, add, delete, import is required (got %d)", i, n)
		}
		for j, key := range step.Press {
			if _, err := parseKey(key); err != nil {
				return fmt.Errorf("flow[%d].press[%d]: %w", i, j, err)
			}
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertFinalStage:
		if a.Stage == "" {
			return fmt.Errorf("assertions[%d]: stage is required for final_stage", index)
		}
	case AssertPINMatches:
		if a.PIN == "" {
			return fmt.Errorf("assertions[%d]: pin is required for pin_matches", index)
		}
	case AssertEntryCount, AssertPersistCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertEntryTitles:
		if a.Titles == nil {
			return fmt.Errorf("assertions[%d]: titles is required for entry_titles", index)
		}
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

// parseKey maps a keypad key name to a gate event.
func parseKey(key string) (pin.Event, error) {
	switch key {
	case "delete":
		return pin.Delete, nil
	case "clear":
		return pin.Clear, nil
	case "confirm":
		return pin.Confirm, nil
	}
	if len(key) == 1 && key[0] >= '0' && key[0] <= '9' {
		return pin.Digit(rune(key[0])), nil
	}
	return pin.Event{}, fmt.Errorf("unknown key %q", key)
}
