package harness

// Step ops recorded in the trace.
const (
	OpPress  = "press"
	OpEnter  = "enter"
	OpAdd    = "add"
	OpDelete = "delete"
	OpImport = "import"
)

// TraceEvent is the observable outcome of one flow step.
// The PIN buffer is recorded as a digit count so traces never hold PINs.
type TraceEvent struct {
	Seq       int    `json:"seq"`
	Op        string `json:"op"`
	Input     string `json:"input,omitempty"`
	Stage     string `json:"stage"`
	Filled    int    `json:"filled"`
	Error     string `json:"error,omitempty"`
	Persisted bool   `json:"persisted,omitempty"`
	Opened    bool   `json:"opened,omitempty"`
	Entries   int    `json:"entries"`
	Failure   string `json:"failure,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace holds one event per flow step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors lists expectation and assertion failures.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result with an empty trace.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends an event, numbering it from 1.
func (r *Result) AddTrace(ev TraceEvent) {
	ev.Seq = len(r.Trace) + 1
	r.Trace = append(r.Trace, ev)
}
