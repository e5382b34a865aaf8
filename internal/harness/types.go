package harness

// TraceEvent records one executed step.
type TraceEvent struct {
	Step       int    `json:"step"`
	Op         string `json:"op"`
	Alias      string `json:"as,omitempty"`
	DocumentID uint64 `json:"document_id,omitempty"`
	Hash       string `json:"hash,omitempty"`
	Parent     string `json:"parent,omitempty"`
	Certifier  string `json:"certifier,omitempty"`
	Depth      int    `json:"depth,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every step behaved as expected and every assertion
	// held.
	Pass bool `json:"pass"`

	// Trace contains the executed steps in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a trace event.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
