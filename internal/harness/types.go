package harness

import "github.com/roach88/fleetdesk/internal/driver"

// TraceEvent records one executed step.
type TraceEvent struct {
	Seq     int     `json:"seq"`
	Op      string  `json:"op"`
	ID      int64   `json:"id,omitempty"`
	Outcome string  `json:"outcome"`
	IDs     []int64 `json:"ids"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every step outcome and assertion matched.
	Pass bool `json:"pass"`

	// Trace contains one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Drivers is the final canonical list.
	Drivers []driver.Driver `json:"-"`

	// Keys are the storage keys present after the last step.
	Keys []string `json:"keys"`
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

// AddTrace appends a step event.
func (r *Result) AddTrace(op string, id int64, outcome string, list []driver.Driver) {
	ids := make([]int64, len(list))
	for i, d := range list {
		ids[i] = d.ID
	}
	r.Trace = append(r.Trace, TraceEvent{
		Seq:     len(r.Trace) + 1,
		Op:      op,
		ID:      id,
		Outcome: outcome,
		IDs:     ids,
	})
}
